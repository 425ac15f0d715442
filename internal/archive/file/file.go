// Package file archives sessions into a single JSON document keyed by session id.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/models"
)

// Archive writes {"<session id>": <history>, ...} to path. The file is rewritten on
// every archived session through a temp file and rename.
type Archive struct {
	mu   sync.Mutex
	path string
}

// New returns an archive backed by path. The file is created on first use.
func New(path string) *Archive {
	return &Archive{path: path}
}

// Archive adds the history of rec under rec.ID.
func (a *Archive) Archive(ctx context.Context, rec models.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.History == nil {
		return fmt.Errorf("session %s has no history", rec.ID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	histories, err := a.load()
	if err != nil {
		return err
	}
	histories[rec.ID] = rec.History

	data, err := json.Marshal(histories)
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}
	return a.write(data)
}

// Load returns every archived history.
func (a *Archive) Load() (map[uuid.UUID]*game.History, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load()
}

func (a *Archive) load() (map[uuid.UUID]*game.History, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := a.write([]byte("{}")); err != nil {
			return nil, err
		}
		return make(map[uuid.UUID]*game.History), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", a.path, err)
	}

	histories := make(map[uuid.UUID]*game.History)
	if err := json.Unmarshal(data, &histories); err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", a.path, err)
	}
	return histories, nil
}

func (a *Archive) write(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(a.path), filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		return fmt.Errorf("replace archive %s: %w", a.path, err)
	}
	return nil
}
