// Package sqlite provides a SQLite-backed session archive.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown session.
var ErrNotFound = errors.New("session not found")

var schema = []string{`
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	player_id   TEXT NOT NULL,
	status      TEXT NOT NULL,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER,
	history     TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS session_events (
	session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	event_index INTEGER NOT NULL,
	event_type  TEXT NOT NULL,
	payload     TEXT NOT NULL,
	PRIMARY KEY (session_id, event_index)
)`,
}

// Store persists archived sessions in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens the database at path and creates the tables if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Archive stores rec and one row per event. Archiving the same id twice replaces it.
func (s *Store) Archive(ctx context.Context, rec models.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.History == nil {
		return fmt.Errorf("session %s has no history", rec.ID)
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	var endTime sql.NullInt64
	if end, ok := rec.History.EndDate(); ok {
		endTime = sql.NullInt64{Int64: toMillis(end), Valid: true}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, rec.ID.String()); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, player_id, status, start_time, end_time, history) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.PlayerID.String(), string(rec.Status),
		toMillis(rec.History.StartDate()), endTime, string(history),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, ev := range rec.History.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_events (session_id, event_index, event_type, payload) VALUES (?, ?, ?, ?)`,
			rec.ID.String(), i, string(ev.Type), string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Get loads an archived session.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (models.SessionRecord, error) {
	var playerID, status, history string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT player_id, status, history FROM sessions WHERE id = ?`, id.String(),
	).Scan(&playerID, &status, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("query session: %w", err)
	}

	rec := models.SessionRecord{ID: id, Status: models.SessionStatus(status), History: &game.History{}}
	if rec.PlayerID, err = uuid.Parse(playerID); err != nil {
		return models.SessionRecord{}, fmt.Errorf("parse player id: %w", err)
	}
	if err := json.Unmarshal([]byte(history), rec.History); err != nil {
		return models.SessionRecord{}, fmt.Errorf("parse history: %w", err)
	}
	return rec, nil
}

// CountByStatus returns how many archived sessions of playerID ended with each status.
func (s *Store) CountByStatus(ctx context.Context, playerID uuid.UUID) (map[models.SessionStatus]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM sessions WHERE player_id = ? GROUP BY status`, playerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SessionStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.SessionStatus(status)] = n
	}
	return counts, rows.Err()
}
