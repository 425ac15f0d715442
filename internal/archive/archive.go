// Package archive combines the session archive backends.
package archive

import (
	"context"
	"errors"

	"github.com/jason-s-yu/patience/internal/models"
	"github.com/jason-s-yu/patience/internal/session"
)

// Multi hands every record to each archiver in order. All archivers are tried even
// when one fails; the failures are joined.
type Multi []session.Archiver

func (m Multi) Archive(ctx context.Context, rec models.SessionRecord) error {
	var errs []error
	for _, a := range m {
		if err := a.Archive(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
