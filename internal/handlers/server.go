// internal/handlers/server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jason-s-yu/patience/internal/session"
)

// Shutdown stops srv and archives every live session. http.Server.Shutdown does not
// wait for hijacked WebSocket connections, so the games still running on them are
// dropped here before the archive backends go away.
func Shutdown(ctx context.Context, srv *http.Server, store *session.Store) error {
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := store.DropAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("archive live sessions: %w", err))
	}
	return errors.Join(errs...)
}
