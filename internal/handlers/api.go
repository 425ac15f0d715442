// internal/handlers/api.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/models"
	"github.com/jason-s-yu/patience/internal/session"
	"github.com/sirupsen/logrus"
)

// PingHandler answers liveness probes.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SessionHandler serves GET /session/{id} with the snapshot of a live session.
func SessionHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}
		ctrl, ok := store.Get(id)
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		snap, err := ctrl.Snapshot()
		if errors.Is(err, session.ErrNoGame) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// StatusCounter reports how a player's archived sessions ended.
type StatusCounter interface {
	CountByStatus(ctx context.Context, playerID uuid.UUID) (map[models.SessionStatus]int, error)
}

// StatsHandler serves GET /player/stats for the player in the auth_token cookie.
func StatsHandler(logger *logrus.Logger, counter StatusCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := EnsurePlayer(w, r)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		counts, err := counter.CountByStatus(r.Context(), playerID)
		if err != nil {
			logger.WithError(err).WithField("player", playerID).Error("failed to count sessions")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"player_id": playerID,
			"won":       counts[models.StatusWon],
			"lost":      counts[models.StatusLost],
			"abandoned": counts[models.StatusAbandoned],
		})
	}
}
