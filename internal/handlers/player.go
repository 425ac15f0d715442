// internal/handlers/player.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/auth"
)

const authCookie = "auth_token"

// EnsurePlayer returns the player id carried by the auth_token cookie. A request
// without a valid token gets a fresh guest id and a cookie for it; this must run
// before anything is written to w.
func EnsurePlayer(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if token := extractCookieToken(r.Header.Get("Cookie"), authCookie); token != "" {
		if sub, err := auth.AuthenticateJWT(token); err == nil {
			if id, err := uuid.Parse(sub); err == nil {
				return id, nil
			}
		}
	}

	id := uuid.New()
	token, err := auth.CreateJWT(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create guest JWT: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return id, nil
}
