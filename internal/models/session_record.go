// internal/models/session_record.go
package models

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/game"
)

// SessionStatus is how a session ended.
type SessionStatus string

const (
	StatusWon       SessionStatus = "won"
	StatusLost      SessionStatus = "lost"
	StatusAbandoned SessionStatus = "abandoned"
)

// StatusFor maps a game result to the archived status. A game dropped before it
// produced a result counts as abandoned.
func StatusFor(result game.Result, ok bool) SessionStatus {
	if !ok {
		return StatusAbandoned
	}
	if result == game.Win {
		return StatusWon
	}
	return StatusLost
}

// SessionRecord is what gets archived once a session ends.
type SessionRecord struct {
	ID       uuid.UUID     `json:"id"`
	PlayerID uuid.UUID     `json:"player_id"`
	Status   SessionStatus `json:"status"`
	History  *game.History `json:"history"`
}
