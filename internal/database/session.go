// internal/database/session.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/patience/internal/models"
)

// SessionStore writes archived sessions to postgres.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Archive implements session.Archiver with a single-record batch.
func (s *SessionStore) Archive(ctx context.Context, rec models.SessionRecord) error {
	return s.ArchiveBatch(ctx, []models.SessionRecord{rec})
}

// ArchiveBatch stores every record and its events in one transaction. A record whose
// id already exists replaces the previous one.
func (s *SessionStore) ArchiveBatch(ctx context.Context, recs []models.SessionRecord) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertSessionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("session %s: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx archive sessions: %w", err)
	}
	return nil
}

func insertSessionTx(ctx context.Context, tx pgx.Tx, rec models.SessionRecord) error {
	if rec.History == nil {
		return fmt.Errorf("no history")
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return err
	}
	var endTime any
	if end, ok := rec.History.EndDate(); ok {
		endTime = end
	}

	upsertSession := `
		INSERT INTO sessions (id, player_id, status, start_time, end_time, history)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET player_id = $2, status = $3, start_time = $4, end_time = $5, history = $6
	`
	if _, err := tx.Exec(ctx, upsertSession,
		rec.ID, rec.PlayerID, string(rec.Status), rec.History.StartDate(), endTime, history,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM session_events WHERE session_id = $1`, rec.ID); err != nil {
		return err
	}
	insertEvent := `
		INSERT INTO session_events (session_id, event_index, event_type, payload)
		VALUES ($1, $2, $3, $4)
	`
	for i, ev := range rec.History.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertEvent, rec.ID, i, string(ev.Type), payload); err != nil {
			return err
		}
	}
	return nil
}

// CountByStatus returns how many sessions of playerID ended with each status.
func (s *SessionStore) CountByStatus(ctx context.Context, playerID uuid.UUID) (map[models.SessionStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM sessions WHERE player_id = $1 GROUP BY status`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SessionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.SessionStatus(status)] = n
	}
	return counts, rows.Err()
}
