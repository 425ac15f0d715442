// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates a pgx pool for url and pings it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         UUID PRIMARY KEY,
	player_id  UUID NOT NULL,
	status     TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time   TIMESTAMPTZ,
	history    JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS session_events (
	session_id  UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	event_index INT NOT NULL,
	event_type  TEXT NOT NULL,
	payload     JSONB NOT NULL,
	PRIMARY KEY (session_id, event_index)
);
`

// EnsureSchema creates the session tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
