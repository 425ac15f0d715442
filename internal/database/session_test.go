package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a scratch postgres database in PATIENCE_TEST_DATABASE_URL.
func testStore(t *testing.T) *SessionStore {
	t.Helper()
	url := os.Getenv("PATIENCE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PATIENCE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return NewSessionStore(pool)
}

func record(t *testing.T, player uuid.UUID, status models.SessionStatus) models.SessionRecord {
	t.Helper()
	g := game.NewGame(game.NewDeck())
	_, err := g.Deal()
	require.NoError(t, err)
	return models.SessionRecord{ID: uuid.New(), PlayerID: player, Status: status, History: g.End()}
}

func TestArchiveBatchAndCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	player := uuid.New()

	recs := []models.SessionRecord{
		record(t, player, models.StatusWon),
		record(t, player, models.StatusAbandoned),
	}
	require.NoError(t, s.ArchiveBatch(ctx, recs))

	// Re-archiving replaces instead of duplicating.
	recs[1].Status = models.StatusLost
	require.NoError(t, s.Archive(ctx, recs[1]))

	counts, err := s.CountByStatus(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, map[models.SessionStatus]int{models.StatusWon: 1, models.StatusLost: 1}, counts)
}

func TestArchiveRejectsMissingHistory(t *testing.T) {
	s := testStore(t)
	err := s.Archive(context.Background(), models.SessionRecord{ID: uuid.New()})
	assert.ErrorContains(t, err, "no history")
}

func TestConnectBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "://nope")
	assert.Error(t, err)
}
