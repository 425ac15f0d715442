package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockArchiver collects records instead of persisting them.
type mockArchiver struct {
	mu      sync.Mutex
	records []models.SessionRecord
	err     error
}

func (m *mockArchiver) Archive(_ context.Context, rec models.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func kingsDeck() game.Deck {
	return game.NewDeckFrom(
		game.NewCard(game.Diamonds, game.King),
		game.NewCard(game.Clubs, game.King),
		game.NewCard(game.Hearts, game.King),
		game.NewCard(game.Spades, game.King),
	)
}

func TestMovesWithoutGame(t *testing.T) {
	c := NewController(nil, quietLogger())

	_, err := c.Deal()
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = c.Eliminate(game.Row1)
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = c.Place(game.Row1, game.Row2)
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = c.Snapshot()
	assert.ErrorIs(t, err, ErrNoGame)
	assert.NoError(t, c.Drop(context.Background()))
	assert.Equal(t, uuid.Nil, c.ID())
}

func TestNewGameSnapshot(t *testing.T) {
	c := NewController(nil, quietLogger(), WithDeckSource(game.NewDeck))
	snap := c.NewGame(context.Background())

	assert.NotEqual(t, uuid.Nil, snap.SessionID)
	assert.Equal(t, c.ID(), snap.SessionID)
	assert.Nil(t, snap.Event)
	assert.Equal(t, 52, snap.DeckSize)
	assert.True(t, snap.CanDeal)
	assert.False(t, snap.CanPlace)
	assert.Empty(t, snap.Result)
	for _, row := range snap.Table {
		assert.NotNil(t, row)
		assert.Empty(t, row)
	}
}

func TestDealAndEliminate(t *testing.T) {
	c := NewController(nil, quietLogger(), WithDeckSource(game.NewDeck))
	c.NewGame(context.Background())

	snap, err := c.Deal()
	require.NoError(t, err)
	require.NotNil(t, snap.Event)
	assert.Equal(t, game.EventDeal, snap.Event.Type)
	assert.Equal(t, 48, snap.DeckSize)
	assert.False(t, snap.CanDeal, "four spades on the table")

	snap, err = c.Eliminate(game.Row2)
	require.NoError(t, err)
	assert.Equal(t, game.EliminateEvent(game.Row2), *snap.Event)
	assert.Empty(t, snap.Table[game.Row2])
	assert.False(t, snap.CanPlace, "no row holds more than one card")

	_, err = c.Eliminate(game.Row1)
	assert.ErrorIs(t, err, game.ErrEliminateNoGreaterCard)
}

func TestPlaceThroughController(t *testing.T) {
	deck := game.NewDeckFrom(
		game.NewCard(game.Clubs, game.Num(2)),
		game.NewCard(game.Hearts, game.Num(2)),
		game.NewCard(game.Hearts, game.Num(3)),
		game.NewCard(game.Diamonds, game.Num(5)),
		game.NewCard(game.Spades, game.Num(4)),
		game.NewCard(game.Hearts, game.Queen),
		game.NewCard(game.Clubs, game.Ace),
		game.NewCard(game.Diamonds, game.Num(2)),
	)
	c := NewController(nil, quietLogger(), WithDeckSource(func() game.Deck { return deck }))
	c.NewGame(context.Background())

	// Rows: D2 | CA | HQ | S4
	_, err := c.Deal()
	require.NoError(t, err)
	// Rows: D2 D5 | CA H3 | HQ H2 | S4 C2
	_, err = c.Deal()
	require.NoError(t, err)

	_, err = c.Eliminate(game.Row3)
	require.NoError(t, err, "H3 outranks H2")

	snap, err := c.Snapshot()
	require.NoError(t, err)
	top, _ := snap.Table.Top(game.Row3)
	assert.Equal(t, game.NewCard(game.Hearts, game.Queen), top)

	_, err = c.Eliminate(game.Row2)
	require.NoError(t, err, "HQ outranks H3")

	_, err = c.Place(game.Row1, game.Row2)
	assert.ErrorIs(t, err, game.ErrPlaceToNonEmptyRow)
}

func TestDropArchivesAbandonedSession(t *testing.T) {
	archiver := &mockArchiver{}
	player := uuid.New()
	c := NewController(archiver, quietLogger(), WithPlayer(player), WithDeckSource(game.NewDeck))
	snap := c.NewGame(context.Background())
	_, err := c.Deal()
	require.NoError(t, err)

	require.NoError(t, c.Drop(context.Background()))
	require.Len(t, archiver.records, 1)

	rec := archiver.records[0]
	assert.Equal(t, snap.SessionID, rec.ID)
	assert.Equal(t, player, rec.PlayerID)
	assert.Equal(t, models.StatusAbandoned, rec.Status)
	assert.True(t, rec.History.Ended())
	assert.Equal(t, 1, rec.History.Len())

	_, err = c.Deal()
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestWonSessionIsArchivedAsWon(t *testing.T) {
	archiver := &mockArchiver{}
	c := NewController(archiver, quietLogger(), WithDeckSource(kingsDeck))
	c.NewGame(context.Background())

	snap, err := c.Deal()
	require.NoError(t, err)
	assert.Equal(t, "win", snap.Result)
	assert.Equal(t, 0, snap.DeckSize)

	require.NoError(t, c.Drop(context.Background()))
	require.Len(t, archiver.records, 1)
	assert.Equal(t, models.StatusWon, archiver.records[0].Status)
}

func TestNewGameArchivesPreviousSession(t *testing.T) {
	archiver := &mockArchiver{}
	c := NewController(archiver, quietLogger())

	first := c.NewGame(context.Background())
	second := c.NewGame(context.Background())

	assert.NotEqual(t, first.SessionID, second.SessionID)
	require.Len(t, archiver.records, 1)
	assert.Equal(t, first.SessionID, archiver.records[0].ID)
}

func TestNewGameSurvivesArchiveFailure(t *testing.T) {
	archiver := &mockArchiver{err: errors.New("disk full")}
	c := NewController(archiver, quietLogger())
	c.NewGame(context.Background())

	snap := c.NewGame(context.Background())
	assert.Equal(t, 52, snap.DeckSize)

	err := c.Drop(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestStore(t *testing.T) {
	s := NewStore()
	c := NewController(nil, quietLogger())
	snap := c.NewGame(context.Background())

	s.Add(c)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(snap.SessionID)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = s.Get(uuid.New())
	assert.False(t, ok)

	s.Remove(c)
	assert.Equal(t, 0, s.Len())
}

func TestStoreDropAll(t *testing.T) {
	archiver := &mockArchiver{}
	s := NewStore()

	playing := NewController(archiver, quietLogger())
	snap := playing.NewGame(context.Background())
	idle := NewController(archiver, quietLogger())
	s.Add(playing)
	s.Add(idle)

	require.NoError(t, s.DropAll(context.Background()))
	require.Len(t, archiver.records, 1)
	assert.Equal(t, snap.SessionID, archiver.records[0].ID)
	assert.Equal(t, models.StatusAbandoned, archiver.records[0].Status)

	require.NoError(t, s.DropAll(context.Background()))
	assert.Len(t, archiver.records, 1)
	assert.Len(t, s.All(), 2)
}

// blockingArchiver holds every Archive call until release is closed.
type blockingArchiver struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingArchiver) Archive(ctx context.Context, _ models.SessionRecord) error {
	close(b.started)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowArchiveDoesNotBlockLookups(t *testing.T) {
	archiver := &blockingArchiver{started: make(chan struct{}), release: make(chan struct{})}
	s := NewStore()
	c := NewController(archiver, quietLogger())
	snap := c.NewGame(context.Background())
	s.Add(c)

	done := make(chan error, 1)
	go func() { done <- c.Drop(context.Background()) }()
	<-archiver.started

	lookups := make(chan struct{})
	go func() {
		defer close(lookups)
		c.ID()
		s.Get(snap.SessionID)
		s.Add(NewController(nil, quietLogger()))
		_, _ = c.Snapshot()
	}()
	select {
	case <-lookups:
	case <-time.After(2 * time.Second):
		t.Fatal("lookups blocked by a running archive")
	}

	close(archiver.release)
	assert.NoError(t, <-done)
}
