// internal/session/controller.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNoGame is returned by moves made before NewGame or after Drop.
var ErrNoGame = errors.New("no game in progress")

// Archiver stores the record of a finished or abandoned session.
type Archiver interface {
	Archive(ctx context.Context, rec models.SessionRecord) error
}

// ArchiverFunc adapts a function to Archiver.
type ArchiverFunc func(ctx context.Context, rec models.SessionRecord) error

func (f ArchiverFunc) Archive(ctx context.Context, rec models.SessionRecord) error {
	return f(ctx, rec)
}

// Snapshot is what a client needs to redraw after a move.
type Snapshot struct {
	SessionID uuid.UUID   `json:"session_id"`
	Event     *game.Event `json:"event,omitempty"`
	Table     game.Table  `json:"table"`
	DeckSize  int         `json:"deck_size"`
	CanDeal   bool        `json:"can_deal"`
	CanPlace  bool        `json:"can_place"`
	Result    string      `json:"result,omitempty"`
}

// Controller owns the running game of one player and is the only thing that mutates
// it. Each move returns a Snapshot instead of notifying listeners.
type Controller struct {
	mu       sync.Mutex
	id       uuid.UUID
	playerID uuid.UUID
	game     *game.Game

	archiver Archiver
	logger   *logrus.Logger
	newDeck  func() game.Deck
}

// Option configures a Controller.
type Option func(*Controller)

// WithDeckSource replaces the shuffled deck used for new games.
func WithDeckSource(fn func() game.Deck) Option {
	return func(c *Controller) { c.newDeck = fn }
}

// WithPlayer attributes archived sessions to playerID.
func WithPlayer(playerID uuid.UUID) Option {
	return func(c *Controller) { c.playerID = playerID }
}

// NewController builds a controller with no game running. A nil archiver discards
// finished sessions.
func NewController(archiver Archiver, logger *logrus.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Controller{
		archiver: archiver,
		logger:   logger,
		newDeck:  game.Shuffled,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the id of the current or most recent session, or uuid.Nil before the first game.
func (c *Controller) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// PlayerID returns the player sessions are archived under.
func (c *Controller) PlayerID() uuid.UUID {
	return c.playerID
}

// NewGame archives the running game, if any, and starts a new one. The previous
// game is archived after the new one is in place, without holding the lock.
func (c *Controller) NewGame(ctx context.Context) Snapshot {
	c.mu.Lock()
	prev, hadGame := c.detach()
	c.id = uuid.New()
	c.game = game.NewGame(c.newDeck())
	c.logger.WithFields(logrus.Fields{
		"session": c.id,
		"player":  c.playerID,
	}).Info("new game")
	snap := c.snapshot(nil)
	c.mu.Unlock()

	if hadGame {
		if err := c.archive(ctx, prev); err != nil {
			c.logger.WithError(err).WithField("session", prev.ID).Warn("failed to archive previous session")
		}
	}
	return snap
}

// Deal deals one card onto each row.
func (c *Controller) Deal() (Snapshot, error) {
	return c.move("deal", logrus.Fields{}, (*game.Game).Deal)
}

// Eliminate discards the top card of row.
func (c *Controller) Eliminate(row game.Row) (Snapshot, error) {
	return c.move("eliminate", logrus.Fields{"row": row}, func(g *game.Game) (game.Event, error) {
		return g.Eliminate(row)
	})
}

// Place moves the top card of from onto the empty row to.
func (c *Controller) Place(from, to game.Row) (Snapshot, error) {
	return c.move("place", logrus.Fields{"from": from, "to": to}, func(g *game.Game) (game.Event, error) {
		return g.Place(from, to)
	})
}

// Snapshot describes the running game without changing it.
func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.game == nil {
		return Snapshot{}, ErrNoGame
	}
	return c.snapshot(nil), nil
}

// Drop ends the running game and archives its history. Dropping with no game is a no-op.
func (c *Controller) Drop(ctx context.Context) error {
	c.mu.Lock()
	rec, ok := c.detach()
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.archive(ctx, rec)
}

func (c *Controller) move(name string, fields logrus.Fields, apply func(*game.Game) (game.Event, error)) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.game == nil {
		return Snapshot{}, ErrNoGame
	}
	fields["session"] = c.id
	fields["event"] = name

	ev, err := apply(c.game)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Debug("move rejected")
		return Snapshot{}, err
	}

	snap := c.snapshot(&ev)
	if snap.Result != "" {
		fields["result"] = snap.Result
		c.logger.WithFields(fields).Info("game over")
	} else {
		c.logger.WithFields(fields).Debug("move applied")
	}
	return snap, nil
}

// detach ends the running game and returns its record. c.mu must be held.
func (c *Controller) detach() (models.SessionRecord, bool) {
	if c.game == nil {
		return models.SessionRecord{}, false
	}
	g := c.game
	c.game = nil

	result, ok := g.Result()
	rec := models.SessionRecord{
		ID:       c.id,
		PlayerID: c.playerID,
		Status:   models.StatusFor(result, ok),
		History:  g.End(),
	}
	c.logger.WithFields(logrus.Fields{
		"session": rec.ID,
		"status":  rec.Status,
		"events":  rec.History.Len(),
	}).Info("session ended")
	return rec, true
}

// archive hands rec to the archiver. It runs without c.mu so a slow backend does
// not block the controller.
func (c *Controller) archive(ctx context.Context, rec models.SessionRecord) error {
	if c.archiver == nil {
		return nil
	}
	if err := c.archiver.Archive(ctx, rec); err != nil {
		return fmt.Errorf("archive session %s: %w", rec.ID, err)
	}
	return nil
}

func (c *Controller) snapshot(ev *game.Event) Snapshot {
	table := c.game.Table()
	snap := Snapshot{
		SessionID: c.id,
		Event:     ev,
		DeckSize:  c.game.Deck().Len(),
		CanDeal:   c.game.CheckDeal() == nil,
		CanPlace:  c.game.CanPlace(),
	}
	for i, row := range table {
		if row == nil {
			row = []game.Card{}
		}
		snap.Table[i] = row
	}
	if result, ok := c.game.Result(); ok {
		snap.Result = result.String()
	}
	return snap
}
