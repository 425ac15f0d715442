package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Store tracks the controllers of connected players, keyed by controller. A
// controller changes its session id on every new game, so lookups by session id
// scan the live controllers.
type Store struct {
	mu          sync.Mutex
	controllers map[*Controller]struct{}
}

func NewStore() *Store {
	return &Store{
		controllers: make(map[*Controller]struct{}),
	}
}

func (s *Store) Add(c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllers[c] = struct{}{}
}

func (s *Store) Remove(c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.controllers, c)
}

// Get returns the controller currently running session id.
func (s *Store) Get(id uuid.UUID) (*Controller, bool) {
	for _, c := range s.All() {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// All returns the connected controllers. The store lock is released before the
// caller touches any of them.
func (s *Store) All() []*Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Controller, 0, len(s.controllers))
	for c := range s.controllers {
		out = append(out, c)
	}
	return out
}

// DropAll archives the running game of every connected controller. Games are
// archived with the abandoned status unless they had already finished.
func (s *Store) DropAll(ctx context.Context) error {
	var errs []error
	for _, c := range s.All() {
		if err := c.Drop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of connected controllers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}
