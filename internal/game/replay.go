package game

import (
	"errors"
	"fmt"
)

// ReplayError reports the first archived event that could not be applied.
type ReplayError struct {
	Index int
	Event Event
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay event %d (%v): %v", e.Index, e.Event, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

var errDealMismatch = errors.New("dealt cards differ from the recorded ones")

// Replay applies events in order to a new game on deck and returns that game. Deal
// events must reproduce the recorded cards exactly.
func Replay(deck Deck, events []Event) (*Game, error) {
	g := NewGame(deck)
	for i, ev := range events {
		var (
			applied Event
			err     error
		)
		switch ev.Type {
		case EventDeal:
			applied, err = g.Deal()
			if err == nil && applied.Cards != ev.Cards {
				err = errDealMismatch
			}
		case EventEliminate:
			_, err = g.Eliminate(ev.Row)
		case EventPlace:
			_, err = g.Place(ev.From, ev.To)
		default:
			err = fmt.Errorf("unknown event type %q", ev.Type)
		}
		if err != nil {
			return nil, &ReplayError{Index: i, Event: ev, Err: err}
		}
	}
	return g, nil
}
