// internal/game/history.go
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrHistoryEnded is returned when an event is pushed after the history was ended.
var ErrHistoryEnded = errors.New("history has ended")

// now is swapped out by tests that need fixed timestamps.
var now = time.Now

// EventType tags what happened on a turn.
type EventType string

const (
	EventDeal      EventType = "deal"
	EventEliminate EventType = "eliminate"
	EventPlace     EventType = "place"
)

// Event records a single successful move. Only the fields belonging to Type are set:
// Cards for a deal, Row for an eliminate, From and To for a place.
type Event struct {
	Type  EventType
	Cards [4]Card
	Row   Row
	From  Row
	To    Row
}

// DealEvent records the four cards dealt, in row order.
func DealEvent(cards [4]Card) Event {
	return Event{Type: EventDeal, Cards: cards}
}

// EliminateEvent records the removal of the top card of row.
func EliminateEvent(row Row) Event {
	return Event{Type: EventEliminate, Row: row}
}

// PlaceEvent records moving the top card of from onto the empty row to.
func PlaceEvent(from, to Row) Event {
	return Event{Type: EventPlace, From: from, To: to}
}

func (e Event) String() string {
	switch e.Type {
	case EventDeal:
		return fmt.Sprintf("deal %v %v %v %v", e.Cards[0], e.Cards[1], e.Cards[2], e.Cards[3])
	case EventEliminate:
		return fmt.Sprintf("eliminate %d", e.Row)
	case EventPlace:
		return fmt.Sprintf("place %d -> %d", e.From, e.To)
	}
	return fmt.Sprintf("event(%s)", e.Type)
}

type eventJSON struct {
	Type  EventType `json:"type"`
	Cards *[4]Card  `json:"cards,omitempty"`
	Row   *Row      `json:"row,omitempty"`
	From  *Row      `json:"from,omitempty"`
	To    *Row      `json:"to,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{Type: e.Type}
	switch e.Type {
	case EventDeal:
		out.Cards = &e.Cards
	case EventEliminate:
		out.Row = &e.Row
	case EventPlace:
		out.From, out.To = &e.From, &e.To
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Type {
	case EventDeal:
		if in.Cards == nil {
			return fmt.Errorf("deal event without cards")
		}
		*e = DealEvent(*in.Cards)
	case EventEliminate:
		if in.Row == nil {
			return fmt.Errorf("eliminate event without row")
		}
		*e = EliminateEvent(*in.Row)
	case EventPlace:
		if in.From == nil || in.To == nil {
			return fmt.Errorf("place event without from/to")
		}
		*e = PlaceEvent(*in.From, *in.To)
	default:
		return fmt.Errorf("unknown event type %q", in.Type)
	}
	return nil
}

// History is the append-only log of a single game. Once ended it accepts no events.
type History struct {
	startDate time.Time
	endDate   *time.Time
	events    []Event
}

// NewHistory starts a history stamped with the current time.
func NewHistory() *History {
	return &History{startDate: now()}
}

// Push appends ev, failing with ErrHistoryEnded if the history was ended.
func (h *History) Push(ev Event) error {
	if h.endDate != nil {
		return ErrHistoryEnded
	}
	h.events = append(h.events, ev)
	return nil
}

// End stamps the end date and returns the now terminal history. Only the first call
// sets the date.
func (h *History) End() *History {
	if h.endDate == nil {
		t := now()
		h.endDate = &t
	}
	return h
}

// Last returns the most recently pushed event.
func (h *History) Last() (Event, bool) {
	if len(h.events) == 0 {
		return Event{}, false
	}
	return h.events[len(h.events)-1], true
}

func (h *History) Ended() bool {
	return h.endDate != nil
}

func (h *History) StartDate() time.Time {
	return h.startDate
}

// EndDate returns the end date; ok is false while the history is live.
func (h *History) EndDate() (t time.Time, ok bool) {
	if h.endDate == nil {
		return time.Time{}, false
	}
	return *h.endDate, true
}

// Events returns a copy of the logged events in order.
func (h *History) Events() []Event {
	return append([]Event(nil), h.events...)
}

func (h *History) Len() int {
	return len(h.events)
}

type historyJSON struct {
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Events    []Event    `json:"events"`
}

func (h *History) MarshalJSON() ([]byte, error) {
	events := h.events
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(historyJSON{StartDate: h.startDate, EndDate: h.endDate, Events: events})
}

func (h *History) UnmarshalJSON(data []byte) error {
	var in historyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return fmt.Errorf("history ends before it starts")
	}
	h.startDate = in.StartDate
	h.endDate = in.EndDate
	h.events = in.Events
	return nil
}
