// internal/game/game.go
package game

import (
	"errors"
	"fmt"
)

// Rule violations returned by the Check* methods and the mutators. They describe the
// current table, so retrying the same move without another move in between fails again.
var (
	ErrDealFromDeckWithInsufficientCards = errors.New("not enough cards in the deck to deal")
	ErrDealWithSameSuitOnTable           = errors.New("two rows show cards of the same suit")
	ErrEliminateEmptyRow                 = errors.New("cannot eliminate from an empty row")
	ErrEliminateNoGreaterCard            = errors.New("no greater card of the same suit on the table")
	ErrPlaceFromSingleCardRow            = errors.New("cannot move the only card of a row")
	ErrPlaceToNonEmptyRow                = errors.New("cards can only be placed on an empty row")
	ErrRowOutOfRange                     = errors.New("row out of range")
)

// NumRows is the number of rows on the table.
const NumRows = 4

// Row addresses one of the four table rows.
type Row int

const (
	Row1 Row = iota
	Row2
	Row3
	Row4
)

// Rows lists the rows in table order.
var Rows = [NumRows]Row{Row1, Row2, Row3, Row4}

// Valid reports whether r names one of the four rows.
func (r Row) Valid() bool {
	return r >= Row1 && r <= Row4
}

func checkRow(r Row) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, int(r))
	}
	return nil
}

// Table holds the four rows. The last card of a row is its visible top card.
type Table [NumRows][]Card

// Top returns the top card of row r; ok is false when the row is empty or r is not a row.
func (t *Table) Top(r Row) (card Card, ok bool) {
	if !r.Valid() {
		return Card{}, false
	}
	row := t[r]
	if len(row) == 0 {
		return Card{}, false
	}
	return row[len(row)-1], true
}

func (t *Table) clone() Table {
	var out Table
	for i, row := range t {
		out[i] = append([]Card(nil), row...)
	}
	return out
}

// Result is the outcome of a finished game.
type Result int

const (
	Win Result = iota + 1
	Lose
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Lose:
		return "lose"
	}
	return "unknown"
}

// Game is one play session: a deck, the table, the discard pile and the history.
// It is not safe for concurrent use.
type Game struct {
	deck        Deck
	table       Table
	discardPile []Card
	history     *History
}

// NewGame starts a game with an empty table on a copy of deck.
func NewGame(deck Deck) *Game {
	return &Game{
		deck:    deck.clone(),
		history: NewHistory(),
	}
}

// Deck returns a copy of the remaining deck.
func (g *Game) Deck() Deck {
	return g.deck.clone()
}

// Table returns a copy of the table.
func (g *Game) Table() Table {
	return g.table.clone()
}

// DiscardPile returns a copy of the eliminated cards in elimination order.
func (g *Game) DiscardPile() []Card {
	return append([]Card(nil), g.discardPile...)
}

// History returns the game's history. Callers must not push to it.
func (g *Game) History() *History {
	return g.history
}

// CheckDeal reports whether four cards can be dealt onto the table.
func (g *Game) CheckDeal() error {
	if g.deck.Len() <= 3 {
		return ErrDealFromDeckWithInsufficientCards
	}

	seen := make(map[Suit]struct{}, NumRows)
	for _, r := range Rows {
		top, ok := g.table.Top(r)
		if !ok {
			continue
		}
		if _, dup := seen[top.Suit]; dup {
			return ErrDealWithSameSuitOnTable
		}
		seen[top.Suit] = struct{}{}
	}
	return nil
}

// Deal draws one card per row, in row order, and puts it on top of that row.
func (g *Game) Deal() (Event, error) {
	if err := g.checkLive(); err != nil {
		return Event{}, err
	}
	if err := g.CheckDeal(); err != nil {
		return Event{}, err
	}

	var dealt [NumRows]Card
	for _, r := range Rows {
		card, _ := g.deck.Draw()
		g.table[r] = append(g.table[r], card)
		dealt[r] = card
	}
	return g.record(DealEvent(dealt))
}

// CheckEliminate reports whether the top card of row can be eliminated: some row must
// show a card of the same suit with a higher rank.
func (g *Game) CheckEliminate(row Row) error {
	if err := checkRow(row); err != nil {
		return err
	}
	card, ok := g.table.Top(row)
	if !ok {
		return ErrEliminateEmptyRow
	}

	for _, r := range Rows {
		other, ok := g.table.Top(r)
		if !ok {
			continue
		}
		if greater, comparable := other.Greater(card); comparable && greater {
			return nil
		}
	}
	return ErrEliminateNoGreaterCard
}

// Eliminate moves the top card of row to the discard pile.
func (g *Game) Eliminate(row Row) (Event, error) {
	if err := g.checkLive(); err != nil {
		return Event{}, err
	}
	if err := g.CheckEliminate(row); err != nil {
		return Event{}, err
	}

	last := len(g.table[row]) - 1
	g.discardPile = append(g.discardPile, g.table[row][last])
	g.table[row] = g.table[row][:last]
	return g.record(EliminateEvent(row))
}

// CheckPlace reports whether the top card of from can be moved onto to. The source
// must hold more than one card and the destination must be empty.
func (g *Game) CheckPlace(from, to Row) error {
	if err := checkRow(from); err != nil {
		return err
	}
	if err := checkRow(to); err != nil {
		return err
	}
	if len(g.table[from]) <= 1 {
		return ErrPlaceFromSingleCardRow
	}
	if _, ok := g.table.Top(to); ok {
		return ErrPlaceToNonEmptyRow
	}
	return nil
}

// Place moves the top card of from onto the empty row to.
func (g *Game) Place(from, to Row) (Event, error) {
	if err := g.checkLive(); err != nil {
		return Event{}, err
	}
	if err := g.CheckPlace(from, to); err != nil {
		return Event{}, err
	}

	last := len(g.table[from]) - 1
	card := g.table[from][last]
	g.table[from] = g.table[from][:last]
	g.table[to] = append(g.table[to], card)
	return g.record(PlaceEvent(from, to))
}

// CanPlace reports whether any place move exists: a row with more than one card and
// an empty row.
func (g *Game) CanPlace() bool {
	var anyEmpty, anyStacked bool
	for _, row := range g.table {
		if len(row) == 0 {
			anyEmpty = true
		}
		if len(row) > 1 {
			anyStacked = true
		}
	}
	return anyEmpty && anyStacked
}

// Result returns the outcome once no move is left: the deck is empty, nothing can be
// eliminated and nothing can be placed. The game is won when each row holds a single
// King. ok is false while moves remain.
func (g *Game) Result() (result Result, ok bool) {
	if !g.deck.IsEmpty() {
		return 0, false
	}
	for _, r := range Rows {
		if g.CheckEliminate(r) == nil {
			return 0, false
		}
	}
	if g.CanPlace() {
		return 0, false
	}

	for _, row := range g.table {
		if len(row) != 1 || row[0].Rank != King {
			return Lose, true
		}
	}
	return Win, true
}

// End finalizes and returns the history. Any later move fails with ErrHistoryEnded.
func (g *Game) End() *History {
	return g.history.End()
}

func (g *Game) checkLive() error {
	if g.history.Ended() {
		return ErrHistoryEnded
	}
	return nil
}

// record appends ev to the history. checkLive has already ruled out an ended history.
func (g *Game) record(ev Event) (Event, error) {
	if err := g.history.Push(ev); err != nil {
		panic(fmt.Sprintf("game: pushing %v: %v", ev, err))
	}
	return ev, nil
}
