// internal/game/card.go
package game

import (
	"fmt"
	"strconv"
)

// Suit is the color of a card. Two cards are only comparable when they share a suit.
type Suit int

const (
	Diamonds Suit = iota
	Clubs
	Hearts
	Spades
)

// Suits lists every suit in enumeration order.
var Suits = [4]Suit{Diamonds, Clubs, Hearts, Spades}

var suitNames = [4]string{"diamonds", "clubs", "hearts", "spades"}
var suitSymbols = [4]string{"<>", "cc", "<3", "<<"}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= Diamonds && s <= Spades
}

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Symbol returns the short form used when printing a card.
func (s Suit) Symbol() string {
	if !s.Valid() {
		return "??"
	}
	return suitSymbols[s]
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid suit %d", int(s))
	}
	return []byte(suitNames[s]), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSuit accepts either the name ("hearts") or the symbol ("<3") of a suit.
func ParseSuit(str string) (Suit, error) {
	for _, s := range Suits {
		if str == suitNames[s] || str == suitSymbols[s] {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", str)
}

// Rank orders cards within a suit: Ace < 2 < ... < 10 < Knight < Queen < King.
type Rank int

const (
	Ace    Rank = 1
	Knight Rank = 11
	Queen  Rank = 12
	King   Rank = 13
)

// Ranks lists every rank in ascending order.
var Ranks = [13]Rank{Ace, 2, 3, 4, 5, 6, 7, 8, 9, 10, Knight, Queen, King}

// Num returns the numeric rank n. It panics unless 2 <= n <= 10.
func Num(n int) Rank {
	if n < 2 || n > 10 {
		panic(fmt.Sprintf("game: numeric rank %d out of range", n))
	}
	return Rank(n)
}

// Valid reports whether r is one of the thirteen ranks.
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Knight:
		return "Kn"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r.Valid() {
		return strconv.Itoa(int(r))
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRank parses the short form of a rank ("A", "2".."10", "Kn", "Q", "K").
func ParseRank(str string) (Rank, error) {
	for _, r := range Ranks {
		if str == r.String() {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", str)
}

// Card is an immutable (suit, rank) pair.
type Card struct {
	Suit Suit `json:"suit" yaml:"suit"`
	Rank Rank `json:"rank" yaml:"rank"`
}

// NewCard builds a card.
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// Greater compares c with other. ok is false when the suits differ and the cards are
// incomparable; otherwise greater reports whether c outranks other.
func (c Card) Greater(other Card) (greater bool, ok bool) {
	if c.Suit != other.Suit {
		return false, false
	}
	return c.Rank > other.Rank, true
}

// String prints the rank followed by the suit symbol, e.g. "Kn<3".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Symbol()
}

// ParseCard reads the form produced by Card.String.
func ParseCard(str string) (Card, error) {
	if len(str) < 3 {
		return Card{}, fmt.Errorf("invalid card %q", str)
	}
	rank, err := ParseRank(str[:len(str)-2])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", str, err)
	}
	suit, err := ParseSuit(str[len(str)-2:])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", str, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}
