// internal/game/deck.go
package game

import (
	"math/rand"
	"time"
)

// Deck is a stack of cards. The top of the deck is the last element, so drawing
// yields cards in the reverse of construction order.
type Deck struct {
	cards []Card
}

// NewDeck returns the 52 cards ordered suit by suit, Ace to King within each suit.
func NewDeck() Deck {
	cards := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return Deck{cards: cards}
}

// NewDeckFrom builds a deck from cards listed bottom first; the last card is drawn first.
func NewDeckFrom(cards ...Card) Deck {
	return Deck{cards: append([]Card(nil), cards...)}
}

// Shuffled returns a freshly shuffled 52-card deck.
func Shuffled() Deck {
	d := NewDeck()
	d.Shuffle(nil)
	return d
}

// Shuffle permutes the deck in place with Fisher-Yates, walking up from index 0 and
// swapping each position with a uniformly chosen position at or above it.
// A nil r uses a time-seeded source.
func (d *Deck) Shuffle(r *rand.Rand) {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	n := len(d.cards)
	for i := 0; i < n; i++ {
		j := i + r.Intn(n-i)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card. ok is false when the deck is empty.
func (d *Deck) Draw() (card Card, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card = d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, true
}

// Len is the number of cards left to draw.
func (d Deck) Len() int {
	return len(d.cards)
}

// IsEmpty reports whether no cards are left.
func (d Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards, bottom first.
func (d Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

func (d Deck) clone() Deck {
	return Deck{cards: d.Cards()}
}
