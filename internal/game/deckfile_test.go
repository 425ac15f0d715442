package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDeck(t *testing.T) {
	deck, err := LoadDeck("testdata/decks.yaml", "kings")
	require.NoError(t, err)
	assert.Equal(t, []Card{
		NewCard(Diamonds, King),
		NewCard(Clubs, King),
		NewCard(Hearts, King),
		NewCard(Spades, King),
	}, deck.Cards())

	g := NewGame(deck)
	_, err = g.Deal()
	require.NoError(t, err)
	result, ok := g.Result()
	require.True(t, ok)
	assert.Equal(t, Win, result)
}

func TestLoadDeckErrors(t *testing.T) {
	_, err := LoadDeck("testdata/decks.yaml", "missing")
	assert.ErrorContains(t, err, `deck "missing" not found`)

	_, err = LoadDeck("testdata/nope.yaml", "kings")
	assert.Error(t, err)
}

func TestParseDeckFile(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad yaml", "decks: [", "parse deck YAML"},
		{"bad card", "decks:\n  - name: a\n    cards: [\"Z<>\"]\n", `deck "a"`},
		{"duplicate card", "decks:\n  - name: a\n    cards: [\"K<>\", \"K<>\"]\n", "listed twice"},
		{"duplicate deck", "decks:\n  - name: a\n    cards: []\n  - name: a\n    cards: []\n", "defined twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeckFile([]byte(tt.data))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	decks, err := ParseDeckFile([]byte(`
decks:
  - name: kings
    cards: ["K<>", "Kcc", "K<3", "K<<"]
  - name: short
    cards: ["A<3"]
  - name: empty
    cards: []
`))
	require.NoError(t, err)
	require.Len(t, decks, 3)
	assert.True(t, decks["empty"].IsEmpty())
	assert.Equal(t, 1, decks["short"].Len())

	kings := decks["kings"]
	assert.Equal(t, 4, kings.Len())
	top, _ := kings.Draw()
	assert.Equal(t, NewCard(Spades, King), top)
}
