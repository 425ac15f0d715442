package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrdering(t *testing.T) {
	assert.True(t, Ace < Num(2))
	assert.True(t, Num(2) < Num(10))
	assert.True(t, Num(10) < Knight)
	assert.True(t, Knight < Queen)
	assert.True(t, Queen < King)

	assert.False(t, Ace > Num(2))
	assert.False(t, Num(2) > Num(10))
	assert.False(t, Num(10) > Knight)
	assert.False(t, Knight > Queen)
	assert.False(t, Queen > King)
}

func TestNumPanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { Num(1) })
	assert.Panics(t, func() { Num(11) })
	assert.NotPanics(t, func() { Num(7) })
}

func TestCardGreater(t *testing.T) {
	greater, ok := NewCard(Hearts, Num(3)).Greater(NewCard(Hearts, Num(2)))
	assert.True(t, ok)
	assert.True(t, greater)

	greater, ok = NewCard(Spades, Num(3)).Greater(NewCard(Spades, Num(4)))
	assert.True(t, ok)
	assert.False(t, greater)

	greater, ok = NewCard(Diamonds, Queen).Greater(NewCard(Diamonds, Ace))
	assert.True(t, ok)
	assert.True(t, greater)

	_, ok = NewCard(Spades, Num(5)).Greater(NewCard(Clubs, Num(4)))
	assert.False(t, ok, "cards of different suits are incomparable")

	greater, ok = NewCard(Clubs, King).Greater(NewCard(Clubs, King))
	assert.True(t, ok)
	assert.False(t, greater, "a card never outranks itself")
}

func TestCardStringRoundTrip(t *testing.T) {
	for _, suit := range Suits {
		for _, rank := range Ranks {
			c := NewCard(suit, rank)
			parsed, err := ParseCard(c.String())
			require.NoError(t, err, c.String())
			assert.Equal(t, c, parsed)
		}
	}

	assert.Equal(t, "Kn<3", NewCard(Hearts, Knight).String())
	assert.Equal(t, "10<<", NewCard(Spades, Num(10)).String())

	_, err := ParseCard("X<3")
	assert.Error(t, err)
	_, err = ParseCard("K")
	assert.Error(t, err)
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal(NewCard(Clubs, Queen))
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"clubs","rank":"Q"}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"suit":"diamonds","rank":"10"}`), &c))
	assert.Equal(t, NewCard(Diamonds, Num(10)), c)

	assert.Error(t, json.Unmarshal([]byte(`{"suit":"stars","rank":"10"}`), &c))
}
