// internal/game/card_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvickers/rps-duel/internal/config"
)

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, config.DeckSize)

	perKind := map[Kind]int{}
	ids := map[string]bool{}
	for _, c := range deck {
		perKind[c.Kind]++
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
		assert.Equal(t, c.Kind.Color(), c.Color)
	}
	assert.Equal(t, config.CardsPerKind, perKind[KindRock])
	assert.Equal(t, config.CardsPerKind, perKind[KindPaper])
	assert.Equal(t, config.CardsPerKind, perKind[KindScissors])
}

func TestDealProperties(t *testing.T) {
	valid := map[string]bool{}
	for _, c := range NewDeck() {
		valid[c.ID] = true
	}
	for i := 0; i < 50; i++ {
		hand := Deal()
		require.Len(t, hand, config.CardsPerPlayer)
		seen := map[string]bool{}
		for _, c := range hand {
			assert.True(t, valid[c.ID], "unknown card %s", c.ID)
			assert.False(t, seen[c.ID], "duplicate card %s in hand", c.ID)
			seen[c.ID] = true
		}
	}
}

func TestKindBeats(t *testing.T) {
	cases := []struct {
		a, b Kind
		want bool
	}{
		{KindRock, KindScissors, true},
		{KindScissors, KindPaper, true},
		{KindPaper, KindRock, true},
		{KindScissors, KindRock, false},
		{KindPaper, KindScissors, false},
		{KindRock, KindPaper, false},
		{KindRock, KindRock, false},
		{KindPaper, KindPaper, false},
		{KindScissors, KindScissors, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.a.Beats(c.b), "%s vs %s", c.a, c.b)
	}
}

func TestShuffledPreservesCards(t *testing.T) {
	hand := Deal()
	out := Shuffled(hand)
	require.Len(t, out, len(hand))

	want := map[string]int{}
	for _, c := range hand {
		want[c.ID]++
	}
	got := map[string]int{}
	for _, c := range out {
		got[c.ID]++
	}
	assert.Equal(t, want, got)
}

func TestResolveSequence(t *testing.T) {
	hand := []Card{
		{ID: "rock-1", Kind: KindRock},
		{ID: "paper-1", Kind: KindPaper},
		{ID: "scissors-1", Kind: KindScissors},
	}

	seq, ok := ResolveSequence(hand, []string{"scissors-1", "rock-1", "paper-1"})
	require.True(t, ok)
	require.Len(t, seq, 3)
	assert.Equal(t, "scissors-1", seq[0].ID)
	assert.Equal(t, KindScissors, seq[0].Kind)

	_, ok = ResolveSequence(hand, []string{"rock-1", "paper-1"})
	assert.False(t, ok, "short sequence should fail")

	_, ok = ResolveSequence(hand, []string{"rock-1", "paper-1", "rock-9"})
	assert.False(t, ok, "unknown id should fail")

	_, ok = ResolveSequence(hand, []string{"rock-1", "rock-1", "paper-1"})
	assert.False(t, ok, "duplicate id should fail")
}
