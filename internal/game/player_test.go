// internal/game/player_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHand() []Card {
	return []Card{
		{ID: "rock-1", Kind: KindRock},
		{ID: "rock-2", Kind: KindRock},
		{ID: "paper-1", Kind: KindPaper},
		{ID: "paper-2", Kind: KindPaper},
		{ID: "scissors-1", Kind: KindScissors},
		{ID: "scissors-2", Kind: KindScissors},
	}
}

func TestSetSequence(t *testing.T) {
	p := NewPlayer("p1", "Alice", "c1")
	p.Hand = testHand()

	seq := Shuffled(p.Hand)
	require.True(t, p.SetSequence(seq))
	assert.True(t, p.SequenceSet)
	assert.Equal(t, seq, p.Sequence)

	// The sequence is a copy; mutating the input must not leak in.
	seq[0], seq[1] = seq[1], seq[0]
	assert.NotEqual(t, seq, p.Sequence)

	assert.False(t, p.SetSequence(Shuffled(p.Hand)), "sequence commits once")
}

func TestSetSequenceRejectsNonPermutation(t *testing.T) {
	p := NewPlayer("p1", "Alice", "c1")
	p.Hand = testHand()

	short := p.Hand[:5]
	assert.False(t, p.SetSequence(short))

	dup := append([]Card(nil), p.Hand...)
	dup[5] = dup[0]
	assert.False(t, p.SetSequence(dup))

	foreign := append([]Card(nil), p.Hand...)
	foreign[0] = Card{ID: "rock-9", Kind: KindRock}
	assert.False(t, p.SetSequence(foreign))

	assert.False(t, p.SequenceSet)
}

func TestSwapCards(t *testing.T) {
	p := NewPlayer("p1", "Alice", "c1")
	p.Hand = testHand()
	require.True(t, p.SetSequence(p.Hand))

	first, second := p.Sequence[0], p.Sequence[1]
	require.NoError(t, p.SwapCards(0, 1))
	assert.Equal(t, second, p.Sequence[0])
	assert.Equal(t, first, p.Sequence[1])
	assert.Equal(t, 1, p.SwapsUsed)
	assert.True(t, p.SwappedThisRound)

	assert.ErrorIs(t, p.SwapCards(2, 3), ErrSwappedThisRound)

	p.ResetRound()
	assert.False(t, p.SwappedThisRound)
	require.NoError(t, p.SwapCards(2, 3))

	p.ResetRound()
	assert.ErrorIs(t, p.SwapCards(0, 2), ErrNotAdjacent)
	assert.ErrorIs(t, p.SwapCards(5, 6), ErrSwapOutOfRange)
	assert.ErrorIs(t, p.SwapCards(-1, 0), ErrSwapOutOfRange)

	require.NoError(t, p.SwapCards(4, 5))
	assert.Equal(t, 3, p.SwapsUsed)
	assert.False(t, p.CanSwap())

	p.ResetRound()
	assert.ErrorIs(t, p.SwapCards(0, 1), ErrSwapBudgetSpent)
}

func TestConnectionMarks(t *testing.T) {
	p := NewPlayer("p1", "Alice", "c1")
	assert.True(t, p.Connected)

	p.MarkDisconnected()
	assert.False(t, p.Connected)
	assert.Empty(t, p.ConnID)
	assert.False(t, p.DisconnectedAt.IsZero())

	p.MarkConnected("c2")
	assert.True(t, p.Connected)
	assert.Equal(t, "c2", p.ConnID)
	assert.True(t, p.DisconnectedAt.IsZero())
}
