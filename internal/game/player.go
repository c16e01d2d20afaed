// internal/game/player.go
package game

import (
	"errors"
	"time"

	"github.com/mvickers/rps-duel/internal/config"
)

// Swap rule violations, surfaced to clients as swapError events.
var (
	ErrSwapBudgetSpent  = errors.New("no swaps remaining")
	ErrSwappedThisRound = errors.New("already swapped this round")
	ErrNotAdjacent      = errors.New("cards must be adjacent")
	ErrSwapOutOfRange   = errors.New("swap position out of range")
)

// Player holds one participant's mutable state. A Player belongs to exactly
// one Session and is serialized under that Session's lock once the game runs.
type Player struct {
	ID   string
	Name string

	ConnID         string
	Connected      bool
	DisconnectedAt time.Time

	Hand        []Card
	Sequence    []Card
	SequenceSet bool

	SwapsUsed        int
	SwappedThisRound bool

	Score int

	// Ready is per-phase readiness; only the swap phase uses it.
	Ready bool
}

// NewPlayer seats a participant bound to a live connection.
func NewPlayer(id, name, connID string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		ConnID:    connID,
		Connected: true,
	}
}

// SetSequence commits the play order. It accepts once, and only a permutation
// of the hand by card identity.
func (p *Player) SetSequence(seq []Card) bool {
	if p.SequenceSet {
		return false
	}
	if !isPermutation(seq, p.Hand) {
		return false
	}
	p.Sequence = make([]Card, len(seq))
	copy(p.Sequence, seq)
	p.SequenceSet = true
	return true
}

// CanSwap reports whether the player has swap budget left for this round.
func (p *Player) CanSwap() bool {
	return p.SwapsUsed < config.MaxSwapsPerGame && !p.SwappedThisRound
}

// SwapCards exchanges two adjacent positions in the committed sequence. The
// indices are absolute (sequence frame, not remaining-cards frame).
func (p *Player) SwapCards(i, j int) error {
	if p.SwapsUsed >= config.MaxSwapsPerGame {
		return ErrSwapBudgetSpent
	}
	if p.SwappedThisRound {
		return ErrSwappedThisRound
	}
	if i < 0 || j < 0 || i >= len(p.Sequence) || j >= len(p.Sequence) {
		return ErrSwapOutOfRange
	}
	if i-j != 1 && j-i != 1 {
		return ErrNotAdjacent
	}
	p.Sequence[i], p.Sequence[j] = p.Sequence[j], p.Sequence[i]
	p.SwapsUsed++
	p.SwappedThisRound = true
	return nil
}

// ResetRound clears the per-round flags at a round boundary.
func (p *Player) ResetRound() {
	p.SwappedThisRound = false
	p.Ready = false
}

// MarkDisconnected records loss of the live connection.
func (p *Player) MarkDisconnected() {
	p.Connected = false
	p.ConnID = ""
	p.DisconnectedAt = time.Now()
}

// MarkConnected rebinds the player to a new connection.
func (p *Player) MarkConnected(connID string) {
	p.Connected = true
	p.ConnID = connID
	p.DisconnectedAt = time.Time{}
}

func isPermutation(seq, hand []Card) bool {
	if len(seq) != len(hand) {
		return false
	}
	ids := make(map[string]bool, len(hand))
	for _, c := range hand {
		ids[c.ID] = true
	}
	seen := make(map[string]bool, len(seq))
	for _, c := range seq {
		if !ids[c.ID] || seen[c.ID] {
			return false
		}
		seen[c.ID] = true
	}
	return true
}
