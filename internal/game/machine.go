// internal/game/machine.go
package game

import (
	"errors"
	"fmt"
)

// Phase is a session phase.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhasePreview    Phase = "preview"
	PhaseSequence   Phase = "sequence"
	PhaseRoundStart Phase = "round_start"
	PhaseSwap       Phase = "swap"
	PhaseReveal     Phase = "reveal"
	PhasePaused     Phase = "paused"
	PhaseGameOver   Phase = "game_over"
)

// PendingAction is the single-slot deferred action a paused machine may hold.
type PendingAction string

const (
	PendingNone       PendingAction = ""
	PendingStartRound PendingAction = "startRound"
)

// ErrTransitionWhilePaused marks a programmer error: phase transitions are
// rejected until the machine is resumed.
var ErrTransitionWhilePaused = errors.New("state machine: transition requested while paused")

var legalTransitions = map[Phase][]Phase{
	PhaseWaiting:    {PhasePreview},
	PhasePreview:    {PhaseSequence},
	PhaseSequence:   {PhaseRoundStart},
	PhaseRoundStart: {PhaseSwap},
	PhaseSwap:       {PhaseReveal},
	PhaseReveal:     {PhaseRoundStart, PhaseGameOver},
}

// StateMachine sequences session phases. It is not goroutine safe; the owning
// Session serializes access.
type StateMachine struct {
	phase   Phase
	saved   Phase
	paused  bool
	pending PendingAction
}

// NewStateMachine starts in the waiting phase.
func NewStateMachine() *StateMachine {
	return &StateMachine{phase: PhaseWaiting}
}

// Phase returns the current phase, PhasePaused while paused.
func (m *StateMachine) Phase() Phase {
	return m.phase
}

// ActualPhase returns the phase ignoring pause: the saved phase while paused,
// the current phase otherwise.
func (m *StateMachine) ActualPhase() Phase {
	if m.paused {
		return m.saved
	}
	return m.phase
}

// Paused reports whether the machine is paused.
func (m *StateMachine) Paused() bool {
	return m.paused
}

// Terminal reports whether the machine reached game_over.
func (m *StateMachine) Terminal() bool {
	return m.phase == PhaseGameOver
}

// Pending returns the deferred action without consuming it.
func (m *StateMachine) Pending() PendingAction {
	return m.pending
}

// Transition moves to the given phase if legal. While paused it fails with
// ErrTransitionWhilePaused; callers defer instead via SetPending.
func (m *StateMachine) Transition(to Phase) error {
	if m.paused {
		return ErrTransitionWhilePaused
	}
	for _, allowed := range legalTransitions[m.phase] {
		if allowed == to {
			m.phase = to
			return nil
		}
	}
	return fmt.Errorf("state machine: illegal transition %s -> %s", m.phase, to)
}

// Pause saves the current phase. No-op when already paused or terminal.
func (m *StateMachine) Pause() {
	if m.paused || m.phase == PhaseGameOver {
		return
	}
	m.saved = m.phase
	m.phase = PhasePaused
	m.paused = true
}

// Resume restores the saved phase and consumes the pending action. Returns
// PendingNone, without any other effect, when not paused.
func (m *StateMachine) Resume() PendingAction {
	if !m.paused {
		return PendingNone
	}
	m.phase = m.saved
	m.paused = false
	pending := m.pending
	m.pending = PendingNone
	return pending
}

// SetPending records a deferred action. Only meaningful while paused.
func (m *StateMachine) SetPending(a PendingAction) {
	if m.paused {
		m.pending = a
	}
}

// EndGame forces the terminal phase regardless of pause state.
func (m *StateMachine) EndGame() {
	m.phase = PhaseGameOver
	m.paused = false
	m.pending = PendingNone
}
