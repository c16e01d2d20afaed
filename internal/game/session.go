// internal/game/session.go
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/mvickers/rps-duel/internal/config"
	"github.com/sirupsen/logrus"
)

// Session runs one two-player duel: six pre-committed cards each, a bounded
// swap budget, timed phases. All mutating entry points serialize on Mu; timer
// callbacks re-acquire the lock and are discarded when stale.
type Session struct {
	LobbyID string
	Players [2]*Player

	machine  *StateMachine
	timer    *CountdownTimer
	timerSeq int

	// Round counts revealed rounds; it is also the absolute index of the next
	// card to play in each committed sequence.
	Round   int
	History []RoundResult

	previewReady  map[string]bool
	continueReady map[string]bool

	Completed bool

	// Broadcast and Send are injected by the transport layer. Both are called
	// while the session lock is held and must not block.
	Broadcast func(ev Event)
	Send      func(playerID string, ev Event)

	logger *logrus.Entry
	Mu     sync.Mutex
}

// NewSession wires a duel over two seated players. Phase starts at waiting;
// nothing is dealt until Start.
func NewSession(lobbyID string, p0, p1 *Player, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	return &Session{
		LobbyID:       lobbyID,
		Players:       [2]*Player{p0, p1},
		machine:       NewStateMachine(),
		previewReady:  make(map[string]bool),
		continueReady: make(map[string]bool),
		logger:        logger.WithField("lobby", lobbyID),
	}
}

// Start deals both hands and opens the preview phase.
func (s *Session) Start() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.machine.Phase() != PhaseWaiting {
		return
	}
	for _, p := range s.Players {
		p.Hand = Deal()
	}
	if err := s.machine.Transition(PhasePreview); err != nil {
		s.fatal(err)
		return
	}
	s.logger.Infof("session started: %s vs %s", s.Players[0].Name, s.Players[1].Name)
	for i, p := range s.Players {
		opp := s.Players[1-i]
		s.send(p.ID, Event{
			Type:         EventCardsPreview,
			Hand:         p.Hand,
			OpponentHand: opp.Hand,
			TimeLimit:    config.PreviewTimerSec,
		})
	}
	s.startTimerLocked(config.PreviewTimerSec, EventPreviewTimerUpdate, s.previewExpired)
}

// HandlePreviewReady records a preview-ready signal. Readiness signals are
// dropped while paused; the preview timer advances the phase regardless.
func (s *Session) HandlePreviewReady(playerID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed || s.machine.Paused() || s.machine.Phase() != PhasePreview {
		return
	}
	if s.previewReady[playerID] {
		return
	}
	s.previewReady[playerID] = true
	s.send(s.opponentOf(playerID).ID, Event{Type: EventOpponentPreviewReady})
	if len(s.previewReady) == len(s.Players) {
		s.toSequenceLocked()
	}
}

// HandleSetSequence commits a play order given as card ids in play order. The
// ids are resolved against the player's own hand; anything short, unknown or
// duplicated is rejected.
func (s *Session) HandleSetSequence(playerID string, ids []string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed || s.machine.Paused() || s.machine.Phase() != PhaseSequence {
		return
	}
	p := s.byID(playerID)
	if p == nil {
		return
	}
	seq, ok := ResolveSequence(p.Hand, ids)
	if !ok || !p.SetSequence(seq) {
		s.send(playerID, Event{Type: EventError, Message: "Invalid sequence"})
		return
	}
	s.send(playerID, Event{Type: EventSequenceConfirmed})
	if s.Players[0].SequenceSet && s.Players[1].SequenceSet {
		s.startRoundLocked()
	}
}

// HandleSwap performs one adjacent swap. Positions arrive in the
// remaining-cards frame; the session translates them by the current round and
// refuses to touch already-played cards.
func (s *Session) HandleSwap(playerID string, pos1, pos2 int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed || s.machine.Paused() || s.machine.Phase() != PhaseSwap {
		return
	}
	p := s.byID(playerID)
	if p == nil {
		return
	}
	if p.Ready {
		s.send(playerID, Event{Type: EventSwapError, Message: "Already locked in for this round"})
		return
	}
	abs1, abs2 := pos1+s.Round, pos2+s.Round
	if abs1 < s.Round || abs2 < s.Round {
		s.send(playerID, Event{Type: EventSwapError, Message: "Cannot swap cards that were already played"})
		return
	}
	if err := p.SwapCards(abs1, abs2); err != nil {
		s.send(playerID, Event{Type: EventSwapError, Message: err.Error()})
		return
	}
	p.Ready = true
	s.send(playerID, Event{
		Type:     EventSwapConfirmed,
		Sequence: append([]Card(nil), p.Sequence[s.Round:]...),
	})
	s.send(s.opponentOf(playerID).ID, Event{Type: EventOpponentSwapped})
	s.checkSwapDoneLocked()
}

// HandleSkipSwap marks the player done for the swap phase without swapping.
func (s *Session) HandleSkipSwap(playerID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed || s.machine.Paused() || s.machine.Phase() != PhaseSwap {
		return
	}
	p := s.byID(playerID)
	if p == nil || p.Ready {
		return
	}
	p.Ready = true
	s.send(playerID, Event{Type: EventSkipConfirmed})
	s.checkSwapDoneLocked()
}

// HandleContinue records reveal-phase readiness for the next round.
func (s *Session) HandleContinue(playerID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed || s.machine.Paused() || s.machine.Phase() != PhaseReveal {
		return
	}
	if s.continueReady[playerID] {
		return
	}
	s.continueReady[playerID] = true
	s.send(s.opponentOf(playerID).ID, Event{Type: EventOpponentContinued})
	if len(s.continueReady) == len(s.Players) {
		s.advanceLocked()
	}
}

// HandleDisconnect marks the player absent. Outside reveal the session pauses
// and waits for a reconnect; during reveal it keeps running silently. When
// both players are gone the session completes immediately with no winner.
func (s *Session) HandleDisconnect(playerID string) (silent, bothGone bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	p := s.byID(playerID)
	if p == nil || s.Completed {
		return false, false
	}
	p.MarkDisconnected()
	s.logger.Infof("player %s disconnected in phase %s", p.Name, s.machine.ActualPhase())

	if !s.Players[0].Connected && !s.Players[1].Connected {
		if s.timer != nil {
			s.timer.Clear()
		}
		s.machine.EndGame()
		s.Completed = true
		return false, true
	}
	if s.machine.ActualPhase() == PhaseReveal && !s.machine.Paused() {
		return true, false
	}
	s.machine.Pause()
	if s.timer != nil {
		s.timer.Pause()
	}
	return false, false
}

// Reattach rebinds a returning player, sends them a snapshot, and resumes the
// session if the opponent is live. Returns false when the opponent is still
// absent, in which case the caller owes the returning player an
// opponentDisconnected notice with the opponent's remaining window.
func (s *Session) Reattach(playerID, connID string) (opponentLive bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	p := s.byID(playerID)
	if p == nil || s.Completed {
		return true
	}
	p.MarkConnected(connID)
	s.logger.Infof("player %s reconnected", p.Name)
	s.send(playerID, Event{Type: EventReconnected, State: s.snapshotForLocked(playerID)})

	opp := s.opponentOf(playerID)
	if !opp.Connected {
		return false
	}
	// A reveal-phase drop never paused the session; resume is then a no-op.
	if s.machine.Paused() {
		s.resumeLocked()
	}
	s.send(opp.ID, Event{Type: EventOpponentReconnected, PlayerID: p.ID, PlayerName: p.Name})
	return true
}

// EndByDisconnect ends the session in favor of the absent player's opponent.
func (s *Session) EndByDisconnect(absentID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed {
		return
	}
	opp := s.opponentOf(absentID)
	s.logger.Infof("reconnect window expired for %s", absentID)
	s.endGameLocked(opp.ID, true)
}

// Forfeit ends the session after a voluntary leave, declaring the remaining
// player the winner.
func (s *Session) Forfeit(leaverID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Completed {
		return
	}
	leaver := s.byID(leaverID)
	opp := s.opponentOf(leaverID)
	if leaver != nil {
		s.send(opp.ID, Event{Type: EventOpponentLeft, PlayerID: leaver.ID, PlayerName: leaver.Name})
	}
	s.endGameLocked(opp.ID, false)
}

// Abandon marks the session completed without emitting events. Idempotent;
// used by lobby cleanup.
func (s *Session) Abandon() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.timer != nil {
		s.timer.Clear()
	}
	s.machine.EndGame()
	s.Completed = true
}

// SnapshotFor returns the reconnection snapshot for one player.
func (s *Session) SnapshotFor(playerID string) *Snapshot {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.snapshotForLocked(playerID)
}

// IsCompleted reports whether the session reached a terminal state.
func (s *Session) IsCompleted() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.Completed
}

// CurrentRound returns the 0-based index of the next round to reveal.
func (s *Session) CurrentRound() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.Round
}

// Phase returns the current phase, including paused.
func (s *Session) Phase() Phase {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.machine.Phase()
}

// PlayerLink returns the player's connection binding.
func (s *Session) PlayerLink(playerID string) (connID string, connected bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	p := s.byID(playerID)
	if p == nil {
		return "", false
	}
	return p.ConnID, p.Connected
}

// --- internal flow; all helpers below assume the lock is held ---

func (s *Session) previewExpired() {
	s.toSequenceLocked()
}

func (s *Session) toSequenceLocked() {
	if s.machine.ActualPhase() != PhasePreview {
		return
	}
	if err := s.machine.Transition(PhaseSequence); err != nil {
		s.fatal(err)
		return
	}
	s.broadcast(Event{Type: EventGameStart, TimeLimit: config.SequenceTimerSec})
	s.startTimerLocked(config.SequenceTimerSec, EventTimerUpdate, s.sequenceExpired)
}

func (s *Session) sequenceExpired() {
	if s.machine.ActualPhase() != PhaseSequence {
		return
	}
	for _, p := range s.Players {
		if p.SequenceSet {
			continue
		}
		p.SetSequence(Shuffled(p.Hand))
		s.send(p.ID, Event{Type: EventSequenceConfirmed})
	}
	s.startRoundLocked()
}

// startRoundLocked drives sequence|reveal -> round_start -> swap. When a
// player is absent the transition is deferred: phase lands on round_start,
// the machine pauses, and the pending slot carries the restart.
func (s *Session) startRoundLocked() {
	if s.machine.Paused() {
		s.machine.SetPending(PendingStartRound)
		return
	}
	if err := s.machine.Transition(PhaseRoundStart); err != nil {
		s.fatal(err)
		return
	}
	if !s.Players[0].Connected || !s.Players[1].Connected {
		s.machine.Pause()
		s.machine.SetPending(PendingStartRound)
		if s.timer != nil {
			s.timer.Pause()
		}
		return
	}
	s.beginSwapLocked()
}

func (s *Session) beginSwapLocked() {
	for _, p := range s.Players {
		p.ResetRound()
	}
	if err := s.machine.Transition(PhaseSwap); err != nil {
		s.fatal(err)
		return
	}
	s.broadcast(Event{
		Type:      EventRoundStart,
		Round:     s.Round + 1,
		TimeLimit: config.SwapTimerSec,
	})
	s.startTimerLocked(config.SwapTimerSec, EventTimerUpdate, s.swapExpired)
}

func (s *Session) checkSwapDoneLocked() {
	if s.Players[0].Ready && s.Players[1].Ready {
		s.revealLocked()
	}
}

func (s *Session) swapExpired() {
	s.revealLocked()
}

func (s *Session) revealLocked() {
	if s.machine.ActualPhase() != PhaseSwap {
		return
	}
	if err := s.machine.Transition(PhaseReveal); err != nil {
		s.fatal(err)
		return
	}
	p0, p1 := s.Players[0], s.Players[1]
	c0, c1 := p0.Sequence[s.Round], p1.Sequence[s.Round]

	var winnerID *string
	var explanation string
	switch {
	case c0.Kind == c1.Kind:
		explanation = fmt.Sprintf("both played %s", c0.Kind)
	case c0.Kind.Beats(c1.Kind):
		p0.Score++
		id := p0.ID
		winnerID = &id
		explanation = fmt.Sprintf("%s %s %s", c0.Kind, beatsVerb[c0.Kind], c1.Kind)
	default:
		p1.Score++
		id := p1.ID
		winnerID = &id
		explanation = fmt.Sprintf("%s %s %s", c1.Kind, beatsVerb[c1.Kind], c0.Kind)
	}

	s.Round++
	result := RoundResult{
		Round:       s.Round,
		Cards:       map[string]Card{p0.ID: c0, p1.ID: c1},
		WinnerID:    winnerID,
		Explanation: explanation,
		Scores:      map[string]int{p0.ID: p0.Score, p1.ID: p1.Score},
	}
	s.History = append(s.History, result)
	s.continueReady = make(map[string]bool)

	s.broadcast(Event{Type: EventRoundResult, Result: &result})
	s.startTimerLocked(config.ContinueTimerSec, EventContinueCountdown, s.continueExpired)
}

func (s *Session) continueExpired() {
	s.advanceLocked()
}

func (s *Session) advanceLocked() {
	if s.machine.ActualPhase() != PhaseReveal {
		return
	}
	if s.Round >= config.TotalRounds {
		s.endGameLocked("", false)
		return
	}
	s.startRoundLocked()
}

// endGameLocked finishes the session. An empty winnerID means decide by
// score; a remaining tie ends with no winner.
func (s *Session) endGameLocked(winnerID string, byDisconnect bool) {
	if s.Completed {
		return
	}
	if s.timer != nil {
		s.timer.Clear()
	}
	s.machine.EndGame()

	p0, p1 := s.Players[0], s.Players[1]
	if winnerID == "" {
		switch {
		case p0.Score > p1.Score:
			winnerID = p0.ID
		case p1.Score > p0.Score:
			winnerID = p1.ID
		}
	}
	scores := map[string]int{p0.ID: p0.Score, p1.ID: p1.Score}
	s.logger.Infof("session over: winner=%q byDisconnect=%v scores=%v", winnerID, byDisconnect, scores)
	for _, p := range s.Players {
		s.send(p.ID, Event{
			Type:         EventGameEnd,
			WinnerID:     winnerID,
			YouWon:       winnerID != "" && winnerID == p.ID,
			Tie:          winnerID == "",
			ByDisconnect: byDisconnect,
			FinalScores:  scores,
		})
	}
	s.Completed = true
}

func (s *Session) resumeLocked() {
	if !s.machine.Paused() {
		return
	}
	pending := s.machine.Resume()
	s.broadcast(Event{Type: EventGameResumed, Round: s.Round + 1})
	if s.timer != nil {
		s.timer.Resume()
	}
	if pending == PendingStartRound {
		// Brief yield so the resume notification lands before round events.
		time.AfterFunc(config.PostResumeYield, func() {
			s.Mu.Lock()
			defer s.Mu.Unlock()
			if s.Completed || s.machine.Paused() {
				return
			}
			if s.machine.Phase() == PhaseRoundStart {
				s.beginSwapLocked()
			}
		})
	}
}

// startTimerLocked replaces the session timer. Callbacks re-acquire the lock
// and bail out when the timer generation has moved on, so a cleared timer can
// never emit into a later phase.
func (s *Session) startTimerLocked(seconds int, tickEvent EventType, onExpire func()) {
	if s.timer != nil {
		s.timer.Clear()
	}
	s.timerSeq++
	seq := s.timerSeq
	t := NewCountdownTimer(
		func(remaining int) {
			s.Mu.Lock()
			defer s.Mu.Unlock()
			if s.timerSeq != seq || s.Completed {
				return
			}
			s.broadcast(Event{Type: tickEvent, Remaining: remaining})
		},
		func() {
			s.Mu.Lock()
			defer s.Mu.Unlock()
			if s.timerSeq != seq || s.Completed {
				return
			}
			onExpire()
		},
	)
	s.timer = t
	t.Start(seconds)
}

func (s *Session) byID(playerID string) *Player {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) opponentOf(playerID string) *Player {
	if s.Players[0].ID == playerID {
		return s.Players[1]
	}
	return s.Players[0]
}

// broadcast sends to both players. Assumes lock is held.
func (s *Session) broadcast(ev Event) {
	if s.Completed {
		return
	}
	if s.Broadcast != nil {
		s.Broadcast(ev)
	}
}

// send delivers to one player if they are connected. Assumes lock is held.
// gameEnd passes through endGameLocked before Completed is set, so the
// terminal events still go out.
func (s *Session) send(playerID string, ev Event) {
	if s.Send == nil {
		return
	}
	p := s.byID(playerID)
	if p == nil || !p.Connected {
		return
	}
	s.Send(playerID, ev)
}

// fatal logs a transition bug. The state machine rejecting a transition here
// means session flow broke an invariant; the event is dropped.
func (s *Session) fatal(err error) {
	s.logger.Errorf("state machine violation: %v", err)
}
