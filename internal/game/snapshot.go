// internal/game/snapshot.go
package game

// Snapshot is the per-requester state sent on reconnection. Phase is the
// actual phase, never "paused". Opponent cards are withheld outside preview.
type Snapshot struct {
	Phase        Phase `json:"phase"`
	CurrentRound int   `json:"currentRound"`

	YourID       string `json:"yourId"`
	YourName     string `json:"yourName"`
	OpponentID   string `json:"opponentId"`
	OpponentName string `json:"opponentName"`

	YourScore         int `json:"yourScore"`
	OpponentScore     int `json:"opponentScore"`
	YourSwapsUsed     int `json:"yourSwapsUsed"`
	OpponentSwapsUsed int `json:"opponentSwapsUsed"`

	History        []RoundResult `json:"history"`
	TimerRemaining int           `json:"timerRemaining"`

	// YourCards is the remaining-cards view: sequence[currentRound:].
	YourCards []Card `json:"yourCards,omitempty"`
	YourHand  []Card `json:"yourHand"`

	// OpponentHand is present only during preview.
	OpponentHand []Card `json:"opponentHand,omitempty"`

	YouReady      bool `json:"youReady"`
	OpponentReady bool `json:"opponentReady"`
}

// snapshotForLocked builds the reconnection snapshot for one player. Assumes
// lock is held.
func (s *Session) snapshotForLocked(playerID string) *Snapshot {
	p := s.byID(playerID)
	if p == nil {
		return nil
	}
	opp := s.opponentOf(playerID)
	phase := s.machine.ActualPhase()

	snap := &Snapshot{
		Phase:             phase,
		CurrentRound:      s.Round,
		YourID:            p.ID,
		YourName:          p.Name,
		OpponentID:        opp.ID,
		OpponentName:      opp.Name,
		YourScore:         p.Score,
		OpponentScore:     opp.Score,
		YourSwapsUsed:     p.SwapsUsed,
		OpponentSwapsUsed: opp.SwapsUsed,
		History:           append([]RoundResult(nil), s.History...),
		YourHand:          append([]Card(nil), p.Hand...),
	}
	if s.timer != nil {
		snap.TimerRemaining = s.timer.Remaining()
	}
	if p.SequenceSet && s.Round <= len(p.Sequence) {
		snap.YourCards = append([]Card(nil), p.Sequence[s.Round:]...)
	}
	switch phase {
	case PhasePreview:
		snap.OpponentHand = append([]Card(nil), opp.Hand...)
		snap.YouReady = s.previewReady[p.ID]
		snap.OpponentReady = s.previewReady[opp.ID]
	case PhaseSequence:
		snap.YouReady = p.SequenceSet
		snap.OpponentReady = opp.SequenceSet
	case PhaseSwap:
		snap.YouReady = p.Ready
		snap.OpponentReady = opp.Ready
	case PhaseReveal:
		snap.YouReady = s.continueReady[p.ID]
		snap.OpponentReady = s.continueReady[opp.ID]
	}
	return snap
}
