// internal/game/events.go
package game

// EventType tags every outbound event.
type EventType string

const (
	EventLobbyCreated         EventType = "lobbyCreated"
	EventLobbyJoined          EventType = "lobbyJoined"
	EventPlayerJoined         EventType = "playerJoined"
	EventCardsPreview         EventType = "cardsPreview"
	EventPreviewTimerUpdate   EventType = "previewTimerUpdate"
	EventOpponentPreviewReady EventType = "opponentPreviewReady"
	EventGameStart            EventType = "gameStart"
	EventSequenceConfirmed    EventType = "sequenceConfirmed"
	EventRoundStart           EventType = "roundStart"
	EventTimerUpdate          EventType = "timerUpdate"
	EventSwapConfirmed        EventType = "swapConfirmed"
	EventSwapError            EventType = "swapError"
	EventSkipConfirmed        EventType = "skipConfirmed"
	EventOpponentSwapped      EventType = "opponentSwapped"
	EventRoundResult          EventType = "roundResult"
	EventContinueCountdown    EventType = "continueCountdown"
	EventOpponentContinued    EventType = "opponentContinued"
	EventGameEnd              EventType = "gameEnd"
	EventOpponentDisconnected EventType = "opponentDisconnected"
	EventOpponentReconnected  EventType = "opponentReconnected"
	EventOpponentLeft         EventType = "opponentLeft"
	EventGameResumed          EventType = "gameResumed"
	EventReconnected          EventType = "reconnected"
	EventError                EventType = "error"
	EventPong                 EventType = "pong"
)

// SeatInfo identifies one roster seat in lobby payloads.
type SeatInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoundResult records one revealed round. Round is 1-based on the wire;
// WinnerID is nil for a draw; Scores snapshots both totals after the round.
type RoundResult struct {
	Round       int             `json:"round"`
	Cards       map[string]Card `json:"cards"`
	WinnerID    *string         `json:"winnerId"`
	Explanation string          `json:"explanation"`
	Scores      map[string]int  `json:"scores"`
}

// Event is the closed outbound union: Type selects which payload fields are
// populated, everything else is omitted from the wire.
type Event struct {
	Type EventType `json:"type"`

	LobbyID    string     `json:"lobbyId,omitempty"`
	PlayerID   string     `json:"playerId,omitempty"`
	PlayerName string     `json:"playerName,omitempty"`
	Players    []SeatInfo `json:"players,omitempty"`

	Hand         []Card `json:"hand,omitempty"`
	OpponentHand []Card `json:"opponentHand,omitempty"`
	Sequence     []Card `json:"sequence,omitempty"`

	Round     int `json:"round,omitempty"`
	TimeLimit int `json:"timeLimit,omitempty"`
	Remaining int `json:"remaining,omitempty"`

	Result *RoundResult `json:"result,omitempty"`

	WinnerID     string         `json:"winnerId,omitempty"`
	YouWon       bool           `json:"youWon,omitempty"`
	Tie          bool           `json:"tie,omitempty"`
	ByDisconnect bool           `json:"byDisconnect,omitempty"`
	FinalScores  map[string]int `json:"finalScores,omitempty"`

	ReconnectTimeout int `json:"reconnectTimeout,omitempty"`

	State *Snapshot `json:"state,omitempty"`

	Message string `json:"message,omitempty"`
}
