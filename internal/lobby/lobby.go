// internal/lobby/lobby.go
package lobby

import (
	"time"

	"github.com/mvickers/rps-duel/internal/game"
)

// Lobby is one join code and its seats. Before the session starts the
// registry mutates it directly under its own lock; once Session is set the
// seats are shared with the session and mutated under the session lock.
type Lobby struct {
	ID        string
	CreatedAt time.Time

	Players []*game.Player
	Session *game.Session

	// Allowed marks player ids that may occupy or re-occupy a seat.
	Allowed map[string]bool
}

func newLobby(id string) *Lobby {
	return &Lobby{
		ID:        id,
		CreatedAt: time.Now(),
		Allowed:   make(map[string]bool),
	}
}

func (l *Lobby) seatOf(playerID string) *game.Player {
	for _, p := range l.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (l *Lobby) roster() []game.SeatInfo {
	seats := make([]game.SeatInfo, 0, len(l.Players))
	for _, p := range l.Players {
		seats = append(seats, game.SeatInfo{ID: p.ID, Name: p.Name})
	}
	return seats
}
