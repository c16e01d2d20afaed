// internal/handlers/ws_test.go
package handlers

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvickers/rps-duel/internal/game"
	"github.com/mvickers/rps-duel/internal/lobby"
)

func TestClientMessageDecoding(t *testing.T) {
	var msg clientMessage
	raw := `{"type":"swapCards","pos1":0,"pos2":1}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.NotNil(t, msg.Pos1, "position zero must survive decoding")
	require.NotNil(t, msg.Pos2)
	assert.Equal(t, 0, *msg.Pos1)
	assert.Equal(t, 1, *msg.Pos2)

	msg = clientMessage{}
	raw = `{"type":"swapCards"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Nil(t, msg.Pos1, "absent positions stay nil")

	msg = clientMessage{}
	raw = `{"type":"setSequence","sequence":[{"id":"rock-1","kind":"rock"},{"id":"paper-2"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.Len(t, msg.Sequence, 2)
	assert.Equal(t, "rock-1", msg.Sequence[0].ID)
	assert.Equal(t, "paper-2", msg.Sequence[1].ID)

	msg = clientMessage{}
	raw = `{"type":"joinLobby","lobbyId":"AB23CD","playerName":"Alice","playerId":"p-1","unknown":"ignored"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, "AB23CD", msg.LobbyID)
	assert.Equal(t, "Alice", msg.PlayerName)
	assert.Equal(t, "p-1", msg.PlayerID)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", displayName(clientMessage{PlayerName: "Alice", Name: "Bob"}))
	assert.Equal(t, "Bob", displayName(clientMessage{Name: "Bob"}))
	assert.Equal(t, "", displayName(clientMessage{}))
}

// newDispatchRig builds a hub, registry, and registered in-memory connections
// so messages can be routed without a live socket.
func newDispatchRig(connIDs ...string) ([]*wsConn, *Hub, *lobby.Registry) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(logger)
	conns := make([]*wsConn, len(connIDs))
	for i, id := range connIDs {
		conns[i] = &wsConn{
			id:     id,
			out:    make(chan game.Event, outBufferSize),
			logger: logger.WithField("conn", id),
		}
		hub.register(conns[i])
	}
	return conns, hub, lobby.NewRegistry(logger, hub.Send)
}

func drainConn(c *wsConn) []game.Event {
	var events []game.Event
	for {
		select {
		case ev := <-c.out:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func findEvent(events []game.Event, typ game.EventType) *game.Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

func TestDispatchAcceptsEveryClientEvent(t *testing.T) {
	for _, typ := range []string{
		"createLobby", "joinLobby", "reconnect", "previewReady",
		"setSequence", "swapCards", "skipSwap", "continueRound",
		"leaveLobby", "playAgain", "ping",
	} {
		conns, hub, reg := newDispatchRig("c1")
		dispatch(conns[0], hub, reg, clientMessage{Type: typ})
		for _, ev := range drainConn(conns[0]) {
			if ev.Type == game.EventError {
				assert.NotContains(t, ev.Message, "Unknown message type", "%q must be routed", typ)
			}
		}
	}

	conns, hub, reg := newDispatchRig("c1")
	dispatch(conns[0], hub, reg, clientMessage{Type: "bogus"})
	ev := findEvent(drainConn(conns[0]), game.EventError)
	require.NotNil(t, ev)
	assert.Equal(t, "Unknown message type: bogus", ev.Message)
}

func TestDispatchPlayAgainLeavesLobby(t *testing.T) {
	conns, hub, reg := newDispatchRig("c1")
	dispatch(conns[0], hub, reg, clientMessage{Type: "createLobby", PlayerName: "Alice"})
	require.NotNil(t, findEvent(drainConn(conns[0]), game.EventLobbyCreated))
	require.Equal(t, 1, reg.LobbyCount())

	dispatch(conns[0], hub, reg, clientMessage{Type: "playAgain"})
	assert.Equal(t, 0, reg.LobbyCount())
}

func TestDispatchContinueRoundAdvancesReveal(t *testing.T) {
	conns, hub, reg := newDispatchRig("c1", "c2")
	c1, c2 := conns[0], conns[1]

	dispatch(c1, hub, reg, clientMessage{Type: "createLobby", PlayerName: "Alice"})
	created := findEvent(drainConn(c1), game.EventLobbyCreated)
	require.NotNil(t, created)

	dispatch(c2, hub, reg, clientMessage{Type: "joinLobby", LobbyID: created.LobbyID, PlayerName: "Bob"})

	// The game starts; commit both dealt hands in dealt order.
	for _, c := range []*wsConn{c1, c2} {
		preview := findEvent(drainConn(c), game.EventCardsPreview)
		require.NotNil(t, preview, "game should have started for %s", c.id)
		refs := make([]cardRef, len(preview.Hand))
		for i, card := range preview.Hand {
			refs[i] = cardRef{ID: card.ID}
		}
		dispatch(c, hub, reg, clientMessage{Type: "previewReady"})
		dispatch(c, hub, reg, clientMessage{Type: "setSequence", Sequence: refs})
	}
	dispatch(c1, hub, reg, clientMessage{Type: "skipSwap"})
	dispatch(c2, hub, reg, clientMessage{Type: "skipSwap"})
	require.NotNil(t, findEvent(drainConn(c1), game.EventRoundResult), "both skips should reveal round one")
	drainConn(c2)

	dispatch(c1, hub, reg, clientMessage{Type: "continueRound"})
	require.NotNil(t, findEvent(drainConn(c2), game.EventOpponentContinued))

	dispatch(c2, hub, reg, clientMessage{Type: "continueRound"})
	start := findEvent(drainConn(c1), game.EventRoundStart)
	require.NotNil(t, start, "both continues should start the next round")
	assert.Equal(t, 2, start.Round)
}
