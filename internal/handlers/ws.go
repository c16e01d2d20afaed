// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvickers/rps-duel/internal/game"
	"github.com/mvickers/rps-duel/internal/lobby"
	"github.com/mvickers/rps-duel/internal/middleware"
)

const (
	writeTimeout  = 3 * time.Second
	outBufferSize = 64
)

// clientMessage is the inbound message union. Type selects which fields are
// read; unknown fields are ignored.
type clientMessage struct {
	Type string `json:"type"`

	Name       string `json:"name,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	LobbyID    string `json:"lobbyId,omitempty"`

	// Sequence carries the committed play order as card references.
	Sequence []cardRef `json:"sequence,omitempty"`

	// Pos1 and Pos2 are swap positions in the remaining-cards frame. Pointers
	// distinguish an absent field from position zero.
	Pos1 *int `json:"pos1,omitempty"`
	Pos2 *int `json:"pos2,omitempty"`
}

type cardRef struct {
	ID string `json:"id"`
}

// wsConn is one client connection with its buffered outbound queue. The write
// pump is the only goroutine that touches the socket for writes.
type wsConn struct {
	id     string
	ws     *websocket.Conn
	out    chan game.Event
	logger *logrus.Entry
}

// Hub tracks live connections and delivers events to them. It satisfies
// lobby.SendFunc via Send, which never blocks: events to a backed-up client
// are dropped, and the client recovers state through reconnection.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*wsConn
	logger *logrus.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		conns:  make(map[string]*wsConn),
		logger: logger,
	}
}

// Send queues one event for one connection. Safe to call under game locks.
func (h *Hub) Send(connID string, ev game.Event) {
	h.mu.Lock()
	c := h.conns[connID]
	h.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case c.out <- ev:
	default:
		c.logger.Warnf("outbound buffer full, dropping %s event", ev.Type)
	}
}

func (h *Hub) register(c *wsConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

// unregister drops the connection from the hub. The queue is deliberately not
// closed: a late Send racing the teardown must never hit a closed channel, and
// the write pump exits through context cancellation instead.
func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
}

// writePump drains the outbound queue onto the socket. Exits when the queue
// is closed by unregister or when the connection context ends.
func (c *wsConn) writePump(ctx context.Context) {
	for {
		select {
		case ev := <-c.out:
			data, err := json.Marshal(ev)
			if err != nil {
				c.logger.Errorf("failed to marshal %s event: %v", ev.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err = c.ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Warnf("write failed for %s event: %v", ev.Type, err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// WSHandler upgrades the connection and runs the read loop, routing each
// message into the registry. On any exit the registry sees a disconnect,
// which opens the reconnect window for seated players.
func WSHandler(logger *logrus.Logger, hub *Hub, reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer ws.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		connID := uuid.NewString()
		middleware.LogWebSocketConnect(logger, connID, r.RemoteAddr)
		conn := &wsConn{
			id:     connID,
			ws:     ws,
			out:    make(chan game.Event, outBufferSize),
			logger: logger.WithField("conn", connID),
		}
		hub.register(conn)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go conn.writePump(ctx)

		readErr := readMessages(ctx, conn, hub, reg)

		hub.unregister(connID)
		reg.HandleDisconnect(connID)
		middleware.LogWebSocketDisconnect(logger, connID, r.RemoteAddr, readErr)
		ws.Close(websocket.StatusNormalClosure, "")
	}
}

// readMessages reads and routes client messages until the connection drops.
// Returns nil for a normal closure.
func readMessages(ctx context.Context, c *wsConn, hub *Hub, reg *lobby.Registry) error {
	for {
		msgType, data, err := c.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			c.logger.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warnf("invalid JSON from client: %v", err)
			hub.Send(c.id, game.Event{Type: game.EventError, Message: "Invalid JSON format."})
			continue
		}

		dispatch(c, hub, reg, msg)
	}
}

// dispatch routes one decoded client message into the registry.
func dispatch(c *wsConn, hub *Hub, reg *lobby.Registry, msg clientMessage) {
	switch msg.Type {
	case "createLobby":
		reg.HandleCreate(c.id, displayName(msg), msg.PlayerID)
	case "joinLobby":
		reg.HandleJoin(c.id, msg.LobbyID, displayName(msg), msg.PlayerID)
	case "reconnect":
		reg.HandleReconnect(c.id, msg.LobbyID, msg.PlayerID)
	case "previewReady":
		reg.HandlePreviewReady(c.id)
	case "setSequence":
		ids := make([]string, len(msg.Sequence))
		for i, ref := range msg.Sequence {
			ids[i] = ref.ID
		}
		reg.HandleSetSequence(c.id, ids)
	case "swapCards":
		if msg.Pos1 == nil || msg.Pos2 == nil {
			hub.Send(c.id, game.Event{Type: game.EventSwapError, Message: "Missing swap positions"})
			return
		}
		reg.HandleSwap(c.id, *msg.Pos1, *msg.Pos2)
	case "skipSwap":
		reg.HandleSkipSwap(c.id)
	case "continueRound", "continue":
		// Older clients send the bare form.
		reg.HandleContinue(c.id)
	case "leaveLobby", "playAgain":
		// playAgain abandons the finished lobby the same way a leave does;
		// the client then creates or joins a fresh one.
		reg.HandleLeave(c.id)
	case "ping":
		hub.Send(c.id, game.Event{Type: game.EventPong})
	default:
		c.logger.Warnf("unknown message type %q", msg.Type)
		hub.Send(c.id, game.Event{Type: game.EventError, Message: "Unknown message type: " + msg.Type})
	}
}

// displayName tolerates both field spellings clients use.
func displayName(msg clientMessage) string {
	if msg.PlayerName != "" {
		return msg.PlayerName
	}
	return msg.Name
}
