// internal/lobby/registry.go
package lobby

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvickers/rps-duel/internal/config"
	"github.com/mvickers/rps-duel/internal/game"
	"github.com/mvickers/rps-duel/internal/validate"
)

// SendFunc delivers one event to one connection. It must not block; the
// transport layer buffers and drops on backpressure.
type SendFunc func(connID string, ev game.Event)

type connBinding struct {
	lobbyID  string
	playerID string
}

// Registry owns every lobby and the connection-to-seat bindings. It is the
// single entry point for client messages; game state itself lives in each
// lobby's Session. Lock order is registry, then session, then tracker.
type Registry struct {
	mu     sync.Mutex
	logger *logrus.Logger
	send   SendFunc
	rng    *rand.Rand

	lobbies map[string]*Lobby
	conns   map[string]connBinding
	tracker *ReconnectTracker

	notifyGrace time.Duration
}

// NewRegistry creates an empty registry delivering events through send.
func NewRegistry(logger *logrus.Logger, send SendFunc) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		logger:      logger,
		send:        send,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		lobbies:     make(map[string]*Lobby),
		conns:       make(map[string]connBinding),
		tracker:     NewReconnectTracker(config.ReconnectWindow),
		notifyGrace: config.DisconnectNotifyGrace,
	}
}

// HandleCreate opens a new lobby and seats the creator.
func (r *Registry) HandleCreate(connID, rawName, rawPlayerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := validate.PlayerName(rawName)
	pid := rawPlayerID
	if !validate.PlayerID(pid) {
		pid = uuid.NewString()
	}
	code := r.newCodeLocked()
	lob := newLobby(code)
	lob.Players = append(lob.Players, game.NewPlayer(pid, name, connID))
	lob.Allowed[pid] = true
	r.lobbies[code] = lob
	r.conns[connID] = connBinding{lobbyID: code, playerID: pid}

	r.logger.Infof("lobby %s created by %s", code, name)
	r.send(connID, game.Event{
		Type:     game.EventLobbyCreated,
		LobbyID:  code,
		PlayerID: pid,
		Players:  lob.roster(),
	})
}

// HandleJoin seats a player in an existing lobby, or routes a returning
// player back to their seat. The game starts when two live players are
// seated.
func (r *Registry) HandleJoin(connID, rawLobbyID, rawName, rawPlayerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := validate.LobbyID(rawLobbyID)
	if !ok {
		r.errorTo(connID, "Invalid lobby code")
		return
	}
	lob := r.lobbies[code]
	if lob == nil {
		r.errorTo(connID, "Lobby not found")
		return
	}
	pid := rawPlayerID
	if !validate.PlayerID(pid) {
		pid = uuid.NewString()
	}
	name := validate.PlayerName(rawName)

	if lob.Session != nil {
		if lob.Session.IsCompleted() {
			r.removeLobbyLocked(lob)
			r.errorTo(connID, "Lobby not found")
			return
		}
		// Roster identity alone authorizes a rejoin here; only the explicit
		// reconnect path demands an open window. This covers a player coming
		// back from a second tab while the first connection is still up.
		if lob.Allowed[pid] && lob.seatOf(pid) != nil {
			// Rejoin via the join route still gets the lobby acknowledgement
			// before the snapshot.
			r.send(connID, game.Event{
				Type:     game.EventLobbyJoined,
				LobbyID:  code,
				PlayerID: pid,
				Players:  lob.roster(),
			})
			r.reattachLocked(lob, pid, connID)
			return
		}
		r.errorTo(connID, "Game already in progress")
		return
	}

	// Returning to a pre-game seat keeps the original name.
	if seat := lob.seatOf(pid); seat != nil {
		seat.MarkConnected(connID)
		r.conns[connID] = connBinding{lobbyID: code, playerID: pid}
		r.send(connID, game.Event{
			Type:     game.EventLobbyJoined,
			LobbyID:  code,
			PlayerID: pid,
			Players:  lob.roster(),
		})
		r.maybeStartLocked(lob)
		return
	}

	// Seats abandoned before the game started are reclaimed on join.
	kept := lob.Players[:0]
	for _, p := range lob.Players {
		if p.Connected {
			kept = append(kept, p)
		} else {
			delete(lob.Allowed, p.ID)
			r.tracker.Clear(p.ID)
		}
	}
	lob.Players = kept

	if len(lob.Players) >= 2 {
		r.errorTo(connID, "Lobby is full")
		return
	}

	joiner := game.NewPlayer(pid, name, connID)
	lob.Players = append(lob.Players, joiner)
	lob.Allowed[pid] = true
	r.conns[connID] = connBinding{lobbyID: code, playerID: pid}
	r.logger.Infof("player %s joined lobby %s", name, code)

	if len(lob.Players) == 1 {
		// Everyone else is gone; the joiner now owns the code.
		r.send(connID, game.Event{
			Type:     game.EventLobbyCreated,
			LobbyID:  code,
			PlayerID: pid,
			Players:  lob.roster(),
		})
		return
	}
	for _, p := range lob.Players {
		if p.ID != pid && p.Connected {
			r.send(p.ConnID, game.Event{
				Type:       game.EventPlayerJoined,
				PlayerID:   pid,
				PlayerName: name,
				Players:    lob.roster(),
			})
		}
	}
	r.send(connID, game.Event{
		Type:     game.EventLobbyJoined,
		LobbyID:  code,
		PlayerID: pid,
		Players:  lob.roster(),
	})
	r.maybeStartLocked(lob)
}

// HandleReconnect rebinds a player to a game they dropped from. Attempts
// without an open reconnect window are rejected.
func (r *Registry) HandleReconnect(connID, rawLobbyID, rawPlayerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := validate.LobbyID(rawLobbyID)
	if !ok || !validate.PlayerID(rawPlayerID) {
		r.errorTo(connID, "Invalid reconnection attempt")
		return
	}
	lob := r.lobbies[code]
	if lob == nil {
		// The lobby is gone; any leftover window is useless now.
		r.tracker.Clear(rawPlayerID)
		r.errorTo(connID, "Invalid reconnection attempt")
		return
	}
	if !lob.Allowed[rawPlayerID] {
		r.errorTo(connID, "Invalid reconnection attempt")
		return
	}
	if lob.Session == nil {
		// Game never started; treat like a pre-game rejoin.
		if seat := lob.seatOf(rawPlayerID); seat != nil {
			seat.MarkConnected(connID)
			r.conns[connID] = connBinding{lobbyID: code, playerID: rawPlayerID}
			r.send(connID, game.Event{
				Type:     game.EventLobbyJoined,
				LobbyID:  code,
				PlayerID: rawPlayerID,
				Players:  lob.roster(),
			})
			r.maybeStartLocked(lob)
			return
		}
		r.errorTo(connID, "Lobby not found")
		return
	}
	if lob.Session.IsCompleted() {
		r.removeLobbyLocked(lob)
		r.errorTo(connID, "Game already ended")
		return
	}
	if !r.tracker.Has(rawPlayerID, code) {
		r.errorTo(connID, "Invalid reconnection attempt")
		return
	}
	r.reattachLocked(lob, rawPlayerID, connID)
}

// HandlePreviewReady routes a preview-ready signal.
func (r *Registry) HandlePreviewReady(connID string) {
	if sess, pid, ok := r.resolve(connID); ok {
		sess.HandlePreviewReady(pid)
	}
}

// HandleSetSequence routes a sequence commitment given as card ids.
func (r *Registry) HandleSetSequence(connID string, ids []string) {
	if sess, pid, ok := r.resolve(connID); ok {
		sess.HandleSetSequence(pid, ids)
	}
}

// HandleSwap routes a swap request given in the remaining-cards frame.
func (r *Registry) HandleSwap(connID string, pos1, pos2 int) {
	sess, pid, ok := r.resolve(connID)
	if !ok {
		return
	}
	if !validate.SwapPositions(pos1, pos2, sess.CurrentRound()) {
		r.send(connID, game.Event{Type: game.EventSwapError, Message: "Invalid swap positions"})
		return
	}
	sess.HandleSwap(pid, pos1, pos2)
}

// HandleSkipSwap routes a swap-phase pass.
func (r *Registry) HandleSkipSwap(connID string) {
	if sess, pid, ok := r.resolve(connID); ok {
		sess.HandleSkipSwap(pid)
	}
}

// HandleContinue routes reveal-phase readiness.
func (r *Registry) HandleContinue(connID string) {
	if sess, pid, ok := r.resolve(connID); ok {
		sess.HandleContinue(pid)
	}
}

// HandleLeave removes a player deliberately. Leaving a live game forfeits it.
func (r *Registry) HandleLeave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	lob := r.lobbies[b.lobbyID]
	if lob == nil {
		return
	}

	if lob.Session != nil && !lob.Session.IsCompleted() {
		r.logger.Infof("player %s left lobby %s mid-game", b.playerID, lob.ID)
		lob.Session.Forfeit(b.playerID)
		r.removeLobbyLocked(lob)
		return
	}

	leaver := lob.seatOf(b.playerID)
	kept := lob.Players[:0]
	for _, p := range lob.Players {
		if p.ID != b.playerID {
			kept = append(kept, p)
		}
	}
	lob.Players = kept
	delete(lob.Allowed, b.playerID)
	if leaver != nil {
		for _, p := range lob.Players {
			if p.Connected {
				r.send(p.ConnID, game.Event{
					Type:       game.EventOpponentLeft,
					PlayerID:   leaver.ID,
					PlayerName: leaver.Name,
				})
			}
		}
	}
	if len(lob.Players) == 0 {
		r.removeLobbyLocked(lob)
	}
}

// HandleDisconnect reacts to a dropped connection. Before the game starts the
// seat is kept and reclaimed by the next joiner; during a game the session
// pauses and a reconnect window opens for the absent player.
func (r *Registry) HandleDisconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	lob := r.lobbies[b.lobbyID]
	if lob == nil {
		return
	}

	if lob.Session == nil {
		if seat := lob.seatOf(b.playerID); seat != nil && seat.ConnID == connID {
			seat.MarkDisconnected()
		}
		return
	}
	if lob.Session.IsCompleted() {
		r.removeLobbyLocked(lob)
		return
	}

	// A drop of a superseded connection is not a disconnect: the player
	// already rebound to a newer one.
	if cur, live := lob.Session.PlayerLink(b.playerID); live && cur != connID {
		return
	}

	silent, bothGone := lob.Session.HandleDisconnect(b.playerID)
	if bothGone {
		r.logger.Infof("lobby %s abandoned by both players", lob.ID)
		r.removeLobbyLocked(lob)
		return
	}

	pid := b.playerID
	lobbyID := lob.ID
	var name string
	if seat := lob.seatOf(pid); seat != nil {
		name = seat.Name
	}

	var onNotify func()
	if !silent {
		onNotify = func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			cur := r.lobbies[lobbyID]
			if cur == nil || cur.Session == nil || cur.Session.IsCompleted() {
				return
			}
			opp := cur.otherSeat(pid)
			if opp == nil {
				return
			}
			oppConn, live := cur.Session.PlayerLink(opp.ID)
			if !live {
				return
			}
			r.send(oppConn, game.Event{
				Type:             game.EventOpponentDisconnected,
				PlayerID:         pid,
				PlayerName:       name,
				ReconnectTimeout: r.tracker.Remaining(pid),
			})
		}
	}
	onExpire := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cur := r.lobbies[lobbyID]
		if cur == nil || cur.Session == nil {
			return
		}
		cur.Session.EndByDisconnect(pid)
		r.removeLobbyLocked(cur)
	}
	r.tracker.Track(pid, lobbyID, r.notifyGrace, onNotify, onExpire)
}

// LobbyCount reports the number of live lobbies, for the health endpoint.
func (r *Registry) LobbyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}

func (r *Registry) reattachLocked(lob *Lobby, pid, connID string) {
	r.tracker.Clear(pid)
	r.conns[connID] = connBinding{lobbyID: lob.ID, playerID: pid}
	opponentLive := lob.Session.Reattach(pid, connID)
	if !opponentLive {
		if opp := lob.otherSeat(pid); opp != nil {
			r.send(connID, game.Event{
				Type:             game.EventOpponentDisconnected,
				PlayerID:         opp.ID,
				PlayerName:       opp.Name,
				ReconnectTimeout: r.tracker.Remaining(opp.ID),
			})
		}
	}
}

func (r *Registry) maybeStartLocked(lob *Lobby) {
	if lob.Session != nil || len(lob.Players) != 2 {
		return
	}
	if !lob.Players[0].Connected || !lob.Players[1].Connected {
		return
	}
	sess := game.NewSession(lob.ID, lob.Players[0], lob.Players[1], r.logger)
	// Both closures run under the session lock, which also guards ConnID.
	sess.Broadcast = func(ev game.Event) {
		for _, p := range lob.Players {
			if p.Connected {
				r.send(p.ConnID, ev)
			}
		}
	}
	sess.Send = func(playerID string, ev game.Event) {
		if p := lob.seatOf(playerID); p != nil && p.Connected {
			r.send(p.ConnID, ev)
		}
	}
	lob.Session = sess
	sess.Start()
}

// resolve maps a connection to its live session. Lobbies whose game already
// finished are torn down on the way.
func (r *Registry) resolve(connID string) (*game.Session, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok {
		return nil, "", false
	}
	lob := r.lobbies[b.lobbyID]
	if lob == nil {
		delete(r.conns, connID)
		return nil, "", false
	}
	if lob.Session == nil {
		return nil, "", false
	}
	if lob.Session.IsCompleted() {
		r.removeLobbyLocked(lob)
		return nil, "", false
	}
	return lob.Session, b.playerID, true
}

func (r *Registry) removeLobbyLocked(lob *Lobby) {
	if lob.Session != nil {
		// Stops any running timer; idempotent on completed sessions.
		lob.Session.Abandon()
	}
	delete(r.lobbies, lob.ID)
	r.tracker.ClearLobby(lob.ID)
	for connID, b := range r.conns {
		if b.lobbyID == lob.ID {
			delete(r.conns, connID)
		}
	}
}

func (r *Registry) newCodeLocked() string {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = validate.LobbyAlphabet[r.rng.Intn(len(validate.LobbyAlphabet))]
		}
		code := string(b)
		if _, taken := r.lobbies[code]; !taken {
			return code
		}
	}
}

func (r *Registry) errorTo(connID, msg string) {
	r.send(connID, game.Event{Type: game.EventError, Message: msg})
}

func (l *Lobby) otherSeat(playerID string) *game.Player {
	for _, p := range l.Players {
		if p.ID != playerID {
			return p
		}
	}
	return nil
}
