// internal/lobby/reconnect.go
package lobby

import (
	"sync"
	"time"
)

// ReconnectRecord tracks one disconnected player's open window.
type ReconnectRecord struct {
	LobbyID        string
	DisconnectedAt time.Time

	expiry *time.Timer
	notify *time.Timer
}

// ReconnectTracker owns the reconnect windows for disconnected players. The
// registry consults it on every reconnect attempt; an expired or missing
// record means the seat was already forfeited.
type ReconnectTracker struct {
	mu      sync.Mutex
	window  time.Duration
	records map[string]*ReconnectRecord
}

// NewReconnectTracker creates a tracker with the given window duration.
func NewReconnectTracker(window time.Duration) *ReconnectTracker {
	return &ReconnectTracker{
		window:  window,
		records: make(map[string]*ReconnectRecord),
	}
}

// Track opens a reconnect window for playerID. onNotify fires after the grace
// delay unless the player returns first; onExpire fires when the window runs
// out. A second Track for the same player replaces the first window whole.
func (t *ReconnectTracker) Track(playerID, lobbyID string, grace time.Duration, onNotify, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.records[playerID]; ok {
		old.stop()
	}
	rec := &ReconnectRecord{
		LobbyID:        lobbyID,
		DisconnectedAt: time.Now(),
	}
	t.records[playerID] = rec
	if onNotify != nil {
		rec.notify = time.AfterFunc(grace, func() {
			if !t.holds(playerID, rec) {
				return
			}
			onNotify()
		})
	}
	rec.expiry = time.AfterFunc(t.window, func() {
		t.mu.Lock()
		if t.records[playerID] != rec {
			t.mu.Unlock()
			return
		}
		delete(t.records, playerID)
		t.mu.Unlock()
		onExpire()
	})
}

// Has reports whether the player's window is still open for the given lobby.
func (t *ReconnectTracker) Has(playerID, lobbyID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[playerID]
	return ok && rec.LobbyID == lobbyID
}

// Remaining returns the seconds left in the player's window, zero when no
// window is open.
func (t *ReconnectTracker) Remaining(playerID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[playerID]
	if !ok {
		return 0
	}
	left := t.window - time.Since(rec.DisconnectedAt)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Clear closes the player's window without firing either callback.
func (t *ReconnectTracker) Clear(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.records[playerID]; ok {
		rec.stop()
		delete(t.records, playerID)
	}
}

// ClearLobby closes every open window pointing at the given lobby.
func (t *ReconnectTracker) ClearLobby(lobbyID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, rec := range t.records {
		if rec.LobbyID == lobbyID {
			rec.stop()
			delete(t.records, id)
		}
	}
}

// holds reports whether rec is still the live record for playerID.
func (t *ReconnectTracker) holds(playerID string, rec *ReconnectRecord) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[playerID] == rec
}

func (r *ReconnectRecord) stop() {
	if r.expiry != nil {
		r.expiry.Stop()
	}
	if r.notify != nil {
		r.notify.Stop()
	}
}
