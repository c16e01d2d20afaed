// internal/config/config.go
package config

import (
	"os"
	"time"
)

// Game shape.
const (
	TotalRounds      = 6
	CardsPerPlayer   = 6
	DeckSize         = 9
	CardsPerKind     = 3
	MaxSwapsPerGame  = 3
	MaxSwapsPerRound = 1
)

// Phase timers, in whole seconds as they appear on the wire.
const (
	PreviewTimerSec  = 30
	SequenceTimerSec = 60
	SwapTimerSec     = 20
	ContinueTimerSec = 5
)

// Disconnect handling.
const (
	// ReconnectWindow is how long an absent player may stay away before the
	// session ends in their opponent's favor.
	ReconnectWindow = 120 * time.Second

	// DisconnectNotifyGrace delays the opponent-disconnected notification so
	// sub-second transport blips never flash an overlay on the other client.
	DisconnectNotifyGrace = 2 * time.Second

	// PostResumeYield is the pause between a resume notification and the
	// deferred round start, so clients process the resume first.
	PostResumeYield = 100 * time.Millisecond
)

const (
	defaultPort      = "3000"
	defaultStaticDir = "./static"
)

// Port returns the listen port, from PORT if set.
func Port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return defaultPort
}

// StaticDir returns the directory served at the HTTP root.
func StaticDir() string {
	if d := os.Getenv("STATIC_DIR"); d != "" {
		return d
	}
	return defaultStaticDir
}
