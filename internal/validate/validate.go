// internal/validate/validate.go
package validate

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mvickers/rps-duel/internal/config"
)

// LobbyAlphabet excludes the lookalike characters 0, O, 1 and I.
const LobbyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxNameRunes = 20

var (
	lobbyIDRe      = regexp.MustCompile(`^[` + LobbyAlphabet + `]{6}$`)
	legacyIDRe     = regexp.MustCompile(`^player_[a-z0-9]+_[a-z0-9]+$`)
	opaqueIDRe     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)
	nameStripChars = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "&", "")
)

// PlayerName sanitizes a display name: trim, cap at 20 runes, strip markup
// characters. Empty results fall back to "Player".
func PlayerName(raw string) string {
	name := strings.TrimSpace(raw)
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}
	name = nameStripChars.Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return name
}

// LobbyID normalizes and checks a lobby code. Returns the uppercased code and
// whether it is a valid 6-character code over the lobby alphabet.
func LobbyID(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return code, lobbyIDRe.MatchString(code)
}

// PlayerID accepts UUIDs, the legacy player_<a>_<b> form, or any short opaque
// token. Anything else is rejected before it can key server maps.
func PlayerID(raw string) bool {
	if raw == "" {
		return false
	}
	if _, err := uuid.Parse(raw); err == nil {
		return true
	}
	if legacyIDRe.MatchString(raw) {
		return true
	}
	return opaqueIDRe.MatchString(raw)
}

// SwapPositions checks a swap request in the remaining-cards frame for the
// given current round: both in range and adjacent.
func SwapPositions(pos1, pos2, currentRound int) bool {
	remaining := config.CardsPerPlayer - currentRound
	if pos1 < 0 || pos2 < 0 || pos1 >= remaining || pos2 >= remaining {
		return false
	}
	diff := pos1 - pos2
	return diff == 1 || diff == -1
}
