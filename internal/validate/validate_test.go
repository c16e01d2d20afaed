// internal/validate/validate_test.go
package validate

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPlayerName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alice", "Alice"},
		{"  Bob  ", "Bob"},
		{"", "Player"},
		{"   ", "Player"},
		{`<script>"x"</script>`, "scriptx/script"},
		{"<>&'\"", "Player"},
		{strings.Repeat("a", 30), strings.Repeat("a", 20)},
		{"Émilie du Châtelet xx", "Émilie du Châtelet x"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PlayerName(c.in), "input %q", c.in)
	}
}

func TestLobbyID(t *testing.T) {
	code, ok := LobbyID("abcdef")
	assert.True(t, ok)
	assert.Equal(t, "ABCDEF", code)

	_, ok = LobbyID(" XY23ZW ")
	assert.True(t, ok)

	for _, bad := range []string{"", "ABC", "ABCDEFG", "ABC DE", "ABCDE0", "ABCDEO", "ABCDE1", "ABCDEI", "ABC-EF"} {
		_, ok := LobbyID(bad)
		assert.False(t, ok, "code %q should be rejected", bad)
	}
}

func TestPlayerID(t *testing.T) {
	assert.True(t, PlayerID(uuid.NewString()))
	assert.True(t, PlayerID("player_abc123_xyz789"))
	assert.True(t, PlayerID("some-opaque_Token42"))

	assert.False(t, PlayerID(""))
	assert.False(t, PlayerID("has space"))
	assert.False(t, PlayerID("semi;colon"))
	assert.False(t, PlayerID(strings.Repeat("x", 101)))
}

func TestSwapPositions(t *testing.T) {
	assert.True(t, SwapPositions(0, 1, 0))
	assert.True(t, SwapPositions(1, 0, 0))
	assert.True(t, SwapPositions(4, 5, 0))
	assert.True(t, SwapPositions(0, 1, 4), "two cards remain in the final round")

	assert.False(t, SwapPositions(0, 2, 0), "not adjacent")
	assert.False(t, SwapPositions(2, 2, 0), "same position")
	assert.False(t, SwapPositions(-1, 0, 0))
	assert.False(t, SwapPositions(5, 6, 0), "past the end of the sequence")
	assert.False(t, SwapPositions(1, 2, 4), "out of the remaining-cards range")
	assert.False(t, SwapPositions(0, 1, 5), "only one card remains")
}
