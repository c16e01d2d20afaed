// internal/game/card.go
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mvickers/rps-duel/internal/config"
)

// Kind is one of the three card kinds.
type Kind string

const (
	KindRock     Kind = "rock"
	KindPaper    Kind = "paper"
	KindScissors Kind = "scissors"
)

var kinds = []Kind{KindRock, KindPaper, KindScissors}

// Color returns the display color derived from the kind.
func (k Kind) Color() string {
	switch k {
	case KindRock:
		return "#c0392b"
	case KindPaper:
		return "#2980b9"
	case KindScissors:
		return "#27ae60"
	}
	return "#7f8c8d"
}

// Beats reports whether k wins against other.
func (k Kind) Beats(other Kind) bool {
	switch k {
	case KindRock:
		return other == KindScissors
	case KindScissors:
		return other == KindPaper
	case KindPaper:
		return other == KindRock
	}
	return false
}

// beatsVerb feeds the human-readable round explanations.
var beatsVerb = map[Kind]string{
	KindRock:     "crushes",
	KindScissors: "cut",
	KindPaper:    "covers",
}

// Card is immutable after creation. The ID is unique within a single deal.
type Card struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Color string `json:"color"`
}

// NewDeck builds the canonical nine-card deck, three cards per kind.
func NewDeck() []Card {
	deck := make([]Card, 0, config.DeckSize)
	for _, k := range kinds {
		for n := 1; n <= config.CardsPerKind; n++ {
			deck = append(deck, Card{
				ID:    fmt.Sprintf("%s-%d", k, n),
				Kind:  k,
				Color: k.Color(),
			})
		}
	}
	return deck
}

// Deal returns a uniformly shuffled six-card hand drawn from a full deck.
func Deal() []Card {
	deck := NewDeck()
	shuffle(deck)
	return deck[:config.CardsPerPlayer]
}

// Shuffled returns a Fisher-Yates shuffled copy of cards.
func Shuffled(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	shuffle(out)
	return out
}

func shuffle(cards []Card) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// ResolveSequence maps wire card ids onto the player's dealt cards, in order.
// It fails on length mismatch, unknown ids, and duplicates, so a successful
// resolution is always a permutation of the hand.
func ResolveSequence(hand []Card, ids []string) ([]Card, bool) {
	if len(ids) != len(hand) {
		return nil, false
	}
	byID := make(map[string]Card, len(hand))
	for _, c := range hand {
		byID[c.ID] = c
	}
	seen := make(map[string]bool, len(ids))
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || seen[id] {
			return nil, false
		}
		seen[id] = true
		out = append(out, c)
	}
	return out, true
}
