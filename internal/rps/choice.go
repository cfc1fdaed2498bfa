// Package rps holds the pure rock-paper-scissors rules: turning a classifier
// ranking into a move, sampling the computer's move and scoring a round.
package rps

import (
	rand "math/rand/v2"
	"strings"
)

// Choice is a resolved move.
type Choice int

const (
	// Unknown means the gesture could not be recognised with enough confidence
	Unknown Choice = iota
	Rock
	Paper
	Scissors
)

// Moves lists the playable choices in resolution priority order.
var Moves = []Choice{Rock, Paper, Scissors}

// String returns the display name of a choice
func (c Choice) String() string {
	switch c {
	case Rock:
		return "Rock"
	case Paper:
		return "Paper"
	case Scissors:
		return "Scissors"
	default:
		return "Unknown"
	}
}

// Emoji returns the hand sign shown next to a choice.
func (c Choice) Emoji() string {
	switch c {
	case Rock:
		return "✊"
	case Paper:
		return "✋"
	case Scissors:
		return "✌️"
	default:
		return "❓"
	}
}

// ChoiceFromString parses a choice name, case-insensitively. Anything else is Unknown.
func ChoiceFromString(s string) Choice {
	for _, c := range Moves {
		if strings.EqualFold(s, c.String()) {
			return c
		}
	}
	return Unknown
}

// RandomChoice samples Rock, Paper or Scissors with equal probability.
func RandomChoice(rng *rand.Rand) Choice {
	return Moves[rng.IntN(len(Moves))]
}
