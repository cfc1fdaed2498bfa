package rps

import (
	"strings"

	"github.com/lox/rpsvision/internal/vision"
)

// DefaultThreshold is the minimum top confidence needed to accept a gesture.
const DefaultThreshold = 0.70

// Resolve maps a ranked prediction to a Choice. The highest-confidence label
// wins if it reaches threshold and contains "rock", "paper" or "scissors"
// (checked in that order, ignoring case). A nil or empty result is Unknown.
func Resolve(result vision.PredictionResult, threshold float64) Choice {
	top, ok := result.Top()
	if !ok || top.Confidence < threshold {
		return Unknown
	}
	return MatchLabel(top.Label)
}

// MatchLabel maps a classifier label to a Choice by substring.
func MatchLabel(label string) Choice {
	lower := strings.ToLower(label)
	for _, c := range Moves {
		if strings.Contains(lower, strings.ToLower(c.String())) {
			return c
		}
	}
	return Unknown
}
