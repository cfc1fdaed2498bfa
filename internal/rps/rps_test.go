package rps

import (
	"fmt"
	rand "math/rand/v2"
	"testing"

	"github.com/lox/rpsvision/internal/vision"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result vision.PredictionResult
		want   Choice
	}{
		{"nil result", nil, Unknown},
		{"empty result", vision.PredictionResult{}, Unknown},
		{"confident rock", vision.PredictionResult{{"Rock", 0.95}, {"Paper", 0.03}, {"Scissors", 0.02}}, Rock},
		{"confident paper", vision.PredictionResult{{"Rock", 0.1}, {"Paper", 0.8}, {"Scissors", 0.1}}, Paper},
		{"confident scissors", vision.PredictionResult{{"Rock", 0.0}, {"Paper", 0.0}, {"Scissors", 1.0}}, Scissors},
		{"exactly at threshold", vision.PredictionResult{{"Rock", 0.70}, {"Paper", 0.30}}, Rock},
		{"below threshold", vision.PredictionResult{{"Rock", 0.40}, {"Paper", 0.35}, {"Scissors", 0.25}}, Unknown},
		{"lowercase label", vision.PredictionResult{{"scissors", 0.9}}, Scissors},
		{"label with extra text", vision.PredictionResult{{"Class 2 - PAPER hand", 0.9}}, Paper},
		{"unrelated label", vision.PredictionResult{{"Nothing", 0.99}, {"Rock", 0.01}}, Unknown},
		{"rock takes priority in combined label", vision.PredictionResult{{"Rock or Paper", 0.9}}, Rock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.result, DefaultThreshold))
		})
	}
}

func TestResolveBelowThresholdIsAlwaysUnknown(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"Rock", "Paper", "Scissors", "rock", "Nothing"} {
		for conf := 0.0; conf < DefaultThreshold; conf += 0.05 {
			result := vision.PredictionResult{{Label: label, Confidence: conf}}
			assert.Equal(t, Unknown, Resolve(result, DefaultThreshold), "label=%s conf=%.2f", label, conf)
		}
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()

	table := map[[2]Choice]Outcome{
		{Rock, Rock}:         Tie,
		{Rock, Paper}:        Lose,
		{Rock, Scissors}:     Win,
		{Paper, Rock}:        Win,
		{Paper, Paper}:       Tie,
		{Paper, Scissors}:    Lose,
		{Scissors, Rock}:     Lose,
		{Scissors, Paper}:    Win,
		{Scissors, Scissors}: Tie,
	}
	for pair, want := range table {
		t.Run(fmt.Sprintf("%s vs %s", pair[0], pair[1]), func(t *testing.T) {
			assert.Equal(t, want, Decide(pair[0], pair[1]))
		})
	}

	t.Run("unknown user is undetermined", func(t *testing.T) {
		for _, computer := range append([]Choice{Unknown}, Moves...) {
			assert.Equal(t, Undetermined, Decide(Unknown, computer))
		}
	})
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	t.Run("confident rock beats scissors", func(t *testing.T) {
		user := Resolve(vision.PredictionResult{{"Rock", 0.95}, {"Paper", 0.03}, {"Scissors", 0.02}}, DefaultThreshold)
		round := NewRound("a", 1, user, Scissors)
		assert.Equal(t, Win, round.Outcome)
		assert.Equal(t, "You Win!", round.Outcome.Message())
	})

	t.Run("unsure prediction is undetermined", func(t *testing.T) {
		user := Resolve(vision.PredictionResult{{"Rock", 0.40}, {"Paper", 0.35}, {"Scissors", 0.25}}, DefaultThreshold)
		assert.Equal(t, Unknown, user)
		for _, computer := range Moves {
			assert.Equal(t, Undetermined, NewRound("b", 1, user, computer).Outcome)
		}
		assert.Equal(t, "Couldn't detect your move!", Undetermined.Message())
	})

	t.Run("paper against paper ties", func(t *testing.T) {
		assert.Equal(t, Tie, NewRound("c", 1, Paper, Paper).Outcome)
	})
}

func TestRandomChoice(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	counts := map[Choice]int{}
	const n = 30000
	for range n {
		counts[RandomChoice(rng)]++
	}

	assert.Zero(t, counts[Unknown])
	for _, c := range Moves {
		assert.InDelta(t, n/3, counts[c], n*0.02, "choice %s", c)
	}
}

func TestChoiceStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Paper, ChoiceFromString("paper"))
	assert.Equal(t, Unknown, ChoiceFromString("lizard"))
	assert.Equal(t, "✊", Rock.Emoji())
	assert.Equal(t, "❓", Unknown.Emoji())
	assert.Contains(t, NewRound("x", 3, Rock, Paper).String(), "Computer Wins!")
}
