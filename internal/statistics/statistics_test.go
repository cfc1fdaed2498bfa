package statistics

import (
	"testing"

	"github.com/lox/rpsvision/internal/rps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func round(user, computer rps.Choice) rps.Round {
	return rps.NewRound("", 0, user, computer)
}

func TestStatisticsAdd(t *testing.T) {
	s := New()
	s.Add(round(rps.Rock, rps.Scissors)) // win
	s.Add(round(rps.Paper, rps.Rock))    // win
	s.Add(round(rps.Unknown, rps.Paper)) // undetermined
	s.Add(round(rps.Scissors, rps.Rock)) // lose
	s.Add(round(rps.Rock, rps.Rock))     // tie
	s.Add(round(rps.Rock, rps.Scissors)) // win

	require.NoError(t, s.Validate())
	assert.Equal(t, 6, s.Rounds)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Ties)
	assert.Equal(t, 1, s.Undetermined)
	assert.Equal(t, 5, s.Decided())
	assert.InDelta(t, 0.6, s.WinRate(), 1e-9)
	assert.InDelta(t, 5.0/6.0, s.DetectionRate(), 1e-9)

	fav, ok := s.Favourite()
	require.True(t, ok)
	assert.Equal(t, rps.Rock, fav)

	assert.Equal(t, "Played 6 rounds: 3 won, 1 lost, 1 tied, 1 undetermined", s.Summary())
}

func TestStatisticsStreaks(t *testing.T) {
	s := New()
	for range 3 {
		s.Add(round(rps.Paper, rps.Rock))
	}
	assert.Equal(t, 3, s.Streak())

	s.Add(round(rps.Unknown, rps.Rock))
	assert.Equal(t, 3, s.Streak(), "undetermined rounds do not break a streak")

	s.Add(round(rps.Rock, rps.Paper))
	s.Add(round(rps.Rock, rps.Paper))
	assert.Equal(t, -2, s.Streak())

	s.Add(round(rps.Paper, rps.Rock))
	assert.Equal(t, 1, s.Streak())
	assert.Equal(t, 3, s.BestStreak)
}

func TestStatisticsEmpty(t *testing.T) {
	s := New()
	require.NoError(t, s.Validate())
	assert.Zero(t, s.WinRate())
	assert.Zero(t, s.DetectionRate())
	assert.Zero(t, s.StdError())

	_, ok := s.Favourite()
	assert.False(t, ok)

	lo, hi := s.ConfidenceInterval95()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestConfidenceIntervalIsClamped(t *testing.T) {
	s := New()
	s.Add(round(rps.Rock, rps.Scissors))
	s.Add(round(rps.Rock, rps.Paper))

	lo, hi := s.ConfidenceInterval95()
	assert.GreaterOrEqual(t, lo, 0.0)
	assert.LessOrEqual(t, hi, 1.0)
	assert.Less(t, lo, s.WinRate())
	assert.Greater(t, hi, s.WinRate())
}

func TestValidateDetectsInconsistency(t *testing.T) {
	s := New()
	s.Add(round(rps.Rock, rps.Scissors))
	s.Wins++
	assert.Error(t, s.Validate())

	s = New()
	s.Add(round(rps.Rock, rps.Scissors))
	s.UserMoves[rps.Paper]++
	assert.Error(t, s.Validate())
}
