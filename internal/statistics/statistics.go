// Package statistics tallies the rounds of a playing session.
package statistics

import (
	"fmt"
	"math"

	"github.com/lox/rpsvision/internal/rps"
)

// Statistics tracks outcomes and moves across rounds.
type Statistics struct {
	Rounds       int
	Wins         int
	Losses       int
	Ties         int
	Undetermined int // rounds where the user's move was not detected

	UserMoves     map[rps.Choice]int
	ComputerMoves map[rps.Choice]int

	streak     int // positive for consecutive wins, negative for losses
	BestStreak int
}

// New returns an empty tally.
func New() *Statistics {
	return &Statistics{
		UserMoves:     make(map[rps.Choice]int),
		ComputerMoves: make(map[rps.Choice]int),
	}
}

// Add incorporates a finished round.
func (s *Statistics) Add(round rps.Round) {
	s.Rounds++
	s.UserMoves[round.User]++
	s.ComputerMoves[round.Computer]++

	switch round.Outcome {
	case rps.Win:
		s.Wins++
		if s.streak < 0 {
			s.streak = 0
		}
		s.streak++
		s.BestStreak = max(s.BestStreak, s.streak)
	case rps.Lose:
		s.Losses++
		if s.streak > 0 {
			s.streak = 0
		}
		s.streak--
	case rps.Tie:
		s.Ties++
	default:
		// Undetermined rounds leave the streak alone.
		s.Undetermined++
	}
}

// Decided is the number of rounds where the user's move was detected.
func (s *Statistics) Decided() int {
	return s.Wins + s.Losses + s.Ties
}

// Streak returns the current run: positive for wins, negative for losses.
func (s *Statistics) Streak() int {
	return s.streak
}

// WinRate returns the share of decided rounds the user won.
func (s *Statistics) WinRate() float64 {
	if s.Decided() == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Decided())
}

// DetectionRate returns the share of rounds where a gesture was recognised.
func (s *Statistics) DetectionRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Decided()) / float64(s.Rounds)
}

// StdError returns the standard error of the win rate
func (s *Statistics) StdError() float64 {
	n := s.Decided()
	if n == 0 {
		return 0
	}
	p := s.WinRate()
	return math.Sqrt(p * (1 - p) / float64(n))
}

// ConfidenceInterval95 returns the 95% confidence interval for the win rate,
// clamped to [0, 1].
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	p := s.WinRate()
	margin := 1.96 * s.StdError()
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

// Favourite returns the move the user played most, ignoring undetected ones.
// Ties go to the earlier move in Rock, Paper, Scissors order.
func (s *Statistics) Favourite() (rps.Choice, bool) {
	best, count := rps.Unknown, 0
	for _, c := range rps.Moves {
		if n := s.UserMoves[c]; n > count {
			best, count = c, n
		}
	}
	return best, count > 0
}

// Validate checks that the counters are consistent.
func (s *Statistics) Validate() error {
	if total := s.Decided() + s.Undetermined; total != s.Rounds {
		return fmt.Errorf("outcomes total %d does not match %d rounds", total, s.Rounds)
	}

	users, computers := 0, 0
	for _, n := range s.UserMoves {
		users += n
	}
	for _, n := range s.ComputerMoves {
		computers += n
	}
	if users != s.Rounds || computers != s.Rounds {
		return fmt.Errorf("move counts (%d user, %d computer) do not match %d rounds", users, computers, s.Rounds)
	}

	if s.UserMoves[rps.Unknown] != s.Undetermined {
		return fmt.Errorf("%d unknown moves but %d undetermined rounds", s.UserMoves[rps.Unknown], s.Undetermined)
	}
	return nil
}

// Summary is a one-line report.
func (s *Statistics) Summary() string {
	return fmt.Sprintf("Played %d rounds: %d won, %d lost, %d tied, %d undetermined",
		s.Rounds, s.Wins, s.Losses, s.Ties, s.Undetermined)
}
