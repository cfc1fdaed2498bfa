package rps

import "fmt"

// Round is one completed capture. It is built once the outcome is known and
// never modified afterwards.
type Round struct {
	ID         string
	Generation uint64
	User       Choice
	Computer   Choice
	Outcome    Outcome
}

// NewRound scores the two moves and returns the finished round.
func NewRound(id string, generation uint64, user, computer Choice) Round {
	return Round{
		ID:         id,
		Generation: generation,
		User:       user,
		Computer:   computer,
		Outcome:    Decide(user, computer),
	}
}

func (r Round) String() string {
	return fmt.Sprintf("You: %s %s  Computer: %s %s  %s",
		r.User.Emoji(), r.User, r.Computer.Emoji(), r.Computer, r.Outcome.Message())
}
