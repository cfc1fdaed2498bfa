package rps

// Outcome is the result of a round from the user's point of view.
type Outcome int

const (
	// Undetermined is used when the user's move could not be detected
	Undetermined Outcome = iota
	Win
	Lose
	Tie
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Tie:
		return "tie"
	default:
		return "undetermined"
	}
}

// Message is the text shown to the player for an outcome.
func (o Outcome) Message() string {
	switch o {
	case Win:
		return "You Win!"
	case Lose:
		return "Computer Wins!"
	case Tie:
		return "It's a Tie!"
	default:
		return "Couldn't detect your move!"
	}
}

var beats = map[Choice]Choice{
	Rock:     Scissors,
	Paper:    Rock,
	Scissors: Paper,
}

// Decide scores user against computer. An Unknown user move is always
// Undetermined, whatever the computer played.
func Decide(user, computer Choice) Outcome {
	if user == Unknown {
		return Undetermined
	}
	if user == computer {
		return Tie
	}
	if beats[user] == computer {
		return Win
	}
	return Lose
}
