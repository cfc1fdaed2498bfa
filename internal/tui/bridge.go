package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/game"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/vision"
)

// Messages delivered from the controller to the model.
type (
	StateMsg struct {
		From, To game.State
	}
	RoundStartedMsg struct {
		Generation uint64
	}
	TickMsg struct {
		Tick countdown.Tick
	}
	PredictionMsg struct {
		Result vision.PredictionResult
	}
	RevealMsg struct {
		User, Computer rps.Choice
	}
	ResultMsg struct {
		Round rps.Round
	}
	ErrorMsg struct {
		Kind game.ErrorKind
		Err  error
	}
)

// Bridge adapts controller notifications into Bubble Tea messages.
type Bridge struct {
	send func(tea.Msg)
}

var _ game.Presenter = (*Bridge)(nil)

// NewBridge creates a presenter that forwards to send, typically
// (*tea.Program).Send.
func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

func (b *Bridge) OnStateChange(from, to game.State) {
	b.send(StateMsg{From: from, To: to})
}

func (b *Bridge) OnRoundStarted(generation uint64) {
	b.send(RoundStartedMsg{Generation: generation})
}

func (b *Bridge) OnCountdownTick(tick countdown.Tick) {
	b.send(TickMsg{Tick: tick})
}

func (b *Bridge) OnPrediction(result vision.PredictionResult) {
	b.send(PredictionMsg{Result: result})
}

func (b *Bridge) OnChoicesRevealed(user, computer rps.Choice) {
	b.send(RevealMsg{User: user, Computer: computer})
}

func (b *Bridge) OnResult(round rps.Round) {
	b.send(ResultMsg{Round: round})
}

func (b *Bridge) OnError(kind game.ErrorKind, err error) {
	b.send(ErrorMsg{Kind: kind, Err: err})
}
