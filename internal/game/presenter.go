package game

import (
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/vision"
)

// Presenter receives everything a rendering layer needs. All methods are
// called from the controller's Run goroutine, one at a time, and must not
// call back into the controller synchronously.
type Presenter interface {
	OnStateChange(from, to State)
	OnRoundStarted(generation uint64)
	OnCountdownTick(tick countdown.Tick)
	OnPrediction(result vision.PredictionResult)
	OnChoicesRevealed(user, computer rps.Choice)
	OnResult(round rps.Round)
	OnError(kind ErrorKind, err error)
}

// NopPresenter discards every notification.
type NopPresenter struct{}

func (NopPresenter) OnStateChange(State, State)               {}
func (NopPresenter) OnRoundStarted(uint64)                    {}
func (NopPresenter) OnCountdownTick(countdown.Tick)           {}
func (NopPresenter) OnPrediction(vision.PredictionResult)     {}
func (NopPresenter) OnChoicesRevealed(rps.Choice, rps.Choice) {}
func (NopPresenter) OnResult(rps.Round)                       {}
func (NopPresenter) OnError(ErrorKind, error)                 {}
