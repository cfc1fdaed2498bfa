package game

import (
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/vision"
)

// event is anything processed by the controller's Run goroutine.
type event any

type startRequest struct{ reply chan error }

type restartRequest struct{ reply chan error }

type stopRequest struct{ reply chan error }

// initDone reports the outcome of acquiring the model and camera.
type initDone struct {
	gen uint64
	err error
}

type tickEvent struct {
	gen  uint64
	tick countdown.Tick
}

type countdownDone struct{ gen uint64 }

// captureDone carries the single decisive classification of a round.
type captureDone struct {
	gen    uint64
	seq    uint64
	result vision.PredictionResult
	err    error
}

type graceElapsed struct{ gen uint64 }

type predictionEvent struct{ result vision.PredictionResult }

type deviceLost struct{ err error }
