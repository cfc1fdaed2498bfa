package game

import (
	"errors"
	"fmt"

	"github.com/lox/rpsvision/internal/vision"
)

var (
	// ErrInvalidTransition is returned when Start or Restart is called from a
	// state that does not allow it. The controller is left unchanged.
	ErrInvalidTransition = errors.New("game: invalid transition")

	// ErrNotInitialized is returned by Restart when the camera was lost and the
	// controller had to tear down. Call Start again.
	ErrNotInitialized = errors.New("game: not initialized")

	// ErrStopped is returned to callers waiting on a controller that shut down.
	ErrStopped = errors.New("game: stopped")
)

// ErrorKind classifies errors surfaced to the presenter.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindDeviceUnavailable
	KindModelLoad
	KindInference
)

func (k ErrorKind) String() string {
	switch k {
	case KindDeviceUnavailable:
		return "device-unavailable"
	case KindModelLoad:
		return "model-load"
	case KindInference:
		return "inference"
	default:
		return "other"
	}
}

// Message is the player-facing text for an error kind.
func (k ErrorKind) Message() string {
	switch k {
	case KindDeviceUnavailable:
		return "Failed to load webcam. Please ensure you have a webcam and have granted permissions."
	case KindModelLoad:
		return "Failed to load AI model. Please check the model URL."
	case KindInference:
		return "Couldn't classify the camera image."
	default:
		return "Something went wrong."
	}
}

// KindOf maps an error onto the vision error taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, vision.ErrDeviceUnavailable):
		return KindDeviceUnavailable
	case errors.Is(err, vision.ErrModelLoad):
		return KindModelLoad
	case errors.Is(err, vision.ErrInference):
		return KindInference
	default:
		return KindOther
	}
}

// ensureKind wraps err with kind unless it already carries it.
func ensureKind(err, kind error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
