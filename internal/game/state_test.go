package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lox/rpsvision/internal/vision"
	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	all := []State{Idle, Initializing, Countdown, Capturing, Revealing, Result}
	canStart := map[State]bool{Idle: true}
	canRestart := map[State]bool{Countdown: true, Capturing: true, Revealing: true, Result: true}

	for _, s := range all {
		t.Run(s.String(), func(t *testing.T) {
			assert.Equal(t, canStart[s], s.CanStart())
			assert.Equal(t, canRestart[s], s.CanRestart())
		})
	}
	assert.Equal(t, "invalid", State(42).String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindDeviceUnavailable, KindOf(fmt.Errorf("open: %w", vision.ErrDeviceUnavailable)))
	assert.Equal(t, KindModelLoad, KindOf(vision.ErrModelLoad))
	assert.Equal(t, KindInference, KindOf(vision.ErrInference))
	assert.Equal(t, KindOther, KindOf(errors.New("boom")))
	assert.Contains(t, KindDeviceUnavailable.Message(), "webcam")
}

func TestEnsureKind(t *testing.T) {
	base := errors.New("permission denied")
	err := ensureKind(base, vision.ErrDeviceUnavailable)
	assert.ErrorIs(t, err, vision.ErrDeviceUnavailable)
	assert.ErrorIs(t, err, base)

	already := fmt.Errorf("camera: %w", vision.ErrDeviceUnavailable)
	assert.Same(t, already, ensureKind(already, vision.ErrDeviceUnavailable))
	assert.NoError(t, ensureKind(nil, vision.ErrModelLoad))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Threshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RevealDelay = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Countdown.From = 0
	assert.Error(t, cfg.Validate())
}
