// Package camera provides FrameSource implementations: a synthetic source
// for demos and tests, and a gocv webcam source when built with -tags gocv.
package camera

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/vision"
)

// Config describes the capture device and output frame size.
type Config struct {
	Driver string // "webcam" or "synthetic"
	Device int    // webcam index
	Width  int
	Height int
	Flip   bool // mirror horizontally, like a selfie preview
	FPS    int  // refresh cadence
}

// DefaultConfig is a 200x200 mirrored preview from the first webcam.
func DefaultConfig() Config {
	return Config{
		Driver: "webcam",
		Device: 0,
		Width:  200,
		Height: 200,
		Flip:   true,
		FPS:    60,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Driver {
	case "webcam", "synthetic":
	default:
		return fmt.Errorf("camera: unknown driver %q", c.Driver)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New("camera: width and height must be positive")
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("camera: fps %d out of range", c.FPS)
	}
	return nil
}

// Interval is the time between refresh ticks.
func (c Config) Interval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// New builds the FrameSource selected by cfg.Driver.
func New(cfg Config, clock quartz.Clock, logger *log.Logger) (vision.FrameSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "synthetic":
		return NewSynthetic(cfg, clock, logger), nil
	default:
		return NewWebcam(cfg, clock, logger), nil
	}
}
