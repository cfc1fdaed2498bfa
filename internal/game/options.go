package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/rps"
)

// Config holds the round pacing and decision parameters.
type Config struct {
	ModelRef    string // passed to Classifier.Load
	Countdown   countdown.Config
	RevealDelay time.Duration // pause between showing choices and the result; 0 disables it
	Threshold   float64       // minimum confidence for a gesture to count
}

// DefaultConfig returns the standard pacing: 3-2-1 at one second
// intervals, half a second of GO, and one second before the result.
func DefaultConfig() Config {
	return Config{
		Countdown:   countdown.DefaultConfig(),
		RevealDelay: time.Second,
		Threshold:   rps.DefaultThreshold,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Countdown.Validate(); err != nil {
		return err
	}
	if c.RevealDelay < 0 {
		return errors.New("game: reveal delay cannot be negative")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("game: threshold %.2f must be between 0 and 1", c.Threshold)
	}
	return nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(c *Controller) { c.cfg = cfg }
}

// WithClock sets the clock used for countdown and reveal timers.
func WithClock(clock quartz.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPresenter sets the rendering callbacks.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// WithRand samples the computer's move from rng.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.opponent = func() rps.Choice { return rps.RandomChoice(rng) }
	}
}

// WithOpponent replaces the computer's move sampler.
func WithOpponent(pick func() rps.Choice) Option {
	return func(c *Controller) { c.opponent = pick }
}

// WithRoundIDs sets the generator for round identifiers.
func WithRoundIDs(next func() string) Option {
	return func(c *Controller) { c.newID = next }
}
