package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/cmd/rpsvision/shared"
	"github.com/lox/rpsvision/internal/camera"
	"github.com/lox/rpsvision/internal/classifier"
	"github.com/lox/rpsvision/internal/config"
	"github.com/lox/rpsvision/internal/game"
	"github.com/lox/rpsvision/internal/randutil"
	"github.com/lox/rpsvision/internal/vision"
)

// loadConfig resolves configuration from the HCL file, the .env file, RPS_*
// variables and finally the command line.
func (g *Globals) loadConfig() (*config.Config, error) {
	if g.NoColor {
		shared.DisableColor()
	}

	if err := config.LoadDotEnv(g.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}
	if g.Camera != "" {
		cfg.Camera.Driver = g.Camera
	}
	if g.Model != "" {
		cfg.Classifier.ModelURL = g.Model
	}
	if g.Demo {
		cfg.Camera.Driver = "synthetic"
		cfg.Classifier.Driver = "static"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// components holds the hardware-facing parts of a game.
type components struct {
	clock      quartz.Clock
	source     vision.FrameSource
	classifier vision.Classifier
}

func buildComponents(cfg *config.Config, logger *log.Logger) (*components, error) {
	clock := quartz.NewReal()

	source, err := camera.New(cfg.CameraConfig(), clock, logger)
	if err != nil {
		return nil, err
	}

	var cls vision.Classifier
	switch cfg.Classifier.Driver {
	case "static":
		cls = classifier.DemoScript()
	default:
		cls = classifier.NewRemote(cfg.RemoteConfig(), logger)
	}

	return &components{clock: clock, source: source, classifier: cls}, nil
}

func (c *components) controller(cfg *config.Config, logger *log.Logger, presenter game.Presenter) *game.Controller {
	return game.NewController(c.source, c.classifier,
		game.WithConfig(cfg.GameConfig()),
		game.WithClock(c.clock),
		game.WithLogger(logger),
		game.WithPresenter(presenter),
		game.WithRand(randutil.FromSeed(int64(cfg.Game.Seed))),
	)
}
