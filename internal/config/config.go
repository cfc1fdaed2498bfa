// Package config loads rpsvision settings from an HCL file, a .env file and
// RPS_* environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/lox/rpsvision/internal/camera"
	"github.com/lox/rpsvision/internal/classifier"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/game"
)

// Config is the resolved application configuration.
type Config struct {
	Game       GameSettings
	Camera     CameraSettings
	Classifier ClassifierSettings
	Log        LogSettings
}

// GameSettings controls round pacing.
type GameSettings struct {
	CountdownFrom       int
	TickIntervalMS      int
	GoPauseMS           int
	RevealDelayMS       int
	ConfidenceThreshold float64
	Seed                uint64 // 0 seeds from the clock
}

// CameraSettings selects and sizes the capture device.
type CameraSettings struct {
	Driver string
	Device int
	Width  int
	Height int
	Flip   bool
	FPS    int
}

// ClassifierSettings selects the gesture model.
type ClassifierSettings struct {
	Driver       string // "remote" or "static"
	ModelURL     string
	InferenceURL string
	TimeoutMS    int
}

// LogSettings controls logging.
type LogSettings struct {
	Level string
	File  string
}

// fileConfig mirrors Config with every attribute optional, so that absent
// attributes keep their defaults.
type fileConfig struct {
	Game       *gameBlock       `hcl:"game,block"`
	Camera     *cameraBlock     `hcl:"camera,block"`
	Classifier *classifierBlock `hcl:"classifier,block"`
	Log        *logBlock        `hcl:"log,block"`
}

type gameBlock struct {
	CountdownFrom       *int     `hcl:"countdown_from,optional"`
	TickIntervalMS      *int     `hcl:"tick_interval_ms,optional"`
	GoPauseMS           *int     `hcl:"go_pause_ms,optional"`
	RevealDelayMS       *int     `hcl:"reveal_delay_ms,optional"`
	ConfidenceThreshold *float64 `hcl:"confidence_threshold,optional"`
	Seed                *uint64  `hcl:"seed,optional"`
}

type cameraBlock struct {
	Driver *string `hcl:"driver,optional"`
	Device *int    `hcl:"device,optional"`
	Width  *int    `hcl:"width,optional"`
	Height *int    `hcl:"height,optional"`
	Flip   *bool   `hcl:"flip,optional"`
	FPS    *int    `hcl:"fps,optional"`
}

type classifierBlock struct {
	Driver       *string `hcl:"driver,optional"`
	ModelURL     *string `hcl:"model_url,optional"`
	InferenceURL *string `hcl:"inference_url,optional"`
	TimeoutMS    *int    `hcl:"timeout_ms,optional"`
}

type logBlock struct {
	Level *string `hcl:"level,optional"`
	File  *string `hcl:"file,optional"`
}

// DefaultModelURL is the published rock-paper-scissors gesture model.
const DefaultModelURL = "https://teachablemachine.withgoogle.com/models/gJc2-VcMm/"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	gameDefaults := game.DefaultConfig()
	camDefaults := camera.DefaultConfig()
	return &Config{
		Game: GameSettings{
			CountdownFrom:       gameDefaults.Countdown.From,
			TickIntervalMS:      int(gameDefaults.Countdown.Interval / time.Millisecond),
			GoPauseMS:           int(gameDefaults.Countdown.GoPause / time.Millisecond),
			RevealDelayMS:       int(gameDefaults.RevealDelay / time.Millisecond),
			ConfidenceThreshold: gameDefaults.Threshold,
		},
		Camera: CameraSettings{
			Driver: camDefaults.Driver,
			Device: camDefaults.Device,
			Width:  camDefaults.Width,
			Height: camDefaults.Height,
			Flip:   camDefaults.Flip,
			FPS:    camDefaults.FPS,
		},
		Classifier: ClassifierSettings{
			Driver:       "remote",
			ModelURL:     DefaultModelURL,
			InferenceURL: "ws://localhost:8765/classify",
			TimeoutMS:    5000,
		},
		Log: LogSettings{
			Level: "info",
			File:  "rpsvision.log",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	fc.applyTo(cfg)
	return cfg, nil
}

func (fc *fileConfig) applyTo(cfg *Config) {
	if g := fc.Game; g != nil {
		set(&cfg.Game.CountdownFrom, g.CountdownFrom)
		set(&cfg.Game.TickIntervalMS, g.TickIntervalMS)
		set(&cfg.Game.GoPauseMS, g.GoPauseMS)
		set(&cfg.Game.RevealDelayMS, g.RevealDelayMS)
		set(&cfg.Game.ConfidenceThreshold, g.ConfidenceThreshold)
		set(&cfg.Game.Seed, g.Seed)
	}
	if c := fc.Camera; c != nil {
		set(&cfg.Camera.Driver, c.Driver)
		set(&cfg.Camera.Device, c.Device)
		set(&cfg.Camera.Width, c.Width)
		set(&cfg.Camera.Height, c.Height)
		set(&cfg.Camera.Flip, c.Flip)
		set(&cfg.Camera.FPS, c.FPS)
	}
	if c := fc.Classifier; c != nil {
		set(&cfg.Classifier.Driver, c.Driver)
		set(&cfg.Classifier.ModelURL, c.ModelURL)
		set(&cfg.Classifier.InferenceURL, c.InferenceURL)
		set(&cfg.Classifier.TimeoutMS, c.TimeoutMS)
	}
	if l := fc.Log; l != nil {
		set(&cfg.Log.Level, l.Level)
		set(&cfg.Log.File, l.File)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(filename); err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return nil
}

// ApplyEnv overrides settings from RPS_* variables returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("RPS_MODEL_URL", &c.Classifier.ModelURL)
	str("RPS_INFERENCE_URL", &c.Classifier.InferenceURL)
	str("RPS_CLASSIFIER_DRIVER", &c.Classifier.Driver)
	num("RPS_CLASSIFIER_TIMEOUT_MS", &c.Classifier.TimeoutMS)
	str("RPS_CAMERA_DRIVER", &c.Camera.Driver)
	num("RPS_CAMERA_DEVICE", &c.Camera.Device)
	num("RPS_COUNTDOWN_FROM", &c.Game.CountdownFrom)
	num("RPS_REVEAL_DELAY_MS", &c.Game.RevealDelayMS)
	str("RPS_LOG_LEVEL", &c.Log.Level)
	str("RPS_LOG_FILE", &c.Log.File)

	if v, ok := lookup("RPS_CONFIDENCE_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RPS_CONFIDENCE_THRESHOLD: %w", err))
		} else {
			c.Game.ConfidenceThreshold = f
		}
	}
	if v, ok := lookup("RPS_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RPS_SEED: %w", err))
		} else {
			c.Game.Seed = seed
		}
	}
	if v, ok := lookup("RPS_CAMERA_FLIP"); ok && v != "" {
		flip, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RPS_CAMERA_FLIP: %w", err))
		} else {
			c.Camera.Flip = flip
		}
	}

	return errors.Join(errs...)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.GameConfig().Validate(); err != nil {
		return err
	}
	if err := c.CameraConfig().Validate(); err != nil {
		return err
	}

	switch c.Classifier.Driver {
	case "remote":
		if c.Classifier.ModelURL == "" {
			return errors.New("classifier model_url is required for the remote driver")
		}
		if !strings.HasPrefix(c.Classifier.InferenceURL, "ws://") && !strings.HasPrefix(c.Classifier.InferenceURL, "wss://") {
			return fmt.Errorf("classifier inference_url %q must be a ws:// or wss:// URL", c.Classifier.InferenceURL)
		}
	case "static":
	default:
		return fmt.Errorf("invalid classifier driver: %s", c.Classifier.Driver)
	}
	if c.Classifier.TimeoutMS <= 0 {
		return errors.New("classifier timeout must be positive")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// GameConfig converts the game settings for the controller.
func (c *Config) GameConfig() game.Config {
	return game.Config{
		ModelRef: c.Classifier.ModelURL,
		Countdown: countdown.Config{
			From:     c.Game.CountdownFrom,
			Interval: millis(c.Game.TickIntervalMS),
			GoPause:  millis(c.Game.GoPauseMS),
		},
		RevealDelay: millis(c.Game.RevealDelayMS),
		Threshold:   c.Game.ConfidenceThreshold,
	}
}

// CameraConfig converts the camera settings.
func (c *Config) CameraConfig() camera.Config {
	return camera.Config{
		Driver: c.Camera.Driver,
		Device: c.Camera.Device,
		Width:  c.Camera.Width,
		Height: c.Camera.Height,
		Flip:   c.Camera.Flip,
		FPS:    c.Camera.FPS,
	}
}

// RemoteConfig converts the classifier settings for the remote driver.
func (c *Config) RemoteConfig() classifier.RemoteConfig {
	return classifier.RemoteConfig{
		InferenceURL: c.Classifier.InferenceURL,
		Timeout:      millis(c.Classifier.TimeoutMS),
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
