package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	gc := cfg.GameConfig()
	assert.Equal(t, 3, gc.Countdown.From)
	assert.Equal(t, time.Second, gc.Countdown.Interval)
	assert.Equal(t, 500*time.Millisecond, gc.Countdown.GoPause)
	assert.Equal(t, time.Second, gc.RevealDelay)
	assert.InDelta(t, 0.70, gc.Threshold, 1e-9)
	assert.Equal(t, DefaultModelURL, gc.ModelRef)

	cc := cfg.CameraConfig()
	assert.Equal(t, 200, cc.Width)
	assert.Equal(t, 200, cc.Height)
	assert.True(t, cc.Flip)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesOnlyGivenAttributes(t *testing.T) {
	path := writeFile(t, "rpsvision.hcl", `
game {
  countdown_from       = 5
  confidence_threshold = 0.8
  seed                 = 42
}

camera {
  driver = "synthetic"
  flip   = false
}

classifier {
  driver        = "static"
  inference_url = "ws://inference:9000/ws"
}

log {
  level = "debug"
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Game.CountdownFrom)
	assert.InDelta(t, 0.8, cfg.Game.ConfidenceThreshold, 1e-9)
	assert.Equal(t, uint64(42), cfg.Game.Seed)
	assert.Equal(t, 1000, cfg.Game.TickIntervalMS, "unset attributes keep defaults")

	assert.Equal(t, "synthetic", cfg.Camera.Driver)
	assert.False(t, cfg.Camera.Flip)
	assert.Equal(t, 60, cfg.Camera.FPS)

	assert.Equal(t, "static", cfg.Classifier.Driver)
	assert.Equal(t, "ws://inference:9000/ws", cfg.RemoteConfig().InferenceURL)
	assert.Equal(t, 5*time.Second, cfg.RemoteConfig().Timeout)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "rpsvision.log", cfg.Log.File)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "bad.hcl", `game { countdown_from = `))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "unknown.hcl", `game { lives = 3 }`))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"RPS_MODEL_URL":            "http://models.local/rps/",
		"RPS_CAMERA_DRIVER":        "synthetic",
		"RPS_CAMERA_FLIP":          "false",
		"RPS_CONFIDENCE_THRESHOLD": "0.9",
		"RPS_SEED":                 "7",
		"RPS_LOG_LEVEL":            "warn",
		"RPS_REVEAL_DELAY_MS":      "0",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://models.local/rps/", cfg.Classifier.ModelURL)
	assert.Equal(t, "synthetic", cfg.Camera.Driver)
	assert.False(t, cfg.Camera.Flip)
	assert.InDelta(t, 0.9, cfg.Game.ConfidenceThreshold, 1e-9)
	assert.Equal(t, uint64(7), cfg.Game.Seed)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Zero(t, cfg.GameConfig().RevealDelay)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"RPS_CAMERA_DEVICE": "front",
		"RPS_SEED":          "-1",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPS_CAMERA_DEVICE")
	assert.Contains(t, err.Error(), "RPS_SEED")
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")), "missing file is fine")

	path := writeFile(t, ".env", "RPS_TEST_DOTENV_MODEL=http://dotenv/model/\n")
	t.Setenv("RPS_TEST_DOTENV_MODEL", "")
	require.NoError(t, os.Unsetenv("RPS_TEST_DOTENV_MODEL"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "http://dotenv/model/", os.Getenv("RPS_TEST_DOTENV_MODEL"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero countdown", func(c *Config) { c.Game.CountdownFrom = 0 }},
		{"threshold above one", func(c *Config) { c.Game.ConfidenceThreshold = 1.5 }},
		{"negative reveal delay", func(c *Config) { c.Game.RevealDelayMS = -1 }},
		{"unknown camera driver", func(c *Config) { c.Camera.Driver = "usb" }},
		{"zero width", func(c *Config) { c.Camera.Width = 0 }},
		{"unknown classifier", func(c *Config) { c.Classifier.Driver = "onnx" }},
		{"remote without model", func(c *Config) { c.Classifier.ModelURL = "" }},
		{"http inference url", func(c *Config) { c.Classifier.InferenceURL = "http://x" }},
		{"zero timeout", func(c *Config) { c.Classifier.TimeoutMS = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
