package camera

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Driver = "firewire"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Width = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.FPS = 0
	assert.Error(t, cfg.Validate())

	assert.Equal(t, time.Second/60, DefaultConfig().Interval())
}

func TestNewSelectsDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "synthetic"
	src, err := New(cfg, quartz.NewReal(), quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &Synthetic{}, src)

	cfg.FPS = -1
	_, err = New(cfg, quartz.NewReal(), quietLogger())
	assert.Error(t, err)
}

func TestSynthetic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	cfg := DefaultConfig()
	cfg.Driver = "synthetic"
	cfg.Width, cfg.Height, cfg.FPS = 4, 3, 10
	src := NewSynthetic(cfg, clock, quietLogger())

	_, err := src.CurrentFrame()
	require.ErrorIs(t, err, vision.ErrDeviceUnavailable, "closed source has no frames")

	require.NoError(t, src.Open(ctx))
	require.Error(t, src.Open(ctx), "double open")

	frame, err := src.CurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, "rgb", frame.Format)
	assert.Len(t, frame.Data, 4*3*3)

	<-src.Ticks()
	clock.Advance(100 * time.Millisecond).MustWait(ctx)
	select {
	case <-src.Ticks():
	default:
		t.Fatal("expected a tick after the refresh interval")
	}

	frame, err = src.CurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), frame.Seq)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close(), "close is idempotent")
	_, err = src.CurrentFrame()
	assert.ErrorIs(t, err, vision.ErrDeviceUnavailable)
}

func TestWebcamWithoutSupportIsUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("touches the capture device when built with gocv")
	}
	cfg := DefaultConfig()
	cfg.Device = 99
	src := NewWebcam(cfg, quartz.NewReal(), quietLogger())

	err := src.Open(context.Background())
	require.ErrorIs(t, err, vision.ErrDeviceUnavailable)
	_, err = src.CurrentFrame()
	assert.ErrorIs(t, err, vision.ErrDeviceUnavailable)
	assert.NoError(t, src.Close())
}
