//go:build !gocv

package camera

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/vision"
)

// Webcam is unavailable in builds without the gocv tag; Open always fails so
// the game reports the missing camera like any other device error.
type Webcam struct {
	cfg    Config
	logger *log.Logger
	box    *vision.Mailbox
}

// NewWebcam creates a webcam source that cannot open.
func NewWebcam(cfg Config, _ quartz.Clock, logger *log.Logger) *Webcam {
	return &Webcam{
		cfg:    cfg,
		logger: logger.WithPrefix("camera").With("driver", "webcam"),
		box:    vision.NewMailbox(),
	}
}

func (w *Webcam) Open(context.Context) error {
	w.logger.Warn("Webcam support not compiled in, rebuild with -tags gocv")
	return fmt.Errorf("%w: built without webcam support", vision.ErrDeviceUnavailable)
}

func (w *Webcam) CurrentFrame() (vision.Frame, error) {
	return vision.Frame{}, fmt.Errorf("%w: camera not open", vision.ErrDeviceUnavailable)
}

func (w *Webcam) Ticks() <-chan struct{} { return w.box.Ticks() }

func (w *Webcam) Close() error { return nil }
