//go:build gocv

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/vision"
	"gocv.io/x/gocv"
)

// Webcam reads frames from a local video device through OpenCV.
type Webcam struct {
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger
	box    *vision.Mailbox

	mu      sync.Mutex
	capture *gocv.VideoCapture
	cancel  context.CancelFunc
	done    chan struct{}
	lost    error
}

// NewWebcam creates a closed webcam source.
func NewWebcam(cfg Config, clock quartz.Clock, logger *log.Logger) *Webcam {
	return &Webcam{
		cfg:    cfg,
		clock:  clock,
		logger: logger.WithPrefix("camera").With("driver", "webcam", "device", cfg.Device),
		box:    vision.NewMailbox(),
	}
}

// Open acquires the device and starts the read loop.
func (w *Webcam) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture != nil {
		return errors.New("camera: already open")
	}

	capture, err := gocv.OpenVideoCapture(w.cfg.Device)
	if err != nil {
		return fmt.Errorf("%w: %w", vision.ErrDeviceUnavailable, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return fmt.Errorf("%w: device %d did not open", vision.ErrDeviceUnavailable, w.cfg.Device)
	}
	capture.Set(gocv.VideoCaptureFPS, float64(w.cfg.FPS))

	// Read one frame up front so CurrentFrame works as soon as Open returns.
	raw := gocv.NewMat()
	defer raw.Close()
	if ok := capture.Read(&raw); !ok || raw.Empty() {
		_ = capture.Close()
		return fmt.Errorf("%w: device %d returned no frames", vision.ErrDeviceUnavailable, w.cfg.Device)
	}
	if err := w.publish(raw); err != nil {
		_ = capture.Close()
		return fmt.Errorf("%w: %w", vision.ErrDeviceUnavailable, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	w.capture = capture
	w.cancel = cancel
	w.done = make(chan struct{})
	w.lost = nil
	go w.readLoop(readCtx, capture)

	w.logger.Info("Camera opened", "width", w.cfg.Width, "height", w.cfg.Height, "flip", w.cfg.Flip)
	return nil
}

// CurrentFrame returns the newest frame as JPEG.
func (w *Webcam) CurrentFrame() (vision.Frame, error) {
	w.mu.Lock()
	capture, lost := w.capture, w.lost
	w.mu.Unlock()

	if lost != nil {
		return vision.Frame{}, lost
	}
	if capture == nil {
		return vision.Frame{}, fmt.Errorf("%w: camera not open", vision.ErrDeviceUnavailable)
	}
	frame, ok := w.box.Latest()
	if !ok {
		return vision.Frame{}, fmt.Errorf("%w: no frame yet", vision.ErrDeviceUnavailable)
	}
	return frame, nil
}

// Ticks notifies on every captured frame.
func (w *Webcam) Ticks() <-chan struct{} {
	return w.box.Ticks()
}

// Close stops the read loop and releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	capture, cancel, done := w.capture, w.cancel, w.done
	w.capture = nil
	w.mu.Unlock()

	if capture == nil {
		return nil
	}
	cancel()
	<-done
	w.box.Reset()
	w.logger.Info("Camera closed", "drops", w.box.Drops())
	return capture.Close()
}

func (w *Webcam) readLoop(ctx context.Context, capture *gocv.VideoCapture) {
	defer close(w.done)

	raw := gocv.NewMat()
	defer raw.Close()

	misses := 0
	for ctx.Err() == nil {
		if ok := capture.Read(&raw); !ok || raw.Empty() {
			misses++
			if misses >= 30 {
				w.mu.Lock()
				w.lost = fmt.Errorf("%w: device %d stopped delivering frames", vision.ErrDeviceUnavailable, w.cfg.Device)
				w.mu.Unlock()
				w.logger.Error("Camera stopped delivering frames")
				// Wake the prediction loop so it notices.
				w.box.Publish(vision.Frame{})
				return
			}
			continue
		}
		misses = 0
		if err := w.publish(raw); err != nil {
			w.logger.Debug("Dropping frame", "error", err)
		}
	}
}

func (w *Webcam) publish(raw gocv.Mat) error {
	img := gocv.NewMat()
	defer img.Close()

	gocv.Resize(raw, &img, image.Pt(w.cfg.Width, w.cfg.Height), 0, 0, gocv.InterpolationLinear)
	if w.cfg.Flip {
		gocv.Flip(img, &img, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	w.box.Publish(vision.Frame{
		Width:      w.cfg.Width,
		Height:     w.cfg.Height,
		Format:     "jpeg",
		Data:       data,
		CapturedAt: w.clock.Now(),
	})
	return nil
}
