package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/vision"
)

// Synthetic generates RGB gradient frames on a clock tick. It stands in for
// a webcam in demos and tests.
type Synthetic struct {
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger
	box    *vision.Mailbox

	mu     sync.Mutex
	open   bool
	cancel context.CancelFunc
	ticker quartz.Waiter
}

// NewSynthetic creates a closed synthetic source.
func NewSynthetic(cfg Config, clock quartz.Clock, logger *log.Logger) *Synthetic {
	return &Synthetic{
		cfg:    cfg,
		clock:  clock,
		logger: logger.WithPrefix("camera").With("driver", "synthetic"),
		box:    vision.NewMailbox(),
	}
}

// Open publishes a first frame and starts the refresh ticker.
func (s *Synthetic) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return errors.New("camera: already open")
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", vision.ErrDeviceUnavailable, err)
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.open = true
	s.publish()
	s.ticker = s.clock.TickerFunc(tickCtx, s.cfg.Interval(), func() error {
		s.publish()
		return nil
	}, "camera")

	s.logger.Info("Camera opened", "width", s.cfg.Width, "height", s.cfg.Height, "fps", s.cfg.FPS)
	return nil
}

// CurrentFrame returns the newest generated frame.
func (s *Synthetic) CurrentFrame() (vision.Frame, error) {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return vision.Frame{}, fmt.Errorf("%w: camera not open", vision.ErrDeviceUnavailable)
	}

	frame, ok := s.box.Latest()
	if !ok {
		return vision.Frame{}, fmt.Errorf("%w: no frame yet", vision.ErrDeviceUnavailable)
	}
	return frame, nil
}

// Ticks notifies on every generated frame.
func (s *Synthetic) Ticks() <-chan struct{} {
	return s.box.Ticks()
}

// Drops is the number of frames nobody looked at.
func (s *Synthetic) Drops() uint64 {
	return s.box.Drops()
}

// Close stops the ticker.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.cancel()
	_ = s.ticker.Wait() // returns the cancellation error
	s.open = false
	s.box.Reset()
	s.logger.Info("Camera closed", "drops", s.box.Drops())
	return nil
}

func (s *Synthetic) publish() {
	w, h := s.cfg.Width, s.cfg.Height
	data := make([]byte, w*h*3)
	shift := byte(s.clock.Now().UnixMilli() / 16)
	for y := range h {
		for x := range w {
			i := (y*w + x) * 3
			data[i] = byte(x) + shift
			data[i+1] = byte(y)
			data[i+2] = shift
		}
	}
	s.box.Publish(vision.Frame{
		Width:      w,
		Height:     h,
		Format:     "rgb",
		Data:       data,
		CapturedAt: s.clock.Now(),
	})
}
