package game

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/lox/rpsvision/internal/vision"
)

// PredictionLoop keeps the latest classification of the live camera feed
// fresh. It wakes on every frame tick and classifies the newest frame unless
// it is suspended. Classification errors are logged and the loop carries on;
// it only exits when its context ends or the camera disappears.
type PredictionLoop struct {
	source     vision.FrameSource
	classifier vision.Classifier
	logger     *log.Logger

	suspended  atomic.Bool
	latest     atomic.Pointer[vision.PredictionResult]
	classified atomic.Uint64
	failures   atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// PredictionStats are operational counters for the loop.
type PredictionStats struct {
	Classified uint64
	Failures   uint64
}

// NewPredictionLoop creates a stopped loop.
func NewPredictionLoop(source vision.FrameSource, classifier vision.Classifier, logger *log.Logger) *PredictionLoop {
	return &PredictionLoop{
		source:     source,
		classifier: classifier,
		logger:     logger.WithPrefix("predictions"),
	}
}

// Start runs the loop in a new goroutine. onResult receives each fresh
// result; onLost is called once if the frame source reports the device gone,
// after which the loop exits. Both receive the loop's context and should
// abandon blocking work when it ends.
func (p *PredictionLoop) Start(ctx context.Context, onResult func(context.Context, vision.PredictionResult), onLost func(context.Context, error)) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.run(ctx, onResult, onLost)
}

// Stop cancels the loop and waits for it to exit.
func (p *PredictionLoop) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

// Suspend stops classification until Resume. Ticks that arrive meanwhile are skipped.
func (p *PredictionLoop) Suspend() { p.suspended.Store(true) }

// Resume re-enables classification.
func (p *PredictionLoop) Resume() { p.suspended.Store(false) }

// Suspended reports whether classification is paused.
func (p *PredictionLoop) Suspended() bool { return p.suspended.Load() }

// Latest returns the most recent successful classification.
func (p *PredictionLoop) Latest() (vision.PredictionResult, bool) {
	r := p.latest.Load()
	if r == nil {
		return nil, false
	}
	return *r, true
}

// Stats returns the loop counters.
func (p *PredictionLoop) Stats() PredictionStats {
	return PredictionStats{
		Classified: p.classified.Load(),
		Failures:   p.failures.Load(),
	}
}

func (p *PredictionLoop) run(ctx context.Context, onResult func(context.Context, vision.PredictionResult), onLost func(context.Context, error)) {
	defer close(p.done)

	ticks := p.source.Ticks()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}

		if p.suspended.Load() {
			continue
		}

		frame, err := p.source.CurrentFrame()
		if err != nil {
			if errors.Is(err, vision.ErrDeviceUnavailable) {
				p.logger.Warn("Frame source lost", "error", err)
				if onLost != nil {
					onLost(ctx, err)
				}
				return
			}
			p.logger.Debug("No frame available", "error", err)
			continue
		}

		result, err := p.classifier.Classify(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.failures.Add(1)
			p.logger.Debug("Prediction failed", "seq", frame.Seq, "error", err)
			continue
		}

		p.latest.Store(&result)
		p.classified.Add(1)

		// A capture may have started while this call was in flight.
		if p.suspended.Load() {
			continue
		}
		if onResult != nil {
			onResult(ctx, result)
		}
	}
}
