package game

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/vision"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// fakeSource only ticks when the test calls tick, so the prediction loop
// stays quiet unless a test wants it.
type fakeSource struct {
	mu      sync.Mutex
	openErr error
	lostErr error
	opened  int
	closed  int
	frame   vision.Frame
	ticks   chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{ticks: make(chan struct{}, 1)}
}

func (s *fakeSource) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened++
	s.frame = vision.Frame{Seq: 1, Width: 2, Height: 2, Format: "rgb", Data: make([]byte, 12)}
	return nil
}

func (s *fakeSource) CurrentFrame() (vision.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lostErr != nil {
		return vision.Frame{}, s.lostErr
	}
	return s.frame, nil
}

func (s *fakeSource) Ticks() <-chan struct{} { return s.ticks }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSource) tick() {
	select {
	case s.ticks <- struct{}{}:
	default:
	}
}

func (s *fakeSource) setOpenErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

func (s *fakeSource) setLost(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostErr = err
}

func (s *fakeSource) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// fakeClassifier answers Classify with classify, or with result when
// classify is nil.
type fakeClassifier struct {
	mu       sync.Mutex
	loadErr  error
	result   vision.PredictionResult
	err      error
	classify func(ctx context.Context, frame vision.Frame) (vision.PredictionResult, error)
	calls    atomic.Int64
}

func (f *fakeClassifier) Load(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr
}

func (f *fakeClassifier) Classify(ctx context.Context, frame vision.Frame) (vision.PredictionResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	fn, result, err := f.classify, f.result, f.err
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, frame)
	}
	return result, err
}

func (f *fakeClassifier) LabelCount() int { return 3 }

func (f *fakeClassifier) set(result vision.PredictionResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

// recorder flattens presenter callbacks into strings like "tick:3".
type recorder struct {
	mu     sync.Mutex
	events []string
	rounds []rps.Round
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) OnStateChange(from, to State) { r.add("state:%s", to) }
func (r *recorder) OnRoundStarted(gen uint64)    { r.add("round") }
func (r *recorder) OnCountdownTick(t countdown.Tick) {
	r.add("tick:%s", t)
}
func (r *recorder) OnPrediction(res vision.PredictionResult) { r.add("prediction") }
func (r *recorder) OnChoicesRevealed(user, computer rps.Choice) {
	r.add("reveal:%s/%s", user, computer)
}
func (r *recorder) OnResult(round rps.Round) {
	r.mu.Lock()
	r.rounds = append(r.rounds, round)
	r.mu.Unlock()
	r.add("result:%s", round.Outcome)
}
func (r *recorder) OnError(kind ErrorKind, err error) { r.add("error:%s", kind) }

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.snapshot() {
		if e == event {
			n++
		}
	}
	return n
}

func (r *recorder) countPrefix(prefix string) int {
	n := 0
	for _, e := range r.snapshot() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (r *recorder) lastRound() rps.Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rounds[len(r.rounds)-1]
}

func (r *recorder) waitFor(t *testing.T, event string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.count(event) >= n },
		2*time.Second, 2*time.Millisecond, "waiting for %d x %q, got %v", n, event, r.snapshot())
}

type harness struct {
	ctrl       *Controller
	clock      *quartz.Mock
	source     *fakeSource
	classifier *fakeClassifier
	rec        *recorder
	ctx        context.Context
}

func newHarness(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		clock:      quartz.NewMock(t),
		source:     newFakeSource(),
		classifier: &fakeClassifier{},
		rec:        &recorder{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx

	all := append([]Option{
		WithConfig(cfg),
		WithClock(h.clock),
		WithLogger(quietLogger()),
		WithPresenter(h.rec),
		WithOpponent(func() rps.Choice { return rps.Scissors }),
	}, opts...)
	h.ctrl = NewController(h.source, h.classifier, all...)

	runDone := make(chan error, 1)
	go func() { runDone <- h.ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-runDone:
		case <-time.After(2 * time.Second):
			t.Error("controller did not stop")
		}
	})
	return h
}

func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	h.clock.Advance(d).MustWait(ctx)
}

// runCountdown walks a default countdown from "3" to Done.
func (h *harness) runCountdown(t *testing.T) {
	t.Helper()
	h.advance(t, time.Second)
	h.advance(t, time.Second)
	h.advance(t, time.Second)
	h.advance(t, 500*time.Millisecond)
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ctrl.State() == want },
		2*time.Second, 2*time.Millisecond, "waiting for state %s, have %s", want, h.ctrl.State())
}

func noDelay() Config {
	cfg := DefaultConfig()
	cfg.RevealDelay = 0
	return cfg
}

var confidentRock = vision.PredictionResult{{"Rock", 0.95}, {"Paper", 0.03}, {"Scissors", 0.02}}
