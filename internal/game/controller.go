package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/randutil"
	"github.com/lox/rpsvision/internal/roundid"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/vision"
)

// Controller is the round state machine. All state lives on the goroutine
// running Run; Start, Restart and Stop send requests to it, and timers and
// classifications post their results back tagged with the generation of the
// round that started them. Anything carrying an old generation is dropped.
type Controller struct {
	cfg        Config
	source     vision.FrameSource
	classifier vision.Classifier
	presenter  Presenter
	clock      quartz.Clock
	logger     *log.Logger
	opponent   func() rps.Choice
	newID      func() string

	events  chan event
	done    chan struct{}
	running atomic.Bool

	// Mirrors readable from any goroutine.
	state       atomic.Int32
	generation  atomic.Uint64
	lastRound   atomic.Pointer[rps.Round]
	rounds      atomic.Uint64
	staleEvents atomic.Uint64

	// Owned by the Run goroutine.
	ctx          context.Context
	current      State
	gen          uint64
	acquired     bool
	deviceErr    error
	initCancel   context.CancelFunc
	pendingStart chan error
	countdown    *countdown.Timer
	grace        *quartz.Timer
	roundCtx     context.Context
	roundCancel  context.CancelFunc
	predictions  *PredictionLoop
	pending      rps.Round
}

// Stats is a snapshot of controller counters.
type Stats struct {
	State       State
	Generation  uint64
	Rounds      uint64
	StaleEvents uint64
}

// NewController creates an idle controller. Call Run before Start.
func NewController(source vision.FrameSource, classifier vision.Classifier, opts ...Option) *Controller {
	if source == nil {
		panic("frame source is required")
	}
	if classifier == nil {
		panic("classifier is required")
	}

	c := &Controller{
		cfg:        DefaultConfig(),
		source:     source,
		classifier: classifier,
		presenter:  NopPresenter{},
		clock:      quartz.NewReal(),
		logger:     log.Default(),
		newID:      roundid.New,
		events:     make(chan event, 64),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.opponent == nil {
		rng := randutil.FromSeed(0)
		c.opponent = func() rps.Choice { return rps.RandomChoice(rng) }
	}
	c.logger = c.logger.WithPrefix("game")
	c.countdown = countdown.New(c.clock, c.cfg.Countdown)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// LastRound returns the most recently completed round.
func (c *Controller) LastRound() (rps.Round, bool) {
	r := c.lastRound.Load()
	if r == nil {
		return rps.Round{}, false
	}
	return *r, true
}

// Stats returns the controller counters.
func (c *Controller) Stats() Stats {
	return Stats{
		State:       c.State(),
		Generation:  c.generation.Load(),
		Rounds:      c.rounds.Load(),
		StaleEvents: c.staleEvents.Load(),
	}
}

// Run processes events until ctx ends, then releases the camera and model
// and returns to Idle.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("game: controller already running")
	}
	c.ctx = ctx
	defer close(c.done)
	defer func() {
		c.teardown()
		c.setState(Idle)
	}()

	c.logger.Debug("Controller running")
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Controller stopping")
			return nil
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Start acquires the camera and model and begins the first round. It blocks
// until initialisation finishes and returns its error; the controller is then
// back in Idle and Start may be called again. Calling Start in any state but
// Idle returns ErrInvalidTransition.
func (c *Controller) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	return c.request(ctx, startRequest{reply: reply}, reply)
}

// Restart abandons the current round and begins a new countdown. Legal from
// Countdown, Capturing, Revealing and Result. If the camera was lost the
// controller tears down, moves to Idle and returns ErrNotInitialized.
func (c *Controller) Restart(ctx context.Context) error {
	reply := make(chan error, 1)
	return c.request(ctx, restartRequest{reply: reply}, reply)
}

// Stop abandons any round, releases the camera and model and returns to Idle.
func (c *Controller) Stop(ctx context.Context) error {
	reply := make(chan error, 1)
	return c.request(ctx, stopRequest{reply: reply}, reply)
}

func (c *Controller) request(ctx context.Context, ev event, reply chan error) error {
	select {
	case c.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// post delivers an event from a timer or worker goroutine.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) handle(ev event) {
	switch ev := ev.(type) {
	case startRequest:
		c.handleStart(ev.reply)
	case restartRequest:
		c.handleRestart(ev.reply)
	case stopRequest:
		c.teardown()
		c.setState(Idle)
		ev.reply <- nil
	case initDone:
		c.handleInitDone(ev)
	case tickEvent:
		if c.isStale(ev.gen) || c.current != Countdown {
			return
		}
		c.presenter.OnCountdownTick(ev.tick)
	case countdownDone:
		c.handleCountdownDone(ev)
	case captureDone:
		c.handleCaptureDone(ev)
	case graceElapsed:
		if c.isStale(ev.gen) || c.current != Revealing {
			return
		}
		c.grace = nil
		c.finishRound()
	case predictionEvent:
		if !c.usable() || !c.current.ShowsLabels() {
			return
		}
		c.presenter.OnPrediction(ev.result)
	case deviceLost:
		c.handleDeviceLost(ev.err)
	default:
		c.logger.Warn("Unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

func (c *Controller) handleStart(reply chan error) {
	if !c.current.CanStart() {
		c.logger.Debug("Ignoring start", "state", c.current)
		reply <- fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, c.current)
		return
	}

	c.bumpGeneration()
	c.setState(Initializing)

	ctx, cancel := context.WithCancel(c.ctx)
	c.initCancel = cancel
	c.pendingStart = reply
	gen := c.gen
	go func() {
		c.post(initDone{gen: gen, err: c.acquire(ctx)})
	}()
}

// acquire loads the model, then opens the camera. Runs off the event loop.
func (c *Controller) acquire(ctx context.Context) error {
	c.logger.Info("Loading model", "model", c.cfg.ModelRef)
	if err := c.classifier.Load(ctx, c.cfg.ModelRef); err != nil {
		return ensureKind(err, vision.ErrModelLoad)
	}
	c.logger.Info("Model loaded", "labels", c.classifier.LabelCount())

	if err := c.source.Open(ctx); err != nil {
		closeQuietly(c.classifier)
		return ensureKind(err, vision.ErrDeviceUnavailable)
	}
	return nil
}

func (c *Controller) handleInitDone(ev initDone) {
	if ev.gen != c.gen || c.current != Initializing {
		c.staleEvents.Add(1)
		if ev.err == nil && c.current == Idle {
			c.logger.Debug("Releasing resources from abandoned start")
			c.release()
		}
		return
	}

	c.initCancel()
	c.initCancel = nil
	reply := c.pendingStart
	c.pendingStart = nil

	if ev.err != nil {
		c.logger.Error("Initialization failed", "error", ev.err)
		c.setState(Idle)
		c.presenter.OnError(KindOf(ev.err), ev.err)
		reply <- ev.err
		return
	}

	c.acquired = true
	c.deviceErr = nil
	c.predictions = NewPredictionLoop(c.source, c.classifier, c.logger)
	c.predictions.Start(c.ctx, c.onPrediction, c.onDeviceLost)

	c.beginRound()
	reply <- nil
}

func (c *Controller) handleRestart(reply chan error) {
	if !c.current.CanRestart() {
		c.logger.Debug("Ignoring restart", "state", c.current)
		reply <- fmt.Errorf("%w: cannot restart from %s", ErrInvalidTransition, c.current)
		return
	}

	if !c.usable() {
		c.logger.Warn("Restart without a working camera, tearing down", "error", c.deviceErr)
		c.teardown()
		c.setState(Idle)
		reply <- ErrNotInitialized
		return
	}

	c.beginRound()
	reply <- nil
}

func (c *Controller) beginRound() {
	c.abortRound()
	c.bumpGeneration()
	gen := c.gen

	c.roundCtx, c.roundCancel = context.WithCancel(c.ctx)

	c.setState(Countdown)
	c.logger.Debug("Round starting", "generation", gen)
	c.presenter.OnRoundStarted(gen)
	c.countdown.Start(
		func(t countdown.Tick) { c.post(tickEvent{gen: gen, tick: t}) },
		func() { c.post(countdownDone{gen: gen}) },
	)
}

func (c *Controller) handleCountdownDone(ev countdownDone) {
	if c.isStale(ev.gen) || c.current != Countdown {
		return
	}

	c.setState(Capturing)
	c.predictions.Suspend()

	ctx, gen := c.roundCtx, ev.gen
	go func() {
		frame, err := c.source.CurrentFrame()
		if err != nil {
			c.post(captureDone{gen: gen, err: err})
			return
		}
		result, err := c.classifier.Classify(ctx, frame)
		c.post(captureDone{gen: gen, seq: frame.Seq, result: result, err: err})
	}()
}

func (c *Controller) handleCaptureDone(ev captureDone) {
	if c.isStale(ev.gen) || c.current != Capturing {
		return
	}

	user := rps.Unknown
	if ev.err != nil {
		c.logger.Warn("Capture failed, move unknown", "generation", ev.gen, "error", ev.err)
	} else {
		user = rps.Resolve(ev.result, c.cfg.Threshold)
	}
	computer := c.opponent()

	c.pending = rps.NewRound(c.newID(), ev.gen, user, computer)
	c.predictions.Resume()
	c.setState(Revealing)
	c.logger.Info("Choices captured",
		"round", c.pending.ID,
		"generation", ev.gen,
		"frame", ev.seq,
		"user", user,
		"computer", computer)

	if c.cfg.RevealDelay > 0 {
		gen := ev.gen
		c.grace = c.clock.AfterFunc(c.cfg.RevealDelay, func() { c.post(graceElapsed{gen: gen}) }, "reveal")
	}
	c.presenter.OnChoicesRevealed(user, computer)
	if c.cfg.RevealDelay <= 0 {
		c.finishRound()
	}
}

func (c *Controller) finishRound() {
	round := c.pending
	c.lastRound.Store(&round)
	c.rounds.Add(1)
	if c.roundCancel != nil {
		c.roundCancel()
		c.roundCancel = nil
	}

	c.setState(Result)
	c.logger.Info("Round finished", "round", round.ID, "outcome", round.Outcome)
	c.presenter.OnResult(round)
}

func (c *Controller) handleDeviceLost(err error) {
	if !c.acquired || c.deviceErr != nil {
		return
	}
	c.deviceErr = err
	c.logger.Error("Camera lost", "state", c.current, "error", err)
	c.presenter.OnError(KindDeviceUnavailable, err)
}

// onPrediction forwards a display-only result. Results are dropped while the
// queue is half full so that timer and worker events always find room.
func (c *Controller) onPrediction(_ context.Context, result vision.PredictionResult) {
	if len(c.events) >= cap(c.events)/2 {
		return
	}
	select {
	case c.events <- predictionEvent{result: result}:
	default:
	}
}

func (c *Controller) onDeviceLost(ctx context.Context, err error) {
	select {
	case c.events <- deviceLost{err: err}:
	case <-ctx.Done():
	case <-c.done:
	}
}

// abortRound cancels every timer and in-flight capture of the current round.
func (c *Controller) abortRound() {
	c.countdown.Cancel()
	if c.grace != nil {
		c.grace.Stop()
		c.grace = nil
	}
	if c.roundCancel != nil {
		c.roundCancel()
		c.roundCancel = nil
	}
	if c.predictions != nil {
		c.predictions.Resume()
	}
}

// teardown abandons everything and releases the camera and model.
func (c *Controller) teardown() {
	c.abortRound()
	c.bumpGeneration()

	if c.initCancel != nil {
		c.initCancel()
		c.initCancel = nil
	}
	if c.pendingStart != nil {
		c.pendingStart <- fmt.Errorf("%w: start abandoned", ErrStopped)
		c.pendingStart = nil
	}
	if c.predictions != nil {
		c.predictions.Stop()
		c.predictions = nil
	}
	if c.acquired {
		c.release()
		c.acquired = false
	}
	c.deviceErr = nil
}

func (c *Controller) release() {
	if err := c.source.Close(); err != nil {
		c.logger.Warn("Failed to close frame source", "error", err)
	}
	closeQuietly(c.classifier)
}

func (c *Controller) usable() bool {
	return c.acquired && c.deviceErr == nil
}

func (c *Controller) bumpGeneration() {
	c.gen++
	c.generation.Store(c.gen)
}

func (c *Controller) isStale(gen uint64) bool {
	if gen == c.gen {
		return false
	}
	c.staleEvents.Add(1)
	c.logger.Debug("Discarding stale event", "generation", gen, "current", c.gen)
	return true
}

func (c *Controller) setState(s State) {
	from := c.current
	if from == s {
		return
	}
	c.current = s
	c.state.Store(int32(s))
	c.logger.Debug("State change", "from", from, "to", s)
	c.presenter.OnStateChange(from, s)
}

func closeQuietly(v any) {
	if closer, ok := v.(io.Closer); ok {
		_ = closer.Close()
	}
}
