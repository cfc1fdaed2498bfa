// Package countdown implements the cancelable 3-2-1-GO sequence that precedes
// a capture.
package countdown

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Tick is a single countdown announcement. Count zero is the "GO!" tick.
type Tick struct {
	Count int
}

// Go is the final announcement before Done.
var Go = Tick{}

// IsGo reports whether this is the final announcement.
func (t Tick) IsGo() bool { return t.Count == 0 }

func (t Tick) String() string {
	if t.IsGo() {
		return "GO!"
	}
	return strconv.Itoa(t.Count)
}

// Phase is the timer's position in the sequence.
type Phase int

const (
	Idle Phase = iota
	Ticking
	Announcing
	Done
)

func (p Phase) String() string {
	switch p {
	case Ticking:
		return "ticking"
	case Announcing:
		return "announcing"
	case Done:
		return "done"
	default:
		return "idle"
	}
}

// Config controls the pacing of the sequence.
type Config struct {
	From     int           // first number announced
	Interval time.Duration // between numbers, and between the last number and GO
	GoPause  time.Duration // how long GO is shown before Done
}

// DefaultConfig returns the 3, 2, 1, GO pacing used by the game.
func DefaultConfig() Config {
	return Config{
		From:     3,
		Interval: time.Second,
		GoPause:  500 * time.Millisecond,
	}
}

// Validate checks the pacing values.
func (c Config) Validate() error {
	if c.From < 1 {
		return errors.New("countdown: from must be at least 1")
	}
	if c.Interval <= 0 {
		return errors.New("countdown: interval must be positive")
	}
	if c.GoPause < 0 {
		return errors.New("countdown: go pause cannot be negative")
	}
	return nil
}

// Timer runs one countdown sequence at a time. Callbacks are invoked with the
// timer's lock held so that nothing is delivered after Cancel returns; they
// must not call back into the Timer.
type Timer struct {
	cfg   Config
	clock quartz.Clock

	mu     sync.Mutex
	timer  *quartz.Timer
	seq    uint64
	phase  Phase
	count  int
	onTick func(Tick)
	onDone func()
}

// New creates an idle timer.
func New(clock quartz.Clock, cfg Config) *Timer {
	return &Timer{cfg: cfg, clock: clock}
}

// Start begins a new sequence, cancelling any sequence already running. The
// first tick is delivered before Start returns.
func (t *Timer) Start(onTick func(Tick), onDone func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seq++
	t.onTick = onTick
	t.onDone = onDone
	t.phase = Ticking
	t.count = t.cfg.From
	t.onTick(Tick{Count: t.count})
	t.armLocked(t.cfg.Interval)
}

// Cancel abandons the running sequence. No callbacks fire after it returns.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seq++
	t.phase = Idle
}

// Phase returns the current position in the sequence.
func (t *Timer) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Timer) armLocked(d time.Duration) {
	seq := t.seq
	t.timer = t.clock.AfterFunc(d, func() { t.fire(seq) }, "countdown")
}

func (t *Timer) fire(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A stopped quartz timer can still be mid-callback; seq catches that.
	if seq != t.seq {
		return
	}

	switch t.phase {
	case Ticking:
		t.count--
		if t.count > 0 {
			t.onTick(Tick{Count: t.count})
			t.armLocked(t.cfg.Interval)
			return
		}
		t.phase = Announcing
		t.onTick(Go)
		t.armLocked(t.cfg.GoPause)
	case Announcing:
		t.phase = Done
		t.timer = nil
		t.onDone()
	}
}
