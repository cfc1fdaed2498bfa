package vision

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is a single camera sample. Data must not be modified once the frame
// has been published.
type Frame struct {
	Seq        uint64
	Width      int
	Height     int
	Format     string // "rgb" or "jpeg"
	Data       []byte
	CapturedAt time.Time
}

// FrameSource supplies the most recent camera frame and a refresh tick.
type FrameSource interface {
	// Open acquires the device. Fails with ErrDeviceUnavailable.
	Open(ctx context.Context) error

	// CurrentFrame returns the newest frame. Fails with ErrDeviceUnavailable
	// when the device has gone away or was never opened.
	CurrentFrame() (Frame, error)

	// Ticks delivers a notification each time a new frame is available.
	// Notifications coalesce: a reader that falls behind sees one pending tick.
	Ticks() <-chan struct{}

	// Close releases the device.
	Close() error
}

// Mailbox is a single-slot frame holder with overwrite semantics. Sources
// embed it to implement CurrentFrame and Ticks.
type Mailbox struct {
	mu       sync.Mutex
	frame    Frame
	has      bool
	consumed bool
	seq      uint64

	ticks chan struct{}
	drops atomic.Uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ticks: make(chan struct{}, 1)}
}

// Publish stores frame as the latest one, assigning its sequence number, and
// wakes any tick reader. It never blocks.
func (m *Mailbox) Publish(frame Frame) uint64 {
	m.mu.Lock()
	if m.has && !m.consumed {
		m.drops.Add(1)
	}
	m.seq++
	frame.Seq = m.seq
	m.frame = frame
	m.has = true
	m.consumed = false
	seq := m.seq
	m.mu.Unlock()

	select {
	case m.ticks <- struct{}{}:
	default:
	}
	return seq
}

// Latest returns the newest frame, or false if nothing has been published.
func (m *Mailbox) Latest() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return Frame{}, false
	}
	m.consumed = true
	return m.frame, true
}

// Reset forgets the stored frame. Sequence numbers keep increasing.
func (m *Mailbox) Reset() {
	m.mu.Lock()
	m.frame = Frame{}
	m.has = false
	m.consumed = false
	m.mu.Unlock()

	select {
	case <-m.ticks:
	default:
	}
}

// Ticks returns the coalescing notification channel.
func (m *Mailbox) Ticks() <-chan struct{} {
	return m.ticks
}

// Drops counts frames that were overwritten before anyone read them.
func (m *Mailbox) Drops() uint64 {
	return m.drops.Load()
}
