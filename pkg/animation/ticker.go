// Package animation provides the frame timing primitives puzzles animate
// with: a replaceable Clock and a Ticker that fires at a fixed interval
// while active.
package animation

import (
	"sync"
	"time"
)

// DefaultFrameInterval is one frame at 60Hz.
const DefaultFrameInterval = time.Second / 60

// Ticker calls a callback once per frame while active.
//
// The callback receives the time elapsed since the previous frame (or since
// Start, for the first frame). Callbacks run on the clock's timer goroutine;
// a callback already running when Stop is called completes.
type Ticker struct {
	clock    Clock
	interval time.Duration
	callback func(elapsed time.Duration)

	mu     sync.Mutex
	active bool
	gen    uint64
	timer  Timer
	last   time.Time
}

// NewTicker creates a stopped ticker. A nil clock uses the default clock; a
// non-positive interval uses DefaultFrameInterval.
func NewTicker(c Clock, interval time.Duration, callback func(elapsed time.Duration)) *Ticker {
	if c == nil {
		c = Default()
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Ticker{clock: c, interval: interval, callback: callback}
}

// Start activates the ticker.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return
	}
	t.active = true
	t.gen++
	t.last = t.clock.Now()
	t.schedule(t.gen)
}

// Stop deactivates the ticker.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// IsActive returns whether the ticker is currently running.
func (t *Ticker) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Interval returns the frame interval.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

func (t *Ticker) schedule(gen uint64) {
	t.timer = t.clock.AfterFunc(t.interval, func() { t.fire(gen) })
}

func (t *Ticker) fire(gen uint64) {
	t.mu.Lock()
	if !t.active || gen != t.gen {
		t.mu.Unlock()
		return
	}
	now := t.clock.Now()
	elapsed := now.Sub(t.last)
	t.last = now
	t.schedule(gen)
	cb := t.callback
	t.mu.Unlock()

	if cb != nil {
		cb(elapsed)
	}
}
