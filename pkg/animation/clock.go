package animation

import "time"

// Clock provides time and one-shot timers. The default implementation uses
// system time. Tests inject a fake clock to control timing
// deterministically.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call if it has not started. It reports whether the
	// call was stopped.
	Stop() bool
}

// realClock uses system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }

// clock is the package-level time source, replaceable for testing.
var clock Clock = realClock{}

// SetClock replaces the default clock. Returns the previous clock
// so callers can restore it during cleanup.
func SetClock(c Clock) Clock {
	prev := clock
	if c == nil {
		c = realClock{}
	}
	clock = c
	return prev
}

// Now returns the current time from the default clock.
func Now() time.Time { return clock.Now() }

// Default returns the default clock.
func Default() Clock { return clock }
