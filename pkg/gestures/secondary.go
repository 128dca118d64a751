package gestures

import (
	"sync"
	"time"

	"github.com/go-drift/puzzles/pkg/animation"
)

// SecondaryConfig selects which touch gestures count as a secondary button
// press.
type SecondaryConfig struct {
	// LongPress treats holding a touch still for HoldTime as secondary.
	LongPress bool
	// TwoFingerTap treats a second finger tapping while the first is held
	// as secondary.
	TwoFingerTap bool
	HoldTime     time.Duration
	// DragThreshold is how far, in pixels, a touch may wander before it
	// counts as a drag.
	DragThreshold float64
}

// DefaultSecondaryConfig enables both gestures.
func DefaultSecondaryConfig() SecondaryConfig {
	return SecondaryConfig{
		LongPress:     true,
		TwoFingerTap:  true,
		HoldTime:      350 * time.Millisecond,
		DragThreshold: 8,
	}
}

func (c SecondaryConfig) withDefaults() SecondaryConfig {
	if c.HoldTime <= 0 {
		c.HoldTime = 350 * time.Millisecond
	}
	if c.DragThreshold <= 0 {
		c.DragThreshold = 8
	}
	return c
}

// Scheduler creates the detector's timers. animation.Clock satisfies it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) animation.Timer
}

// Resolution is the outcome of a detection session.
type Resolution struct {
	IsSecondary bool
	// Unconsumed is an event the detector swallowed that the caller should
	// now handle itself, such as the move that turned the touch into a drag
	// or the original touch's release while a second touch was pending.
	Unconsumed *PointerEvent
}

// SecondaryDetector decides whether a touch is a secondary button press.
// It resolves exactly once; afterwards HandleEvent ignores everything.
type SecondaryDetector struct {
	mu      sync.Mutex
	cfg     SecondaryConfig
	sched   Scheduler
	resolve func(Resolution)

	origin      PointerEvent
	originEnd   *PointerEvent
	holdTimer   animation.Timer
	second      *PointerEvent
	secondTimer animation.Timer
	done        bool
}

// DetectSecondary starts a session for the down event. resolve is called
// once, possibly before DetectSecondary returns, and possibly from a timer
// goroutine. Non-touch and non-primary pointers, and a config with both
// gestures disabled, resolve immediately as not secondary.
func DetectSecondary(down PointerEvent, cfg SecondaryConfig, sched Scheduler, resolve func(Resolution)) *SecondaryDetector {
	if sched == nil {
		sched = animation.Default()
	}
	d := &SecondaryDetector{cfg: cfg.withDefaults(), sched: sched, resolve: resolve, origin: down}
	if down.Kind != PointerKindTouch || !down.Primary || down.Phase != PointerPhaseDown ||
		(!cfg.LongPress && !cfg.TwoFingerTap) {
		d.done = true
		d.emit(Resolution{})
		return d
	}
	d.mu.Lock()
	d.holdTimer = sched.AfterFunc(d.cfg.HoldTime, d.onHoldTimeout)
	d.mu.Unlock()
	return d
}

// Resolved reports whether the session has finished.
func (d *SecondaryDetector) Resolved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Cancel ends the session as not secondary.
func (d *SecondaryDetector) Cancel() {
	d.mu.Lock()
	res, ok := d.finish(false, nil)
	d.mu.Unlock()
	if ok {
		d.emit(res)
	}
}

// HandleEvent feeds a pointer event to the session. It reports whether the
// detector consumed the event; unconsumed events belong to the caller.
func (d *SecondaryDetector) HandleEvent(ev PointerEvent) bool {
	d.mu.Lock()
	consumed, res, resolved := d.handle(ev)
	d.mu.Unlock()
	if resolved {
		d.emit(res)
	}
	return consumed
}

func (d *SecondaryDetector) handle(ev PointerEvent) (consumed bool, res Resolution, resolved bool) {
	if d.done || ev.Kind != d.origin.Kind {
		return false, Resolution{}, false
	}

	if ev.PointerID == d.origin.PointerID {
		switch ev.Phase {
		case PointerPhaseMove:
			if ev.Position.Distance(d.origin.Position) > d.cfg.DragThreshold {
				res, resolved = d.finish(false, &ev)
			}
			return true, res, resolved
		case PointerPhaseUp, PointerPhaseCancel:
			if d.second == nil {
				res, resolved = d.finish(false, &ev)
				return true, res, resolved
			}
			// With a second touch pending its outcome decides; the end is
			// handed back with the resolution.
			end := ev
			d.originEnd = &end
			return true, Resolution{}, false
		}
		return false, Resolution{}, false
	}

	if d.second == nil {
		if ev.Phase != PointerPhaseDown {
			return false, Resolution{}, false
		}
		if !d.cfg.TwoFingerTap {
			res, resolved = d.finish(false, nil)
			return false, res, resolved
		}
		second := ev
		d.second = &second
		d.secondTimer = d.sched.AfterFunc(d.cfg.HoldTime, d.onSecondTimeout)
		return true, Resolution{}, false
	}

	if ev.PointerID == d.second.PointerID {
		switch ev.Phase {
		case PointerPhaseMove:
			if ev.Position.Distance(d.second.Position) > d.cfg.DragThreshold {
				res, resolved = d.finish(false, nil)
			}
		case PointerPhaseUp:
			res, resolved = d.finish(true, nil)
		case PointerPhaseCancel:
			res, resolved = d.finish(false, nil)
		}
		return true, res, resolved
	}

	if ev.Phase == PointerPhaseDown {
		res, resolved = d.finish(false, nil)
	}
	return false, res, resolved
}

func (d *SecondaryDetector) onHoldTimeout() {
	d.mu.Lock()
	var (
		res Resolution
		ok  bool
	)
	if d.second == nil {
		res, ok = d.finish(d.cfg.LongPress, nil)
	}
	d.mu.Unlock()
	if ok {
		d.emit(res)
	}
}

func (d *SecondaryDetector) onSecondTimeout() {
	d.mu.Lock()
	res, ok := d.finish(false, nil)
	d.mu.Unlock()
	if ok {
		d.emit(res)
	}
}

// finish must be called with d.mu held.
func (d *SecondaryDetector) finish(secondary bool, unconsumed *PointerEvent) (Resolution, bool) {
	if d.done {
		return Resolution{}, false
	}
	d.done = true
	if d.holdTimer != nil {
		d.holdTimer.Stop()
	}
	if d.secondTimer != nil {
		d.secondTimer.Stop()
	}
	if unconsumed == nil {
		unconsumed = d.originEnd
	}
	return Resolution{IsSecondary: secondary, Unconsumed: unconsumed}, true
}

func (d *SecondaryDetector) emit(res Resolution) {
	if d.resolve != nil {
		d.resolve(res)
	}
}
