package canvas

import (
	"github.com/go-drift/puzzles/pkg/animation"
	"github.com/go-drift/puzzles/pkg/errors"
	"github.com/go-drift/puzzles/pkg/gestures"
	"github.com/go-drift/puzzles/pkg/palette"
)

// DefaultMinSize is the smallest canvas dimension offered to the engine.
const DefaultMinSize = 64

// Option configures New.
type Option func(*options)

type options struct {
	minSize   float64
	maxScale  float64
	table     palette.Table
	overrides *palette.Overrides
	gesture   gestures.SecondaryConfig
	sched     gestures.Scheduler
	onError   func(*errors.PuzzleError)
}

func defaultOptions() options {
	return options{
		minSize: DefaultMinSize,
		table:   palette.DefaultTable(),
		gesture: gestures.DefaultSecondaryConfig(),
		sched:   animation.Default(),
		onError: errors.Report,
	}
}

// WithMinSize sets the per-axis floor of the space offered to the engine.
func WithMinSize(px float64) Option {
	return func(o *options) {
		if px > 0 {
			o.minSize = px
		}
	}
}

// WithMaxScale caps the canvas at scale times the engine's preferred size.
// Zero means no cap.
func WithMaxScale(scale float64) Option {
	return func(o *options) {
		if scale >= 0 {
			o.maxScale = scale
		}
	}
}

// WithPaletteTable looks up dark mode overrides by puzzle type in t.
func WithPaletteTable(t palette.Table) Option {
	return func(o *options) {
		o.table = t
	}
}

// WithPaletteOverrides uses ov regardless of puzzle type.
func WithPaletteOverrides(ov palette.Overrides) Option {
	return func(o *options) {
		o.overrides = &ov
	}
}

// WithGestureConfig sets which touch gestures emulate the right button.
func WithGestureConfig(cfg gestures.SecondaryConfig) Option {
	return func(o *options) {
		o.gesture = cfg
	}
}

// WithScheduler sets the timer source for gesture detection.
func WithScheduler(s gestures.Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.sched = s
		}
	}
}

// OnError receives engine failures. The default reports them through
// errors.Report.
func OnError(fn func(*errors.PuzzleError)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}
