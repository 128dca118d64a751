package host

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-drift/puzzles/pkg/animation"
	"github.com/go-drift/puzzles/pkg/bridge"
	"github.com/go-drift/puzzles/pkg/engine"
)

// Option configures New.
type Option func(*options)

type options struct {
	clock      animation.Clock
	interval   time.Duration
	logger     *zap.Logger
	codec      bridge.MessageCodec
	minVersion string
	tap        engine.Drawing
}

func defaultOptions() options {
	return options{
		clock:    animation.Default(),
		interval: animation.DefaultFrameInterval,
		logger:   zap.NewNop(),
		codec:    bridge.DefaultCodec,
	}
}

// WithClock sets the clock driving the animation timer.
func WithClock(c animation.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithFrameInterval sets the animation timer period.
func WithFrameInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger sets the logger for worker lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the codec used across the worker boundary.
func WithCodec(c bridge.MessageCodec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithMinEngineVersion rejects engine builds older than version.
func WithMinEngineVersion(version string) Option {
	return func(o *options) {
		o.minVersion = version
	}
}

// WithDrawingTap sends every drawing call the engine makes to d as well as
// to the canvas. d runs on the worker goroutine; a *drawing.Recorder
// captures the stream for tracing.
func WithDrawingTap(d engine.Drawing) Option {
	return func(o *options) {
		o.tap = d
	}
}
