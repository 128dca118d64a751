// Package testing provides test doubles for puzzle hosts: a controllable
// clock, a small reference puzzle engine and host element fakes.
//
// # Fake Time
//
// FakeClock implements animation.Clock. Timers fire from Advance:
//
//	clk := puztest.NewFakeClock()
//	h, _ := host.New(ctx, "stub", host.WithClock(clk))
//	clk.Advance(100 * time.Millisecond)
//
// # Stub Engine
//
// RegisterStub registers the "stub" puzzle, a lights-out style toggle grid
// that exercises every engine callback: drawing, timers, status bar,
// presets, preferences and save files.
//
// # Host Element
//
// FakeElement stands in for the on-screen element a canvas.Controller
// drives. Tests move its bounding box, scheme and pixel ratio, then read
// back the canvas sizes, backgrounds and pointer captures it recorded.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import puztest "github.com/go-drift/puzzles/pkg/testing"
package testing
