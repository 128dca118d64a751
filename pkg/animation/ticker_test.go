package animation_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/puzzles/pkg/animation"
	puztest "github.com/go-drift/puzzles/pkg/testing"
)

func TestTickerReportsElapsedPerFrame(t *testing.T) {
	clk := puztest.NewFakeClock()
	var got []time.Duration
	ticker := animation.NewTicker(clk, 10*time.Millisecond, func(elapsed time.Duration) {
		got = append(got, elapsed)
	})

	ticker.Start()
	clk.Advance(35 * time.Millisecond)
	ticker.Stop()
	clk.Advance(100 * time.Millisecond)

	want := []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elapsed mismatch (-want +got):\n%s", diff)
	}
	if clk.Pending() != 0 {
		t.Errorf("stopped ticker left %d timers", clk.Pending())
	}
}

func TestTickerRestart(t *testing.T) {
	clk := puztest.NewFakeClock()
	count := 0
	ticker := animation.NewTicker(clk, 0, func(time.Duration) { count++ })
	if ticker.Interval() != animation.DefaultFrameInterval {
		t.Errorf("Interval() = %v, want %v", ticker.Interval(), animation.DefaultFrameInterval)
	}

	ticker.Start()
	ticker.Start()
	if clk.Pending() != 1 {
		t.Errorf("double Start scheduled %d timers, want 1", clk.Pending())
	}
	ticker.Stop()
	ticker.Start()
	clk.Advance(animation.DefaultFrameInterval)
	if count != 1 {
		t.Errorf("ticks after restart = %d, want 1", count)
	}
	if !ticker.IsActive() {
		t.Error("ticker should still be active")
	}
	ticker.Stop()
	if ticker.IsActive() {
		t.Error("ticker should be stopped")
	}
}

func TestSetClock(t *testing.T) {
	clk := puztest.NewFakeClock()
	prev := animation.SetClock(clk)
	defer animation.SetClock(prev)

	if !animation.Now().Equal(clk.Now()) {
		t.Errorf("Now() = %v, want fake time %v", animation.Now(), clk.Now())
	}
	if animation.Default() != animation.Clock(clk) {
		t.Error("Default() should return the installed clock")
	}
}
