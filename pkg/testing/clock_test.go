package testing

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestFakeClock_AfterFuncOrder(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()
	var fired []string
	var at []time.Duration
	record := func(name string) func() {
		return func() {
			fired = append(fired, name)
			at = append(at, clk.Now().Sub(start))
		}
	}
	clk.AfterFunc(30*time.Millisecond, record("c"))
	clk.AfterFunc(10*time.Millisecond, record("a"))
	clk.AfterFunc(10*time.Millisecond, record("b"))
	late := clk.AfterFunc(time.Second, record("late"))

	clk.Advance(50 * time.Millisecond)
	if diff := cmp.Diff([]string{"a", "b", "c"}, fired); diff != "" {
		t.Errorf("fire order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond}, at); diff != "" {
		t.Errorf("fire times mismatch (-want +got):\n%s", diff)
	}
	if !late.Stop() {
		t.Error("Stop on pending timer should report true")
	}
	if late.Stop() {
		t.Error("second Stop should report false")
	}
	if clk.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clk.Pending())
	}
}

func TestFakeClock_RescheduleDuringAdvance(t *testing.T) {
	clk := NewFakeClock()
	count := 0
	var tick func()
	tick = func() {
		count++
		clk.AfterFunc(10*time.Millisecond, tick)
	}
	clk.AfterFunc(10*time.Millisecond, tick)
	clk.Advance(35 * time.Millisecond)
	if count != 3 {
		t.Errorf("ticks = %d, want 3", count)
	}
}
