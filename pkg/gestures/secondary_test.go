package gestures_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/puzzles/pkg/gestures"
	"github.com/go-drift/puzzles/pkg/graphics"
	puztest "github.com/go-drift/puzzles/pkg/testing"
)

func touch(id int64, phase gestures.PointerPhase, x, y float64) gestures.PointerEvent {
	return gestures.PointerEvent{
		PointerID: id,
		Kind:      gestures.PointerKindTouch,
		Primary:   id == 1,
		Position:  graphics.Offset{X: x, Y: y},
		Phase:     phase,
	}
}

type session struct {
	clk      *puztest.FakeClock
	det      *gestures.SecondaryDetector
	results  []gestures.Resolution
	consumed []bool
}

func start(t *testing.T, cfg gestures.SecondaryConfig, down gestures.PointerEvent) *session {
	t.Helper()
	s := &session{clk: puztest.NewFakeClock()}
	s.det = gestures.DetectSecondary(down, cfg, s.clk, func(r gestures.Resolution) {
		s.results = append(s.results, r)
	})
	return s
}

func (s *session) send(ev gestures.PointerEvent) {
	s.consumed = append(s.consumed, s.det.HandleEvent(ev))
}

func (s *session) only(t *testing.T) gestures.Resolution {
	t.Helper()
	if len(s.results) != 1 {
		t.Fatalf("resolved %d times, want exactly once", len(s.results))
	}
	return s.results[0]
}

func TestReleaseBeforeHoldIsNotSecondary(t *testing.T) {
	s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 10, 10))
	s.clk.Advance(100 * time.Millisecond)
	up := touch(1, gestures.PointerPhaseUp, 10, 10)
	s.send(up)
	s.clk.Advance(time.Second)

	got := s.only(t)
	want := gestures.Resolution{IsSecondary: false, Unconsumed: &up}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolution mismatch (-want +got):\n%s", diff)
	}
	if s.clk.Pending() != 0 {
		t.Errorf("%d timers left after resolution", s.clk.Pending())
	}
}

func TestLongPressIsSecondary(t *testing.T) {
	s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 10, 10))
	s.send(touch(1, gestures.PointerPhaseMove, 13, 12))
	s.clk.Advance(350 * time.Millisecond)

	got := s.only(t)
	if !got.IsSecondary || got.Unconsumed != nil {
		t.Errorf("resolution = %+v, want secondary with nothing unconsumed", got)
	}
	if s.det.HandleEvent(touch(1, gestures.PointerPhaseUp, 13, 12)) {
		t.Error("events after resolution should not be consumed")
	}
}

func TestLongPressDisabled(t *testing.T) {
	cfg := gestures.DefaultSecondaryConfig()
	cfg.LongPress = false
	s := start(t, cfg, touch(1, gestures.PointerPhaseDown, 0, 0))
	s.clk.Advance(350 * time.Millisecond)
	if got := s.only(t); got.IsSecondary {
		t.Error("hold without long press enabled should not be secondary")
	}
}

func TestTwoFingerTapIsSecondary(t *testing.T) {
	s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 10, 10))
	s.clk.Advance(50 * time.Millisecond)
	s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
	s.clk.Advance(70 * time.Millisecond)
	s.send(touch(2, gestures.PointerPhaseUp, 60, 10))

	got := s.only(t)
	if !got.IsSecondary {
		t.Errorf("resolution = %+v, want secondary", got)
	}
	if diff := cmp.Diff([]bool{true, true}, s.consumed); diff != "" {
		t.Errorf("consumed mismatch (-want +got):\n%s", diff)
	}
	s.clk.Advance(time.Second)
	if len(s.results) != 1 {
		t.Errorf("timers resolved again: %d resolutions", len(s.results))
	}
}

func TestSecondTouchOutcomes(t *testing.T) {
	originUp := touch(1, gestures.PointerPhaseUp, 10, 10)
	originCancel := touch(1, gestures.PointerPhaseCancel, 10, 10)
	tests := []struct {
		name       string
		events     func(s *session)
		want       bool
		unconsumed *gestures.PointerEvent
	}{
		{
			name: "second touch held past its timer",
			events: func(s *session) {
				s.clk.Advance(50 * time.Millisecond)
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.clk.Advance(400 * time.Millisecond)
			},
			want: false,
		},
		{
			name: "second touch drags",
			events: func(s *session) {
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.send(touch(2, gestures.PointerPhaseMove, 80, 10))
			},
			want: false,
		},
		{
			name: "third touch",
			events: func(s *session) {
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.send(touch(3, gestures.PointerPhaseDown, 90, 10))
			},
			want: false,
		},
		{
			name: "second touch cancelled",
			events: func(s *session) {
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.send(touch(2, gestures.PointerPhaseCancel, 60, 10))
			},
			want: false,
		},
		{
			name: "original lifts first then second taps",
			events: func(s *session) {
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.send(originUp)
				s.clk.Advance(100 * time.Millisecond)
				s.send(touch(2, gestures.PointerPhaseUp, 60, 10))
			},
			want:       true,
			unconsumed: &originUp,
		},
		{
			name: "original lifts first then second holds",
			events: func(s *session) {
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.send(originUp)
				s.clk.Advance(400 * time.Millisecond)
			},
			want:       false,
			unconsumed: &originUp,
		},
		{
			name: "original cancelled then second drags",
			events: func(s *session) {
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.send(originCancel)
				s.send(touch(2, gestures.PointerPhaseMove, 80, 10))
			},
			want:       false,
			unconsumed: &originCancel,
		},
		{
			name: "original hold timer with second pending",
			events: func(s *session) {
				s.clk.Advance(300 * time.Millisecond)
				s.send(touch(2, gestures.PointerPhaseDown, 60, 10))
				s.clk.Advance(100 * time.Millisecond)
				s.send(touch(2, gestures.PointerPhaseUp, 60, 10))
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 10, 10))
			tt.events(s)
			got := s.only(t)
			want := gestures.Resolution{IsSecondary: tt.want, Unconsumed: tt.unconsumed}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("resolution mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDragIsNotSecondary(t *testing.T) {
	s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 10, 10))
	move := touch(1, gestures.PointerPhaseMove, 30, 10)
	s.send(move)

	got := s.only(t)
	if got.IsSecondary || got.Unconsumed == nil || *got.Unconsumed != move {
		t.Errorf("resolution = %+v, want not secondary with the move unconsumed", got)
	}
}

func TestImmediateResolution(t *testing.T) {
	disabled := gestures.DefaultSecondaryConfig()
	disabled.LongPress = false
	disabled.TwoFingerTap = false

	mouse := touch(1, gestures.PointerPhaseDown, 0, 0)
	mouse.Kind = gestures.PointerKindMouse
	secondary := touch(4, gestures.PointerPhaseDown, 0, 0)

	tests := []struct {
		name string
		cfg  gestures.SecondaryConfig
		down gestures.PointerEvent
	}{
		{"mouse", gestures.DefaultSecondaryConfig(), mouse},
		{"non-primary touch", gestures.DefaultSecondaryConfig(), secondary},
		{"both gestures disabled", disabled, touch(1, gestures.PointerPhaseDown, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := start(t, tt.cfg, tt.down)
			if got := s.only(t); got.IsSecondary {
				t.Error("expected not secondary")
			}
			if !s.det.Resolved() {
				t.Error("detector should be resolved")
			}
			if s.clk.Pending() != 0 {
				t.Errorf("%d timers armed", s.clk.Pending())
			}
		})
	}
}

func TestCancel(t *testing.T) {
	s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 0, 0))
	s.det.Cancel()
	s.det.Cancel()
	if got := s.only(t); got.IsSecondary {
		t.Error("cancelled session should not be secondary")
	}
}

func TestOtherKindsIgnored(t *testing.T) {
	s := start(t, gestures.DefaultSecondaryConfig(), touch(1, gestures.PointerPhaseDown, 0, 0))
	pen := touch(2, gestures.PointerPhaseDown, 0, 0)
	pen.Kind = gestures.PointerKindPen
	if s.det.HandleEvent(pen) {
		t.Error("pen event should not be consumed by a touch session")
	}
	if s.det.Resolved() {
		t.Error("pen event should not resolve a touch session")
	}
}
