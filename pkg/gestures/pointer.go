// Package gestures models pointer input and detects emulated secondary
// button presses on touch screens.
package gestures

import "github.com/go-drift/puzzles/pkg/graphics"

// PointerKind is the device that produced a pointer event.
type PointerKind int

const (
	PointerKindMouse PointerKind = iota
	PointerKindTouch
	PointerKindPen
)

func (k PointerKind) String() string {
	switch k {
	case PointerKindTouch:
		return "touch"
	case PointerKindPen:
		return "pen"
	default:
		return "mouse"
	}
}

// PointerPhase is the lifecycle stage of a pointer event.
type PointerPhase int

const (
	PointerPhaseDown PointerPhase = iota
	PointerPhaseMove
	PointerPhaseUp
	PointerPhaseCancel
)

func (p PointerPhase) String() string {
	switch p {
	case PointerPhaseDown:
		return "down"
	case PointerPhaseMove:
		return "move"
	case PointerPhaseUp:
		return "up"
	default:
		return "cancel"
	}
}

// Mouse buttons, numbered as browsers number them.
const (
	ButtonPrimary   = 0
	ButtonAuxiliary = 1
	ButtonSecondary = 2
)

// PointerEvent is one pointer input event in element coordinates.
type PointerEvent struct {
	PointerID int64
	Kind      PointerKind
	// Button is the mouse button for down and up events.
	Button int
	// Primary is set for the first pointer of a multi-touch interaction.
	Primary  bool
	Position graphics.Offset
	Phase    PointerPhase
}
