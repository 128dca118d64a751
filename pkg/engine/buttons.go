package engine

// Button codes understood by the engine's ProcessKey. Printable keys use
// their character code.
const (
	LeftButton = 0x0200 + iota
	MiddleButton
	RightButton
	LeftDrag
	MiddleDrag
	RightDrag
	LeftRelease
	MiddleRelease
	RightRelease
	CursorUp
	CursorDown
	CursorLeft
	CursorRight
	CursorSelect
	CursorSelect2
	uiLowerBound
	UIQuit
	UINewGame
	UISolve
	UIUndo
	UIRedo
	uiUpperBound
)

// Modifier flags combined with a button code.
const (
	ModCtrl      = 0x1000
	ModShift     = 0x2000
	ModNumKeypad = 0x4000
	ModMask      = 0x7000
)

// IsMouseDown reports whether b is a mouse press.
func IsMouseDown(b int) bool {
	return b >= LeftButton && b <= RightButton
}

// IsMouseDrag reports whether b is a mouse drag.
func IsMouseDrag(b int) bool {
	return b >= LeftDrag && b <= RightDrag
}

// IsMouseRelease reports whether b is a mouse release.
func IsMouseRelease(b int) bool {
	return b >= LeftRelease && b <= RightRelease
}

// DragButton returns the drag code paired with a press code.
func DragButton(press int) int {
	return press + (LeftDrag - LeftButton)
}

// ReleaseButton returns the release code paired with a press code.
func ReleaseButton(press int) int {
	return press + (LeftRelease - LeftButton)
}

// KeyResult is the outcome of a ProcessKey call on the engine.
type KeyResult int

const (
	// KeyQuit means the engine recognised a quit request.
	KeyQuit KeyResult = iota
	// KeySomeEffect means the key changed the game or UI state.
	KeySomeEffect
	// KeyNoEffect means the key is used by the puzzle but did nothing now.
	KeyNoEffect
	// KeyUnused means the puzzle does not use the key.
	KeyUnused
)
