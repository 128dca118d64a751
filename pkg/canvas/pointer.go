package canvas

import (
	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/gestures"
	"github.com/go-drift/puzzles/pkg/graphics"
)

// KeyEscape cancels a press in progress instead of reaching the engine.
const KeyEscape = 0x1b

// offscreen is where an abandoned drag is released.
var offscreen = graphics.Offset{X: -1, Y: -1}

// pointerSession is the one press the Controller is tracking. While the
// secondary button detector runs, detector is set and no button has been
// sent to the engine yet.
type pointerSession struct {
	id       int64
	origin   gestures.PointerEvent
	detector *gestures.SecondaryDetector
	drag     int
	release  int
}

var mouseButtons = map[int]int{
	gestures.ButtonPrimary:   engine.LeftButton,
	gestures.ButtonAuxiliary: engine.MiddleButton,
	gestures.ButtonSecondary: engine.RightButton,
}

// HandlePointer routes a pointer event on the canvas to the engine. It
// reports whether the event was consumed.
func (c *Controller) HandlePointer(ev gestures.PointerEvent) bool {
	if det := c.pendingDetector(); det != nil && det.HandleEvent(ev) {
		return true
	}
	c.ptrMu.Lock()
	defer c.ptrMu.Unlock()
	return c.dispatchLocked(ev)
}

func (c *Controller) pendingDetector() *gestures.SecondaryDetector {
	c.ptrMu.Lock()
	defer c.ptrMu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.detector
}

func (c *Controller) dispatchLocked(ev gestures.PointerEvent) bool {
	s := c.session
	if ev.Phase == gestures.PointerPhaseDown {
		if s != nil {
			return false
		}
		return c.beginLocked(ev)
	}
	if s == nil || s.id != ev.PointerID || s.detector != nil {
		return false
	}
	switch ev.Phase {
	case gestures.PointerPhaseMove:
		c.mouse(ev.Position, s.drag)
	case gestures.PointerPhaseUp:
		c.mouse(ev.Position, s.release)
		c.endLocked(s)
	case gestures.PointerPhaseCancel:
		c.abandonLocked(s)
	}
	return true
}

func (c *Controller) beginLocked(ev gestures.PointerEvent) bool {
	if !c.isAttached() || !c.hit(ev.Position) {
		return false
	}
	if ev.Kind == gestures.PointerKindTouch {
		if !ev.Primary {
			return false
		}
		if c.needsRightButton() && (c.opts.gesture.LongPress || c.opts.gesture.TwoFingerTap) {
			s := &pointerSession{id: ev.PointerID, origin: ev}
			c.session = s
			c.el.SetPointerCapture(ev.PointerID)
			s.detector = gestures.DetectSecondary(ev, c.opts.gesture, c.opts.sched, func(res gestures.Resolution) {
				c.resolve(s, res)
			})
			return true
		}
		return c.pressLocked(ev, engine.LeftButton)
	}
	button, ok := mouseButtons[ev.Button]
	if !ok {
		return false
	}
	return c.pressLocked(ev, button)
}

// pressLocked sends a press and opens a session if the engine wants it.
func (c *Controller) pressLocked(ev gestures.PointerEvent, button int) bool {
	if !c.mouse(ev.Position, button) {
		return false
	}
	c.session = &pointerSession{
		id:      ev.PointerID,
		origin:  ev,
		drag:    engine.DragButton(button),
		release: engine.ReleaseButton(button),
	}
	c.el.SetPointerCapture(ev.PointerID)
	return true
}

// resolve runs once per detector, either inside HandleEvent or from the
// detector's timer.
func (c *Controller) resolve(s *pointerSession, res gestures.Resolution) {
	c.ptrMu.Lock()
	defer c.ptrMu.Unlock()
	if c.session != s {
		return
	}
	s.detector = nil

	button := engine.LeftButton
	if res.IsSecondary {
		button = engine.RightButton
	}
	if !c.mouse(s.origin.Position, button) {
		c.endLocked(s)
		return
	}
	s.drag = engine.DragButton(button)
	s.release = engine.ReleaseButton(button)
	if res.Unconsumed != nil {
		c.dispatchLocked(*res.Unconsumed)
	}
}

// CancelPointer abandons the press in progress, if any. The engine sees a
// drag to an offscreen point and a release there.
func (c *Controller) CancelPointer() bool {
	c.ptrMu.Lock()
	s := c.session
	if s == nil {
		c.ptrMu.Unlock()
		return false
	}
	if det := s.detector; det != nil {
		c.endLocked(s)
		c.ptrMu.Unlock()
		det.Cancel()
		return true
	}
	c.abandonLocked(s)
	c.ptrMu.Unlock()
	return true
}

func (c *Controller) abandonLocked(s *pointerSession) {
	c.mouse(offscreen, s.drag)
	c.mouse(offscreen, s.release)
	c.endLocked(s)
}

func (c *Controller) endLocked(s *pointerSession) {
	if c.session == s {
		c.session = nil
	}
	c.el.ReleasePointerCapture(s.id)
}

// dropSession forgets the session without telling the engine.
func (c *Controller) dropSession() {
	c.ptrMu.Lock()
	s := c.session
	var det *gestures.SecondaryDetector
	if s != nil {
		det = s.detector
		c.endLocked(s)
	}
	c.ptrMu.Unlock()
	if det != nil {
		det.Cancel()
	}
}

// mouse sends a button at an element position, converted to canvas pixels.
func (c *Controller) mouse(pos graphics.Offset, button int) bool {
	p := engine.Point{X: float32(pos.X), Y: float32(pos.Y)}
	if pos != offscreen {
		dpr := c.dpr()
		p = engine.Point{X: float32(pos.X * dpr), Y: float32(pos.Y * dpr)}
	}
	used, err := c.eng.ProcessMouse(c.ctx, p, button)
	c.report("canvas.pointer", err)
	return used && err == nil
}

// HandleKey forwards a key press to the engine. Escape cancels a press in
// progress instead. It reports whether the key was used.
func (c *Controller) HandleKey(code int) bool {
	if code == KeyEscape && c.CancelPointer() {
		return true
	}
	used, err := c.eng.ProcessKey(c.ctx, code)
	c.report("canvas.key", err)
	return used && err == nil
}

// hit reports whether pos, relative to the canvas, falls on it.
func (c *Controller) hit(pos graphics.Offset) bool {
	return graphics.RectFromSize(c.el.CanvasFootprint()).Contains(pos)
}

func (c *Controller) isAttached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

func (c *Controller) needsRightButton() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.NeedsRightButton
}
