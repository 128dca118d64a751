// Package canvas owns the on-screen canvas of a puzzle. A Controller
// negotiates the canvas size with the engine, drives the palette transform
// and coalesces resize and redraw requests into sequential update passes.
// After Attach every pixel is written by the engine's drawing adapter; the
// Controller only touches geometry.
package canvas

import (
	"context"
	"sync"

	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/errors"
)

// dirtyFlags records the work queued for the next pass.
type dirtyFlags uint8

const (
	needsPalette dirtyFlags = 1 << iota
	needsFont
	needsResize
	needsRedraw
	needsForceRedraw

	needsAll = needsPalette | needsFont | needsResize | needsForceRedraw
)

// Controller binds one engine to one host element.
type Controller struct {
	eng  Engine
	el   HostElement
	opts options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	dirty    dirtyFlags
	running  bool
	idle     chan struct{}
	attached bool
	hidden   bool
	size     engine.Size
	info     engine.GameInfo

	gameID    string
	params    string
	status    string
	state     engine.GameStateChange
	haveState bool
	onChange  func(engine.ChangeNotification)

	ptrMu   sync.Mutex
	session *pointerSession
}

// New returns a Controller for eng drawing into el. It takes over eng's
// change notifications; use OnChange to observe them.
func New(eng Engine, el HostElement, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{eng: eng, el: el, opts: o, ctx: ctx, cancel: cancel}
	eng.OnChange(c.handleChange)
	return c
}

// OnChange registers fn to receive engine notifications after the
// Controller has recorded them. fn runs on the engine's notification
// goroutine.
func (c *Controller) OnChange(fn func(engine.ChangeNotification)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) handleChange(n engine.ChangeNotification) {
	var flags dirtyFlags
	c.mu.Lock()
	switch n := n.(type) {
	case engine.GameIDChange:
		c.gameID = n.CurrentGameID
		flags = needsResize | needsRedraw
	case engine.ParamsChange:
		c.params = n.Params
		flags = needsResize | needsRedraw
	case engine.StatusBarChange:
		c.status = n.StatusBarText
	case engine.GameStateChange:
		c.state = n
		c.haveState = true
	}
	fn := c.onChange
	c.mu.Unlock()

	if flags != 0 {
		c.schedule(flags)
	}
	if fn != nil {
		fn(n)
	}
}

// GameID returns the most recent game id, or "" before the first game.
func (c *Controller) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// Params returns the most recent encoded parameters.
func (c *Controller) Params() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// StatusText returns the most recent status bar text.
func (c *Controller) StatusText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// GameState returns the most recent game state, if one was reported.
func (c *Controller) GameState() (engine.GameStateChange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.haveState
}

// CanvasSize returns the canvas size in device pixels, zero before the
// first pass.
func (c *Controller) CanvasSize() engine.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Attach creates the canvas surface and hands it to the engine, then runs
// a full palette, resize and redraw pass. A game must be in progress.
func (c *Controller) Attach(ctx context.Context) error {
	c.mu.Lock()
	if c.gameID == "" {
		c.mu.Unlock()
		errors.Contract("canvas.Attach", "attach before any game is in progress")
	}
	if c.attached {
		c.mu.Unlock()
		errors.Contract("canvas.Attach", "canvas already attached")
	}
	c.mu.Unlock()

	info, err := c.eng.GameInfo(ctx)
	if err != nil {
		return c.wrap("canvas.Attach", err)
	}
	if err := c.eng.AttachCanvas(ctx, c.el.CreateSurface(), c.el.FontInfo()); err != nil {
		return c.wrap("canvas.Attach", err)
	}

	c.mu.Lock()
	c.info = info
	c.attached = true
	c.size = engine.Size{}
	c.mu.Unlock()

	// Font info went with the surface.
	c.schedule(needsAll &^ needsFont)
	return c.Sync(ctx)
}

// Detach takes the surface away from the engine. Any held pointer is
// released without telling the engine.
func (c *Controller) Detach(ctx context.Context) error {
	if err := c.Sync(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return nil
	}
	c.attached = false
	c.mu.Unlock()

	c.dropSession()
	if err := c.eng.DetachCanvas(ctx); err != nil {
		return c.wrap("canvas.Detach", err)
	}
	return nil
}

// Close detaches the canvas and stops any pass in flight. The engine is
// left running.
func (c *Controller) Close(ctx context.Context) error {
	err := c.Detach(ctx)
	c.cancel()
	return err
}

// Resize requests a resize pass, typically after the host element's
// layout changed.
func (c *Controller) Resize() {
	c.schedule(needsResize)
}

// SchemeChanged requests a palette recompute and redraw.
func (c *Controller) SchemeChanged() {
	c.schedule(needsPalette | needsForceRedraw)
}

// FontChanged re-sends the element's font and redraws.
func (c *Controller) FontChanged() {
	c.schedule(needsFont | needsForceRedraw)
}

// Redraw requests an incremental redraw.
func (c *Controller) Redraw() {
	c.schedule(needsRedraw)
}

// SetVisible records the element's visibility. Becoming visible after
// being hidden forces a full redraw, since some backends lose the canvas
// contents while suspended.
func (c *Controller) SetVisible(visible bool) {
	c.mu.Lock()
	recovered := c.hidden && visible
	c.hidden = !visible
	c.mu.Unlock()
	if recovered {
		c.schedule(needsForceRedraw)
	}
}

// Sync waits until no pass is running or queued.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) wrap(op string, err error) *errors.PuzzleError {
	return &errors.PuzzleError{
		Op:     op,
		Kind:   errors.KindEngine,
		Engine: c.eng.PuzzleType(),
		Err:    err,
	}
}

// report hands an engine failure to the error callback.
func (c *Controller) report(op string, err error) {
	if err == nil || c.ctx.Err() != nil {
		return
	}
	c.opts.onError(c.wrap(op, err))
}
