package canvas

import (
	"math"

	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/graphics"
	"github.com/go-drift/puzzles/pkg/palette"
)

// schedule queues work for the pass loop, starting it if idle. Work queued
// while a pass runs is merged into the following pass.
func (c *Controller) schedule(f dirtyFlags) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty |= f
	if c.running || !c.attached || c.ctx.Err() != nil {
		return
	}
	c.running = true
	c.idle = make(chan struct{})
	go c.run()
}

func (c *Controller) run() {
	for {
		c.mu.Lock()
		f := c.dirty
		c.dirty = 0
		if f == 0 || !c.attached || c.ctx.Err() != nil {
			c.running = false
			close(c.idle)
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.pass(f)
	}
}

// pass runs the queued work in order: palette, font, size, then at most one
// redraw. A size change always redraws in full.
func (c *Controller) pass(f dirtyFlags) {
	force := f&needsForceRedraw != 0
	redraw := f&needsRedraw != 0

	if f&needsPalette != 0 {
		c.report("canvas.palette", c.updatePalette())
	}
	if f&needsFont != 0 {
		c.report("canvas.font", c.eng.SetDrawingFontInfo(c.ctx, c.el.FontInfo()))
	}
	if f&needsResize != 0 {
		changed, err := c.updateSize()
		c.report("canvas.resize", err)
		force = force || changed
	}

	switch {
	case force:
		c.report("canvas.redraw", c.eng.ForceRedraw(c.ctx))
	case redraw:
		c.report("canvas.redraw", c.eng.Redraw(c.ctx))
	}
}

// updatePalette derives the display palette for the element's scheme and
// installs it in the drawing adapter and as the element background.
func (c *Controller) updatePalette() error {
	uiBg := c.el.BackgroundColour()
	scheme := c.el.ColorScheme()
	def, err := palette.DefaultBackground(uiBg, scheme)
	if err != nil {
		return err
	}
	native, err := c.eng.GetColourPalette(c.ctx, def)
	if err != nil {
		return err
	}
	res, err := palette.Transform(native, uiBg, scheme, c.overrides())
	if err != nil {
		return err
	}
	if err := c.eng.SetDrawingPalette(c.ctx, res.Colours); err != nil {
		return err
	}
	c.el.SetBackground(res.Background)
	return nil
}

func (c *Controller) overrides() palette.Overrides {
	if c.opts.overrides != nil {
		return *c.opts.overrides
	}
	return c.opts.table.Lookup(c.eng.PuzzleType())
}

// available is the CSS space the canvas may fill. The canvas's own
// footprint is added back so it is not subtracted twice.
func (c *Controller) available() (graphics.Size, error) {
	avail := c.el.BoundingBox().Sub(c.el.ContentFootprint()).Add(c.el.CanvasFootprint())
	avail = avail.Max(graphics.Size{Width: c.opts.minSize, Height: c.opts.minSize})
	if c.opts.maxScale > 0 {
		pref, err := c.eng.PreferredSize(c.ctx)
		if err != nil {
			return avail, err
		}
		avail = avail.Min(graphics.Size{
			Width:  float64(pref.W) * c.opts.maxScale,
			Height: float64(pref.H) * c.opts.maxScale,
		})
	}
	return avail, nil
}

// updateSize asks the engine for a canvas size in the available space and
// applies it. It reports whether the size changed.
func (c *Controller) updateSize() (bool, error) {
	avail, err := c.available()
	if err != nil {
		return false, err
	}
	dpr := c.dpr()
	limit := engine.Size{
		W: int(math.Floor(avail.Width * dpr)),
		H: int(math.Floor(avail.Height * dpr)),
	}
	size, err := c.eng.Size(c.ctx, limit, false, dpr)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	unchanged := size == c.size
	c.mu.Unlock()
	if unchanged {
		return false, nil
	}

	if err := c.eng.ResizeDrawing(c.ctx, size, dpr); err != nil {
		return false, err
	}
	c.el.SetCanvasSize(graphics.Size{
		Width:  float64(size.W) / dpr,
		Height: float64(size.H) / dpr,
	}, size)
	c.mu.Lock()
	c.size = size
	c.mu.Unlock()
	return true, nil
}

func (c *Controller) dpr() float64 {
	if dpr := c.el.DevicePixelRatio(); dpr > 0 {
		return dpr
	}
	return 1
}
