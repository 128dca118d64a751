package testing

import (
	"github.com/go-drift/puzzles/pkg/engine"
)

func (s *stub) ForceRedraw() {
	s.drawn = nil
	s.Redraw()
}

// Redraw repaints tiles that changed since the last frame, or everything
// after a resize or new game.
func (s *stub) Redraw() {
	if !s.hasGame() {
		return
	}
	d := s.host.Drawing()
	st := s.state()
	t, b := s.tile, s.border()
	full := s.drawn == nil || s.drawnTile != t || len(s.drawn) != len(st.cells)

	d.StartDraw()
	if full {
		w, h := s.cur.W*t+2*b, s.cur.H*t+2*b
		d.DrawRect(engine.Rect{W: w, H: h}, StubColourBackground)
		for x := 0; x <= s.cur.W; x++ {
			d.DrawLine(engine.Point{X: float32(b + x*t), Y: float32(b)}, engine.Point{X: float32(b + x*t), Y: float32(b + s.cur.H*t)}, StubColourGrid, 1)
		}
		for y := 0; y <= s.cur.H; y++ {
			d.DrawLine(engine.Point{X: float32(b), Y: float32(b + y*t)}, engine.Point{X: float32(b + s.cur.W*t), Y: float32(b + y*t)}, StubColourGrid, 1)
		}
		d.DrawUpdate(engine.Rect{W: w, H: h})
		s.drawn = make([]stubTile, len(st.cells))
		s.drawnTile = t
		s.cursorAt = nil
		s.markGlyph = s.host.TextFallback([]string{"✗", "x"})
		if s.blitter != 0 && s.blTile != t {
			d.BlitterFree(s.blitter)
			s.blitter = 0
		}
	}

	if s.cursorAt != nil {
		d.BlitterLoad(s.blitter, engine.Point{X: engine.BlitterFromSaved, Y: engine.BlitterFromSaved})
		d.DrawUpdate(engine.Rect{X: int(s.cursorAt.X), Y: int(s.cursorAt.Y), W: t, H: t})
		s.cursorAt = nil
	}

	flash := s.flashing && int(s.flashTime*10)%2 == 0
	for i := range st.cells {
		tile := stubTile{on: st.cells[i], marked: st.marks[i], flash: flash, valid: true}
		if tile == s.drawn[i] {
			continue
		}
		s.drawTile(d, i, tile)
		s.drawn[i] = tile
	}

	if s.cursorVisible {
		if s.blitter == 0 {
			s.blitter = d.BlitterNew(engine.Size{W: t, H: t})
			s.blTile = t
		}
		at := engine.Point{X: float32(b + s.cursorX*t), Y: float32(b + s.cursorY*t)}
		d.BlitterSave(s.blitter, at)
		s.cursorAt = &at
		centre := engine.Point{X: at.X + float32(t)/2, Y: at.Y + float32(t)/2}
		if s.prefCursorStyle == 0 {
			d.DrawCircle(centre, t/3, -1, StubColourCursor)
		} else {
			r := float32(t) / 3
			d.DrawPolygon([]engine.Point{
				{X: centre.X - r, Y: centre.Y - r},
				{X: centre.X + r, Y: centre.Y - r},
				{X: centre.X + r, Y: centre.Y + r},
				{X: centre.X - r, Y: centre.Y + r},
			}, -1, StubColourCursor)
		}
		d.DrawUpdate(engine.Rect{X: int(at.X), Y: int(at.Y), W: t, H: t})
	}
	d.EndDraw()
}

func (s *stub) drawTile(d engine.Drawing, i int, tile stubTile) {
	t, b := s.tile, s.border()
	x, y := b+(i%s.cur.W)*t, b+(i/s.cur.W)*t
	rect := engine.Rect{X: x + 1, Y: y + 1, W: t - 1, H: t - 1}

	d.Clip(rect)
	colour := StubColourOff
	switch {
	case tile.flash:
		colour = StubColourBackground
	case tile.on:
		colour = StubColourOn
	}
	d.DrawRect(rect, colour)
	if tile.marked {
		opts := engine.DrawTextOptions{
			Align:    engine.AlignCenter,
			Baseline: engine.BaselineMathematical,
			FontType: engine.FontVariable,
			Size:     t / 2,
		}
		d.DrawText(engine.Point{X: float32(x + t/2), Y: float32(y + t/2)}, opts, StubColourGrid, s.markGlyph)
	}
	d.Unclip()
	d.DrawUpdate(rect)
}
