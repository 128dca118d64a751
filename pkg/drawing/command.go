package drawing

import (
	"sync"

	"github.com/go-drift/puzzles/pkg/engine"
)

// Op names a recorded drawing call.
type Op string

const (
	OpDrawText    Op = "drawText"
	OpDrawRect    Op = "drawRect"
	OpDrawLine    Op = "drawLine"
	OpDrawPolygon Op = "drawPolygon"
	OpDrawCircle  Op = "drawCircle"
	OpDrawUpdate  Op = "drawUpdate"
	OpClip        Op = "clip"
	OpUnclip      Op = "unclip"
	OpStartDraw   Op = "startDraw"
	OpEndDraw     Op = "endDraw"
	OpBlitterNew  Op = "blitterNew"
	OpBlitterFree Op = "blitterFree"
	OpBlitterSave Op = "blitterSave"
	OpBlitterLoad Op = "blitterLoad"
)

// Command is one recorded drawing call. Only the fields the op uses are set.
type Command struct {
	Op        Op                      `json:"op"`
	Rect      engine.Rect             `json:"rect,omitzero"`
	Points    []engine.Point          `json:"points,omitempty"`
	Colour    int                     `json:"colour,omitempty"`
	Outline   int                     `json:"outline,omitempty"`
	Radius    int                     `json:"radius,omitempty"`
	Thickness float32                 `json:"thickness,omitempty"`
	Text      string                  `json:"text,omitempty"`
	TextOpts  *engine.DrawTextOptions `json:"textOptions,omitempty"`
	Size      engine.Size             `json:"size,omitzero"`
	Blitter   engine.Blitter          `json:"blitter,omitempty"`
}

// Recorder is an engine.Drawing that records calls instead of drawing them.
// Blitter handles are allocated by the recorder and remapped on Replay.
// Commands and Reset may be called while another goroutine draws.
type Recorder struct {
	mu          sync.Mutex
	cmds        []Command
	nextBlitter engine.Blitter
}

// Commands returns a copy of the recorded calls.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// Reset discards recorded calls. Blitter numbering continues.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.cmds = r.cmds[:0]
	r.mu.Unlock()
}

func (r *Recorder) add(c Command) {
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()
}

func (r *Recorder) DrawText(origin engine.Point, opts engine.DrawTextOptions, colour int, text string) {
	r.add(Command{Op: OpDrawText, Points: []engine.Point{origin}, TextOpts: &opts, Colour: colour, Text: text})
}

func (r *Recorder) DrawRect(rect engine.Rect, colour int) {
	r.add(Command{Op: OpDrawRect, Rect: rect, Colour: colour})
}

func (r *Recorder) DrawLine(start, end engine.Point, colour int, thickness float32) {
	r.add(Command{Op: OpDrawLine, Points: []engine.Point{start, end}, Colour: colour, Thickness: thickness})
}

func (r *Recorder) DrawPolygon(points []engine.Point, fill, outline int) {
	pts := make([]engine.Point, len(points))
	copy(pts, points)
	r.add(Command{Op: OpDrawPolygon, Points: pts, Colour: fill, Outline: outline})
}

func (r *Recorder) DrawCircle(centre engine.Point, radius int, fill, outline int) {
	r.add(Command{Op: OpDrawCircle, Points: []engine.Point{centre}, Radius: radius, Colour: fill, Outline: outline})
}

func (r *Recorder) DrawUpdate(rect engine.Rect) { r.add(Command{Op: OpDrawUpdate, Rect: rect}) }
func (r *Recorder) Clip(rect engine.Rect)       { r.add(Command{Op: OpClip, Rect: rect}) }
func (r *Recorder) Unclip()                     { r.add(Command{Op: OpUnclip}) }
func (r *Recorder) StartDraw()                  { r.add(Command{Op: OpStartDraw}) }
func (r *Recorder) EndDraw()                    { r.add(Command{Op: OpEndDraw}) }

func (r *Recorder) BlitterNew(size engine.Size) engine.Blitter {
	r.mu.Lock()
	r.nextBlitter++
	bl := r.nextBlitter
	r.mu.Unlock()
	r.add(Command{Op: OpBlitterNew, Size: size, Blitter: bl})
	return bl
}

func (r *Recorder) BlitterFree(bl engine.Blitter) {
	r.add(Command{Op: OpBlitterFree, Blitter: bl})
}

func (r *Recorder) BlitterSave(bl engine.Blitter, origin engine.Point) {
	r.add(Command{Op: OpBlitterSave, Blitter: bl, Points: []engine.Point{origin}})
}

func (r *Recorder) BlitterLoad(bl engine.Blitter, origin engine.Point) {
	r.add(Command{Op: OpBlitterLoad, Blitter: bl, Points: []engine.Point{origin}})
}

// Replay issues cmds against d. Blitter handles in cmds are translated to
// the handles d allocates; the returned map holds that translation so a
// later Replay of the same stream can continue using it. Pass nil to start
// fresh.
func Replay(cmds []Command, d engine.Drawing, handles map[engine.Blitter]engine.Blitter) map[engine.Blitter]engine.Blitter {
	if handles == nil {
		handles = make(map[engine.Blitter]engine.Blitter)
	}
	point := func(c Command, i int) engine.Point {
		if i < len(c.Points) {
			return c.Points[i]
		}
		return engine.Point{}
	}
	for _, c := range cmds {
		switch c.Op {
		case OpDrawText:
			opts := engine.DefaultTextOptions()
			if c.TextOpts != nil {
				opts = *c.TextOpts
			}
			d.DrawText(point(c, 0), opts, c.Colour, c.Text)
		case OpDrawRect:
			d.DrawRect(c.Rect, c.Colour)
		case OpDrawLine:
			d.DrawLine(point(c, 0), point(c, 1), c.Colour, c.Thickness)
		case OpDrawPolygon:
			d.DrawPolygon(c.Points, c.Colour, c.Outline)
		case OpDrawCircle:
			d.DrawCircle(point(c, 0), c.Radius, c.Colour, c.Outline)
		case OpDrawUpdate:
			d.DrawUpdate(c.Rect)
		case OpClip:
			d.Clip(c.Rect)
		case OpUnclip:
			d.Unclip()
		case OpStartDraw:
			d.StartDraw()
		case OpEndDraw:
			d.EndDraw()
		case OpBlitterNew:
			handles[c.Blitter] = d.BlitterNew(c.Size)
		case OpBlitterFree:
			d.BlitterFree(handles[c.Blitter])
			delete(handles, c.Blitter)
		case OpBlitterSave:
			d.BlitterSave(handles[c.Blitter], point(c, 0))
		case OpBlitterLoad:
			d.BlitterLoad(handles[c.Blitter], point(c, 0))
		}
	}
	return handles
}

// Tee returns a Drawing that forwards every call to each of drawings in
// order. Blitter handles returned to the caller belong to the first drawing
// and are translated for the others.
func Tee(drawings ...engine.Drawing) engine.Drawing {
	return &tee{sinks: drawings, handles: make(map[engine.Blitter][]engine.Blitter)}
}

type tee struct {
	sinks   []engine.Drawing
	handles map[engine.Blitter][]engine.Blitter
}

func (t *tee) each(fn func(d engine.Drawing)) {
	for _, d := range t.sinks {
		fn(d)
	}
}

func (t *tee) DrawText(origin engine.Point, opts engine.DrawTextOptions, colour int, text string) {
	t.each(func(d engine.Drawing) { d.DrawText(origin, opts, colour, text) })
}

func (t *tee) DrawRect(rect engine.Rect, colour int) {
	t.each(func(d engine.Drawing) { d.DrawRect(rect, colour) })
}

func (t *tee) DrawLine(start, end engine.Point, colour int, thickness float32) {
	t.each(func(d engine.Drawing) { d.DrawLine(start, end, colour, thickness) })
}

func (t *tee) DrawPolygon(points []engine.Point, fill, outline int) {
	t.each(func(d engine.Drawing) { d.DrawPolygon(points, fill, outline) })
}

func (t *tee) DrawCircle(centre engine.Point, radius int, fill, outline int) {
	t.each(func(d engine.Drawing) { d.DrawCircle(centre, radius, fill, outline) })
}

func (t *tee) DrawUpdate(rect engine.Rect) { t.each(func(d engine.Drawing) { d.DrawUpdate(rect) }) }
func (t *tee) Clip(rect engine.Rect)       { t.each(func(d engine.Drawing) { d.Clip(rect) }) }
func (t *tee) Unclip()                     { t.each(func(d engine.Drawing) { d.Unclip() }) }
func (t *tee) StartDraw()                  { t.each(func(d engine.Drawing) { d.StartDraw() }) }
func (t *tee) EndDraw()                    { t.each(func(d engine.Drawing) { d.EndDraw() }) }

func (t *tee) BlitterNew(size engine.Size) engine.Blitter {
	if len(t.sinks) == 0 {
		return 0
	}
	hs := make([]engine.Blitter, len(t.sinks))
	for i, d := range t.sinks {
		hs[i] = d.BlitterNew(size)
	}
	t.handles[hs[0]] = hs
	return hs[0]
}

func (t *tee) forBlitter(bl engine.Blitter, fn func(d engine.Drawing, h engine.Blitter)) {
	hs, ok := t.handles[bl]
	for i, d := range t.sinks {
		h := bl
		if ok {
			h = hs[i]
		}
		fn(d, h)
	}
}

func (t *tee) BlitterFree(bl engine.Blitter) {
	t.forBlitter(bl, func(d engine.Drawing, h engine.Blitter) { d.BlitterFree(h) })
	delete(t.handles, bl)
}

func (t *tee) BlitterSave(bl engine.Blitter, origin engine.Point) {
	t.forBlitter(bl, func(d engine.Drawing, h engine.Blitter) { d.BlitterSave(h, origin) })
}

func (t *tee) BlitterLoad(bl engine.Blitter, origin engine.Point) {
	t.forBlitter(bl, func(d engine.Drawing, h engine.Blitter) { d.BlitterLoad(h, origin) })
}

var (
	_ engine.Drawing = (*Recorder)(nil)
	_ engine.Drawing = (*tee)(nil)
)
