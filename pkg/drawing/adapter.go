// Package drawing rasterizes engine draw commands onto an offscreen buffer
// and hands finished frames to a Surface.
package drawing

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/gogpu/gg"

	"github.com/go-drift/puzzles/pkg/engine"
	puzerrors "github.com/go-drift/puzzles/pkg/errors"
)

var (
	// ErrNoFrame indicates nothing has been presented yet.
	ErrNoFrame = errors.New("no frame presented")

	// ErrInvalidSize indicates a drawing size with a non-positive dimension.
	ErrInvalidSize = errors.New("invalid drawing size")
)

// Adapter implements engine.Drawing on a software rasterizer. It belongs to
// the worker goroutine and is not safe for concurrent use.
//
// The adapter outlives any one surface: Detach stops presenting but keeps
// the buffer and blitters, which are only released by Close.
type Adapter struct {
	surface Surface
	dc      *gg.Context
	size    engine.Size
	dpr     float64

	palette  []gg.RGBA
	fonts    *fontSet
	font     FontInfo
	blitters blitterArena

	drawing bool
	dirty   engine.Rect
	closed  bool
}

// NewAdapter returns an adapter presenting to surface. The buffer is
// allocated by the first Resize.
func NewAdapter(surface Surface, font FontInfo) (*Adapter, error) {
	fonts, err := newFontSet()
	if err != nil {
		return nil, err
	}
	if font.Family == "" {
		font = DefaultFontInfo
	}
	return &Adapter{surface: surface, fonts: fonts, font: font, dpr: 1}, nil
}

// Resize reallocates the buffer at size device pixels. The buffer contents
// are cleared.
func (a *Adapter) Resize(size engine.Size, dpr float64) error {
	if size.W <= 0 || size.H <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.W, size.H)
	}
	if dpr <= 0 {
		dpr = 1
	}
	if a.dc == nil {
		a.dc = gg.NewContext(size.W, size.H)
	} else if err := a.dc.Resize(size.W, size.H); err != nil {
		return err
	}
	a.dc.Clear()
	a.size = size
	a.dpr = dpr
	return nil
}

// Size returns the buffer size in device pixels.
func (a *Adapter) Size() engine.Size {
	return a.size
}

// SetPalette installs the colours engine palette indices refer to. Each
// entry is a CSS hex colour.
func (a *Adapter) SetPalette(colours []string) error {
	palette := make([]gg.RGBA, len(colours))
	for i, c := range colours {
		if !strings.HasPrefix(c, "#") {
			return fmt.Errorf("palette entry %d: %q is not a hex colour", i, c)
		}
		palette[i] = gg.Hex(c)
	}
	a.palette = palette
	return nil
}

// SetFontInfo changes the font used for variable pitch text.
func (a *Adapter) SetFontInfo(font FontInfo) {
	if font.Family == "" {
		font = DefaultFontInfo
	}
	a.font = font
}

// FontInfo returns the current font description.
func (a *Adapter) FontInfo() FontInfo {
	return a.font
}

// RegisterFont makes font data available under the family it declares.
func (a *Adapter) RegisterFont(data []byte) (FontInfo, error) {
	return a.fonts.register(data)
}

// Attach starts presenting to surface.
func (a *Adapter) Attach(surface Surface) {
	a.surface = surface
}

// Detach stops presenting. Buffers and blitters are kept.
func (a *Adapter) Detach() {
	a.surface = nil
}

// Attached reports whether a surface is bound.
func (a *Adapter) Attached() bool {
	return a.surface != nil
}

// Blitters returns the number of live blitters.
func (a *Adapter) Blitters() int {
	return a.blitters.len()
}

// Close releases the buffer, blitters and fonts.
func (a *Adapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.surface = nil
	a.blitters.clear()
	a.fonts.close()
	if a.dc != nil {
		err := a.dc.Close()
		a.dc = nil
		return err
	}
	return nil
}

// TextFallback returns the first candidate whose characters all have glyphs
// in the current variable pitch font, or the last candidate if none do.
func (a *Adapter) TextFallback(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	face := a.fonts.face(engine.FontVariable, 12, a.font)
	for _, c := range candidates {
		ok := true
		for _, r := range c {
			if !face.HasGlyph(r) {
				ok = false
				break
			}
		}
		if ok {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

func (a *Adapter) context(op string) *gg.Context {
	if a.closed {
		puzerrors.Contract(op, "drawing adapter used after Close")
	}
	if a.dc == nil {
		puzerrors.Contract(op, "drawing before the first Resize")
	}
	return a.dc
}

func (a *Adapter) colour(op string, index int) gg.RGBA {
	if index < 0 || index >= len(a.palette) {
		puzerrors.Contract(op, "colour index %d outside palette of %d", index, len(a.palette))
	}
	return a.palette[index]
}

// StartDraw begins a drawing session.
func (a *Adapter) StartDraw() {
	a.context("drawing.StartDraw")
	if a.drawing {
		puzerrors.Contract("drawing.StartDraw", "session already in progress")
	}
	a.drawing = true
	a.dirty = engine.Rect{}
}

// EndDraw ends the session and presents the frame.
func (a *Adapter) EndDraw() {
	dc := a.context("drawing.EndDraw")
	if !a.drawing {
		puzerrors.Contract("drawing.EndDraw", "no session in progress")
	}
	a.drawing = false
	dc.ResetClip()
	if a.surface == nil {
		return
	}
	bounds := image.Rect(0, 0, a.size.W, a.size.H)
	dirty := bounds
	if !a.dirty.Empty() {
		dirty = image.Rect(a.dirty.X, a.dirty.Y, a.dirty.X+a.dirty.W, a.dirty.Y+a.dirty.H).Intersect(bounds)
	}
	a.surface.Present(toRGBA(dc.Image()), dirty)
}

// DrawUpdate marks rect as changed in this session.
func (a *Adapter) DrawUpdate(rect engine.Rect) {
	a.dirty = a.dirty.Union(rect)
}

func (a *Adapter) DrawRect(rect engine.Rect, colour int) {
	dc := a.context("drawing.DrawRect")
	dc.SetColor(a.colour("drawing.DrawRect", colour).Color())
	dc.DrawRectangle(float64(rect.X), float64(rect.Y), float64(rect.W), float64(rect.H))
	a.paint("drawing.DrawRect", dc.Fill())
}

// DrawLine strokes a line. Lines of thickness 1 or less are drawn one pixel
// wide through pixel centres so both end points are covered.
func (a *Adapter) DrawLine(start, end engine.Point, colour int, thickness float32) {
	dc := a.context("drawing.DrawLine")
	dc.SetColor(a.colour("drawing.DrawLine", colour).Color())
	x1, y1, x2, y2 := float64(start.X), float64(start.Y), float64(end.X), float64(end.Y)
	if thickness <= 1 {
		dc.SetLineWidth(1)
		dc.SetLineCap(gg.LineCapSquare)
		x1, y1, x2, y2 = x1+0.5, y1+0.5, x2+0.5, y2+0.5
	} else {
		dc.SetLineWidth(float64(thickness))
		dc.SetLineCap(gg.LineCapRound)
	}
	dc.DrawLine(x1, y1, x2, y2)
	a.paint("drawing.DrawLine", dc.Stroke())
}

func (a *Adapter) DrawPolygon(points []engine.Point, fill, outline int) {
	dc := a.context("drawing.DrawPolygon")
	if len(points) == 0 {
		return
	}
	dc.ClearPath()
	for i, p := range points {
		if i == 0 {
			dc.MoveTo(float64(p.X)+0.5, float64(p.Y)+0.5)
		} else {
			dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
		}
	}
	dc.ClosePath()
	a.fillAndStroke(dc, "drawing.DrawPolygon", fill, outline)
}

func (a *Adapter) DrawCircle(centre engine.Point, radius int, fill, outline int) {
	dc := a.context("drawing.DrawCircle")
	dc.ClearPath()
	dc.DrawCircle(float64(centre.X)+0.5, float64(centre.Y)+0.5, float64(radius))
	a.fillAndStroke(dc, "drawing.DrawCircle", fill, outline)
}

func (a *Adapter) fillAndStroke(dc *gg.Context, op string, fill, outline int) {
	if fill >= 0 {
		dc.SetColor(a.colour(op, fill).Color())
		if outline >= 0 {
			a.paint(op, dc.FillPreserve())
		} else {
			a.paint(op, dc.Fill())
		}
	}
	if outline >= 0 {
		dc.SetColor(a.colour(op, outline).Color())
		dc.SetLineWidth(1)
		dc.SetLineCap(gg.LineCapButt)
		a.paint(op, dc.Stroke())
	}
	dc.ClearPath()
}

// paint reports a failed fill or stroke. The session carries on.
func (a *Adapter) paint(op string, err error) {
	if err == nil {
		return
	}
	puzerrors.Report(&puzerrors.PuzzleError{Op: op, Kind: puzerrors.KindDrawing, Err: err})
}

// DrawText draws text anchored at origin. Mathematical baseline centres the
// text vertically on origin.
func (a *Adapter) DrawText(origin engine.Point, opts engine.DrawTextOptions, colour int, s string) {
	dc := a.context("drawing.DrawText")
	size := opts.Size
	if size <= 0 {
		size = engine.DefaultTextOptions().Size
	}
	face := a.fonts.face(opts.FontType, float64(size), a.font)
	dc.SetFont(face)
	dc.SetColor(a.colour("drawing.DrawText", colour).Color())

	x, y := float64(origin.X), float64(origin.Y)
	switch opts.Align {
	case engine.AlignCenter:
		x -= face.Advance(s) / 2
	case engine.AlignRight:
		x -= face.Advance(s)
	}
	if opts.Baseline == engine.BaselineMathematical {
		m := face.Metrics()
		y += (m.Ascent - m.Descent) / 2
	}
	dc.DrawString(s, x, y)
}

// Clip restricts drawing to rect until Unclip. Clips do not nest.
func (a *Adapter) Clip(rect engine.Rect) {
	dc := a.context("drawing.Clip")
	dc.ResetClip()
	dc.ClipRect(float64(rect.X), float64(rect.Y), float64(rect.W), float64(rect.H))
}

func (a *Adapter) Unclip() {
	a.context("drawing.Unclip").ResetClip()
}

// BlitterNew allocates an offscreen buffer of size pixels.
func (a *Adapter) BlitterNew(size engine.Size) engine.Blitter {
	a.context("drawing.BlitterNew")
	return a.blitters.alloc(size)
}

// BlitterFree releases bl. Unknown handles are ignored.
func (a *Adapter) BlitterFree(bl engine.Blitter) {
	a.blitters.free(bl)
}

// BlitterSave copies the buffer region at origin into bl.
func (a *Adapter) BlitterSave(bl engine.Blitter, origin engine.Point) {
	dc := a.context("drawing.BlitterSave")
	b, ok := a.blitters.get(bl)
	if !ok {
		puzerrors.Contract("drawing.BlitterSave", "unknown blitter %d", bl)
	}
	b.save(dc.Image(), image.Pt(int(origin.X), int(origin.Y)))
}

// BlitterLoad writes bl back at origin, or where it was saved from when
// both coordinates are engine.BlitterFromSaved. Stored pixels replace the
// buffer's, transparent ones included.
func (a *Adapter) BlitterLoad(bl engine.Blitter, origin engine.Point) {
	dc := a.context("drawing.BlitterLoad")
	b, ok := a.blitters.get(bl)
	if !ok {
		puzerrors.Contract("drawing.BlitterLoad", "unknown blitter %d", bl)
	}
	at := image.Pt(int(origin.X), int(origin.Y))
	if origin.X == engine.BlitterFromSaved && origin.Y == engine.BlitterFromSaved {
		at = b.saved
	}
	b.load(pixmapView(dc.ResizeTarget()), at)
}

// pixmapView shares pm's pixels as an image.RGBA.
func pixmapView(pm *gg.Pixmap) *image.RGBA {
	w, h := pm.Width(), pm.Height()
	return &image.RGBA{Pix: pm.Data(), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

var _ engine.Drawing = (*Adapter)(nil)

