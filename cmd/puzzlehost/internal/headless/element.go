// Package headless provides an off-screen canvas host element for
// rendering puzzles to image files.
package headless

import (
	"sync"

	"github.com/go-drift/puzzles/pkg/canvas"
	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/graphics"
	"github.com/go-drift/puzzles/pkg/palette"
)

// Element is a fixed-size host element whose only content is the canvas.
type Element struct {
	box        graphics.Size
	dpr        float64
	scheme     palette.Scheme
	background string

	mu      sync.Mutex
	font    drawing.FontInfo
	canvas  graphics.Size
	fill    string
	surface *drawing.ImageSurface
}

// New returns an element offering box CSS pixels at the given pixel ratio.
func New(box graphics.Size, dpr float64, scheme palette.Scheme, background string) *Element {
	return &Element{box: box, dpr: dpr, scheme: scheme, background: background, font: drawing.DefaultFontInfo}
}

// SetFont sets the font reported to the canvas. Call it before Attach.
func (e *Element) SetFont(font drawing.FontInfo) {
	e.mu.Lock()
	e.font = font
	e.mu.Unlock()
}

func (e *Element) BoundingBox() graphics.Size { return e.box }
func (e *Element) DevicePixelRatio() float64 { return e.dpr }
func (e *Element) BackgroundColour() string { return e.background }
func (e *Element) ColorScheme() palette.Scheme { return e.scheme }
func (e *Element) SetPointerCapture(int64) {}
func (e *Element) ReleasePointerCapture(int64) {}
func (e *Element) ContentFootprint() graphics.Size { return e.CanvasFootprint() }

func (e *Element) FontInfo() drawing.FontInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.font
}

func (e *Element) CanvasFootprint() graphics.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas
}

func (e *Element) CreateSurface() drawing.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = drawing.NewImageSurface()
	return e.surface
}

func (e *Element) SetCanvasSize(css graphics.Size, _ engine.Size) {
	e.mu.Lock()
	e.canvas = css
	e.mu.Unlock()
}

func (e *Element) SetBackground(colour string) {
	e.mu.Lock()
	e.fill = colour
	e.mu.Unlock()
}

// Background returns the colour the canvas asked to be shown around it.
func (e *Element) Background() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fill
}

// Surface returns the surface handed to the engine, nil before Attach.
func (e *Element) Surface() *drawing.ImageSurface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

var _ canvas.HostElement = (*Element)(nil)
