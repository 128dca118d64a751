package testing

import (
	"sync"

	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/graphics"
	"github.com/go-drift/puzzles/pkg/palette"
)

// FakeElement is an in-memory canvas host element. Its content is the
// canvas plus a fixed Chrome size, such as a status bar.
// All methods are safe for concurrent use.
type FakeElement struct {
	mu         sync.Mutex
	box        graphics.Size
	chrome     graphics.Size
	canvas     graphics.Size
	dpr        float64
	background string
	scheme     palette.Scheme
	font       drawing.FontInfo

	surface     *drawing.ImageSurface
	sizes       []engine.Size
	backgrounds []string
	captured    map[int64]bool
}

// NewFakeElement returns an element with the given bounding box, a light
// white background and a device pixel ratio of 1.
func NewFakeElement(box graphics.Size) *FakeElement {
	return &FakeElement{
		box:        box,
		dpr:        1,
		background: "#ffffff",
		font:       drawing.DefaultFontInfo,
		captured:   make(map[int64]bool),
	}
}

func (e *FakeElement) BoundingBox() graphics.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.box
}

func (e *FakeElement) ContentFootprint() graphics.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas.Add(e.chrome)
}

func (e *FakeElement) CanvasFootprint() graphics.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas
}

func (e *FakeElement) DevicePixelRatio() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dpr
}

func (e *FakeElement) BackgroundColour() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.background
}

func (e *FakeElement) ColorScheme() palette.Scheme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheme
}

func (e *FakeElement) FontInfo() drawing.FontInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.font
}

// CreateSurface returns a fresh ImageSurface, also available from Surface.
func (e *FakeElement) CreateSurface() drawing.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = drawing.NewImageSurface()
	return e.surface
}

func (e *FakeElement) SetCanvasSize(css graphics.Size, device engine.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canvas = css
	e.sizes = append(e.sizes, device)
}

func (e *FakeElement) SetBackground(colour string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backgrounds = append(e.backgrounds, colour)
}

func (e *FakeElement) SetPointerCapture(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.captured[id] = true
}

func (e *FakeElement) ReleasePointerCapture(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.captured, id)
}

// SetBoundingBox changes the space the layout gives the element.
func (e *FakeElement) SetBoundingBox(box graphics.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.box = box
}

// SetChrome sets the size of the element's content besides the canvas.
func (e *FakeElement) SetChrome(chrome graphics.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chrome = chrome
}

func (e *FakeElement) SetDevicePixelRatio(dpr float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dpr = dpr
}

// SetScheme sets the colour scheme and UI background.
func (e *FakeElement) SetScheme(scheme palette.Scheme, background string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheme = scheme
	e.background = background
}

func (e *FakeElement) SetFont(font drawing.FontInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.font = font
}

// Surface returns the surface from the latest CreateSurface, or nil.
func (e *FakeElement) Surface() *drawing.ImageSurface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// CanvasSizes returns every device size passed to SetCanvasSize.
func (e *FakeElement) CanvasSizes() []engine.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Size(nil), e.sizes...)
}

// Backgrounds returns every colour passed to SetBackground.
func (e *FakeElement) Backgrounds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.backgrounds...)
}

// Captured reports whether the pointer is captured.
func (e *FakeElement) Captured(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.captured[id]
}
