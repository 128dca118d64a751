package canvas

import (
	"context"

	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/graphics"
	"github.com/go-drift/puzzles/pkg/palette"
)

// HostElement is the on-screen element a Controller owns. Geometry is in
// CSS pixels. Methods may be called from any goroutine.
type HostElement interface {
	// BoundingBox is the space the layout gives the element.
	BoundingBox() graphics.Size
	// ContentFootprint is the size currently taken by the element's
	// children, the canvas included.
	ContentFootprint() graphics.Size
	// CanvasFootprint is the canvas's current CSS size.
	CanvasFootprint() graphics.Size
	DevicePixelRatio() float64
	// BackgroundColour is the UI background as "#rrggbb".
	BackgroundColour() string
	ColorScheme() palette.Scheme
	FontInfo() drawing.FontInfo

	// CreateSurface returns the surface handed to the engine's drawing
	// adapter. It is called once per Attach.
	CreateSurface() drawing.Surface
	// SetCanvasSize sets the canvas's CSS size and its backing store size.
	SetCanvasSize(css graphics.Size, device engine.Size)
	// SetBackground sets the colour shown around the canvas.
	SetBackground(colour string)

	SetPointerCapture(pointerID int64)
	ReleasePointerCapture(pointerID int64)
}

// Engine is the part of an engine handle the Controller drives.
// *host.EngineHandle implements it.
type Engine interface {
	PuzzleType() string
	OnChange(fn func(engine.ChangeNotification))

	GameInfo(ctx context.Context) (engine.GameInfo, error)
	PreferredSize(ctx context.Context) (engine.Size, error)
	Size(ctx context.Context, max engine.Size, isUserSize bool, dpr float64) (engine.Size, error)
	GetColourPalette(ctx context.Context, defaultBackground engine.Colour) ([]engine.Colour, error)

	AttachCanvas(ctx context.Context, surface drawing.Surface, font drawing.FontInfo) error
	DetachCanvas(ctx context.Context) error
	ResizeDrawing(ctx context.Context, size engine.Size, dpr float64) error
	SetDrawingPalette(ctx context.Context, colours []string) error
	SetDrawingFontInfo(ctx context.Context, font drawing.FontInfo) error
	Redraw(ctx context.Context) error
	ForceRedraw(ctx context.Context) error

	ProcessKey(ctx context.Context, code int) (bool, error)
	ProcessMouse(ctx context.Context, p engine.Point, button int) (bool, error)
}
