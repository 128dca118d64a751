package engine

// Point is a position in canvas pixels. Coordinates are floats because thick
// lines are drawn on a subpixel grid; every other drawing call uses whole
// numbers.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Rect is an integer rectangle in canvas pixels.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Union returns the smallest rectangle containing r and other. An empty
// rectangle contributes nothing.
func (r Rect) Union(other Rect) Rect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x0, y0 := min(r.X, other.X), min(r.Y, other.Y)
	x1, y1 := max(r.X+r.W, other.X+other.W), max(r.Y+r.H, other.Y+other.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Size is an integer width and height in pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Colour is an RGB triple with components in [0, 1], matching the layout the
// engine uses for its native palette.
type Colour [3]float32

// TextAlign is the horizontal text alignment.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextBaseline is the vertical text anchor.
type TextBaseline string

const (
	// BaselineAlphabetic places the origin on the text baseline.
	BaselineAlphabetic TextBaseline = "alphabetic"
	// BaselineMathematical vertically centres the text on the origin.
	BaselineMathematical TextBaseline = "mathematical"
)

// FontType selects between the fixed-pitch and proportional font.
type FontType string

const (
	FontFixed    FontType = "fixed"
	FontVariable FontType = "variable"
)

// DrawTextOptions are the style arguments of a text draw.
type DrawTextOptions struct {
	Align    TextAlign    `json:"align"`
	Baseline TextBaseline `json:"baseline"`
	FontType FontType     `json:"fontType"`
	Size     int          `json:"size"`
}

// DefaultTextOptions returns left aligned, alphabetic, variable pitch 12px text.
func DefaultTextOptions() DrawTextOptions {
	return DrawTextOptions{
		Align:    AlignLeft,
		Baseline: BaselineAlphabetic,
		FontType: FontVariable,
		Size:     12,
	}
}

// KeyLabel is a key the puzzle wants shown on an on-screen keyboard.
type KeyLabel struct {
	Label  string `json:"label"`
	Button int    `json:"button"`
}

// PresetMenuEntry is one node of the preset parameters menu. Submenu entries
// have an empty Params.
type PresetMenuEntry struct {
	Title   string            `json:"title"`
	Params  string            `json:"params"`
	Submenu []PresetMenuEntry `json:"submenu,omitempty"`
}

// Blitter is a handle to an offscreen pixel buffer owned by the drawing
// adapter.
type Blitter int

// BlitterFromSaved as both origin coordinates of BlitterLoad restores the
// blitter to the position it was saved from.
const BlitterFromSaved = -1

// GameInfo holds the static properties of a puzzle type.
type GameInfo struct {
	Name             string `json:"name"`
	CanConfigure     bool   `json:"canConfigure"`
	CanSolve         bool   `json:"canSolve"`
	NeedsRightButton bool   `json:"needsRightButton"`
	IsTimed          bool   `json:"isTimed"`
	WantsStatusbar   bool   `json:"wantsStatusbar"`
}
