// Package engine defines the contract between the puzzle host and a puzzle
// engine, and the Frontend glue that turns raw engine calls into the
// operations and change notifications the rest of the host consumes.
//
// The engine itself is opaque. A puzzle type is made available by
// registering a Factory; everything the host needs from it goes through
// the Midend and Game interfaces, and everything it needs from the host goes
// through Host and Drawing.
package engine

// Drawing is the set of drawing primitives an engine issues while painting.
// Colours are indices into the palette installed on the drawing. A negative
// fill or outline index means "none".
type Drawing interface {
	DrawText(origin Point, opts DrawTextOptions, colour int, text string)
	DrawRect(rect Rect, colour int)
	DrawLine(start, end Point, colour int, thickness float32)
	DrawPolygon(points []Point, fill, outline int)
	DrawCircle(centre Point, radius int, fill, outline int)
	DrawUpdate(rect Rect)
	Clip(rect Rect)
	Unclip()
	StartDraw()
	EndDraw()
	BlitterNew(size Size) Blitter
	BlitterFree(bl Blitter)
	BlitterSave(bl Blitter, origin Point)
	BlitterLoad(bl Blitter, origin Point)
}

// Host is the set of callbacks an engine makes into its frontend.
type Host interface {
	// Drawing returns the bound drawing. Calling it while none is bound is a
	// contract violation.
	Drawing() Drawing
	ActivateTimer()
	DeactivateTimer()
	// DefaultColour returns the background colour the frontend wants the
	// palette derived from. Only valid while the palette is being built.
	DefaultColour() Colour
	StatusBar(text string)
	// TextFallback returns the first candidate the current font can render.
	TextFallback(candidates []string) string
}

// ConfigKind selects which configuration set Config and SetConfig operate on.
type ConfigKind int

const (
	ConfigSettings ConfigKind = iota
	ConfigSeed
	ConfigDesc
	ConfigPrefs
)

// ConfigItemType is the type of a ConfigItem.
type ConfigItemType int

const (
	ConfigString ConfigItemType = iota
	ConfigBoolean
	ConfigChoices
)

// ConfigItem is one field of an engine configuration dialog.
type ConfigItem struct {
	Name string
	// Keyword is the stable identifier; only preferences carry one.
	Keyword string
	Type    ConfigItemType
	String  string
	Bool    bool
	// Choices is the delimiter-prefixed list of choice names, for example
	// ":Easy:Normal:Hard".
	Choices  string
	Selected int
}

// Params is an engine-specific parameter set. The host never looks inside.
type Params any

// Game holds the per puzzle type operations that work on parameters without
// touching a running game.
type Game interface {
	Info() GameInfo
	DefaultParams() Params
	// DecodeParams decodes an encoded parameter string on top of the defaults.
	DecodeParams(encoded string) Params
	ValidateParams(p Params, full bool) error
	Configure(p Params) []ConfigItem
	CustomParams(items []ConfigItem) Params
	EncodeParams(p Params, full bool) string
}

// Preset is one node of the engine's preset tree.
type Preset struct {
	Title   string
	ID      int
	Submenu []Preset
}

// Midend is a running puzzle engine instance. Methods are called from a
// single goroutine; implementations need no locking.
type Midend interface {
	Game() Game
	Size(x, y int, userSize bool, dpr float64) (int, int)
	ResetTileSize()
	NewGame()
	RestartGame()
	ProcessKey(x, y, button int) KeyResult
	RequestKeys() []KeyLabel
	CurrentKeyLabel(button int) string
	ForceRedraw()
	Redraw()
	Colours() []Colour
	FreezeTimer(tprop float32)
	Timer(tplus float32)
	WantsStatusbar() bool
	Config(kind ConfigKind) (title string, items []ConfigItem)
	SetConfig(kind ConfigKind, items []ConfigItem) error
	EncodedParams() string
	SetEncodedParams(encoded string) error
	Presets() []Preset
	EncodedParamsForPreset(id int) string
	GameID() string
	SetGameID(id string) error
	RandomSeed() (string, bool)
	CanFormatAsText() bool
	TextFormat() (string, bool)
	Solve() error
	Serialise(write func(p []byte))
	Deserialise(read func(p []byte) bool) error
	SavePrefs(write func(p []byte))
	LoadPrefs(read func(p []byte) bool) error
	CursorLocation() (Rect, bool)
	// Status is negative when lost, positive when solved, zero otherwise.
	Status() int
	// UsedSolve reports whether the current game was completed by Solve.
	UsedSolve() bool
	CanUndo() bool
	CanRedo() bool
	MoveCount() (current, total int)
	// RequestParamsChanges and RequestIDChanges install callbacks fired when
	// the engine's parameters or game id change.
	RequestParamsChanges(fn func())
	RequestIDChanges(fn func())
	Free()
}
