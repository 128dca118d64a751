package engine

import (
	"math"
	"strings"

	"github.com/go-drift/puzzles/pkg/errors"
)

// encodeErrorPrefix marks an EncodeCustomParams result that is an error
// message rather than encoded parameters.
const encodeErrorPrefix = "#ERROR:"

// FrontendArgs are the callbacks a Frontend makes into its owner.
type FrontendArgs struct {
	ActivateTimer   func()
	DeactivateTimer func()
	// TextFallback picks the first renderable candidate. When nil the first
	// candidate is used.
	TextFallback func(candidates []string) string
	NotifyChange func(ChangeNotification)
}

// Frontend wraps one running engine. It translates host operations into
// engine calls and emits change notifications after every call that can
// alter the game: a params-change on construction and whenever the engine
// reports new parameters, a game-id-change whenever it reports a new id,
// and a game-state-change after new, restart, solve, undo/redo with an
// effect, a successful load, and any key with an effect except mouse drags.
//
// A Frontend is not safe for concurrent use.
type Frontend struct {
	me   Midend
	args FrontendArgs

	drawing       Drawing
	statusbarText string

	defaultBackground      Colour
	defaultBackgroundValid bool
}

// NewFrontend creates the engine with factory and emits the initial
// params-change notification.
func NewFrontend(factory Factory, args FrontendArgs) *Frontend {
	fe := &Frontend{args: args}
	fe.me = factory(frontendHost{fe})
	fe.me.RequestParamsChanges(fe.notifyParamsChange)
	fe.me.RequestIDChanges(fe.notifyGameIDChange)
	fe.notifyParamsChange()
	return fe
}

// SetDrawing binds d as the engine's drawing target, replacing any previous
// binding. Passing nil unbinds; redraws are then skipped.
func (fe *Frontend) SetDrawing(d Drawing) {
	fe.drawing = d
}

// HasDrawing reports whether a drawing is bound.
func (fe *Frontend) HasDrawing() bool {
	return fe.drawing != nil
}

func (fe *Frontend) notify(n ChangeNotification) {
	if fe.args.NotifyChange != nil {
		fe.args.NotifyChange(n)
	}
}

func (fe *Frontend) notifyGameIDChange() {
	n := GameIDChange{CurrentGameID: fe.me.GameID()}
	if seed, ok := fe.me.RandomSeed(); ok {
		n.RandomSeed = &seed
	}
	fe.notify(n)
}

func (fe *Frontend) notifyParamsChange() {
	fe.notify(ParamsChange{Params: fe.me.EncodedParams()})
}

func (fe *Frontend) notifyGameStateChange() {
	fe.notify(fe.GameState())
}

// GameState returns a snapshot of the current move counters and status.
func (fe *Frontend) GameState() GameStateChange {
	current, total := fe.me.MoveCount()
	st := GameStateChange{
		Status:      StatusOngoing,
		CurrentMove: current,
		TotalMoves:  total,
		CanUndo:     fe.me.CanUndo(),
		CanRedo:     fe.me.CanRedo(),
	}
	switch s := fe.me.Status(); {
	case s < 0:
		st.Status = StatusLost
	case s > 0 && fe.me.UsedSolve():
		st.Status = StatusSolvedWithHelp
	case s > 0:
		st.Status = StatusSolved
	}
	return st
}

// Info returns the static properties of the running puzzle type.
func (fe *Frontend) Info() GameInfo {
	info := fe.me.Game().Info()
	info.WantsStatusbar = fe.me.WantsStatusbar()
	return info
}

// Size asks the engine for the largest drawing size that fits max.
func (fe *Frontend) Size(max Size, isUserSize bool, dpr float64) Size {
	w, h := fe.me.Size(max.W, max.H, isUserSize, dpr)
	return Size{W: w, H: h}
}

// PreferredSize resets the tile size and returns the unconstrained size at
// the engine's preferred tile size.
func (fe *Frontend) PreferredSize() Size {
	fe.me.ResetTileSize()
	w, h := fe.me.Size(math.MaxInt32, math.MaxInt32, false, 1.0)
	return Size{W: w, H: h}
}

func (fe *Frontend) ResetTileSize() {
	fe.me.ResetTileSize()
}

func (fe *Frontend) NewGame() {
	fe.me.NewGame()
	fe.notifyGameStateChange()
}

func (fe *Frontend) RestartGame() {
	fe.me.RestartGame()
	fe.notifyGameStateChange()
}

// ProcessKey forwards an input event at (x, y). It returns true when the
// puzzle uses the button, whether or not it had an effect right now.
func (fe *Frontend) ProcessKey(x, y, button int) bool {
	result := fe.me.ProcessKey(x, y, button)
	if result == KeySomeEffect && !IsMouseDrag(button) {
		fe.notifyGameStateChange()
	}
	return result == KeySomeEffect || result == KeyNoEffect
}

func (fe *Frontend) RequestKeys() []KeyLabel {
	return fe.me.RequestKeys()
}

func (fe *Frontend) CurrentKeyLabel(button int) string {
	return fe.me.CurrentKeyLabel(button)
}

// StatusbarText returns the last text the engine put in the status bar.
func (fe *Frontend) StatusbarText() string {
	return fe.statusbarText
}

// ForceRedraw repaints everything. It does nothing while no drawing is bound.
func (fe *Frontend) ForceRedraw() {
	if fe.drawing != nil {
		fe.me.ForceRedraw()
	}
}

// Redraw repaints what changed. It does nothing while no drawing is bound.
func (fe *Frontend) Redraw() {
	if fe.drawing != nil {
		fe.me.Redraw()
	}
}

// ColourPalette returns the engine's native palette derived from
// defaultBackground.
func (fe *Frontend) ColourPalette(defaultBackground Colour) []Colour {
	fe.defaultBackground = defaultBackground
	fe.defaultBackgroundValid = true
	defer func() { fe.defaultBackgroundValid = false }()
	return fe.me.Colours()
}

func (fe *Frontend) FreezeTimer(tprop float32) {
	fe.me.FreezeTimer(tprop)
}

// Timer advances the engine's animation clock by tplus seconds.
func (fe *Frontend) Timer(tplus float32) {
	fe.me.Timer(tplus)
}

func (fe *Frontend) configDescription(kind ConfigKind) ConfigDescription {
	title, items := fe.me.Config(kind)
	return describeConfig(title, items, kind != ConfigPrefs)
}

func (fe *Frontend) configValues(kind ConfigKind) ConfigValues {
	_, items := fe.me.Config(kind)
	return valuesFromConfig(items, kind != ConfigPrefs)
}

func (fe *Frontend) setConfigValues(kind ConfigKind, values ConfigValues) error {
	_, items := fe.me.Config(kind)
	if !applyValues(items, values, kind != ConfigPrefs) {
		return nil
	}
	return fe.me.SetConfig(kind, items)
}

func (fe *Frontend) PreferencesConfig() ConfigDescription {
	return fe.configDescription(ConfigPrefs)
}

// Preferences returns the current preferences keyed by keyword.
func (fe *Frontend) Preferences() ConfigValues {
	return fe.configValues(ConfigPrefs)
}

func (fe *Frontend) SetPreferences(values ConfigValues) error {
	return fe.setConfigValues(ConfigPrefs, values)
}

func (fe *Frontend) SavePreferences() []byte {
	buf := NewWriteBuffer()
	fe.me.SavePrefs(buf.Append)
	return buf.Bytes()
}

func (fe *Frontend) LoadPreferences(data []byte) error {
	return fe.me.LoadPrefs(NewReadBuffer(data).Read)
}

// Params returns the encoded parameters used for new games.
func (fe *Frontend) Params() string {
	return fe.me.EncodedParams()
}

func (fe *Frontend) SetParams(encoded string) error {
	return fe.me.SetEncodedParams(encoded)
}

// Presets returns the preset menu with encoded parameters for every leaf.
func (fe *Frontend) Presets() []PresetMenuEntry {
	return fe.buildMenu(fe.me.Presets())
}

func (fe *Frontend) buildMenu(presets []Preset) []PresetMenuEntry {
	entries := make([]PresetMenuEntry, 0, len(presets))
	for _, p := range presets {
		entry := PresetMenuEntry{
			Title:  p.Title,
			Params: fe.me.EncodedParamsForPreset(p.ID),
		}
		if p.Submenu != nil {
			entry.Submenu = fe.buildMenu(p.Submenu)
		}
		entries = append(entries, entry)
	}
	return entries
}

func (fe *Frontend) CustomParamsConfig() ConfigDescription {
	return fe.configDescription(ConfigSettings)
}

// CustomParams returns the current custom parameters keyed by slug.
func (fe *Frontend) CustomParams() ConfigValues {
	return fe.configValues(ConfigSettings)
}

func (fe *Frontend) SetCustomParams(values ConfigValues) error {
	return fe.setConfigValues(ConfigSettings, values)
}

// DecodeCustomParams converts encoded parameters to custom parameter values
// without touching the running game.
func (fe *Frontend) DecodeCustomParams(encoded string) (ConfigValues, error) {
	game := fe.me.Game()
	params := game.DecodeParams(encoded)
	if err := game.ValidateParams(params, true); err != nil {
		return nil, err
	}
	return valuesFromConfig(game.Configure(params), true), nil
}

// EncodeCustomParams applies values on top of the default parameters and
// encodes the result. Invalid combinations return the error message with a
// "#ERROR:" prefix.
func (fe *Frontend) EncodeCustomParams(values ConfigValues) string {
	game := fe.me.Game()
	items := game.Configure(game.DefaultParams())
	applyValues(items, values, true)
	params := game.CustomParams(items)
	if err := game.ValidateParams(params, true); err != nil {
		return encodeErrorPrefix + err.Error()
	}
	return game.EncodeParams(params, true)
}

// IsEncodeError reports whether an EncodeCustomParams result is an error,
// returning the message.
func IsEncodeError(encoded string) (string, bool) {
	if msg, ok := strings.CutPrefix(encoded, encodeErrorPrefix); ok {
		return msg, true
	}
	return "", false
}

// NewGameFromID starts the game described by id.
func (fe *Frontend) NewGameFromID(id string) error {
	if err := fe.me.SetGameID(id); err != nil {
		return err
	}
	// Setting an id may change the parameters but does not start the game.
	fe.notifyParamsChange()
	fe.NewGame()
	return nil
}

func (fe *Frontend) CurrentGameID() string {
	return fe.me.GameID()
}

func (fe *Frontend) RandomSeed() (string, bool) {
	return fe.me.RandomSeed()
}

func (fe *Frontend) CanFormatAsText() bool {
	return fe.me.CanFormatAsText()
}

func (fe *Frontend) FormatAsText() (string, bool) {
	return fe.me.TextFormat()
}

func (fe *Frontend) Solve() error {
	if err := fe.me.Solve(); err != nil {
		return err
	}
	fe.notifyGameStateChange()
	return nil
}

// Undo reports whether there was a move to undo.
func (fe *Frontend) Undo() bool {
	if fe.me.ProcessKey(0, 0, UIUndo) != KeySomeEffect {
		return false
	}
	fe.notifyGameStateChange()
	return true
}

// Redo reports whether there was a move to redo.
func (fe *Frontend) Redo() bool {
	if fe.me.ProcessKey(0, 0, UIRedo) != KeySomeEffect {
		return false
	}
	fe.notifyGameStateChange()
	return true
}

// SaveGame serialises the running game.
func (fe *Frontend) SaveGame() []byte {
	buf := NewWriteBuffer()
	fe.me.Serialise(buf.Append)
	return buf.Bytes()
}

// LoadGame replaces the running game with a serialised one.
func (fe *Frontend) LoadGame(data []byte) error {
	if err := fe.me.Deserialise(NewReadBuffer(data).Read); err != nil {
		return err
	}
	// The engine already reported params and id changes while loading.
	fe.notifyGameStateChange()
	return nil
}

func (fe *Frontend) CursorLocation() (Rect, bool) {
	return fe.me.CursorLocation()
}

// Free releases the engine. The Frontend must not be used afterwards.
func (fe *Frontend) Free() {
	if fe.me != nil {
		fe.me.Free()
		fe.me = nil
	}
	fe.drawing = nil
}

// frontendHost is the Host view of a Frontend handed to the engine.
type frontendHost struct {
	fe *Frontend
}

func (h frontendHost) Drawing() Drawing {
	if h.fe.drawing == nil {
		errors.Contract("engine.Drawing", "drawing API called before SetDrawing")
	}
	return h.fe.drawing
}

func (h frontendHost) ActivateTimer() {
	if h.fe.args.ActivateTimer != nil {
		h.fe.args.ActivateTimer()
	}
}

func (h frontendHost) DeactivateTimer() {
	if h.fe.args.DeactivateTimer != nil {
		h.fe.args.DeactivateTimer()
	}
}

func (h frontendHost) DefaultColour() Colour {
	if !h.fe.defaultBackgroundValid {
		errors.Contract("engine.DefaultColour", "default colour requested outside ColourPalette")
	}
	return h.fe.defaultBackground
}

func (h frontendHost) StatusBar(text string) {
	h.fe.statusbarText = text
	h.fe.notify(StatusBarChange{StatusBarText: text})
}

func (h frontendHost) TextFallback(candidates []string) string {
	if h.fe.args.TextFallback != nil {
		return h.fe.args.TextFallback(candidates)
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}
