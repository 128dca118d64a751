// Package host runs a puzzle engine in its own worker goroutine and exposes
// it through an EngineHandle.
//
// The worker is the only goroutine that touches the engine and its drawing
// adapter. Every EngineHandle method is a call across a bridge pipe and
// blocks until the worker has handled it; change notifications travel the
// other way as events, queued until a listener is registered with OnChange.
//
//	h, err := host.New(ctx, "stub")
//	if err != nil {
//		return err
//	}
//	defer h.Destroy(ctx)
//	h.OnChange(func(n engine.ChangeNotification) { ... })
//	err = h.NewGame(ctx)
package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-drift/puzzles/pkg/bridge"
	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/errors"
)

// EngineHandle is the main-context proxy for one running engine. Its
// methods are safe for concurrent use; calls are handled one at a time in
// the order they are made.
type EngineHandle struct {
	id     uuid.UUID
	puzzle string
	client *bridge.Client
	log    *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	destroyed bool
}

// New starts a worker running the engine registered as puzzleType.
func New(ctx context.Context, puzzleType string, opts ...Option) (*EngineHandle, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	reg, err := engine.Lookup(puzzleType, o.minVersion)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	log := o.logger.With(zap.String("puzzle", puzzleType), zap.Stringer("handle", id))
	mainPort, workerPort := bridge.NewPipe()
	w := newWorker(reg, bridge.NewServer(workerPort, o.codec), o, log)

	serveCtx, cancel := context.WithCancel(context.Background())
	h := &EngineHandle{
		id:     id,
		puzzle: puzzleType,
		log:    log,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		if err := w.server.Serve(serveCtx); err != nil {
			log.Debug("worker stopped", zap.Error(err))
		}
	}()
	h.client = bridge.NewClient(mainPort, o.codec)

	if err := h.client.Call(ctx, "create", nil, nil); err != nil {
		h.shutdown()
		return nil, &errors.PuzzleError{Op: "host.New", Kind: errors.KindEngine, Engine: id.String(), Err: err}
	}
	log.Debug("worker started")
	return h, nil
}

// ID returns the handle's unique identifier.
func (h *EngineHandle) ID() uuid.UUID { return h.id }

// PuzzleType returns the registry name the engine was created from.
func (h *EngineHandle) PuzzleType() string { return h.puzzle }

// OnChange registers the change listener and flushes notifications queued
// before it, in order. fn runs on the handle's reader goroutine and must
// not call back into the handle synchronously.
func (h *EngineHandle) OnChange(fn func(engine.ChangeNotification)) {
	h.client.Events(ChangeChannel).Listen(func(data []byte) {
		n, err := engine.DecodeNotification(data)
		if err != nil {
			errors.Report(&errors.PuzzleError{
				Op:     "host.OnChange",
				Kind:   errors.KindParsing,
				Engine: h.id.String(),
				Err:    &errors.ParseError{Channel: ChangeChannel, DataType: "ChangeNotification", Got: data},
			})
			return
		}
		fn(n)
	})
}

// OnCrash registers the listener for panics recovered in the worker.
// Crashes reported before registration are queued.
func (h *EngineHandle) OnCrash(fn func(bridge.CrashReport)) {
	h.client.Events(bridge.CrashChannel).Listen(func(data []byte) {
		var report bridge.CrashReport
		if err := h.client.Codec().DecodeInto(data, &report); err != nil {
			report = bridge.CrashReport{Op: "unknown", Message: string(data)}
		}
		fn(report)
	})
}

func (h *EngineHandle) call(ctx context.Context, method string, args, result any, transfer ...any) error {
	h.mu.Lock()
	destroyed := h.destroyed
	h.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	return h.client.Call(ctx, method, args, result, transfer...)
}

func call[R any](ctx context.Context, h *EngineHandle, method string, args any) (R, error) {
	var result R
	err := h.call(ctx, method, args, &result)
	return result, err
}

// Destroy frees the engine, then the drawing adapter, then stops the
// worker. Later calls fail with ErrDestroyed; Destroy itself is idempotent.
func (h *EngineHandle) Destroy(ctx context.Context) error {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return nil
	}
	h.destroyed = true
	h.mu.Unlock()

	err := h.client.Call(ctx, "destroy", nil, nil)
	h.shutdown()
	if err != nil {
		return fmt.Errorf("destroy %s: %w", h.puzzle, err)
	}
	return nil
}

func (h *EngineHandle) shutdown() {
	h.client.Close()
	h.cancel()
	<-h.done
}

func (h *EngineHandle) NewGame(ctx context.Context) error {
	return h.call(ctx, "newGame", nil, nil)
}

func (h *EngineHandle) RestartGame(ctx context.Context) error {
	return h.call(ctx, "restartGame", nil, nil)
}

// Undo reports whether there was a move to undo.
func (h *EngineHandle) Undo(ctx context.Context) (bool, error) {
	return call[bool](ctx, h, "undo", nil)
}

// Redo reports whether there was a move to redo.
func (h *EngineHandle) Redo(ctx context.Context) (bool, error) {
	return call[bool](ctx, h, "redo", nil)
}

// Solve fails with a *bridge.CallError carrying the engine's message when
// the puzzle cannot be solved.
func (h *EngineHandle) Solve(ctx context.Context) error {
	return h.call(ctx, "solve", nil, nil)
}

// ProcessKey sends a key or UI button code. It reports whether the puzzle
// used it.
func (h *EngineHandle) ProcessKey(ctx context.Context, code int) (bool, error) {
	return call[bool](ctx, h, "processKey", keyArgs{Code: code})
}

// ProcessMouse sends a mouse button code at p, in drawing pixels.
func (h *EngineHandle) ProcessMouse(ctx context.Context, p engine.Point, button int) (bool, error) {
	return call[bool](ctx, h, "processMouse", mouseArgs{Point: p, Button: button})
}

func (h *EngineHandle) RequestKeys(ctx context.Context) ([]engine.KeyLabel, error) {
	return call[[]engine.KeyLabel](ctx, h, "requestKeys", nil)
}

func (h *EngineHandle) CurrentKeyLabel(ctx context.Context, button int) (string, error) {
	return call[string](ctx, h, "currentKeyLabel", keyArgs{Code: button})
}

func (h *EngineHandle) GetParams(ctx context.Context) (string, error) {
	return call[string](ctx, h, "getParams", nil)
}

func (h *EngineHandle) SetParams(ctx context.Context, encoded string) error {
	return h.call(ctx, "setParams", stringArgs{Value: encoded}, nil)
}

func (h *EngineHandle) GetPresets(ctx context.Context) ([]engine.PresetMenuEntry, error) {
	return call[[]engine.PresetMenuEntry](ctx, h, "getPresets", nil)
}

func (h *EngineHandle) GetCustomParamsConfig(ctx context.Context) (engine.ConfigDescription, error) {
	return call[engine.ConfigDescription](ctx, h, "getCustomParamsConfig", nil)
}

// GetCustomParams returns values keyed by slugified item name. Choice
// indices arrive as float64 after crossing the boundary.
func (h *EngineHandle) GetCustomParams(ctx context.Context) (engine.ConfigValues, error) {
	return call[engine.ConfigValues](ctx, h, "getCustomParams", nil)
}

func (h *EngineHandle) SetCustomParams(ctx context.Context, values engine.ConfigValues) error {
	return h.call(ctx, "setCustomParams", valuesArgs{Values: values}, nil)
}

// DecodeCustomParams converts encoded params to custom param values without
// changing the running game. Invalid params return the engine's message as
// a *bridge.CallError.
func (h *EngineHandle) DecodeCustomParams(ctx context.Context, encoded string) (engine.ConfigValues, error) {
	res, err := call[decodeResult](ctx, h, "decodeCustomParams", stringArgs{Value: encoded})
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, &bridge.CallError{Method: "decodeCustomParams", Message: res.Error}
	}
	return res.Values, nil
}

// EncodeCustomParams returns encoded params, or the engine's validation
// message prefixed with "#ERROR:" (see engine.IsEncodeError).
func (h *EngineHandle) EncodeCustomParams(ctx context.Context, values engine.ConfigValues) (string, error) {
	return call[string](ctx, h, "encodeCustomParams", valuesArgs{Values: values})
}

func (h *EngineHandle) GetPreferencesConfig(ctx context.Context) (engine.ConfigDescription, error) {
	return call[engine.ConfigDescription](ctx, h, "getPreferencesConfig", nil)
}

func (h *EngineHandle) GetPreferences(ctx context.Context) (engine.ConfigValues, error) {
	return call[engine.ConfigValues](ctx, h, "getPreferences", nil)
}

func (h *EngineHandle) SetPreferences(ctx context.Context, values engine.ConfigValues) error {
	return h.call(ctx, "setPreferences", valuesArgs{Values: values}, nil)
}

func (h *EngineHandle) SavePreferences(ctx context.Context) ([]byte, error) {
	return call[[]byte](ctx, h, "savePreferences", nil)
}

func (h *EngineHandle) LoadPreferences(ctx context.Context, data []byte) error {
	return h.call(ctx, "loadPreferences", bytesArgs{Data: data}, nil)
}

// SaveGame returns the engine's opaque save data.
func (h *EngineHandle) SaveGame(ctx context.Context) ([]byte, error) {
	return call[[]byte](ctx, h, "saveGame", nil)
}

// LoadGame replaces the running game. On failure the game is unchanged.
func (h *EngineHandle) LoadGame(ctx context.Context, data []byte) error {
	return h.call(ctx, "loadGame", bytesArgs{Data: data}, nil)
}

func (h *EngineHandle) NewGameFromID(ctx context.Context, id string) error {
	return h.call(ctx, "newGameFromId", stringArgs{Value: id}, nil)
}

func (h *EngineHandle) GetCurrentGameID(ctx context.Context) (string, error) {
	return call[string](ctx, h, "getCurrentGameId", nil)
}

// FormatAsText returns the puzzle as text; ok is false when the puzzle
// cannot be formatted right now.
func (h *EngineHandle) FormatAsText(ctx context.Context) (text string, ok bool, err error) {
	res, err := call[textResult](ctx, h, "formatAsText", nil)
	return res.Text, res.OK, err
}

// GetCursorLocation returns the keyboard cursor rectangle in drawing pixels.
func (h *EngineHandle) GetCursorLocation(ctx context.Context) (engine.Rect, bool, error) {
	res, err := call[cursorResult](ctx, h, "getCursorLocation", nil)
	return res.Rect, res.OK, err
}

func (h *EngineHandle) GameInfo(ctx context.Context) (engine.GameInfo, error) {
	return call[engine.GameInfo](ctx, h, "gameInfo", nil)
}

func (h *EngineHandle) Redraw(ctx context.Context) error {
	return h.call(ctx, "redraw", nil, nil)
}

func (h *EngineHandle) ForceRedraw(ctx context.Context) error {
	return h.call(ctx, "forceRedraw", nil, nil)
}

// GetColourPalette returns the engine's native palette derived from
// defaultBackground.
func (h *EngineHandle) GetColourPalette(ctx context.Context, defaultBackground engine.Colour) ([]engine.Colour, error) {
	return call[[]engine.Colour](ctx, h, "getColourPalette", backgroundArgs{Background: defaultBackground})
}

// Size returns the largest drawing size that fits max.
func (h *EngineHandle) Size(ctx context.Context, max engine.Size, isUserSize bool, dpr float64) (engine.Size, error) {
	return call[engine.Size](ctx, h, "size", sizeArgs{Max: max, IsUserSize: isUserSize, DPR: dpr})
}

func (h *EngineHandle) PreferredSize(ctx context.Context) (engine.Size, error) {
	return call[engine.Size](ctx, h, "preferredSize", nil)
}

// RegisterFont makes a TrueType or OpenType font available to the drawing
// under the family it declares, and returns its description. Register
// fonts before AttachCanvas names them.
func (h *EngineHandle) RegisterFont(ctx context.Context, data []byte) (drawing.FontInfo, error) {
	return call[drawing.FontInfo](ctx, h, "registerFont", bytesArgs{Data: data})
}

// AttachCanvas transfers surface to the worker and binds it as the
// engine's drawing target. ResizeDrawing must follow before any redraw.
func (h *EngineHandle) AttachCanvas(ctx context.Context, surface drawing.Surface, font drawing.FontInfo) error {
	return h.call(ctx, "attachCanvas", fontArgs{Font: font}, nil, surface)
}

// DetachCanvas stops presenting frames. Drawing resources are kept.
func (h *EngineHandle) DetachCanvas(ctx context.Context) error {
	return h.call(ctx, "detachCanvas", nil, nil)
}

// ResizeDrawing reallocates the drawing buffer at size device pixels.
func (h *EngineHandle) ResizeDrawing(ctx context.Context, size engine.Size, dpr float64) error {
	return h.call(ctx, "resizeDrawing", resizeArgs{Size: size, DPR: dpr}, nil)
}

// SetDrawingPalette installs the "#rrggbb" colours palette indices map to.
func (h *EngineHandle) SetDrawingPalette(ctx context.Context, colours []string) error {
	return h.call(ctx, "setDrawingPalette", paletteArgs{Colours: colours}, nil)
}

func (h *EngineHandle) SetDrawingFontInfo(ctx context.Context, font drawing.FontInfo) error {
	return h.call(ctx, "setDrawingFontInfo", fontArgs{Font: font}, nil)
}
