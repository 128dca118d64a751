package host

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/go-drift/puzzles/pkg/animation"
	"github.com/go-drift/puzzles/pkg/bridge"
	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
)

// ChangeChannel carries encoded engine.ChangeNotification events.
const ChangeChannel = "engine/change"

var (
	// ErrDestroyed indicates the engine has been destroyed.
	ErrDestroyed = errors.New("engine destroyed")

	// ErrNoCanvas indicates a drawing operation before any canvas was attached.
	ErrNoCanvas = errors.New("no canvas attached")

	// ErrNoSurface indicates AttachCanvas was called without a surface.
	ErrNoSurface = errors.New("attachCanvas needs a drawing.Surface transfer")
)

// Request payloads. Every method that takes arguments sends one of these.
type (
	keyArgs struct {
		Code int `json:"code"`
	}
	mouseArgs struct {
		Point  engine.Point `json:"point"`
		Button int          `json:"button"`
	}
	stringArgs struct {
		Value string `json:"value"`
	}
	valuesArgs struct {
		Values engine.ConfigValues `json:"values"`
	}
	bytesArgs struct {
		Data []byte `json:"data"`
	}
	sizeArgs struct {
		Max        engine.Size `json:"max"`
		IsUserSize bool        `json:"isUserSize"`
		DPR        float64     `json:"dpr"`
	}
	resizeArgs struct {
		Size engine.Size `json:"size"`
		DPR  float64     `json:"dpr"`
	}
	backgroundArgs struct {
		Background engine.Colour `json:"defaultBackground"`
	}
	paletteArgs struct {
		Colours []string `json:"colors"`
	}
	fontArgs struct {
		Font drawing.FontInfo `json:"fontInfo"`
	}

	textResult struct {
		Text string `json:"text"`
		OK   bool   `json:"ok"`
	}
	cursorResult struct {
		Rect engine.Rect `json:"rect"`
		OK   bool        `json:"ok"`
	}
	decodeResult struct {
		Values engine.ConfigValues `json:"values,omitempty"`
		Error  string              `json:"error,omitempty"`
	}
)

// worker owns the engine, the drawing adapter and the animation timer. All
// of its fields are touched only from the server's serve goroutine.
type worker struct {
	reg    engine.Registration
	server *bridge.Server
	opts   options
	log    *zap.Logger

	fe      *engine.Frontend
	adapter *drawing.Adapter
	// target is what the engine draws to: the adapter, teed with the
	// drawing tap when one is configured.
	target engine.Drawing
	// fonts registered before the first attach, loaded into the adapter
	// when it is created.
	fonts [][]byte

	ticker   *animation.Ticker
	timerGen uint64
}

func newWorker(reg engine.Registration, server *bridge.Server, opts options, log *zap.Logger) *worker {
	w := &worker{reg: reg, server: server, opts: opts, log: log}
	w.server.Handle("create", w.create)
	w.routes()
	return w
}

// handle registers fn for method, decoding its arguments into A. Methods
// other than create fail with ErrDestroyed once the engine is gone.
func handle[A any](w *worker, method string, fn func(args A, transfer []any) (any, error)) {
	w.server.Handle(method, func(payload []byte, transfer []any) (any, error) {
		if w.fe == nil {
			return nil, ErrDestroyed
		}
		var args A
		if err := w.server.Codec().DecodeInto(payload, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", method, err)
		}
		return fn(args, transfer)
	})
}

type none struct{}

func (w *worker) create([]byte, []any) (any, error) {
	if w.fe != nil {
		return nil, errors.New("engine already created")
	}
	w.fe = engine.NewFrontend(w.reg.Factory, engine.FrontendArgs{
		ActivateTimer:   w.activateTimer,
		DeactivateTimer: w.deactivateTimer,
		TextFallback:    w.textFallback,
		NotifyChange:    w.notify,
	})
	w.log.Debug("engine created", zap.String("version", w.reg.Version))
	return nil, nil
}

func (w *worker) routes() {
	handle(w, "newGame", func(none, []any) (any, error) { w.fe.NewGame(); return nil, nil })
	handle(w, "restartGame", func(none, []any) (any, error) { w.fe.RestartGame(); return nil, nil })
	handle(w, "undo", func(none, []any) (any, error) { return w.fe.Undo(), nil })
	handle(w, "redo", func(none, []any) (any, error) { return w.fe.Redo(), nil })
	handle(w, "solve", func(none, []any) (any, error) { return nil, w.fe.Solve() })
	handle(w, "processKey", func(a keyArgs, _ []any) (any, error) {
		return w.fe.ProcessKey(0, 0, a.Code), nil
	})
	handle(w, "processMouse", func(a mouseArgs, _ []any) (any, error) {
		x, y := int(math.Round(float64(a.Point.X))), int(math.Round(float64(a.Point.Y)))
		return w.fe.ProcessKey(x, y, a.Button), nil
	})
	handle(w, "requestKeys", func(none, []any) (any, error) { return w.fe.RequestKeys(), nil })
	handle(w, "currentKeyLabel", func(a keyArgs, _ []any) (any, error) {
		return w.fe.CurrentKeyLabel(a.Code), nil
	})

	handle(w, "getParams", func(none, []any) (any, error) { return w.fe.Params(), nil })
	handle(w, "setParams", func(a stringArgs, _ []any) (any, error) { return nil, w.fe.SetParams(a.Value) })
	handle(w, "getPresets", func(none, []any) (any, error) { return w.fe.Presets(), nil })
	handle(w, "getCustomParamsConfig", func(none, []any) (any, error) { return w.fe.CustomParamsConfig(), nil })
	handle(w, "getCustomParams", func(none, []any) (any, error) { return w.fe.CustomParams(), nil })
	handle(w, "setCustomParams", func(a valuesArgs, _ []any) (any, error) {
		return nil, w.fe.SetCustomParams(a.Values)
	})
	handle(w, "decodeCustomParams", func(a stringArgs, _ []any) (any, error) {
		values, err := w.fe.DecodeCustomParams(a.Value)
		if err != nil {
			return decodeResult{Error: err.Error()}, nil
		}
		return decodeResult{Values: values}, nil
	})
	handle(w, "encodeCustomParams", func(a valuesArgs, _ []any) (any, error) {
		return w.fe.EncodeCustomParams(a.Values), nil
	})

	handle(w, "getPreferencesConfig", func(none, []any) (any, error) { return w.fe.PreferencesConfig(), nil })
	handle(w, "getPreferences", func(none, []any) (any, error) { return w.fe.Preferences(), nil })
	handle(w, "setPreferences", func(a valuesArgs, _ []any) (any, error) {
		return nil, w.fe.SetPreferences(a.Values)
	})
	handle(w, "savePreferences", func(none, []any) (any, error) { return w.fe.SavePreferences(), nil })
	handle(w, "loadPreferences", func(a bytesArgs, _ []any) (any, error) {
		return nil, w.fe.LoadPreferences(a.Data)
	})

	handle(w, "saveGame", func(none, []any) (any, error) { return w.fe.SaveGame(), nil })
	handle(w, "loadGame", func(a bytesArgs, _ []any) (any, error) { return nil, w.fe.LoadGame(a.Data) })
	handle(w, "newGameFromId", func(a stringArgs, _ []any) (any, error) {
		return nil, w.fe.NewGameFromID(a.Value)
	})
	handle(w, "getCurrentGameId", func(none, []any) (any, error) { return w.fe.CurrentGameID(), nil })
	handle(w, "formatAsText", func(none, []any) (any, error) {
		text, ok := w.fe.FormatAsText()
		return textResult{Text: text, OK: ok}, nil
	})
	handle(w, "getCursorLocation", func(none, []any) (any, error) {
		r, ok := w.fe.CursorLocation()
		return cursorResult{Rect: r, OK: ok}, nil
	})
	handle(w, "gameInfo", func(none, []any) (any, error) { return w.fe.Info(), nil })

	handle(w, "redraw", func(none, []any) (any, error) { w.fe.Redraw(); return nil, nil })
	handle(w, "forceRedraw", func(none, []any) (any, error) { w.fe.ForceRedraw(); return nil, nil })
	handle(w, "getColourPalette", func(a backgroundArgs, _ []any) (any, error) {
		return w.fe.ColourPalette(a.Background), nil
	})
	handle(w, "size", func(a sizeArgs, _ []any) (any, error) {
		return w.fe.Size(a.Max, a.IsUserSize, a.DPR), nil
	})
	handle(w, "preferredSize", func(none, []any) (any, error) { return w.fe.PreferredSize(), nil })

	handle(w, "registerFont", func(a bytesArgs, _ []any) (any, error) { return w.registerFont(a.Data) })
	handle(w, "attachCanvas", w.attachCanvas)
	handle(w, "detachCanvas", func(none, []any) (any, error) {
		if w.adapter != nil {
			w.adapter.Detach()
		}
		return nil, nil
	})
	handle(w, "resizeDrawing", func(a resizeArgs, _ []any) (any, error) {
		if w.adapter == nil {
			return nil, ErrNoCanvas
		}
		return nil, w.adapter.Resize(a.Size, a.DPR)
	})
	handle(w, "setDrawingPalette", func(a paletteArgs, _ []any) (any, error) {
		if w.adapter == nil {
			return nil, ErrNoCanvas
		}
		return nil, w.adapter.SetPalette(a.Colours)
	})
	handle(w, "setDrawingFontInfo", func(a fontArgs, _ []any) (any, error) {
		if w.adapter == nil {
			return nil, ErrNoCanvas
		}
		w.adapter.SetFontInfo(a.Font)
		return nil, nil
	})
	handle(w, "destroy", func(none, []any) (any, error) { return nil, w.destroy() })
}

// attachCanvas binds the transferred surface. The adapter, and with it any
// blitters the engine holds, survives detach and re-attach.
func (w *worker) attachCanvas(a fontArgs, transfer []any) (any, error) {
	var surface drawing.Surface
	if len(transfer) > 0 {
		surface, _ = transfer[0].(drawing.Surface)
	}
	if surface == nil {
		return nil, ErrNoSurface
	}
	if w.adapter == nil {
		adapter, err := drawing.NewAdapter(surface, a.Font)
		if err != nil {
			return nil, err
		}
		for _, data := range w.fonts {
			if _, err := adapter.RegisterFont(data); err != nil {
				_ = adapter.Close()
				return nil, err
			}
		}
		w.fonts = nil
		w.adapter = adapter
		w.target = adapter
		if w.opts.tap != nil {
			w.target = drawing.Tee(adapter, w.opts.tap)
		}
	} else {
		w.adapter.Attach(surface)
		w.adapter.SetFontInfo(a.Font)
	}
	w.fe.SetDrawing(w.target)
	w.log.Debug("canvas attached", zap.String("font", a.Font.Family))
	return nil, nil
}

// registerFont adds a font family for variable pitch text. Without an
// adapter yet the data is checked now and loaded on the first attach.
func (w *worker) registerFont(data []byte) (drawing.FontInfo, error) {
	if w.adapter != nil {
		return w.adapter.RegisterFont(data)
	}
	info, err := drawing.DescribeFont(data)
	if err != nil {
		return drawing.FontInfo{}, err
	}
	w.fonts = append(w.fonts, data)
	w.log.Debug("font registered", zap.String("family", info.Family))
	return info, nil
}

// destroy frees the engine before the adapter so the engine can still
// release its blitters.
func (w *worker) destroy() error {
	w.deactivateTimer()
	w.fe.Free()
	w.fe = nil
	var err error
	if w.adapter != nil {
		err = w.adapter.Close()
		w.adapter = nil
	}
	w.target = nil
	w.fonts = nil
	w.log.Debug("engine destroyed")
	return err
}

func (w *worker) notify(n engine.ChangeNotification) {
	data, err := engine.EncodeNotification(n)
	if err != nil {
		w.log.Error("encode notification", zap.String("type", n.Type()), zap.Error(err))
		return
	}
	if err := w.server.EmitRaw(ChangeChannel, data); err != nil {
		w.log.Debug("notification dropped", zap.String("type", n.Type()), zap.Error(err))
	}
}

func (w *worker) textFallback(candidates []string) string {
	if w.adapter != nil {
		return w.adapter.TextFallback(candidates)
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

func (w *worker) activateTimer() {
	if w.ticker != nil {
		return
	}
	w.timerGen++
	gen := w.timerGen
	w.ticker = animation.NewTicker(w.opts.clock, w.opts.interval, func(elapsed time.Duration) {
		w.server.Post(func() { w.tick(gen, elapsed) })
	})
	w.ticker.Start()
}

func (w *worker) deactivateTimer() {
	if w.ticker == nil {
		return
	}
	w.ticker.Stop()
	w.ticker = nil
}

// tick runs on the serve loop. A tick posted before the timer was stopped
// is dropped.
func (w *worker) tick(gen uint64, elapsed time.Duration) {
	if w.ticker == nil || gen != w.timerGen || w.fe == nil {
		return
	}
	w.fe.Timer(float32(elapsed.Seconds()))
}
