package canvas_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/go-drift/puzzles/pkg/canvas"
	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
	puzerrors "github.com/go-drift/puzzles/pkg/errors"
	"github.com/go-drift/puzzles/pkg/graphics"
	"github.com/go-drift/puzzles/pkg/palette"
	puztest "github.com/go-drift/puzzles/pkg/testing"
)

func TestMain(m *testing.M) {
	puztest.RegisterStub()
	goleak.VerifyTestMain(m)
}

type mouseCall struct {
	Point  engine.Point
	Button int
}

// fakeEngine records the calls a Controller makes. Size returns sizeFn of
// the offered space, or the space itself.
type fakeEngine struct {
	mu        sync.Mutex
	listener  func(engine.ChangeNotification)
	info      engine.GameInfo
	preferred engine.Size
	sizeFn    func(engine.Size) engine.Size
	calls     []string
	limits    []engine.Size
	defaults  []engine.Colour
	mice      []mouseCall
	keys      []int
	unused    bool
	redrawErr error

	// When gate is set, Size signals entered and waits for gate to close.
	gate     chan struct{}
	entered  chan struct{}
	inFlight int
	overlap  bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{preferred: engine.Size{W: 100, H: 100}}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeEngine) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

func (f *fakeEngine) takeMice() []mouseCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	mice := f.mice
	f.mice = nil
	return mice
}

func (f *fakeEngine) notify(n engine.ChangeNotification) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	fn(n)
}

func (f *fakeEngine) PuzzleType() string { return "fake" }

func (f *fakeEngine) OnChange(fn func(engine.ChangeNotification)) {
	f.mu.Lock()
	f.listener = fn
	f.mu.Unlock()
}

func (f *fakeEngine) GameInfo(context.Context) (engine.GameInfo, error) {
	f.record("gameInfo")
	return f.info, nil
}

func (f *fakeEngine) PreferredSize(context.Context) (engine.Size, error) {
	f.record("preferredSize")
	return f.preferred, nil
}

func (f *fakeEngine) Size(_ context.Context, max engine.Size, _ bool, _ float64) (engine.Size, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	f.calls = append(f.calls, "size")
	f.limits = append(f.limits, max)
	gate, entered := f.gate, f.entered
	f.gate = nil
	fn := f.sizeFn
	f.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	if fn != nil {
		return fn(max), nil
	}
	return max, nil
}

func (f *fakeEngine) GetColourPalette(_ context.Context, bg engine.Colour) ([]engine.Colour, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "getColourPalette")
	f.defaults = append(f.defaults, bg)
	f.mu.Unlock()
	return []engine.Colour{{0.9, 0.9, 0.9}, {0, 0, 0}, {1, 0, 0}}, nil
}

func (f *fakeEngine) AttachCanvas(context.Context, drawing.Surface, drawing.FontInfo) error {
	f.record("attachCanvas")
	return nil
}

func (f *fakeEngine) DetachCanvas(context.Context) error {
	f.record("detachCanvas")
	return nil
}

func (f *fakeEngine) ResizeDrawing(_ context.Context, size engine.Size, _ float64) error {
	f.record(fmt.Sprintf("resizeDrawing %dx%d", size.W, size.H))
	return nil
}

func (f *fakeEngine) SetDrawingPalette(context.Context, []string) error {
	f.record("setDrawingPalette")
	return nil
}

func (f *fakeEngine) SetDrawingFontInfo(context.Context, drawing.FontInfo) error {
	f.record("setDrawingFontInfo")
	return nil
}

func (f *fakeEngine) Redraw(context.Context) error {
	f.record("redraw")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redrawErr
}

func (f *fakeEngine) ForceRedraw(context.Context) error {
	f.record("forceRedraw")
	return nil
}

func (f *fakeEngine) ProcessKey(_ context.Context, code int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, code)
	return !f.unused, nil
}

func (f *fakeEngine) ProcessMouse(_ context.Context, p engine.Point, button int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mice = append(f.mice, mouseCall{Point: p, Button: button})
	return !f.unused, nil
}

var _ canvas.Engine = (*fakeEngine)(nil)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// attached returns a Controller holding an active game, attached and with
// the call log cleared.
func attached(t *testing.T, eng *fakeEngine, el *puztest.FakeElement, opts ...canvas.Option) *canvas.Controller {
	t.Helper()
	ctx := testContext(t)
	c := canvas.New(eng, el, opts...)
	eng.notify(engine.GameIDChange{CurrentGameID: "3x3:000000000"})
	if err := c.Attach(ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	eng.takeCalls()
	return c
}

func TestAttachRequiresGame(t *testing.T) {
	c := canvas.New(newFakeEngine(), puztest.NewFakeElement(graphics.Size{Width: 100, Height: 100}))
	defer func() {
		r := recover()
		err, ok := r.(error)
		var ce *puzerrors.ContractError
		if !ok || !stderrors.As(err, &ce) {
			t.Fatalf("panic value %v is not a ContractError", r)
		}
	}()
	c.Attach(testContext(t))
}

func TestAttachRunsFullPass(t *testing.T) {
	eng := newFakeEngine()
	eng.sizeFn = func(max engine.Size) engine.Size { return engine.Size{W: 90, H: 60} }
	el := puztest.NewFakeElement(graphics.Size{Width: 100, Height: 80})
	c := canvas.New(eng, el)
	defer c.Close(context.Background())
	eng.notify(engine.GameIDChange{CurrentGameID: "abc"})

	if err := c.Attach(testContext(t)); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	want := []string{
		"gameInfo", "attachCanvas",
		"getColourPalette", "setDrawingPalette",
		"size", "resizeDrawing 90x60", "forceRedraw",
	}
	if diff := cmp.Diff(want, eng.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if got := el.CanvasSizes(); len(got) != 1 || got[0] != (engine.Size{W: 90, H: 60}) {
		t.Errorf("CanvasSizes = %v, want [{90 60}]", got)
	}
	if got := el.Backgrounds(); len(got) != 1 {
		t.Errorf("Backgrounds = %v, want one entry", got)
	}
	if el.Surface() == nil {
		t.Error("no surface created")
	}
	if got := c.CanvasSize(); got != (engine.Size{W: 90, H: 60}) {
		t.Errorf("CanvasSize = %v", got)
	}
}

func TestResizeShrinkSetsSizeOnce(t *testing.T) {
	eng := newFakeEngine()
	eng.sizeFn = func(max engine.Size) engine.Size { return engine.Size{W: max.W - 10, H: max.H - 10} }
	el := puztest.NewFakeElement(graphics.Size{Width: 800, Height: 600})
	c := attached(t, eng, el)
	ctx := testContext(t)

	el.SetBoundingBox(graphics.Size{Width: 400, Height: 300})
	c.Resize()
	if err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := []string{"size", "resizeDrawing 390x290", "forceRedraw"}
	if diff := cmp.Diff(want, eng.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	wantSizes := []engine.Size{{W: 790, H: 590}, {W: 390, H: 290}}
	if diff := cmp.Diff(wantSizes, el.CanvasSizes()); diff != "" {
		t.Errorf("canvas sizes mismatch (-want +got):\n%s", diff)
	}

	// The same output size again is a no-op.
	c.Resize()
	c.Sync(ctx)
	if diff := cmp.Diff([]string{"size"}, eng.takeCalls()); diff != "" {
		t.Errorf("repeat resize calls mismatch (-want +got):\n%s", diff)
	}
	if got := len(el.CanvasSizes()); got != 2 {
		t.Errorf("SetCanvasSize called %d times, want 2", got)
	}
}

func TestAvailableSpace(t *testing.T) {
	tests := []struct {
		name   string
		box    graphics.Size
		chrome graphics.Size
		dpr    float64
		opts   []canvas.Option
		want   engine.Size
	}{
		{"whole box", graphics.Size{Width: 400, Height: 300}, graphics.Size{}, 1, nil, engine.Size{W: 400, H: 300}},
		{"chrome subtracted", graphics.Size{Width: 400, Height: 340}, graphics.Size{Height: 40}, 1, nil, engine.Size{W: 400, H: 300}},
		{"floored", graphics.Size{Width: 20, Height: 200}, graphics.Size{}, 1, nil, engine.Size{W: 64, H: 200}},
		{"custom floor", graphics.Size{Width: 20, Height: 20}, graphics.Size{}, 1, []canvas.Option{canvas.WithMinSize(32)}, engine.Size{W: 32, H: 32}},
		{"device pixels", graphics.Size{Width: 400, Height: 300}, graphics.Size{}, 2, nil, engine.Size{W: 800, H: 600}},
		{"max scale", graphics.Size{Width: 800, Height: 600}, graphics.Size{}, 1, []canvas.Option{canvas.WithMaxScale(2)}, engine.Size{W: 200, H: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			eng.preferred = engine.Size{W: 100, H: 50}
			el := puztest.NewFakeElement(tt.box)
			el.SetChrome(tt.chrome)
			el.SetDevicePixelRatio(tt.dpr)
			attached(t, eng, el, tt.opts...)

			eng.mu.Lock()
			limits := eng.limits
			eng.mu.Unlock()
			if len(limits) != 1 || limits[0] != tt.want {
				t.Errorf("Size offered %v, want [%v]", limits, tt.want)
			}
		})
	}
}

func TestCanvasCSSSize(t *testing.T) {
	eng := newFakeEngine()
	el := puztest.NewFakeElement(graphics.Size{Width: 200, Height: 100})
	el.SetDevicePixelRatio(2)
	attached(t, eng, el)

	if got := el.CanvasFootprint(); got != (graphics.Size{Width: 200, Height: 100}) {
		t.Errorf("CSS size = %v, want 200x100", got)
	}
	if got := el.CanvasSizes(); len(got) != 1 || got[0] != (engine.Size{W: 400, H: 200}) {
		t.Errorf("device sizes = %v, want [{400 200}]", got)
	}
}

func TestTriggersCoalesce(t *testing.T) {
	eng := newFakeEngine()
	el := puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200})
	c := attached(t, eng, el)
	ctx := testContext(t)

	gate := make(chan struct{})
	eng.mu.Lock()
	eng.gate = gate
	eng.entered = make(chan struct{}, 1)
	entered := eng.entered
	eng.mu.Unlock()

	c.Resize()
	<-entered
	// All of these land while the first pass is blocked.
	c.Resize()
	c.SchemeChanged()
	eng.notify(engine.ParamsChange{Params: "4x4"})
	eng.notify(engine.GameIDChange{CurrentGameID: "next"})
	close(gate)

	if err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := []string{
		"size",
		"getColourPalette", "setDrawingPalette", "size", "forceRedraw",
	}
	if diff := cmp.Diff(want, eng.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	eng.mu.Lock()
	overlap := eng.overlap
	eng.mu.Unlock()
	if overlap {
		t.Error("passes overlapped")
	}
	if got := c.GameID(); got != "next" {
		t.Errorf("GameID = %q", got)
	}
	if got := c.Params(); got != "4x4" {
		t.Errorf("Params = %q", got)
	}
}

func TestChangeTriggers(t *testing.T) {
	tests := []struct {
		name    string
		trigger func(c *canvas.Controller, eng *fakeEngine)
		want    []string
	}{
		{"game id", func(_ *canvas.Controller, eng *fakeEngine) {
			eng.notify(engine.GameIDChange{CurrentGameID: "new"})
		}, []string{"size", "redraw"}},
		{"params", func(_ *canvas.Controller, eng *fakeEngine) {
			eng.notify(engine.ParamsChange{Params: "5x5"})
		}, []string{"size", "redraw"}},
		{"status bar", func(_ *canvas.Controller, eng *fakeEngine) {
			eng.notify(engine.StatusBarChange{StatusBarText: "Moves: 1"})
		}, nil},
		{"scheme", func(c *canvas.Controller, _ *fakeEngine) { c.SchemeChanged() },
			[]string{"getColourPalette", "setDrawingPalette", "forceRedraw"}},
		{"font", func(c *canvas.Controller, _ *fakeEngine) { c.FontChanged() },
			[]string{"setDrawingFontInfo", "forceRedraw"}},
		{"redraw", func(c *canvas.Controller, _ *fakeEngine) { c.Redraw() }, []string{"redraw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			c := attached(t, eng, puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200}))
			tt.trigger(c, eng)
			c.Sync(testContext(t))
			if diff := cmp.Diff(tt.want, eng.takeCalls()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVisibilityRecovery(t *testing.T) {
	eng := newFakeEngine()
	c := attached(t, eng, puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200}))
	ctx := testContext(t)

	c.SetVisible(true)
	c.SetVisible(false)
	c.Sync(ctx)
	if got := eng.takeCalls(); len(got) != 0 {
		t.Errorf("calls before recovery = %v, want none", got)
	}

	c.SetVisible(true)
	c.Sync(ctx)
	if diff := cmp.Diff([]string{"forceRedraw"}, eng.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	c.SetVisible(true)
	c.Sync(ctx)
	if got := eng.takeCalls(); len(got) != 0 {
		t.Errorf("calls while visible = %v, want none", got)
	}
}

func TestSchemeChangePalette(t *testing.T) {
	eng := newFakeEngine()
	el := puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200})
	c := attached(t, eng, el)

	el.SetScheme(palette.Dark, "#1e1e1e")
	c.SchemeChanged()
	c.Sync(testContext(t))

	eng.mu.Lock()
	defaults := eng.defaults
	eng.mu.Unlock()
	if len(defaults) != 2 {
		t.Fatalf("palette requested %d times, want 2", len(defaults))
	}
	if got, want := defaults[1], (engine.Colour{1, 1, 1}); got != want {
		t.Errorf("dark default background = %v, want %v", got, want)
	}
	bgs := el.Backgrounds()
	if len(bgs) != 2 || bgs[0] == bgs[1] {
		t.Errorf("Backgrounds = %v, want a changed second entry", bgs)
	}
}

func TestEngineErrorsReported(t *testing.T) {
	eng := newFakeEngine()
	var (
		mu   sync.Mutex
		errs []*puzerrors.PuzzleError
	)
	c := attached(t, eng, puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200}),
		canvas.OnError(func(err *puzerrors.PuzzleError) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}))

	boom := stderrors.New("boom")
	eng.mu.Lock()
	eng.redrawErr = boom
	eng.mu.Unlock()
	c.Redraw()
	c.Sync(testContext(t))

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	err := errs[0]
	if err.Op != "canvas.redraw" || err.Kind != puzerrors.KindEngine || err.Engine != "fake" {
		t.Errorf("error = %+v", err)
	}
	if !stderrors.Is(err, boom) {
		t.Errorf("error does not wrap cause: %v", err)
	}
}

func TestTrackedState(t *testing.T) {
	eng := newFakeEngine()
	c := attached(t, eng, puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200}))

	var seen []string
	c.OnChange(func(n engine.ChangeNotification) { seen = append(seen, n.Type()) })

	state := engine.GameStateChange{Status: engine.StatusSolved, CurrentMove: 3, TotalMoves: 3, CanUndo: true}
	eng.notify(engine.StatusBarChange{StatusBarText: "COMPLETED!"})
	eng.notify(state)
	c.Sync(testContext(t))

	if got := c.StatusText(); got != "COMPLETED!" {
		t.Errorf("StatusText = %q", got)
	}
	got, ok := c.GameState()
	if !ok || got != state {
		t.Errorf("GameState = %+v, %v", got, ok)
	}
	want := []string{engine.TypeStatusBarChange, engine.TypeGameStateChange}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("forwarded mismatch (-want +got):\n%s", diff)
	}
}

func TestDetach(t *testing.T) {
	eng := newFakeEngine()
	c := attached(t, eng, puztest.NewFakeElement(graphics.Size{Width: 200, Height: 200}))
	ctx := testContext(t)

	if err := c.Detach(ctx); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	c.Resize()
	c.Redraw()
	c.Sync(ctx)
	if diff := cmp.Diff([]string{"detachCanvas"}, eng.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	// Attaching again runs a fresh full pass.
	if err := c.Attach(ctx); err != nil {
		t.Fatalf("re-Attach: %v", err)
	}
	calls := eng.takeCalls()
	if len(calls) == 0 || calls[len(calls)-1] != "forceRedraw" {
		t.Errorf("re-attach calls = %v, want a full pass", calls)
	}
}
