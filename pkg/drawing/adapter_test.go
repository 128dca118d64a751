package drawing

import (
	"bytes"
	stderrors "errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/go-drift/puzzles/pkg/engine"
	puzerrors "github.com/go-drift/puzzles/pkg/errors"
)

var (
	red         = color.RGBA{R: 255, A: 255}
	blue        = color.RGBA{B: 255, A: 255}
	transparent = color.RGBA{}
)

func newTestAdapter(t *testing.T, w, h int) (*Adapter, *ImageSurface) {
	t.Helper()
	surface := NewImageSurface()
	a, err := NewAdapter(surface, FontInfo{})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	if err := a.Resize(engine.Size{W: w, H: h}, 1); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := a.SetPalette([]string{"#ffffff", "#ff0000", "#0000ff"}); err != nil {
		t.Fatalf("SetPalette: %v", err)
	}
	return a, surface
}

func expectContract(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected contract panic", name)
		}
		err, ok := r.(error)
		var ce *puzerrors.ContractError
		if !ok || !stderrors.As(err, &ce) {
			t.Fatalf("%s: panic value %v is not a ContractError", name, r)
		}
	}()
	fn()
}

func pixel(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestAdapterDrawRect(t *testing.T) {
	a, surface := newTestAdapter(t, 16, 16)
	a.StartDraw()
	a.DrawRect(engine.Rect{X: 2, Y: 2, W: 4, H: 4}, 1)
	a.DrawUpdate(engine.Rect{X: 2, Y: 2, W: 4, H: 4})
	a.EndDraw()

	frame := surface.Frame()
	if frame == nil {
		t.Fatal("expected a presented frame")
	}
	if got := pixel(frame, 3, 3); got != red {
		t.Errorf("pixel(3,3) = %v, want %v", got, red)
	}
	if got := pixel(frame, 10, 10); got != transparent {
		t.Errorf("pixel(10,10) = %v, want transparent", got)
	}
	if got, want := surface.Dirty(), image.Rect(2, 2, 6, 6); got != want {
		t.Errorf("dirty = %v, want %v", got, want)
	}
}

func TestAdapterDirtyDefaultsToFrame(t *testing.T) {
	a, surface := newTestAdapter(t, 8, 6)
	a.StartDraw()
	a.DrawRect(engine.Rect{W: 8, H: 6}, 0)
	a.EndDraw()
	if got, want := surface.Dirty(), image.Rect(0, 0, 8, 6); got != want {
		t.Errorf("dirty = %v, want %v", got, want)
	}
}

func TestAdapterBlitterRoundTrip(t *testing.T) {
	a, surface := newTestAdapter(t, 32, 32)
	a.StartDraw()
	a.DrawRect(engine.Rect{W: 32, H: 32}, 2)
	a.DrawRect(engine.Rect{X: 4, Y: 4, W: 4, H: 4}, 1)
	bl := a.BlitterNew(engine.Size{W: 4, H: 4})
	a.BlitterSave(bl, engine.Point{X: 4, Y: 4})
	a.DrawRect(engine.Rect{W: 32, H: 32}, 2)
	a.BlitterLoad(bl, engine.Point{X: 20, Y: 20})
	a.EndDraw()

	frame := surface.Frame()
	if got := pixel(frame, 21, 21); got != red {
		t.Errorf("loaded pixel = %v, want %v", got, red)
	}
	if got := pixel(frame, 5, 5); got != blue {
		t.Errorf("overdrawn pixel = %v, want %v", got, blue)
	}

	a.StartDraw()
	a.BlitterLoad(bl, engine.Point{X: engine.BlitterFromSaved, Y: engine.BlitterFromSaved})
	a.EndDraw()
	if got := pixel(surface.Frame(), 5, 5); got != red {
		t.Errorf("pixel restored at saved origin = %v, want %v", got, red)
	}

	a.BlitterFree(bl)
	a.BlitterFree(bl)
	if a.Blitters() != 0 {
		t.Errorf("Blitters() = %d after free, want 0", a.Blitters())
	}
}

func TestAdapterBlitterLoadReplacesPixels(t *testing.T) {
	a, surface := newTestAdapter(t, 16, 16)

	// Saved before anything is drawn, so the whole store is transparent.
	empty := a.BlitterNew(engine.Size{W: 4, H: 4})
	a.StartDraw()
	a.BlitterSave(empty, engine.Point{})
	a.DrawRect(engine.Rect{W: 16, H: 16}, 1)
	a.BlitterLoad(empty, engine.Point{X: engine.BlitterFromSaved, Y: engine.BlitterFromSaved})
	a.EndDraw()

	frame := surface.Frame()
	if got := pixel(frame, 1, 1); got != transparent {
		t.Errorf("pixel(1,1) after load = %v, want transparent", got)
	}
	if got := pixel(frame, 6, 6); got != red {
		t.Errorf("pixel(6,6) = %v, want %v", got, red)
	}

	// Saved half outside the canvas: the outside part comes back transparent.
	edge := a.BlitterNew(engine.Size{W: 4, H: 4})
	a.StartDraw()
	a.BlitterSave(edge, engine.Point{X: 14, Y: 14})
	a.DrawRect(engine.Rect{W: 16, H: 16}, 2)
	a.BlitterLoad(edge, engine.Point{})
	a.EndDraw()

	frame = surface.Frame()
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, red},
		{1, 1, red},
		{2, 2, transparent},
		{3, 0, transparent},
		{8, 8, blue},
	}
	for _, tt := range tests {
		if got := pixel(frame, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestAdapterDetachKeepsBuffer(t *testing.T) {
	a, first := newTestAdapter(t, 8, 8)
	a.StartDraw()
	a.DrawRect(engine.Rect{W: 4, H: 4}, 1)
	a.EndDraw()

	a.Detach()
	a.StartDraw()
	a.DrawRect(engine.Rect{X: 4, Y: 4, W: 4, H: 4}, 2)
	a.EndDraw()
	if first.Presents() != 1 {
		t.Errorf("detached adapter presented %d frames, want 1", first.Presents())
	}

	second := NewImageSurface()
	a.Attach(second)
	a.StartDraw()
	a.EndDraw()
	frame := second.Frame()
	if got := pixel(frame, 1, 1); got != red {
		t.Errorf("pixel drawn before detach = %v, want %v", got, red)
	}
	if got := pixel(frame, 5, 5); got != blue {
		t.Errorf("pixel drawn while detached = %v, want %v", got, blue)
	}
}

func TestAdapterContracts(t *testing.T) {
	fresh, err := NewAdapter(nil, DefaultFontInfo)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	defer fresh.Close()
	expectContract(t, "draw before resize", func() { fresh.DrawRect(engine.Rect{W: 1, H: 1}, 0) })

	a, _ := newTestAdapter(t, 4, 4)
	expectContract(t, "colour out of range", func() { a.DrawRect(engine.Rect{W: 1, H: 1}, 7) })
	expectContract(t, "end without start", func() { a.EndDraw() })
	expectContract(t, "unknown blitter", func() { a.BlitterSave(99, engine.Point{}) })
	a.StartDraw()
	expectContract(t, "nested start", func() { a.StartDraw() })
}

type capturingHandler struct {
	errs []*puzerrors.PuzzleError
}

func (h *capturingHandler) HandleError(err *puzerrors.PuzzleError) { h.errs = append(h.errs, err) }
func (h *capturingHandler) HandlePanic(*puzerrors.PanicError)      {}

func TestAdapterReportsPaintErrors(t *testing.T) {
	prev := puzerrors.Handler()
	h := &capturingHandler{}
	puzerrors.SetHandler(h)
	t.Cleanup(func() { puzerrors.SetHandler(prev) })

	a, _ := newTestAdapter(t, 4, 4)
	fail := stderrors.New("rasterizer failed")
	a.paint("drawing.DrawRect", nil)
	a.paint("drawing.DrawRect", fail)

	if len(h.errs) != 1 {
		t.Fatalf("reported %d errors, want 1", len(h.errs))
	}
	got := h.errs[0]
	if got.Op != "drawing.DrawRect" || got.Kind != puzerrors.KindDrawing {
		t.Errorf("reported %s [%s], want drawing.DrawRect [%s]", got.Op, got.Kind, puzerrors.KindDrawing)
	}
	if !stderrors.Is(got, fail) {
		t.Errorf("reported error %v does not wrap %v", got, fail)
	}
}

func TestAdapterShapesReportNothing(t *testing.T) {
	prev := puzerrors.Handler()
	h := &capturingHandler{}
	puzerrors.SetHandler(h)
	t.Cleanup(func() { puzerrors.SetHandler(prev) })

	a, _ := newTestAdapter(t, 16, 16)
	a.StartDraw()
	a.DrawRect(engine.Rect{W: 8, H: 8}, 1)
	a.DrawLine(engine.Point{}, engine.Point{X: 15, Y: 15}, 2, 1)
	a.DrawLine(engine.Point{}, engine.Point{X: 15}, 2, 3)
	a.DrawPolygon([]engine.Point{{X: 1, Y: 1}, {X: 10, Y: 1}, {X: 5, Y: 10}}, 1, 2)
	a.DrawCircle(engine.Point{X: 8, Y: 8}, 4, -1, 0)
	a.EndDraw()
	if len(h.errs) != 0 {
		t.Errorf("reported %d errors drawing valid shapes, first: %v", len(h.errs), h.errs[0])
	}
}

func TestAdapterResizeRejectsEmpty(t *testing.T) {
	a, _ := newTestAdapter(t, 4, 4)
	if err := a.Resize(engine.Size{W: 0, H: 4}, 1); !stderrors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(0x4) error = %v, want ErrInvalidSize", err)
	}
	if got := a.Size(); got != (engine.Size{W: 4, H: 4}) {
		t.Errorf("Size() = %v after rejected resize, want 4x4", got)
	}
}

func TestAdapterSetPaletteRejectsNonHex(t *testing.T) {
	a, _ := newTestAdapter(t, 4, 4)
	if err := a.SetPalette([]string{"red"}); err == nil {
		t.Error("expected error for non-hex palette entry")
	}
}

func TestAdapterTextFallback(t *testing.T) {
	a, _ := newTestAdapter(t, 4, 4)
	tests := []struct {
		candidates []string
		want       string
	}{
		{[]string{"abc", "x"}, "abc"},
		{[]string{"中", "x"}, "x"},
		{[]string{"中"}, "中"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := a.TextFallback(tt.candidates); got != tt.want {
			t.Errorf("TextFallback(%q) = %q, want %q", tt.candidates, got, tt.want)
		}
	}
}

func TestAdapterDrawTextMarksPixels(t *testing.T) {
	a, surface := newTestAdapter(t, 64, 32)
	a.StartDraw()
	opts := engine.DefaultTextOptions()
	opts.Size = 20
	opts.Align = engine.AlignCenter
	opts.Baseline = engine.BaselineMathematical
	a.DrawText(engine.Point{X: 32, Y: 16}, opts, 1, "88")
	a.EndDraw()

	frame := surface.Frame()
	inked := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if frame.RGBAAt(x, y).A > 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("text drew no pixels")
	}
}

func TestImageSurfaceWritePNG(t *testing.T) {
	s := NewImageSurface()
	var buf bytes.Buffer
	if err := s.WritePNG(&buf); !stderrors.Is(err, ErrNoFrame) {
		t.Fatalf("WritePNG on empty surface = %v, want ErrNoFrame", err)
	}
	s.Present(image.NewRGBA(image.Rect(0, 0, 2, 2)), image.Rect(0, 0, 2, 2))
	if err := s.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestDescribeFont(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want FontInfo
	}{
		{"regular", goregular.TTF, FontInfo{Family: "Go", Weight: WeightNormal, Style: "normal"}},
		{"bold", gobold.TTF, FontInfo{Family: "Go", Weight: WeightBold, Style: "normal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DescribeFont(tt.data)
			if err != nil {
				t.Fatalf("DescribeFont: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DescribeFont mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if _, err := DescribeFont([]byte("not a font")); err == nil {
		t.Error("expected error for invalid font data")
	}
}

func TestRegisterFontSelectsFamily(t *testing.T) {
	a, _ := newTestAdapter(t, 4, 4)
	info, err := a.RegisterFont(gobold.TTF)
	if err != nil {
		t.Fatalf("RegisterFont: %v", err)
	}
	a.SetFontInfo(info)
	if got := a.FontInfo(); got.Weight != WeightBold {
		t.Errorf("FontInfo().Weight = %d, want %d", got.Weight, WeightBold)
	}
}
