package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/puzzles/cmd/puzzlehost/internal/headless"
	"github.com/go-drift/puzzles/pkg/canvas"
	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/errors"
	"github.com/go-drift/puzzles/pkg/graphics"
	"github.com/go-drift/puzzles/pkg/host"
	"github.com/go-drift/puzzles/pkg/palette"
)

var renderFlags struct {
	out   string
	id    string
	keys  []int
	trace bool
}

// renderFont is a font file loaded for the render, checked once up front.
type renderFont struct {
	path string
	data []byte
}

// rendered is what one scheme's render produced.
type rendered struct {
	size  engine.Size
	trace []drawing.Command
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Draw a game to a PNG file",
	Long: `Start a game, optionally apply key presses, and write the canvas to a
PNG file. With --scheme both the schemes render concurrently, each to a
file named after --out with a -light or -dark suffix. --trace prints
every drawing call the engine made, one JSON object per line.

Examples:
  puzzlehost render --id 3x3:110100000 --out board.png
  puzzlehost render --scheme both --keys 522,525
  puzzlehost render --font DejaVuSans.ttf --trace`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.out, "out", "o", "frame.png", "output file")
	f.StringVar(&renderFlags.id, "id", "", "game id or random seed to start from")
	f.IntSliceVar(&renderFlags.keys, "keys", nil, "button codes to send before drawing")
	f.BoolVar(&renderFlags.trace, "trace", false, "print the drawing calls as JSON lines")
	f.Float64("width", 400, "element width in CSS pixels")
	f.Float64("height", 300, "element height in CSS pixels")
	f.Float64("dpr", 1, "device pixel ratio")
	f.Float64("max-scale", 0, "cap the canvas at this multiple of the preferred size")
	f.String("scheme", "light", "light, dark or both")
	f.String("overrides", "", "YAML palette override table")
	f.String("font", "", "TrueType or OpenType file for variable pitch text")
}

func runRender(cmd *cobra.Command, _ []string) error {
	schemes, err := cfg.Schemes()
	if err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}
	font, err := loadFont(cfg.Font)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	results := make([]rendered, len(schemes))
	paths := make([]string, len(schemes))
	for i, scheme := range schemes {
		paths[i] = renderFlags.out
		if len(schemes) > 1 {
			paths[i] = schemePath(paths[i], scheme)
		}
		g.Go(func() error {
			res, err := renderScheme(ctx, scheme, table, font, paths[i])
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for i, path := range paths {
		fmt.Fprintf(out, "%s: %dx%d\n", path, results[i].size.W, results[i].size.H)
		for _, c := range results[i].trace {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadFont reads and describes the font at path. An empty path means the
// built-in faces only.
func loadFont(path string) (*renderFont, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := drawing.DescribeFont(data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	logger.Debug("font loaded", zap.String("file", path), zap.String("family", info.Family))
	return &renderFont{path: path, data: data}, nil
}

// schemePath inserts "-<scheme>" before the extension of path.
func schemePath(path string, scheme palette.Scheme) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + scheme.String() + ext
}

// renderScheme draws one game into path and returns the canvas size, along
// with the drawing calls when tracing.
func renderScheme(ctx context.Context, scheme palette.Scheme, table palette.Table, font *renderFont, path string) (rendered, error) {
	var (
		rec  *drawing.Recorder
		opts []host.Option
	)
	if renderFlags.trace {
		rec = &drawing.Recorder{}
		opts = append(opts, host.WithDrawingTap(rec))
	}
	h, err := newEngine(ctx, opts...)
	if err != nil {
		return rendered{}, err
	}
	defer destroy(h)

	if renderFlags.id != "" {
		err = h.NewGameFromID(ctx, renderFlags.id)
	} else {
		err = h.NewGame(ctx)
	}
	if err != nil {
		return rendered{}, err
	}

	el := headless.New(graphics.Size{Width: cfg.Width, Height: cfg.Height}, cfg.DPR, scheme, cfg.Background(scheme))
	if font != nil {
		info, err := h.RegisterFont(ctx, font.data)
		if err != nil {
			return rendered{}, fmt.Errorf("register %s: %w", font.path, err)
		}
		el.SetFont(info)
	}
	var (
		mu     sync.Mutex
		failed error
	)
	c := canvas.New(h, el,
		canvas.WithPaletteTable(table),
		canvas.WithMaxScale(cfg.MaxScale),
		canvas.OnError(func(err *errors.PuzzleError) {
			errors.Report(err)
			mu.Lock()
			if failed == nil {
				failed = err
			}
			mu.Unlock()
		}),
	)
	defer c.Close(context.Background())
	if err := c.Attach(ctx); err != nil {
		return rendered{}, err
	}
	for _, key := range renderFlags.keys {
		c.HandleKey(key)
	}
	c.Redraw()
	if err := c.Sync(ctx); err != nil {
		return rendered{}, err
	}
	mu.Lock()
	err = failed
	mu.Unlock()
	if err != nil {
		return rendered{}, err
	}

	file, err := os.Create(path)
	if err != nil {
		return rendered{}, err
	}
	if err := el.Surface().WritePNG(file); err != nil {
		file.Close()
		return rendered{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return rendered{}, err
	}
	size := c.CanvasSize()
	logger.Info("rendered",
		zap.String("puzzle", h.PuzzleType()),
		zap.Stringer("scheme", scheme),
		zap.String("file", path),
		zap.Int("width", size.W),
		zap.Int("height", size.H),
		zap.String("background", el.Background()),
		zap.String("font", el.FontInfo().Family),
	)
	res := rendered{size: size}
	if rec != nil {
		res.trace = rec.Commands()
	}
	return res, nil
}
