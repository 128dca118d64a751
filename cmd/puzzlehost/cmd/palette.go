package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/go-drift/puzzles/pkg/engine"
	"github.com/go-drift/puzzles/pkg/palette"
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Print a puzzle's display palette",
	Long: `Ask the engine for its native palette and print it next to the
palette the canvas would install for the chosen scheme and background.`,
	Args: cobra.NoArgs,
	RunE: runPalette,
}

func init() {
	f := paletteCmd.Flags()
	f.String("scheme", "", "light or dark (default from config)")
	f.String("background", "", "UI background colour (default from config)")
	f.String("overrides", "", "YAML palette override table")
}

func runPalette(cmd *cobra.Command, _ []string) error {
	scheme, err := palette.ParseScheme(cfg.Scheme)
	if err != nil {
		return err
	}
	bg := cfg.Background(scheme)
	if flag := cmd.Flags().Lookup("background"); flag != nil && flag.Changed {
		bg = flag.Value.String()
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	h, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer destroy(h)
	if err := h.NewGame(ctx); err != nil {
		return err
	}

	def, err := palette.DefaultBackground(bg, scheme)
	if err != nil {
		return err
	}
	native, err := h.GetColourPalette(ctx, def)
	if err != nil {
		return err
	}
	res, err := palette.Transform(native, bg, scheme, table.Lookup(h.PuzzleType()))
	if err != nil {
		return err
	}
	printPalette(cmd.OutOrStdout(), native, res)
	return nil
}

func printPalette(w io.Writer, native []engine.Colour, res palette.Result) {
	fmt.Fprintf(w, "%-5s  %-7s  %-7s\n", "index", "native", "display")
	for i, c := range native {
		display := ""
		if i < len(res.Colours) {
			display = res.Colours[i]
		}
		fmt.Fprintf(w, "%5d  %s  %s\n", i, hexColour(c), display)
	}
	fmt.Fprintf(w, "background %s\n", res.Background)
}

func hexColour(c engine.Colour) string {
	byteOf := func(v float32) int {
		return int(min(max(v, 0), 1)*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", byteOf(c[0]), byteOf(c[1]), byteOf(c[2]))
}
