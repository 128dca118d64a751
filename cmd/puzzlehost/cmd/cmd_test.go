package cmd

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/go-drift/puzzles/pkg/drawing"
	"github.com/go-drift/puzzles/pkg/palette"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI in a scratch directory with no config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PUZZLEHOST_CONFIG", "")
	t.Chdir(t.TempDir())
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, "stub\tv") {
		t.Errorf("list output = %q", out)
	}
}

func TestRoundtrip(t *testing.T) {
	out, err := execute(t, "roundtrip", "--id", "3x3:110100000", "--keys", "522,525")
	if err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if !strings.HasPrefix(out, "ok: ") {
		t.Errorf("roundtrip output = %q", out)
	}
}

func TestRoundtripUnknownPuzzle(t *testing.T) {
	if _, err := execute(t, "roundtrip", "--puzzle", "nonesuch"); err == nil {
		t.Error("roundtrip succeeded for an unregistered puzzle")
	}
}

func TestRenderBothSchemes(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "board.png")
	stdout, err := execute(t, "render", "--scheme", "both", "--id", "3x3:000000000", "--out", out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range []string{"board-light.png", "board-dark.png"} {
		path := filepath.Join(dir, name)
		if !strings.Contains(stdout, path+": 128x128") {
			t.Errorf("output %q does not report %s", stdout, name)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
			t.Errorf("%s bounds = %v, want 128x128", name, b)
		}
	}
}

func TestRenderFont(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "mono.ttf")
	bad := filepath.Join(dir, "bad.ttf")
	if err := os.WriteFile(good, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		font    string
		wantErr bool
	}{
		{"registered", good, false},
		{"invalid", bad, true},
		{"missing", filepath.Join(dir, "none.ttf"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".png")
			_, err := execute(t, "render", "--font", tt.font, "--out", out)
			if gotErr := err != nil; gotErr != tt.wantErr {
				t.Fatalf("render --font %s error = %v, wantErr %v", tt.font, err, tt.wantErr)
			}
			if _, statErr := os.Stat(out); (statErr == nil) == tt.wantErr {
				t.Errorf("output written = %v, want %v", statErr == nil, !tt.wantErr)
			}
		})
	}
}

func TestRenderTrace(t *testing.T) {
	out := filepath.Join(t.TempDir(), "board.png")
	stdout, err := execute(t, "render", "--trace", "--id", "3x3:110100000", "--out", out)
	if err != nil {
		t.Fatalf("render --trace: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) < 3 {
		t.Fatalf("render --trace printed %d lines, want size plus a session:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], out+": ") {
		t.Errorf("first line = %q, want the size report", lines[0])
	}
	var ops []drawing.Op
	for _, line := range lines[1:] {
		var c drawing.Command
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			t.Fatalf("trace line %q: %v", line, err)
		}
		ops = append(ops, c.Op)
	}
	if ops[0] != drawing.OpStartDraw || ops[len(ops)-1] != drawing.OpEndDraw {
		t.Errorf("trace runs %s..%s, want startDraw..endDraw", ops[0], ops[len(ops)-1])
	}
}

func TestPalette(t *testing.T) {
	out, err := execute(t, "palette", "--scheme", "dark", "--background", "#1e1e1e")
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header, one line per stub colour, background.
	if len(lines) != 7 {
		t.Fatalf("palette printed %d lines, want 7:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[len(lines)-1], "background #") {
		t.Errorf("last line = %q", lines[len(lines)-1])
	}
}

func TestSchemePath(t *testing.T) {
	tests := []struct {
		path   string
		scheme string
		want   string
	}{
		{"frame.png", "light", "frame-light.png"},
		{"out/board.png", "dark", "out/board-dark.png"},
		{"noext", "dark", "noext-dark"},
	}
	for _, tt := range tests {
		s, _ := palette.ParseScheme(tt.scheme)
		if got := schemePath(tt.path, s); got != tt.want {
			t.Errorf("schemePath(%q, %s) = %q, want %q", tt.path, tt.scheme, got, tt.want)
		}
	}
}
