// Package palette derives display palettes from an engine's native colours,
// adapting them to the surrounding UI's colour scheme in OKLCH space.
package palette

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/go-drift/puzzles/pkg/engine"
)

// Scheme is the UI colour scheme.
type Scheme int

const (
	Light Scheme = iota
	Dark
)

func (s Scheme) String() string {
	if s == Dark {
		return "dark"
	}
	return "light"
}

// ParseScheme accepts "light" or "dark".
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "light", "":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, fmt.Errorf("unknown colour scheme %q", s)
}

const (
	// grayChroma is the chroma below which an entry counts as neutral.
	grayChroma = 0.03

	chromaBoost       = 1.2
	chromaCeiling     = 0.32
	chromaCeilingHigh = 0.07
	ceilingKnee       = 0.6
)

// Result is a display palette.
type Result struct {
	// Colours are "#rrggbb" strings in engine index order.
	Colours []string `json:"colours"`
	// Background is the entry the host element should use behind the canvas.
	Background string `json:"background"`
}

type lch struct{ l, c, h float64 }

func toLCH(c colorful.Color) lch {
	l, ch, h := c.OkLch()
	return lch{l, ch, h}
}

func (v lch) hex() string {
	return colorful.OkLch(v.l, v.c, v.h).Clamped().Hex()
}

func parseBackground(uiBg string) (lch, error) {
	c, err := colorful.Hex(uiBg)
	if err != nil {
		return lch{}, fmt.Errorf("background %q: %w", uiBg, err)
	}
	return toLCH(c), nil
}

// DefaultBackground is the colour the engine should derive its native
// palette from. Dark schemes start from white; light schemes from a neutral
// gray matching the UI background's lightness.
func DefaultBackground(uiBg string, scheme Scheme) (engine.Colour, error) {
	if scheme == Dark {
		return engine.Colour{1, 1, 1}, nil
	}
	bg, err := parseBackground(uiBg)
	if err != nil {
		return engine.Colour{}, err
	}
	g := colorful.OkLch(bg.l, 0, 0).Clamped()
	return engine.Colour{float32(g.R), float32(g.G), float32(g.B)}, nil
}

type entry struct {
	v          lch
	gray       bool
	overridden bool
}

// Transform maps a native palette to display colours. It is a pure function
// of its arguments.
func Transform(native []engine.Colour, uiBg string, scheme Scheme, ov Overrides) (Result, error) {
	bg, err := parseBackground(uiBg)
	if err != nil {
		return Result{}, err
	}

	entries := make([]entry, len(native))
	for i, n := range native {
		v := toLCH(colorful.Color{R: float64(n[0]), G: float64(n[1]), B: float64(n[2])})
		entries[i] = entry{v: v, gray: v.c < grayChroma}
	}

	if scheme == Dark {
		for i := range entries {
			e := &entries[i]
			if o, ok := ov.Entries[i]; ok {
				v, err := o.apply(e.v)
				if err != nil {
					return Result{}, fmt.Errorf("override for entry %d: %w", i, err)
				}
				e.v = v
				e.overridden = true
				continue
			}
			e.v = darken(e.v, e.gray, bg.l)
		}
		for _, s := range ov.Swaps {
			a, b := s[0], s[1]
			if a < 0 || b < 0 || a >= len(entries) || b >= len(entries) {
				continue
			}
			entries[a], entries[b] = entries[b], entries[a]
		}
	}

	if bg.c >= grayChroma && bg.l > 0 {
		for i := range entries {
			e := &entries[i]
			if !e.gray || e.overridden {
				continue
			}
			e.v.h = bg.h
			e.v.c = math.Min(bg.c*e.v.l/bg.l, ceiling(e.v.l))
		}
	}

	res := Result{Colours: make([]string, len(entries))}
	for i, e := range entries {
		res.Colours[i] = e.v.hex()
	}
	if ov.BackgroundIndex >= 0 && ov.BackgroundIndex < len(res.Colours) {
		res.Background = res.Colours[ov.BackgroundIndex]
	} else if len(res.Colours) > 0 {
		res.Background = res.Colours[0]
	}
	return res, nil
}

// darken is the default dark scheme mapping. Grays invert into [bgL, 1];
// chromatic entries are lifted into the upper range with a chroma boost.
func darken(v lch, gray bool, bgL float64) lch {
	if gray {
		v.l = bgL + (1-v.l)*(1-bgL)
		return v
	}
	v.l = bgL + (1-bgL)*(0.35+0.5*v.l)
	v.c = math.Min(v.c*chromaBoost, ceiling(v.l))
	return v
}

// ceiling is the chroma limit at lightness l. It falls off above the knee
// so light colours do not glare against a dark background.
func ceiling(l float64) float64 {
	if l <= ceilingKnee {
		return chromaCeiling
	}
	t := math.Min((l-ceilingKnee)/(1-ceilingKnee), 1)
	return chromaCeiling + (chromaCeilingHigh-chromaCeiling)*t
}
