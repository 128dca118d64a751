package drawing

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-text/typesetting/font"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/go-drift/puzzles/pkg/engine"
)

// Font weights.
const (
	WeightNormal = 400
	WeightBold   = 700
)

// FontInfo describes the host element's font. It is captured once when a
// canvas is attached and exchanged with SetFontInfo afterwards.
type FontInfo struct {
	Family string `json:"family"`
	Weight int    `json:"weight"`
	// Style is "normal" or "italic".
	Style string `json:"style"`
}

// DefaultFontInfo is used when the host provides no font.
var DefaultFontInfo = FontInfo{Family: "Go", Weight: WeightNormal, Style: "normal"}

// ErrUnsuitableFont indicates font data that lacks the glyphs puzzles draw.
var ErrUnsuitableFont = errors.New("font does not cover digits and latin letters")

// DescribeFont reads the family, weight and style from TrueType or OpenType
// font data and checks it can render digits and latin capitals.
func DescribeFont(data []byte) (FontInfo, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return FontInfo{}, fmt.Errorf("parse font: %w", err)
	}
	family, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return FontInfo{}, fmt.Errorf("font family: %w", err)
	}
	sub, _ := f.Name(nil, sfnt.NameIDSubfamily)

	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return FontInfo{}, fmt.Errorf("parse font: %w", err)
	}
	for _, r := range "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		if _, ok := face.Font.NominalGlyph(r); !ok {
			return FontInfo{}, fmt.Errorf("%w: %s has no %q", ErrUnsuitableFont, family, r)
		}
	}

	info := FontInfo{Family: family, Weight: WeightNormal, Style: "normal"}
	lower := strings.ToLower(sub)
	if strings.Contains(lower, "bold") {
		info.Weight = WeightBold
	}
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		info.Style = "italic"
	}
	return info, nil
}

type faceKey struct {
	source *text.FontSource
	size   float64
}

// fontSet resolves draw text options to gg faces. The Go fonts are always
// available; additional families can be registered from font data.
type fontSet struct {
	builtin map[string]*text.FontSource
	custom  map[string]map[string]*text.FontSource
	faces   map[faceKey]text.Face
}

func newFontSet() (*fontSet, error) {
	fs := &fontSet{
		builtin: make(map[string]*text.FontSource),
		custom:  make(map[string]map[string]*text.FontSource),
		faces:   make(map[faceKey]text.Face),
	}
	for name, data := range map[string][]byte{
		"regular":     goregular.TTF,
		"bold":        gobold.TTF,
		"italic":      goitalic.TTF,
		"bold-italic": gobolditalic.TTF,
		"mono":        gomono.TTF,
		"mono-bold":   gomonobold.TTF,
	} {
		src, err := text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("load built-in font %s: %w", name, err)
		}
		fs.builtin[name] = src
	}
	return fs, nil
}

// register adds font data under the family it declares.
func (fs *fontSet) register(data []byte) (FontInfo, error) {
	info, err := DescribeFont(data)
	if err != nil {
		return FontInfo{}, err
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return FontInfo{}, err
	}
	key := strings.ToLower(info.Family)
	if fs.custom[key] == nil {
		fs.custom[key] = make(map[string]*text.FontSource)
	}
	fs.custom[key][variantName(info)] = src
	return info, nil
}

func variantName(info FontInfo) string {
	bold := info.Weight >= 600
	italic := info.Style == "italic"
	switch {
	case bold && italic:
		return "bold-italic"
	case bold:
		return "bold"
	case italic:
		return "italic"
	default:
		return "regular"
	}
}

func (fs *fontSet) source(ft engine.FontType, info FontInfo) *text.FontSource {
	if ft == engine.FontFixed {
		if info.Weight >= 600 {
			return fs.builtin["mono-bold"]
		}
		return fs.builtin["mono"]
	}
	variant := variantName(info)
	if family, ok := fs.custom[strings.ToLower(info.Family)]; ok {
		if src, ok := family[variant]; ok {
			return src
		}
		if src, ok := family["regular"]; ok {
			return src
		}
	}
	return fs.builtin[variant]
}

func (fs *fontSet) face(ft engine.FontType, size float64, info FontInfo) text.Face {
	key := faceKey{source: fs.source(ft, info), size: size}
	if f, ok := fs.faces[key]; ok {
		return f
	}
	f := key.source.Face(size)
	fs.faces[key] = f
	return f
}

func (fs *fontSet) close() {
	for _, src := range fs.builtin {
		_ = src.Close()
	}
	for _, family := range fs.custom {
		for _, src := range family {
			_ = src.Close()
		}
	}
	fs.faces = nil
}
