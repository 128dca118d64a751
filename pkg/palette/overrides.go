package palette

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Override replaces the default dark scheme mapping for one entry. At most
// one of the fields should be set; Skip wins, then Colour, then Scale.
type Override struct {
	// Skip leaves the native colour unchanged.
	Skip bool `yaml:"skip,omitempty" json:"skip,omitempty"`
	// Colour is a fixed "#rrggbb" replacement.
	Colour string `yaml:"colour,omitempty" json:"colour,omitempty"`
	// Scale multiplies the native lightness.
	Scale float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

func (o Override) apply(v lch) (lch, error) {
	switch {
	case o.Skip:
		return v, nil
	case o.Colour != "":
		c, err := colorful.Hex(o.Colour)
		if err != nil {
			return v, err
		}
		return toLCH(c), nil
	case o.Scale != 0:
		v.l = math.Max(0, math.Min(1, v.l*o.Scale))
		return v, nil
	}
	return v, errors.New("empty override")
}

// Overrides is the per puzzle type palette metadata.
type Overrides struct {
	Entries map[int]Override `yaml:"entries,omitempty" json:"entries,omitempty"`
	// Swaps exchange pairs of entries after the per-entry mapping. Used for
	// bevel highlight and shadow pairs.
	Swaps [][2]int `yaml:"swaps,omitempty" json:"swaps,omitempty"`
	// BackgroundIndex selects the entry used as the element background.
	BackgroundIndex int `yaml:"background,omitempty" json:"background,omitempty"`
}

// Table maps puzzle type names to their overrides.
type Table map[string]Overrides

// Lookup returns the overrides for puzzle, or none.
func (t Table) Lookup(puzzle string) Overrides {
	return t[puzzle]
}

//go:embed overrides.yaml
var defaultTableYAML []byte

// DefaultTable returns the built-in override table.
func DefaultTable() Table {
	t, err := parseTable(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("palette: built-in table: %v", err))
	}
	return t
}

// LoadTable decodes a YAML override table.
func LoadTable(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseTable(data)
}

// LoadTableOptional reads the table at path, returning the built-in table
// when the file does not exist. Entries in the file replace built-in ones.
func LoadTableOptional(path string) (Table, error) {
	t := DefaultTable()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	extra, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for k, v := range extra {
		t[k] = v
	}
	return t, nil
}

func parseTable(data []byte) (Table, error) {
	t := Table{}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	for name, ov := range t {
		for i, o := range ov.Entries {
			if o.Colour != "" {
				if _, err := colorful.Hex(o.Colour); err != nil {
					return nil, fmt.Errorf("%s entry %d: %w", name, i, err)
				}
			}
		}
		if ov.BackgroundIndex < 0 {
			return nil, fmt.Errorf("%s: negative background index", name)
		}
	}
	return t, nil
}
