// Package config loads puzzlehost settings from defaults, an optional
// puzzlehost.yaml, PUZZLEHOST_ environment variables and command flags, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-drift/puzzles/pkg/animation"
	"github.com/go-drift/puzzles/pkg/palette"
)

// FileName is the config file searched for in the working directory and
// in $HOME/.config/puzzlehost.
const FileName = "puzzlehost.yaml"

// Config holds the resolved settings.
type Config struct {
	Puzzle string  `mapstructure:"puzzle"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	DPR    float64 `mapstructure:"dpr"`

	// Scheme is "light", "dark" or "both".
	Scheme          string `mapstructure:"scheme"`
	LightBackground string `mapstructure:"light_background"`
	DarkBackground  string `mapstructure:"dark_background"`
	// Overrides is an optional YAML palette override table replacing the
	// built-in one.
	Overrides string `mapstructure:"overrides"`
	// Font is an optional TrueType or OpenType file used for variable
	// pitch text instead of Go Regular.
	Font string `mapstructure:"font"`

	MaxScale      float64       `mapstructure:"max_scale"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("puzzle", "stub")
	v.SetDefault("width", 400)
	v.SetDefault("height", 300)
	v.SetDefault("dpr", 1)
	v.SetDefault("scheme", "light")
	v.SetDefault("light_background", "#ffffff")
	v.SetDefault("dark_background", "#1e1e1e")
	v.SetDefault("overrides", "")
	v.SetDefault("font", "")
	v.SetDefault("max_scale", 0)
	v.SetDefault("frame_interval", animation.DefaultFrameInterval)
	v.SetDefault("timeout", 10*time.Second)
}

// Load resolves the configuration. dir is searched for FileName unless
// PUZZLEHOST_CONFIG names a file. Flags that were set override everything
// else; flag names use dashes where keys use underscores.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path := os.Getenv("PUZZLEHOST_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.AddConfigPath(dir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "puzzlehost"))
		}
	}

	v.SetEnvPrefix("PUZZLEHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
		}
	}

	if flags != nil {
		for _, key := range configKeys {
			f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var configKeys = []string{
	"puzzle", "width", "height", "dpr", "scheme", "light_background",
	"dark_background", "overrides", "font", "max_scale", "frame_interval", "timeout",
}

func (c *Config) validate() error {
	if c.Puzzle == "" {
		return errors.New("puzzle is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %gx%g", c.Width, c.Height)
	}
	if c.DPR <= 0 {
		return fmt.Errorf("invalid device pixel ratio %g", c.DPR)
	}
	if _, err := c.Schemes(); err != nil {
		return err
	}
	return nil
}

// Schemes returns the colour schemes to render.
func (c *Config) Schemes() ([]palette.Scheme, error) {
	if c.Scheme == "both" {
		return []palette.Scheme{palette.Light, palette.Dark}, nil
	}
	s, err := palette.ParseScheme(c.Scheme)
	if err != nil {
		return nil, err
	}
	return []palette.Scheme{s}, nil
}

// Background returns the UI background colour for scheme.
func (c *Config) Background(scheme palette.Scheme) string {
	if scheme == palette.Dark {
		return c.DarkBackground
	}
	return c.LightBackground
}

// Table returns the built-in palette override table merged with the file
// named by Overrides, if it exists.
func (c *Config) Table() (palette.Table, error) {
	return palette.LoadTableOptional(c.Overrides)
}
