// Package cmd implements the puzzlehost commands.
//
// Every command runs puzzles through the same engine host and canvas
// controller an interactive frontend uses, with an off-screen element in
// place of the page.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/go-drift/puzzles/cmd/puzzlehost/internal/config"
	"github.com/go-drift/puzzles/pkg/bridge"
	"github.com/go-drift/puzzles/pkg/errors"
	"github.com/go-drift/puzzles/pkg/host"
	puztest "github.com/go-drift/puzzles/pkg/testing"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	verbose bool
	cfg     *config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "puzzlehost",
	Short: "Render and inspect puzzles without a browser",
	Long: `puzzlehost drives puzzle engines through the engine host and canvas
controller, drawing into an off-screen surface.

Settings come from puzzlehost.yaml (working directory or
~/.config/puzzlehost), PUZZLEHOST_* environment variables and flags.`,
	Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		errors.SetLogger(logger)
		errors.SetHandler(&errors.LogHandler{Verbose: verbose})

		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err = config.Load(dir, cmd.Flags())
		if err != nil {
			return err
		}
		if cfg.File != "" {
			logger.Debug("config loaded", zap.String("file", cfg.File))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	puztest.RegisterStub()

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	pf.String("puzzle", "stub", "puzzle type")
	pf.Duration("timeout", 0, "give up after this long (default from config)")
	pf.Duration("frame-interval", 0, "animation timer period")

	rootCmd.AddCommand(renderCmd, paletteCmd, roundtripCmd, listCmd)
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// commandContext bounds a command by the configured timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout)
}

// newEngine starts an engine for the configured puzzle.
func newEngine(ctx context.Context, opts ...host.Option) (*host.EngineHandle, error) {
	opts = append([]host.Option{
		host.WithLogger(logger),
		host.WithFrameInterval(cfg.FrameInterval),
	}, opts...)
	h, err := host.New(ctx, cfg.Puzzle, opts...)
	if err != nil {
		return nil, err
	}
	h.OnCrash(func(r bridge.CrashReport) {
		logger.Error("engine crashed", zap.String("op", r.Op), zap.String("message", r.Message))
	})
	return h, nil
}

// destroy releases h, logging rather than returning failures.
func destroy(h *host.EngineHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := h.Destroy(ctx); err != nil {
		logger.Warn("destroy engine", zap.Stringer("handle", h.ID()), zap.Error(err))
	}
}
