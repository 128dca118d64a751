package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var roundtripFlags struct {
	id   string
	keys []int
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Check that a saved game reloads byte for byte",
	Long: `Save a game, load it into a fresh engine and save it again. The command
fails unless both saves are identical.`,
	Args: cobra.NoArgs,
	RunE: runRoundtrip,
}

func init() {
	f := roundtripCmd.Flags()
	f.StringVar(&roundtripFlags.id, "id", "", "game id or random seed to start from")
	f.IntSliceVar(&roundtripFlags.keys, "keys", nil, "button codes to send before saving")
}

func runRoundtrip(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	src, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer destroy(src)
	if roundtripFlags.id != "" {
		err = src.NewGameFromID(ctx, roundtripFlags.id)
	} else {
		err = src.NewGame(ctx)
	}
	if err != nil {
		return err
	}
	for _, key := range roundtripFlags.keys {
		if _, err := src.ProcessKey(ctx, key); err != nil {
			return err
		}
	}
	first, err := src.SaveGame(ctx)
	if err != nil {
		return err
	}

	dst, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer destroy(dst)
	if err := dst.LoadGame(ctx, first); err != nil {
		return fmt.Errorf("load saved game: %w", err)
	}
	second, err := dst.SaveGame(ctx)
	if err != nil {
		return err
	}

	if !bytes.Equal(first, second) {
		logger.Debug("save mismatch", zap.ByteString("first", first), zap.ByteString("second", second))
		return fmt.Errorf("reloaded save differs: %d bytes, then %d bytes", len(first), len(second))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d bytes\n", len(first))
	return nil
}
