package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-drift/puzzles/pkg/engine"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered puzzle types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range engine.Names() {
			reg, err := engine.Lookup(name, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, reg.Version)
		}
		return nil
	},
}
