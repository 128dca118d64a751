// Command puzzlehost renders and inspects puzzles headlessly.
package main

import (
	"os"

	"github.com/go-drift/puzzles/cmd/puzzlehost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
