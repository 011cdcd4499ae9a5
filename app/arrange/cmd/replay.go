package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cchalm/downloads-arranger/internal/stream"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file|->",
	Short: "Arrange using recorded model output",
	Long: `Reads commands from a file, or from standard input when the argument is "-", and puts them
through the same checks, simulation and confirmation as a live arrangement. Lines that are not
commands are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(_ *cobra.Command, args []string) error {
	ctx := setupContext()

	if args[0] == "-" {
		return runSession(ctx, stream.NewReaderSource(os.Stdin, 0), true)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()
	return runSession(ctx, stream.NewReaderSource(f, 0), false)
}
