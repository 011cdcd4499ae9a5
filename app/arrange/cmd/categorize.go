package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cchalm/downloads-arranger/internal/categorize"
	"github.com/cchalm/downloads-arranger/internal/vfs"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Arrange files into folders by extension, without a model",
	Long: `Moves every top level file into a folder named after its kind (Images, Documents, Archives,
Installers, Development, Media, Config, Android or Others). Directories are left where they are.`,
	Args: cobra.NoArgs,
	RunE: runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	ctx := setupContext()

	entries, err := vfs.Load(afero.NewBasePathFs(afero.NewOsFs(), cfg.Root))
	if err != nil {
		return fmt.Errorf("failed to list '%s': %w", cfg.Root, err)
	}
	c := categorize.New(categorize.DefaultCategories)
	if len(c.Commands(entries)) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to arrange in %s\n", cfg.Root)
		return nil
	}
	return runSession(ctx, c.Source(entries), false)
}
