package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/cchalm/downloads-arranger/internal/style"
)

var resetStyle bool

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Print the organizing style preferences",
	Long: `Prints the style file that is sent to the model with every arrangement. Edit the "User Style"
section to describe how you like things organized.`,
	Args: cobra.NoArgs,
	RunE: runStyle,
}

func init() {
	styleCmd.Flags().BoolVar(&resetStyle, "reset", false, "Replace the style file with the default preferences")
	rootCmd.AddCommand(styleCmd)
}

func runStyle(cmd *cobra.Command, _ []string) error {
	store := style.NewStore(afero.NewOsFs(), cfg.StyleFile)
	if resetStyle {
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Reset %s\n", store.Path())
	} else if _, err := store.Ensure(); err != nil {
		return err
	}

	st, err := store.Load()
	if err != nil {
		return err
	}
	out, err := st.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", store.Path(), out)
	return nil
}
