package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/config"
	"github.com/cchalm/downloads-arranger/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "arrange",
	Short: "Tidy a downloads directory with a language model",
	Long: `Arrange lists the top level of a directory, asks a model how to organize it and streams the
model's answer as shell-like commands. Every command is checked against the directory and simulated
as it arrives, the resulting tree is previewed, and nothing is moved until you confirm.

Only two commands are understood:
  mkdir -p '<directory>'
  mv '<source>' '<target directory>'`,
	Args:               cobra.NoArgs,
	PersistentPreRunE:  loadRootConfig,
	PersistentPostRunE: syncLogger,
	RunE:               runArrange,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	// Load .env file
	envErr := godotenv.Load()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Root, err = config.ExpandHome(cfg.Root); err != nil {
		return err
	}
	if cfg.StyleFile, err = config.ExpandHome(cfg.StyleFile); err != nil {
		return err
	}

	logger, err = logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		logger.Warn("falling back to info level", zap.Error(err))
	}
	return nil
}

func syncLogger(_ *cobra.Command, _ []string) error {
	if logger != nil {
		_ = logger.Sync()
	}
	return nil
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flags.root, "root", config.DefaultRoot, "Directory to arrange (ARRANGE_ROOT)")
	f.BoolVarP(&flags.yes, "yes", "y", false, "Execute without asking for confirmation")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Preview the arrangement without executing it")
	f.DurationVar(&flags.streamTimeout, "stream-timeout", config.DefaultStreamTimeout, "Limit on the whole command stream, 0 for none (ARRANGE_STREAM_TIMEOUT)")
	f.DurationVar(&flags.idleTimeout, "idle-timeout", config.DefaultIdleTimeout, "Limit on the wait for each chunk of the stream, 0 for none (ARRANGE_IDLE_TIMEOUT)")
	f.DurationVar(&flags.confirmTimeout, "confirm-timeout", config.DefaultConfirmTimeout, "Time to answer the confirmation before it is declined, 0 for none (ARRANGE_CONFIRM_TIMEOUT)")
	f.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error (ARRANGE_LOG_LEVEL)")
	f.StringVar(&flags.logFormat, "log-format", "console", "Log format: console or json (ARRANGE_LOG_FORMAT)")
	rootCmd.MarkFlagsMutuallyExclusive("yes", "dry-run")

	rootCmd.Flags().StringVar(&flags.model, "model", config.DefaultModel, "Model to ask for an arrangement (ARRANGE_MODEL)")
	f.StringVar(&flags.styleFile, "style-file", config.DefaultStyleFile, "Organizing style preferences (ARRANGE_STYLE_FILE)")
	rootCmd.Flags().BoolVar(&flags.echo, "echo", true, "Print the model's response as it streams in")
}
