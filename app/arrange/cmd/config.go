package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/config"
)

var (
	cfg    = config.Default()
	logger = zap.NewNop()
)

// flags holds command line values. A flag only overrides the environment when it was set explicitly
var flags struct {
	root           string
	styleFile      string
	model          string
	yes            bool
	dryRun         bool
	echo           bool
	streamTimeout  time.Duration
	idleTimeout    time.Duration
	confirmTimeout time.Duration
	logLevel       string
	logFormat      string
}

func applyFlags(cmd *cobra.Command) {
	override(cmd, "root", &cfg.Root, flags.root)
	override(cmd, "style-file", &cfg.StyleFile, flags.styleFile)
	override(cmd, "model", &cfg.Model, flags.model)
	override(cmd, "stream-timeout", &cfg.StreamTimeout, flags.streamTimeout)
	override(cmd, "idle-timeout", &cfg.IdleTimeout, flags.idleTimeout)
	override(cmd, "confirm-timeout", &cfg.ConfirmTimeout, flags.confirmTimeout)
	override(cmd, "log-level", &cfg.LogLevel, flags.logLevel)
	override(cmd, "log-format", &cfg.LogFormat, flags.logFormat)
}

func override[T any](cmd *cobra.Command, name string, dest *T, value T) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dest = value
	}
}
