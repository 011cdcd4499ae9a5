package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/ai"
	"github.com/cchalm/downloads-arranger/internal/stream"
	"github.com/cchalm/downloads-arranger/internal/style"
	"github.com/cchalm/downloads-arranger/internal/ui"
)

func runArrange(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateGenerator(); err != nil {
		return err
	}
	ctx := setupContext()

	entries, err := ai.List(afero.NewBasePathFs(afero.NewOsFs(), cfg.Root))
	if err != nil {
		return fmt.Errorf("failed to list '%s': %w", cfg.Root, err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to arrange in %s\n", cfg.Root)
		return nil
	}

	styleYAML, err := loadStyle()
	if err != nil {
		return err
	}
	userPrompt, err := ai.BuildUserPrompt(entries)
	if err != nil {
		return err
	}

	generator := ai.NewGenerator(createAnthropicClient(), ai.GeneratorConfig{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, logger)
	logger.Info("requesting arrangement", zap.String("model", cfg.Model), zap.Int("entries", len(entries)))

	var src stream.ChunkSource = generator.Stream(ai.BuildSystemPrompt(styleYAML), userPrompt)
	if flags.echo {
		src = stream.Tee(src, ui.NewEchoWriter(cmd.OutOrStdout()))
	}
	return runSession(ctx, src, false)
}

// loadStyle returns the style document, creating the default one on first use
func loadStyle() (string, error) {
	store := style.NewStore(afero.NewOsFs(), cfg.StyleFile)
	created, err := store.Ensure()
	if err != nil {
		return "", err
	}
	if created {
		logger.Info("created default style file", zap.String("path", store.Path()))
	}
	st, err := store.Load()
	if err != nil {
		return "", err
	}
	return st.YAML()
}
