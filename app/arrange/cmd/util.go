package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/session"
	"github.com/cchalm/downloads-arranger/internal/stream"
	"github.com/cchalm/downloads-arranger/internal/telemetry"
	"github.com/cchalm/downloads-arranger/internal/transport"
	"github.com/cchalm/downloads-arranger/internal/ui"
)

const telemetryShutdownTimeout = 5 * time.Second

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		logger.Warn("interrupt signal detected, shutting down gracefully")
		cancel()
		<-interrupt
		logger.Fatal("forcing shutdown")
	}()

	return ctx
}

func createAnthropicClient() anthropic.Client {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRateLimiting(nil, logger),
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(rateLimitedHTTPClient),
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(5),
	}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AnthropicBaseURL))
	}
	return anthropic.NewClient(opts...)
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.Config{
		Enabled:        cfg.TelemetryEnabled,
		Endpoint:       cfg.TelemetryEndpoint,
		ServiceVersion: versionInfo.version,
	}
	return telemetry.NewProvider(ctx, telemetryConfig, logger)
}

// createApprover picks the approver for the flags given. The returned function releases the terminal, if one was
// opened
func createApprover(stdinIsStream bool) (session.Approver, func() error, error) {
	noop := func() error { return nil }
	switch {
	case flags.dryRun:
		return ui.NewDeclineApprover(os.Stderr), noop, nil
	case flags.yes:
		return ui.NewForcedApprover(os.Stderr), noop, nil
	}

	input, closeInput, err := ui.ConfirmationInput(stdinIsStream)
	if err != nil {
		return nil, nil, fmt.Errorf("no terminal to confirm on, use --yes or --dry-run: %w", err)
	}
	return ui.NewInteractiveApprover(input, os.Stderr), closeInput, nil
}

// runSession arranges the configured root with the commands read from src
func runSession(ctx context.Context, src stream.ChunkSource, stdinIsStream bool) error {
	provider, err := createTelemetryProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush telemetry", zap.Error(err))
		}
	}()

	sessionLogger := logger.With(zap.String("session_id", telemetry.NewSessionID()))

	approver, closeApprover, err := createApprover(stdinIsStream)
	if err != nil {
		return err
	}
	defer func() { _ = closeApprover() }()

	s, err := session.New(session.Config{
		Root:           cfg.Root,
		IdleTimeout:    cfg.IdleTimeout,
		StreamTimeout:  cfg.StreamTimeout,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Previewer:      ui.NewPreviewPrinter(os.Stdout),
		Logger:         sessionLogger,
		Tracer:         provider.Tracer(),
	})
	if err != nil {
		return err
	}
	sessionLogger.Info("arranging", zap.String("root", s.Root()))

	summary, err := s.Run(ctx, src, approver)
	printSummary(os.Stderr, summary)
	if err != nil {
		return err
	}
	if n := summary.Failed(); n > 0 {
		return fmt.Errorf("%d of %d commands failed", n, len(summary.Results))
	}
	return nil
}

func printSummary(w io.Writer, summary session.Summary) {
	fmt.Fprintf(w, "\n%d accepted, %d rejected (%d parse, %d validation, %d simulation), %d other lines ignored\n",
		len(summary.Accepted),
		len(summary.Rejections),
		summary.Count(session.ParseRejection),
		summary.Count(session.ValidationRejection),
		summary.Count(session.SimulationRejection),
		summary.IgnoredLines,
	)
	if summary.StreamErr != nil {
		fmt.Fprintf(w, "Stream ended early: %v\n", summary.StreamErr)
	}
	for _, r := range summary.Rejections {
		fmt.Fprintf(w, "  rejected %s\n", r)
	}
	if !summary.Approved {
		return
	}
	fmt.Fprintf(w, "%d executed, %d failed\n", len(summary.Results)-summary.Failed(), summary.Failed())
	for _, r := range summary.Results {
		if !r.Succeeded() {
			fmt.Fprintf(w, "  failed %s: %v\n", r.Command.Line(), r.Err)
		}
	}
}
