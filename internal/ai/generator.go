// Package ai streams arrangement commands from an Anthropic model.
package ai

import (
	"context"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/stream"
)

// eventStream is the part of the SDK's message stream that the chunk source reads
type eventStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

// GeneratorConfig holds the model parameters
type GeneratorConfig struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Generator requests an arrangement from the model and exposes the response text as a stream.ChunkSource
type Generator struct {
	open   func(ctx context.Context, params anthropic.MessageNewParams) eventStream
	config GeneratorConfig
	logger *zap.Logger
}

func NewGenerator(client anthropic.Client, config GeneratorConfig, logger *zap.Logger) *Generator {
	return newGenerator(func(ctx context.Context, params anthropic.MessageNewParams) eventStream {
		return client.Messages.NewStreaming(ctx, params)
	}, config, logger)
}

func newGenerator(
	open func(ctx context.Context, params anthropic.MessageNewParams) eventStream,
	config GeneratorConfig,
	logger *zap.Logger,
) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{open: open, config: config, logger: logger}
}

// Params returns the request parameters for the given prompts
func (g *Generator) Params(system, user string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:       anthropic.Model(g.config.Model),
		MaxTokens:   g.config.MaxTokens,
		Temperature: anthropic.Float(g.config.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
}

// Stream returns a source of response text. The request is sent on the first call to Next, with that call's context
func (g *Generator) Stream(system, user string) stream.ChunkSource {
	return &chunkSource{
		open: func(ctx context.Context) eventStream {
			return g.open(ctx, g.Params(system, user))
		},
		logger: g.logger,
	}
}

type chunkSource struct {
	open   func(ctx context.Context) eventStream
	stream eventStream
	done   bool
	logger *zap.Logger
}

func (cs *chunkSource) Next(ctx context.Context) (string, error) {
	if cs.done {
		return "", io.EOF
	}
	if cs.stream == nil {
		cs.logger.Debug("sending request")
		cs.stream = cs.open(ctx)
	}

	for cs.stream.Next() {
		switch event := cs.stream.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := event.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				return delta.Text, nil
			}
		case anthropic.MessageDeltaEvent:
			if event.Delta.StopReason == anthropic.StopReasonMaxTokens {
				cs.logger.Warn("response was cut off at the token limit, the last command may be incomplete")
			}
			cs.logger.Debug("response finished",
				zap.String("stop_reason", string(event.Delta.StopReason)),
				zap.Int64("output_tokens", event.Usage.OutputTokens))
		}
	}

	cs.done = true
	closeErr := cs.stream.Close()
	if err := cs.stream.Err(); err != nil {
		return "", fmt.Errorf("failed to stream response: %w", err)
	}
	if closeErr != nil {
		cs.logger.Debug("failed to close response stream", zap.Error(closeErr))
	}
	return "", io.EOF
}
