package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/downloads-arranger/internal/stream"
)

type fakeEventStream struct {
	events []anthropic.MessageStreamEventUnion
	err    error
	closed bool
	i      int
}

func (f *fakeEventStream) Next() bool {
	if f.i >= len(f.events) {
		return false
	}
	f.i++
	return true
}

func (f *fakeEventStream) Current() anthropic.MessageStreamEventUnion {
	return f.events[f.i-1]
}

func (f *fakeEventStream) Err() error {
	return f.err
}

func (f *fakeEventStream) Close() error {
	f.closed = true
	return nil
}

func event(t *testing.T, raw string) anthropic.MessageStreamEventUnion {
	t.Helper()
	var ev anthropic.MessageStreamEventUnion
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	return ev
}

func textDelta(t *testing.T, text string) anthropic.MessageStreamEventUnion {
	t.Helper()
	b, err := json.Marshal(text)
	require.NoError(t, err)
	return event(t, fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%s}}`, b))
}

func newTestGenerator(fake *fakeEventStream, captured *anthropic.MessageNewParams) *Generator {
	return newGenerator(func(_ context.Context, params anthropic.MessageNewParams) eventStream {
		if captured != nil {
			*captured = params
		}
		return fake
	}, GeneratorConfig{Model: "claude-test", MaxTokens: 100, Temperature: 0.3}, nil)
}

func TestStream_YieldsTextDeltas(t *testing.T) {
	fake := &fakeEventStream{events: []anthropic.MessageStreamEventUnion{
		event(t, `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`),
		textDelta(t, "mkdir -p 'A"),
		textDelta(t, "'\nmv 'x' 'A'\n"),
		event(t, `{"type":"content_block_stop","index":0}`),
		event(t, `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":12}}`),
		event(t, `{"type":"message_stop"}`),
	}}

	tok := stream.NewLineTokenizer(newTestGenerator(fake, nil).Stream("system", "user"))
	var lines []string
	for tok.Next(context.Background()) {
		lines = append(lines, tok.Line())
	}
	require.NoError(t, tok.Err())
	require.Equal(t, []string{"mkdir -p 'A'", "mv 'x' 'A'"}, lines)
	require.True(t, fake.closed)
}

func TestStream_ReportsStreamError(t *testing.T) {
	errBroken := errors.New("broken pipe")
	fake := &fakeEventStream{events: []anthropic.MessageStreamEventUnion{textDelta(t, "partial")}, err: errBroken}
	src := newTestGenerator(fake, nil).Stream("system", "user")

	chunk, err := src.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "partial", chunk)

	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, errBroken)

	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_OpensOnFirstNext(t *testing.T) {
	var params anthropic.MessageNewParams
	opened := false
	g := newGenerator(func(_ context.Context, p anthropic.MessageNewParams) eventStream {
		opened = true
		params = p
		return &fakeEventStream{}
	}, GeneratorConfig{Model: "claude-test", MaxTokens: 100}, nil)

	src := g.Stream("the system prompt", "the user prompt")
	require.False(t, opened)

	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.True(t, opened)
	require.Equal(t, "the system prompt", params.System[0].Text)
}

func TestParams(t *testing.T) {
	g := newTestGenerator(&fakeEventStream{}, nil)
	params := g.Params("sys", "usr")

	require.Equal(t, anthropic.Model("claude-test"), params.Model)
	require.Equal(t, int64(100), params.MaxTokens)
	require.Len(t, params.Messages, 1)
	require.Equal(t, anthropic.MessageParamRoleUser, params.Messages[0].Role)

	b, err := json.Marshal(params)
	require.NoError(t, err)
	require.Contains(t, string(b), `"temperature":0.3`)
	require.Contains(t, string(b), `"text":"usr"`)
}
