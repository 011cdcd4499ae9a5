// Package stream turns an incrementally-arriving text stream into completed lines.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ChunkSource produces text fragments of arbitrary size. Next returns io.EOF once the source is exhausted; any other
// error ends the stream early
type ChunkSource interface {
	Next(ctx context.Context) (string, error)
}

// LineTokenizer pulls chunks from a ChunkSource and yields completed lines, one per call to Next. The line terminator
// is not included. A trailing partial line is yielded when the source ends. A LineTokenizer is not restartable
//
//	tok := stream.NewLineTokenizer(src)
//	for tok.Next(ctx) {
//		handle(tok.Line())
//	}
//	if err := tok.Err(); err != nil { ... }
type LineTokenizer struct {
	src ChunkSource

	pending strings.Builder
	chunk   string // unconsumed remainder of the last chunk
	line    string
	ended   bool
	err     error
}

func NewLineTokenizer(src ChunkSource) *LineTokenizer {
	return &LineTokenizer{src: src}
}

// Next advances to the next completed line. It returns false once the source has ended and every line has been
// yielded
func (t *LineTokenizer) Next(ctx context.Context) bool {
	for {
		if t.chunk != "" {
			if i := strings.IndexByte(t.chunk, '\n'); i >= 0 {
				t.pending.WriteString(t.chunk[:i])
				t.chunk = t.chunk[i+1:]
				t.emit()
				return true
			}
			t.pending.WriteString(t.chunk)
			t.chunk = ""
		}

		if t.ended {
			if t.pending.Len() > 0 {
				t.emit()
				return true
			}
			t.line = ""
			return false
		}

		chunk, err := t.src.Next(ctx)
		t.chunk = chunk
		if err != nil {
			t.ended = true
			if !errors.Is(err, io.EOF) {
				t.err = err
			}
		}
	}
}

func (t *LineTokenizer) emit() {
	t.line = t.pending.String()
	t.pending.Reset()
}

// Line returns the line produced by the last successful call to Next
func (t *LineTokenizer) Line() string {
	return t.line
}

// Err returns the error that ended the source early, if any. Reaching the end of the source is not an error
func (t *LineTokenizer) Err() error {
	return t.err
}
