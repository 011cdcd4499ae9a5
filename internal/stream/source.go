package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrIdleTimeout = errors.New("timed out waiting for the next chunk")

type sliceSource struct {
	chunks []string
}

// Chunks returns a source that yields the given chunks in order
func Chunks(chunks ...string) ChunkSource {
	return &sliceSource{chunks: chunks}
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.chunks) == 0 {
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

type readerSource struct {
	r   io.Reader
	buf []byte
	err error
}

const defaultReadSize = 4096

// NewReaderSource returns a source that reads chunks of at most size bytes from r
func NewReaderSource(r io.Reader, size int) ChunkSource {
	if size <= 0 {
		size = defaultReadSize
	}
	return &readerSource{r: r, buf: make([]byte, size)}
}

func (s *readerSource) Next(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for {
		n, err := s.r.Read(s.buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				err = fmt.Errorf("failed to read stream: %w", err)
			}
			s.err = err
		}
		if n > 0 {
			// A final partial read is returned first. The error is reported on the next call
			return string(s.buf[:n]), nil
		}
		if s.err != nil {
			return "", s.err
		}
	}
}

type idleTimeoutSource struct {
	src     ChunkSource
	timeout time.Duration

	// ctx is derived from the first call's context and passed to every call of src. It is cancelled when a wait times
	// out, so that a source holding a connection open can release it
	ctx    context.Context
	cancel context.CancelFunc
}

// WithIdleTimeout bounds every wait for the next chunk of src. If a chunk doesn't arrive in time, Next returns
// ErrIdleTimeout and the context passed to src is cancelled. A timeout of zero or less disables the bound
func WithIdleTimeout(src ChunkSource, timeout time.Duration) ChunkSource {
	if timeout <= 0 {
		return src
	}
	return &idleTimeoutSource{src: src, timeout: timeout}
}

type chunkResult struct {
	chunk string
	err   error
}

func (s *idleTimeoutSource) Next(ctx context.Context) (string, error) {
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
	}
	if err := s.ctx.Err(); err != nil {
		return "", err
	}

	// The underlying read may not honor ctx, so it runs on its own goroutine
	srcCtx := s.ctx
	resultChan := make(chan chunkResult, 1)
	go func() {
		chunk, err := s.src.Next(srcCtx)
		resultChan <- chunkResult{chunk: chunk, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case result := <-resultChan:
		if result.err != nil {
			s.cancel()
		}
		return result.chunk, result.err
	case <-timer.C:
		s.cancel()
		return "", fmt.Errorf("%w after %s", ErrIdleTimeout, s.timeout)
	case <-ctx.Done():
		s.cancel()
		return "", ctx.Err()
	}
}

type teeSource struct {
	src ChunkSource
	w   io.Writer
}

// Tee returns a source that writes every chunk of src to w as it is produced. Write errors are ignored
func Tee(src ChunkSource, w io.Writer) ChunkSource {
	return &teeSource{src: src, w: w}
}

func (s *teeSource) Next(ctx context.Context) (string, error) {
	chunk, err := s.src.Next(ctx)
	if chunk != "" {
		_, _ = io.WriteString(s.w, chunk)
	}
	return chunk, err
}
