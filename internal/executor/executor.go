// Package executor applies accepted commands to the real filesystem, one at a time.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/command"
)

var (
	ErrSourceNotFound      = errors.New("source does not exist")
	ErrDestinationNotFound = errors.New("destination directory does not exist")
	ErrSkipped             = errors.New("skipped")
)

// Guard re-checks a root-relative path chosen at execution time
type Guard interface {
	Confine(arg string) error
}

// Result is the outcome of executing one command
type Result struct {
	Command command.Command
	Path    string // Where the command took effect, relative to the root. For moves this is the final destination
	Err     error
}

// Succeeded returns true if the command took effect
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Skipped returns true if the command was never attempted
func (r Result) Skipped() bool {
	return errors.Is(r.Err, ErrSkipped)
}

// Option configures an Executor
type Option func(*Executor)

// WithGuard re-checks collision-renamed destinations before moving anything to them
func WithGuard(guard Guard) Option {
	return func(e *Executor) {
		e.guard = guard
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// Executor performs commands against a filesystem rooted at the arranged directory, e.g. afero.NewBasePathFs(fs, root)
type Executor struct {
	fs     afero.Fs
	guard  Guard
	logger *zap.Logger
}

func New(fs afero.Fs, opts ...Option) *Executor {
	e := &Executor{
		fs:     fs,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs one command. Failures are reported in the result and never panic or abort the caller
func (e *Executor) Execute(ctx context.Context, cmd command.Command) Result {
	if err := ctx.Err(); err != nil {
		return Result{Command: cmd, Err: fmt.Errorf("%w: %w", ErrSkipped, err)}
	}

	var result Result
	switch c := cmd.(type) {
	case command.MakeDirectory:
		result = e.makeDirectory(c)
	case command.Move:
		result = e.move(c)
	default:
		result = Result{Command: cmd, Err: fmt.Errorf("unsupported command type %T", cmd)}
	}

	if result.Err != nil {
		e.logger.Error("command failed", zap.String("command", cmd.Line()), zap.Error(result.Err))
	} else {
		e.logger.Info("command executed", zap.String("command", cmd.Line()), zap.String("path", result.Path))
	}
	return result
}

// ExecuteAll performs cmds in order. A failed command does not stop the batch and nothing is rolled back. Once ctx is
// cancelled the remaining commands are reported as skipped
func (e *Executor) ExecuteAll(ctx context.Context, cmds []command.Command) []Result {
	results := make([]Result, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, e.Execute(ctx, cmd))
	}
	return results
}

func (e *Executor) makeDirectory(md command.MakeDirectory) Result {
	result := Result{Command: md, Path: md.Name}
	if err := e.fs.MkdirAll(md.Name, 0o755); err != nil {
		result.Err = fmt.Errorf("failed to create directory '%s': %w", md.Name, err)
	}
	return result
}

func (e *Executor) move(mv command.Move) Result {
	result := Result{Command: mv}

	if _, err := e.fs.Stat(mv.Source); errors.Is(err, fs.ErrNotExist) {
		result.Err = fmt.Errorf("cannot move '%s': %w", mv.Source, ErrSourceNotFound)
		return result
	} else if err != nil {
		result.Err = fmt.Errorf("failed to stat '%s': %w", mv.Source, err)
		return result
	}

	dest := mv.Destination()
	parent, name := path.Dir(dest), path.Base(dest)
	isDir, err := afero.IsDir(e.fs, parent)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !isDir) {
		result.Err = fmt.Errorf("cannot move '%s' into '%s': %w", mv.Source, parent, ErrDestinationNotFound)
		return result
	} else if err != nil {
		result.Err = fmt.Errorf("failed to stat '%s': %w", parent, err)
		return result
	}

	finalName := command.FreeName(name, func(candidate string) bool {
		exists, err := afero.Exists(e.fs, path.Join(parent, candidate))
		// Treat unknown as taken so nothing is overwritten
		return exists || err != nil
	})
	final := path.Join(parent, finalName)
	if finalName != name && e.guard != nil {
		if err := e.guard.Confine(final); err != nil {
			result.Err = fmt.Errorf("renamed destination '%s' rejected: %w", final, err)
			return result
		}
	}

	if err := e.fs.Rename(mv.Source, final); err != nil {
		result.Err = fmt.Errorf("failed to move '%s' to '%s': %w", mv.Source, final, err)
		return result
	}
	result.Path = final
	return result
}

// Failed returns the results that did not succeed, including skipped ones
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}
