// Package session drives one arrangement: stream generator output through parsing, validation and simulation, wait
// for confirmation, then replay the accepted commands against the real filesystem.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cchalm/downloads-arranger/internal/command"
	"github.com/cchalm/downloads-arranger/internal/executor"
	"github.com/cchalm/downloads-arranger/internal/pathguard"
	"github.com/cchalm/downloads-arranger/internal/stream"
	"github.com/cchalm/downloads-arranger/internal/vfs"
)

var ErrInvalidState = errors.New("operation not allowed in the current session state")

// State is a stage of the session lifecycle. States only move forward
type State int

const (
	AwaitingStream State = iota
	StreamingAndSimulating
	AwaitingConfirmation
	Executing
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingStream:
		return "awaiting stream"
	case StreamingAndSimulating:
		return "streaming and simulating"
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case Executing:
		return "executing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Approver grants or denies permission to execute the pending commands
type Approver interface {
	RequestApproval(ctx context.Context, pending []command.Command) (bool, error)
}

// Previewer displays a rendered tree. It is called after every accepted command, even one whose simulation failed and
// left the tree unchanged, and once more with the observed result of execution
type Previewer interface {
	Preview(title string, lines []string)
}

const (
	PreviewTitleSimulated = "Preview"
	PreviewTitleObserved  = "Result"
)

// Config holds everything a session needs. Only Root is required
type Config struct {
	Root string
	// Fs is the filesystem rooted at Root. Defaults to the OS filesystem beneath Root
	Fs afero.Fs

	// IdleTimeout bounds each wait for the next chunk, StreamTimeout the whole stream and ConfirmTimeout the wait for
	// approval. Zero disables a bound
	IdleTimeout    time.Duration
	StreamTimeout  time.Duration
	ConfirmTimeout time.Duration

	Previewer Previewer
	Logger    *zap.Logger
	Tracer    trace.Tracer
}

// Session is one pass over a root directory. It is not safe for concurrent use
type Session struct {
	cfg      Config
	guard    *pathguard.Guard
	fs       afero.Fs
	vfs      *vfs.FileSystem
	executor *executor.Executor
	logger   *zap.Logger
	tracer   trace.Tracer

	state      State
	accepted   []command.Command
	rejections []Rejection
	ignored    int
	streamErr  error
	approved   bool
	results    []executor.Result
}

// New canonicalizes the root and takes the snapshot the simulation starts from. Failing to do either is fatal to the
// session
func New(cfg Config) (*Session, error) {
	guard, err := pathguard.New(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}

	s := &Session{
		cfg:    cfg,
		guard:  guard,
		fs:     cfg.Fs,
		logger: cfg.Logger,
		tracer: cfg.Tracer,
		state:  AwaitingStream,
	}
	if s.fs == nil {
		s.fs = afero.NewBasePathFs(afero.NewOsFs(), guard.Root())
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}

	entries, err := vfs.Load(s.fs)
	if err != nil {
		return nil, fmt.Errorf("failed to take snapshot of '%s': %w", guard.Root(), err)
	}
	s.vfs = vfs.New(entries, vfs.WithNameGuard(guard.Confine))
	s.executor = executor.New(s.fs, executor.WithGuard(guard), executor.WithLogger(s.logger))

	s.logger.Debug("session created", zap.String("root", guard.Root()), zap.Int("entries", len(entries)))
	return s, nil
}

// Root returns the canonical root directory
func (s *Session) Root() string {
	return s.guard.Root()
}

func (s *Session) State() State {
	return s.state
}

// Accepted returns the commands that passed parsing and validation, in stream order
func (s *Session) Accepted() []command.Command {
	return append([]command.Command(nil), s.accepted...)
}

// Tree returns the simulated state
func (s *Session) Tree() vfs.Tree {
	return s.vfs.Tree()
}

// Stream consumes src to the end, simulating every accepted command as its line completes. A source that fails or
// times out ends the stream early; the commands accepted so far stay eligible for confirmation
func (s *Session) Stream(ctx context.Context, src stream.ChunkSource) error {
	if s.state != AwaitingStream {
		return fmt.Errorf("cannot stream while %s: %w", s.state, ErrInvalidState)
	}
	s.state = StreamingAndSimulating

	ctx, span := s.tracer.Start(ctx, "session.stream")
	defer span.End()

	if s.cfg.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StreamTimeout)
		defer cancel()
	}

	tok := stream.NewLineTokenizer(stream.WithIdleTimeout(src, s.cfg.IdleTimeout))
	for tok.Next(ctx) {
		s.handleLine(tok.Line())
	}
	if err := tok.Err(); err != nil {
		s.streamErr = err
		s.logger.Warn("stream ended early", zap.Error(err), zap.Int("accepted", len(s.accepted)))
		span.RecordError(err)
	}

	span.SetAttributes(
		attribute.Int("accepted", len(s.accepted)),
		attribute.Int("rejected", len(s.rejections)),
	)
	s.state = AwaitingConfirmation
	return nil
}

func (s *Session) handleLine(line string) {
	cmd, err := command.Parse(line)
	if err != nil {
		if command.LooksLikeCommand(line) {
			s.reject(ParseRejection, line, err)
		} else {
			s.ignored++
			s.logger.Debug("ignoring line", zap.String("line", line))
		}
		return
	}

	outcome := s.guard.Validate(cmd)
	if !outcome.Accepted() {
		s.reject(ValidationRejection, line, outcome.Reason)
		return
	}
	s.accepted = append(s.accepted, outcome.Command)

	change, err := s.vfs.Apply(outcome.Command)
	if err != nil {
		s.reject(SimulationRejection, line, err)
		s.preview(PreviewTitleSimulated, s.vfs.Render())
		return
	}
	if change.Placement != nil && change.Placement.Renamed {
		s.logger.Info("destination renamed to avoid collision",
			zap.String("command", outcome.Command.Line()),
			zap.String("path", change.Placement.Path()))
	}
	s.preview(PreviewTitleSimulated, s.vfs.Render())
}

func (s *Session) reject(kind RejectionKind, line string, reason error) {
	s.rejections = append(s.rejections, Rejection{Kind: kind, Line: line, Reason: reason})
	s.logger.Warn("command rejected",
		zap.Stringer("kind", kind),
		zap.String("line", line),
		zap.Error(reason))
}

func (s *Session) preview(title string, lines []string) {
	if s.cfg.Previewer != nil {
		s.cfg.Previewer.Preview(title, lines)
	}
}

// Confirm asks approver whether to execute the accepted commands. A decline, an expired confirmation timeout or an
// approver error ends the session without executing anything. With no accepted commands nobody is asked
func (s *Session) Confirm(ctx context.Context, approver Approver) (bool, error) {
	if s.state != AwaitingConfirmation {
		return false, fmt.Errorf("cannot confirm while %s: %w", s.state, ErrInvalidState)
	}
	if len(s.accepted) == 0 {
		s.logger.Info("nothing to do")
		s.state = Done
		return false, nil
	}

	ctx, span := s.tracer.Start(ctx, "session.confirm")
	defer span.End()

	if s.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
		defer cancel()
	}

	approved, err := approver.RequestApproval(ctx, s.Accepted())
	if err != nil {
		s.state = Done
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("confirmation timed out, nothing will be executed")
			return false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "approval failed")
		return false, fmt.Errorf("failed to request approval: %w", err)
	}
	span.SetAttributes(attribute.Bool("approved", approved))

	s.approved = approved
	if !approved {
		s.logger.Info("declined, nothing will be executed")
		s.state = Done
		return false, nil
	}
	s.state = Executing
	return true, nil
}

// Execute replays the accepted commands, in order, against the real filesystem, then previews the observed result
func (s *Session) Execute(ctx context.Context) ([]executor.Result, error) {
	if s.state != Executing {
		return nil, fmt.Errorf("cannot execute while %s: %w", s.state, ErrInvalidState)
	}

	ctx, span := s.tracer.Start(ctx, "session.execute")
	defer span.End()

	s.results = s.executor.ExecuteAll(ctx, s.accepted)
	failed := executor.Failed(s.results)
	span.SetAttributes(
		attribute.Int("executed", len(s.results)-len(failed)),
		attribute.Int("failed", len(failed)),
	)

	tree, err := vfs.Observe(s.fs)
	if err != nil {
		s.logger.Warn("failed to observe result", zap.Error(err))
	} else {
		s.preview(PreviewTitleObserved, tree.Render())
	}

	s.state = Done
	return s.results, nil
}

// Run drives the whole lifecycle
func (s *Session) Run(ctx context.Context, src stream.ChunkSource, approver Approver) (Summary, error) {
	if err := s.Stream(ctx, src); err != nil {
		return s.Summary(), err
	}
	approved, err := s.Confirm(ctx, approver)
	if err != nil || !approved {
		return s.Summary(), err
	}
	_, err = s.Execute(ctx)
	return s.Summary(), err
}

// Summary reports what happened so far
func (s *Session) Summary() Summary {
	return Summary{
		State:        s.state,
		Accepted:     s.Accepted(),
		Rejections:   append([]Rejection(nil), s.rejections...),
		IgnoredLines: s.ignored,
		StreamErr:    s.streamErr,
		Approved:     s.approved,
		Results:      append([]executor.Result(nil), s.results...),
	}
}
