package session

import (
	"fmt"

	"github.com/cchalm/downloads-arranger/internal/command"
	"github.com/cchalm/downloads-arranger/internal/executor"
)

// RejectionKind says at which stage a line was dropped
type RejectionKind int

const (
	// ParseRejection is a line that starts like a command but doesn't match either grammar shape
	ParseRejection RejectionKind = iota
	// ValidationRejection is a well-formed command with a path argument outside of the root
	ValidationRejection
	// SimulationRejection is a safe command that can't apply to the simulated state, e.g. a missing source. The
	// command is still accepted and will be executed
	SimulationRejection
)

func (k RejectionKind) String() string {
	switch k {
	case ParseRejection:
		return "parse"
	case ValidationRejection:
		return "validation"
	case SimulationRejection:
		return "simulation"
	default:
		return fmt.Sprintf("RejectionKind(%d)", int(k))
	}
}

// Rejection records one dropped line and why
type Rejection struct {
	Kind   RejectionKind
	Line   string
	Reason error
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %q: %v", r.Kind, r.Line, r.Reason)
}

type Summary struct {
	State        State
	Accepted     []command.Command
	Rejections   []Rejection
	IgnoredLines int   // Lines that weren't commands at all
	StreamErr    error // Why the stream ended early, if it did
	Approved     bool
	Results      []executor.Result
}

// Count returns the number of rejections of the given kind
func (s Summary) Count(kind RejectionKind) int {
	n := 0
	for _, r := range s.Rejections {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Failed returns the number of executed commands that failed or were skipped
func (s Summary) Failed() int {
	return len(executor.Failed(s.Results))
}
