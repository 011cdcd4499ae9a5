package command

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	mkdirPrefix = "mkdir -p "
	movePrefix  = "mv "

	mkdirTokens = 3 // mkdir -p '<dir>'
	moveTokens  = 5 // mv '<source>' '<target>'
)

// ErrNotACommand is matched by every error returned from Parse
var ErrNotACommand = errors.New("not a command")

// ParseError explains why a line was not accepted as a command
type ParseError struct {
	Line   string
	Reason string
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("not a command (%s): %q", pe.Reason, pe.Line)
}

func (pe *ParseError) Unwrap() error {
	return ErrNotACommand
}

// Parse classifies one completed line. Lines that do not match either grammar shape exactly yield an error wrapping
// ErrNotACommand; that is never fatal to the caller
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, mkdirPrefix):
		return parseMakeDirectory(trimmed)
	case strings.HasPrefix(trimmed, movePrefix):
		return parseMove(trimmed)
	default:
		return nil, &ParseError{Line: line, Reason: "no command prefix"}
	}
}

// LooksLikeCommand reports whether the line starts with one of the command words, even if it is malformed
func LooksLikeCommand(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "mkdir ") || strings.HasPrefix(trimmed, "mv ")
}

func parseMakeDirectory(line string) (Command, error) {
	tokens := strings.Split(line, "'")
	if len(tokens) != mkdirTokens {
		return nil, tokenCountError(line, mkdirTokens, len(tokens))
	}
	if strings.TrimSpace(tokens[0]) != "mkdir -p" {
		return nil, &ParseError{Line: line, Reason: "unexpected text before the directory argument"}
	}
	if tokens[2] != "" {
		return nil, &ParseError{Line: line, Reason: "unexpected text after the directory argument"}
	}
	if tokens[1] == "" {
		return nil, &ParseError{Line: line, Reason: "empty directory argument"}
	}
	return MakeDirectory{Name: tokens[1]}, nil
}

func parseMove(line string) (Command, error) {
	tokens := strings.Split(line, "'")
	if len(tokens) != moveTokens {
		return nil, tokenCountError(line, moveTokens, len(tokens))
	}
	if strings.TrimSpace(tokens[0]) != "mv" {
		return nil, &ParseError{Line: line, Reason: "unexpected text before the source argument"}
	}
	if tokens[2] == "" || strings.TrimSpace(tokens[2]) != "" {
		return nil, &ParseError{Line: line, Reason: "arguments must be separated by whitespace only"}
	}
	if tokens[4] != "" {
		return nil, &ParseError{Line: line, Reason: "unexpected text after the target argument"}
	}
	source, target := tokens[1], tokens[3]
	if source == "" || target == "" {
		return nil, &ParseError{Line: line, Reason: "empty path argument"}
	}

	mv := Move{
		Source:          source,
		Target:          target,
		DestinationDir:  target,
		DestinationName: path.Base(source),
	}
	if dir, name, found := strings.Cut(target, "/"); found {
		mv.DestinationDir = dir
		if name != "" {
			mv.DestinationName = name
		}
	}
	return mv, nil
}

func tokenCountError(line string, want, got int) error {
	return &ParseError{
		Line:   line,
		Reason: fmt.Sprintf("expected %d quote-delimited tokens, got %d", want, got),
	}
}
