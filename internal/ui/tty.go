package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ConfirmationInput returns the reader the confirmation prompt should read from. When stdin is consumed by the
// command stream, or isn't a terminal, the controlling terminal is opened instead. The returned closer must be called
func ConfirmationInput(stdinIsStream bool) (io.Reader, func() error, error) {
	if !stdinIsStream && IsTerminal(os.Stdin) {
		return os.Stdin, func() error { return nil }, nil
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open terminal for confirmation: %w", err)
	}
	return tty, tty.Close, nil
}
