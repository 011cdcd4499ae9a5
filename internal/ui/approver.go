// Package ui implements the terminal side of an arrangement session: confirmation prompts and tree previews.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cchalm/downloads-arranger/internal/command"
	"github.com/cchalm/downloads-arranger/internal/session"
)

// InteractiveApprover asks the user to confirm the pending commands. Only "y" or "yes" approves
type InteractiveApprover struct {
	input  io.Reader
	output io.Writer
}

func NewInteractiveApprover(input io.Reader, output io.Writer) *InteractiveApprover {
	return &InteractiveApprover{input: input, output: output}
}

func (a *InteractiveApprover) RequestApproval(ctx context.Context, pending []command.Command) (bool, error) {
	printPending(a.output, pending)
	fmt.Fprintf(a.output, "\nExecute %s? [y/N]: ", plural(len(pending), "command"))

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && input != "") {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(a.output)
		return false, ctx.Err()
	case err := <-errChan:
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.output, "\nNo answer. Nothing was changed.")
			return false, nil
		}
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		switch strings.ToLower(input) {
		case "y", "yes":
			fmt.Fprintln(a.output, "Executing...")
			return true, nil
		default:
			fmt.Fprintln(a.output, "Cancelled. Nothing was changed.")
			return false, nil
		}
	}
}

// ForcedApprover approves without asking, for --yes
type ForcedApprover struct {
	output io.Writer
}

func NewForcedApprover(output io.Writer) *ForcedApprover {
	return &ForcedApprover{output: output}
}

func (a *ForcedApprover) RequestApproval(ctx context.Context, pending []command.Command) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	printPending(a.output, pending)
	fmt.Fprintf(a.output, "\nExecuting %s without confirmation\n", plural(len(pending), "command"))
	return true, nil
}

// DeclineApprover never approves, for --dry-run
type DeclineApprover struct {
	output io.Writer
}

func NewDeclineApprover(output io.Writer) *DeclineApprover {
	return &DeclineApprover{output: output}
}

func (a *DeclineApprover) RequestApproval(_ context.Context, pending []command.Command) (bool, error) {
	printPending(a.output, pending)
	fmt.Fprintf(a.output, "\nDry run: %s not executed\n", plural(len(pending), "command"))
	return false, nil
}

func printPending(w io.Writer, pending []command.Command) {
	fmt.Fprintln(w, "\nPending commands:")
	for _, cmd := range pending {
		fmt.Fprintf(w, "  %s\n", cmd.Line())
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

var (
	_ session.Approver = (*InteractiveApprover)(nil)
	_ session.Approver = (*ForcedApprover)(nil)
	_ session.Approver = (*DeclineApprover)(nil)
)
