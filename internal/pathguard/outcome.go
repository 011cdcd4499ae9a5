package pathguard

import (
	"fmt"
	"path"

	"github.com/cchalm/downloads-arranger/internal/command"
)

// Outcome is the result of validating one command. Exactly one of Command and Reason is set
type Outcome struct {
	Command command.Command // The accepted command, with root-relative cleaned arguments
	Reason  error           // Why the command was rejected
}

// Accepted returns true if the command passed validation
func (o Outcome) Accepted() bool {
	return o.Reason == nil
}

// Validate checks every path argument of cmd independently. The command is accepted only if all of them are confined
// to the root
func (g *Guard) Validate(cmd command.Command) Outcome {
	switch c := cmd.(type) {
	case command.MakeDirectory:
		name, err := g.Relative(c.Name)
		if err != nil {
			return rejected(err)
		}
		return Outcome{Command: command.MakeDirectory{Name: name}}

	case command.Move:
		source, err := g.Relative(c.Source)
		if err != nil {
			return rejected(fmt.Errorf("invalid source: %w", err))
		}
		if err := g.Confine(c.Target); err != nil {
			return rejected(fmt.Errorf("invalid target: %w", err))
		}
		if _, err := g.Relative(c.DestinationDir); err != nil {
			return rejected(fmt.Errorf("invalid destination directory: %w", err))
		}
		// The name may carry "." or ".." components of its own. Split the cleaned destination again so that the
		// simulation and the executor see the same directory and name
		destination, err := g.Relative(c.Destination())
		if err != nil {
			return rejected(fmt.Errorf("invalid destination: %w", err))
		}
		dir := path.Dir(destination)
		if dir == "." {
			return rejected(fmt.Errorf("invalid destination '%s': %w", c.Target, ErrDestinationIsRoot))
		}
		return Outcome{Command: command.Move{
			Source:          source,
			Target:          c.Target,
			DestinationDir:  dir,
			DestinationName: path.Base(destination),
		}}

	default:
		return rejected(fmt.Errorf("unsupported command type %T", cmd))
	}
}

func rejected(reason error) Outcome {
	return Outcome{Reason: reason}
}
