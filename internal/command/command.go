// Package command defines the file-organization commands a generator may propose, and the strict
// line grammar they are parsed from.
package command

import (
	"fmt"
	"path"
)

// Command is one proposed action. It is either a MakeDirectory or a Move
type Command interface {
	// Line renders the command back into the shell-like form it was parsed from
	Line() string

	isCommand()
}

// MakeDirectory creates a directory, and its parent if needed, beneath the root
type MakeDirectory struct {
	Name string
}

func (MakeDirectory) isCommand() {}

func (md MakeDirectory) Line() string {
	return fmt.Sprintf("mkdir -p '%s'", md.Name)
}

// Move moves a top-level entry into a directory, under DestinationName
type Move struct {
	Source          string
	Target          string // The target argument as written, before splitting
	DestinationDir  string
	DestinationName string
}

func (Move) isCommand() {}

func (mv Move) Line() string {
	return fmt.Sprintf("mv '%s' '%s'", mv.Source, mv.Target)
}

// Destination returns the slash-separated path the source will occupy if no collision occurs
func (mv Move) Destination() string {
	return path.Join(mv.DestinationDir, mv.DestinationName)
}
