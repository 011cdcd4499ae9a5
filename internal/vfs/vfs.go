// Package vfs simulates file-organization commands on an in-memory model of a root directory.
//
// The model mirrors the root's top-level entries, plus at most one level of children created by simulated commands.
// It is never written to disk.
package vfs

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cchalm/downloads-arranger/internal/command"
)

var (
	ErrSourceNotFound      = errors.New("source does not exist")
	ErrDestinationNotFound = errors.New("destination directory does not exist")
	ErrMoveIntoItself      = errors.New("cannot move a directory into itself")
	ErrNotADirectory       = errors.New("not a directory")
	ErrBeyondModeledDepth  = errors.New("path is nested deeper than the simulation models")
)

// Entry is one top-level entry of a directory listing
type Entry struct {
	Name  string
	IsDir bool
}

// Node is either a directory, with children, or a file
type Node struct {
	children map[string]*Node // nil for files
}

func newDirectory() *Node {
	return &Node{children: map[string]*Node{}}
}

func newFile() *Node {
	return &Node{}
}

// IsDir returns true if the node is a directory
func (n *Node) IsDir() bool {
	return n.children != nil
}

// NameGuard checks a root-relative path produced by the simulation itself, e.g. a collision-renamed destination
type NameGuard func(path string) error

// Option configures a FileSystem
type Option func(*FileSystem)

// WithNameGuard re-checks every collision-renamed destination before it is used
func WithNameGuard(guard NameGuard) Option {
	return func(v *FileSystem) {
		v.guard = guard
	}
}

// FileSystem is the in-memory mirror of a root directory
type FileSystem struct {
	top   map[string]*Node
	guard NameGuard
}

// New builds a FileSystem from a snapshot of the root's top-level entries. Directories start out empty
func New(entries []Entry, opts ...Option) *FileSystem {
	v := &FileSystem{
		top: make(map[string]*Node, len(entries)),
	}
	for _, e := range entries {
		if e.IsDir {
			v.top[e.Name] = newDirectory()
		} else {
			v.top[e.Name] = newFile()
		}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Placement describes where a simulated move put its source
type Placement struct {
	Dir     string
	Name    string
	Renamed bool // Name differs from the requested name because of a collision
}

// Path returns the root-relative path of the moved entry
func (p Placement) Path() string {
	return path.Join(p.Dir, p.Name)
}

// MakeDirectory simulates "mkdir -p". It returns true if anything was created. Creating a directory that already
// exists, as either kind, is a no-op
func (v *FileSystem) MakeDirectory(name string) (bool, error) {
	parts := splitPath(name)
	switch len(parts) {
	case 0:
		return false, fmt.Errorf("empty directory name")
	case 1:
		if _, exists := v.top[parts[0]]; exists {
			return false, nil
		}
		v.top[parts[0]] = newDirectory()
		return true, nil
	case 2:
		parent, exists := v.top[parts[0]]
		if exists && !parent.IsDir() {
			return false, fmt.Errorf("cannot create '%s': '%s' is a file: %w", name, parts[0], ErrNotADirectory)
		}
		created := false
		if !exists {
			parent = newDirectory()
			v.top[parts[0]] = parent
			created = true
		}
		if _, exists := parent.children[parts[1]]; !exists {
			parent.children[parts[1]] = newDirectory()
			created = true
		}
		return created, nil
	default:
		return false, fmt.Errorf("cannot simulate '%s': %w", name, ErrBeyondModeledDepth)
	}
}

// Move simulates moving the top-level entry source into the top-level directory dir under name. If name is already
// taken in dir, a free name is chosen with command.FreeName. Nothing changes if an error is returned
func (v *FileSystem) Move(source, dir, name string) (Placement, error) {
	node, exists := v.top[source]
	if !exists {
		return Placement{}, fmt.Errorf("cannot move '%s': %w", source, ErrSourceNotFound)
	}
	dest, exists := v.top[dir]
	if !exists || !dest.IsDir() {
		return Placement{}, fmt.Errorf("cannot move '%s' into '%s': %w", source, dir, ErrDestinationNotFound)
	}
	if source == dir {
		return Placement{}, fmt.Errorf("cannot move '%s' into '%s': %w", source, dir, ErrMoveIntoItself)
	}
	if name == "" || strings.Contains(name, "/") {
		return Placement{}, fmt.Errorf("cannot move '%s' to '%s/%s': %w", source, dir, name, ErrBeyondModeledDepth)
	}

	finalName := command.FreeName(name, func(candidate string) bool {
		_, taken := dest.children[candidate]
		return taken
	})
	placement := Placement{Dir: dir, Name: finalName, Renamed: finalName != name}
	if placement.Renamed && v.guard != nil {
		if err := v.guard(placement.Path()); err != nil {
			return Placement{}, fmt.Errorf("renamed destination '%s' rejected: %w", placement.Path(), err)
		}
	}

	delete(v.top, source)
	dest.children[finalName] = node
	return placement, nil
}

// Change describes the effect of one applied command
type Change struct {
	Command   command.Command
	Created   bool       // For MakeDirectory: false if the directory already existed
	Placement *Placement // For Move
}

// Apply simulates one command
func (v *FileSystem) Apply(cmd command.Command) (Change, error) {
	switch c := cmd.(type) {
	case command.MakeDirectory:
		created, err := v.MakeDirectory(c.Name)
		if err != nil {
			return Change{}, err
		}
		return Change{Command: cmd, Created: created}, nil
	case command.Move:
		placement, err := v.Move(c.Source, c.DestinationDir, c.DestinationName)
		if err != nil {
			return Change{}, err
		}
		return Change{Command: cmd, Placement: &placement}, nil
	default:
		return Change{}, fmt.Errorf("unsupported command type %T", cmd)
	}
}

// Tree is a value copy of a FileSystem's state. Files map to nil, directories to a non-nil (possibly empty) Tree
type Tree map[string]Tree

// Tree returns a copy of the current state
func (v *FileSystem) Tree() Tree {
	return copyTree(v.top)
}

func copyTree(children map[string]*Node) Tree {
	t := make(Tree, len(children))
	for name, node := range children {
		if node.IsDir() {
			t[name] = copyTree(node.children)
		} else {
			t[name] = nil
		}
	}
	return t
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(path.Clean("/"+p), "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
