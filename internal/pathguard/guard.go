// Package pathguard confines command path arguments to a single root directory.
//
// A path argument is resolved the way realpath(3) would resolve it: relative to the root, one component at a time,
// following symbolic links and applying ".." to the resolved parent. Components that do not exist yet are applied
// lexically. The argument is confined only if the result lies strictly beneath the root.
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// maxSymlinkHops matches the usual MAXSYMLINKS limit
const maxSymlinkHops = 40

var (
	ErrEscapesRoot  = errors.New("path escapes root")
	ErrSymlinkLoop  = errors.New("too many levels of symbolic links")
	ErrRootNotFound = errors.New("root directory not found")

	ErrDestinationIsRoot = errors.New("destination directory is the root itself")
)

// EscapeError reports a path argument that does not resolve strictly beneath the root
type EscapeError struct {
	Arg      string
	Resolved string
}

func (ee *EscapeError) Error() string {
	return fmt.Sprintf("path '%s' resolves to '%s', outside of root", ee.Arg, ee.Resolved)
}

func (ee *EscapeError) Unwrap() error {
	return ErrEscapesRoot
}

// Guard checks path arguments against one canonical root
type Guard struct {
	root string
}

// New canonicalizes root and returns a Guard for it. The root must be an existing directory
func New(root string) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path of root '%s': %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	} else if err != nil {
		return nil, fmt.Errorf("failed to resolve root '%s': %w", root, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root '%s': %w", canonical, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root '%s' is not a directory", canonical)
	}
	return &Guard{root: canonical}, nil
}

// Root returns the canonical root path
func (g *Guard) Root() string {
	return g.root
}

// Resolve returns the canonical absolute path of root/arg. It does not check confinement
func (g *Guard) Resolve(arg string) (string, error) {
	current := g.root
	if filepath.IsAbs(arg) {
		current = string(filepath.Separator)
	}
	pending := components(arg)
	hops := 0

	for len(pending) > 0 {
		comp := pending[0]
		pending = pending[1:]

		switch comp {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
			continue
		}

		next := filepath.Join(current, comp)
		info, err := os.Lstat(next)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || isNotDir(err) {
			// Nothing to follow, the rest of the path applies lexically
			current = next
			continue
		} else if err != nil {
			return "", fmt.Errorf("failed to stat '%s': %w", next, err)
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			current = next
			continue
		}

		hops++
		if hops > maxSymlinkHops {
			return "", fmt.Errorf("%w: %s", ErrSymlinkLoop, arg)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", fmt.Errorf("failed to read symlink '%s': %w", next, err)
		}
		if filepath.IsAbs(target) {
			current = string(filepath.Separator)
		}
		pending = append(components(target), pending...)
	}

	return current, nil
}

// Confine returns nil if arg resolves strictly beneath the root
func (g *Guard) Confine(arg string) error {
	_, err := g.confine(arg)
	return err
}

func (g *Guard) confine(arg string) (string, error) {
	resolved, err := g.Resolve(arg)
	if err != nil {
		return "", err
	}
	if !g.contains(resolved) {
		return "", &EscapeError{Arg: arg, Resolved: resolved}
	}
	return resolved, nil
}

// Relative confines arg and returns its lexically cleaned, slash-separated form relative to the root. Cleaning drops
// ".." without following symlinks, so the cleaned form names a different path whenever a ".." follows a symlink. It is
// the path that gets executed, so it is confined as well
func (g *Guard) Relative(arg string) (string, error) {
	if _, err := g.confine(arg); err != nil {
		return "", err
	}

	lexical := filepath.Clean(filepath.FromSlash(arg))
	if filepath.IsAbs(lexical) {
		rel, err := filepath.Rel(g.root, lexical)
		if err != nil {
			return "", &EscapeError{Arg: arg, Resolved: lexical}
		}
		lexical = rel
	}
	if lexical == "." || lexical == ".." || strings.HasPrefix(lexical, ".."+string(filepath.Separator)) {
		return "", &EscapeError{Arg: arg, Resolved: filepath.Join(g.root, lexical)}
	}
	if resolved, err := g.Resolve(lexical); err != nil {
		return "", err
	} else if !g.contains(resolved) {
		return "", &EscapeError{Arg: arg, Resolved: resolved}
	}
	return filepath.ToSlash(lexical), nil
}

func (g *Guard) contains(resolved string) bool {
	prefix := g.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(resolved, prefix) && len(resolved) > len(prefix)
}

func components(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

// isNotDir reports a file found where a directory component was expected
func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
