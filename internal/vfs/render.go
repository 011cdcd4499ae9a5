package vfs

import (
	"sort"
)

const (
	branchMid  = "├── "
	branchLast = "└── "
	indentMid  = "│   "
	indentLast = "    "
)

// Render returns the current state as tree lines, siblings sorted by name
func (v *FileSystem) Render() []string {
	return v.Tree().Render()
}

// Render returns the tree as lines, siblings sorted by name. Directories are suffixed with "/"
func (t Tree) Render() []string {
	var lines []string
	renderInto(&lines, t, "")
	return lines
}

func renderInto(lines *[]string, t Tree, prefix string) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		last := i == len(names)-1
		branch, indent := branchMid, indentMid
		if last {
			branch, indent = branchLast, indentLast
		}

		child := t[name]
		label := name
		if child != nil {
			label += "/"
		}
		*lines = append(*lines, prefix+branch+label)
		if len(child) > 0 {
			renderInto(lines, child, prefix+indent)
		}
	}
}
