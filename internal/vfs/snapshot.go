package vfs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Load returns the non-hidden top-level entries of fs, sorted by name. fs is expected to be rooted at the directory
// being arranged, e.g. with afero.NewBasePathFs
func Load(fs afero.Fs) ([]Entry, error) {
	infos, err := afero.ReadDir(fs, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list root: %w", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if isHidden(info.Name()) {
			continue
		}
		entries = append(entries, Entry{Name: info.Name(), IsDir: info.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Observe reads the real state of fs to the same depth the simulation models: top-level entries and the direct
// children of top-level directories
func Observe(fs afero.Fs) (Tree, error) {
	entries, err := Load(fs)
	if err != nil {
		return nil, err
	}

	t := make(Tree, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			t[e.Name] = nil
			continue
		}
		children, err := afero.ReadDir(fs, "/"+e.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to list '%s': %w", e.Name, err)
		}
		sub := make(Tree, len(children))
		for _, c := range children {
			if isHidden(c.Name()) {
				continue
			}
			if c.IsDir() {
				sub[c.Name()] = Tree{}
			} else {
				sub[c.Name()] = nil
			}
		}
		t[e.Name] = sub
	}
	return t, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
