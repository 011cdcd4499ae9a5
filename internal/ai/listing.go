package ai

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ListingEntry describes one top-level entry of the root for the prompt
type ListingEntry struct {
	Name     string
	IsDir    bool
	Size     int64 // For directories, the total size of the regular files beneath it
	Modified time.Time
	Mode     fs.FileMode
}

// List describes the non-hidden top-level entries of fs, sorted by name. fs is rooted at the directory being arranged
func List(fsys afero.Fs) ([]ListingEntry, error) {
	infos, err := afero.ReadDir(fsys, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list root: %w", err)
	}

	var entries []ListingEntry
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}
		entry := ListingEntry{
			Name:     info.Name(),
			IsDir:    info.IsDir(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			Mode:     info.Mode().Perm(),
		}
		if info.IsDir() {
			entry.Size, err = dirSize(fsys, "/"+info.Name())
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// dirSize sums the sizes of regular files beneath dir. Symbolic links are not followed or counted
func dirSize(fsys afero.Fs, dir string) (int64, error) {
	var total int64
	err := afero.Walk(fsys, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtrees are left out of the total
			if p != dir && info != nil && info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure '%s': %w", path.Clean(dir), err)
	}
	return total, nil
}

// FormatSize renders a byte count the way the listing shows it: B below 1KB, otherwise one decimal of KB, MB or GB
func FormatSize(size int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case size < kb:
		return fmt.Sprintf("%dB", size)
	case size < mb:
		return fmt.Sprintf("%.1fKB", float64(size)/kb)
	case size < gb:
		return fmt.Sprintf("%.1fMB", float64(size)/mb)
	default:
		return fmt.Sprintf("%.1fGB", float64(size)/gb)
	}
}

// Describe renders one entry as two prompt lines
func (e ListingEntry) Describe() string {
	kind := "file"
	if e.IsDir {
		kind = "directory"
	}
	return fmt.Sprintf("- [%s] %s\n  size: %s | modified: %s | mode: %03o",
		kind, e.Name, FormatSize(e.Size), e.Modified.Format("2006-01-02 15:04:05"), uint32(e.Mode))
}
