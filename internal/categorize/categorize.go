// Package categorize proposes an arrangement by file extension, without a model.
package categorize

import (
	"fmt"
	"strings"

	"github.com/cchalm/downloads-arranger/internal/command"
	"github.com/cchalm/downloads-arranger/internal/stream"
	"github.com/cchalm/downloads-arranger/internal/vfs"
)

// Other is the category of files no rule matches
const Other = "Others"

// Category maps a set of extensions to a directory name
type Category struct {
	Name       string
	Extensions []string
}

// DefaultCategories are checked in order. Extensions are lower case and include the leading dot
var DefaultCategories = []Category{
	{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}},
	{Name: "Documents", Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".xlsx", ".xls", ".ppt", ".pptx", ".csv"}},
	{Name: "Archives", Extensions: []string{".zip", ".tar.gz", ".tar", ".rar", ".7z", ".bz2", ".dmg", ".iso"}},
	{Name: "Installers", Extensions: []string{".exe", ".msi", ".pkg", ".deb", ".rpm"}},
	{Name: "Development", Extensions: []string{".py", ".js", ".java", ".cpp", ".h", ".json", ".tfstate", ".xml"}},
	{Name: "Media", Extensions: []string{".mp4", ".mkv", ".avi", ".mov", ".mp3", ".wav"}},
	{Name: "Config", Extensions: []string{".pem", ".crt", ".key", ".keystore", ".rdp", ".ovpn"}},
	{Name: "Android", Extensions: []string{".apk"}},
}

// Categorizer assigns files to categories
type Categorizer struct {
	categories []Category
}

func New(categories []Category) *Categorizer {
	return &Categorizer{categories: categories}
}

// Categorize returns the category of a file name. Compound extensions like ".tar.gz" match as a whole
func (c *Categorizer) Categorize(name string) string {
	lower := strings.ToLower(name)
	_, ext := command.SplitExt(lower)
	for _, category := range c.categories {
		for _, e := range category.Extensions {
			if strings.Count(e, ".") > 1 {
				if strings.HasSuffix(lower, e) && len(lower) > len(e) {
					return category.Name
				}
			} else if ext == e {
				return category.Name
			}
		}
	}
	return Other
}

// Commands proposes one directory per category in use, followed by a move for every file. Directories are left alone
func (c *Categorizer) Commands(entries []vfs.Entry) []command.Command {
	var mkdirs, moves []command.Command
	created := map[string]bool{}
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		category := c.Categorize(e.Name)
		if !created[category] {
			created[category] = true
			mkdirs = append(mkdirs, command.MakeDirectory{Name: category})
		}
		moves = append(moves, command.Move{
			Source:          e.Name,
			Target:          category,
			DestinationDir:  category,
			DestinationName: e.Name,
		})
	}
	return append(mkdirs, moves...)
}

// Source renders the proposed commands as a stream, one line per command
func (c *Categorizer) Source(entries []vfs.Entry) stream.ChunkSource {
	var chunks []string
	for _, cmd := range c.Commands(entries) {
		chunks = append(chunks, fmt.Sprintf("%s\n", cmd.Line()))
	}
	return stream.Chunks(chunks...)
}
