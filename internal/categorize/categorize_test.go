package categorize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/downloads-arranger/internal/command"
	"github.com/cchalm/downloads-arranger/internal/stream"
	"github.com/cchalm/downloads-arranger/internal/vfs"
)

func TestCategorize(t *testing.T) {
	c := New(DefaultCategories)
	cases := map[string]string{
		"photo.JPG":         "Images",
		"report.pdf":        "Documents",
		"backup.tar.gz":     "Archives",
		"backup.tar":        "Archives",
		"logs.gz":           Other,
		"setup.exe":         "Installers",
		"main.py":           "Development",
		"song.mp3":          "Media",
		"server.pem":        "Config",
		"app.apk":           "Android",
		"Makefile":          Other,
		".tar.gz":           Other,
		"terraform.tfstate": "Development",
	}
	for name, want := range cases {
		require.Equal(t, want, c.Categorize(name), name)
	}
}

func TestCommands_DirectoriesFirstThenMoves(t *testing.T) {
	c := New(DefaultCategories)
	cmds := c.Commands([]vfs.Entry{
		{Name: "a.png"},
		{Name: "Existing", IsDir: true},
		{Name: "b.pdf"},
		{Name: "c.jpg"},
	})

	var lines []string
	for _, cmd := range cmds {
		lines = append(lines, cmd.Line())
	}
	require.Equal(t, []string{
		"mkdir -p 'Images'",
		"mkdir -p 'Documents'",
		"mv 'a.png' 'Images'",
		"mv 'b.pdf' 'Documents'",
		"mv 'c.jpg' 'Images'",
	}, lines)
}

func TestSource_ParsesBackToSameCommands(t *testing.T) {
	c := New(DefaultCategories)
	entries := []vfs.Entry{{Name: "a.png"}, {Name: "notes"}}

	tok := stream.NewLineTokenizer(c.Source(entries))
	var parsed []command.Command
	for tok.Next(context.Background()) {
		cmd, err := command.Parse(tok.Line())
		require.NoError(t, err)
		parsed = append(parsed, cmd)
	}
	require.Equal(t, c.Commands(entries), parsed)
}

func TestSource_SimulatesCleanly(t *testing.T) {
	c := New(DefaultCategories)
	entries := []vfs.Entry{{Name: "a.png"}, {Name: "b.png"}, {Name: "Docs", IsDir: true}}
	v := vfs.New(entries)
	for _, cmd := range c.Commands(entries) {
		_, err := v.Apply(cmd)
		require.NoError(t, err)
	}
	require.Equal(t, vfs.Tree{"Docs": vfs.Tree{}, "Images": vfs.Tree{"a.png": nil, "b.png": nil}}, v.Tree())
}
