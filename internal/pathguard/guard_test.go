package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/downloads-arranger/internal/command"
)

// newTestRoot creates a root directory inside a temp dir, so there is an "outside" to escape to
func newTestRoot(t *testing.T) (*Guard, string) {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "Downloads")
	require.NoError(t, os.Mkdir(root, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(base, "outside"), 0o755))

	g, err := New(root)
	require.NoError(t, err)
	return g, base
}

func TestNew_CanonicalizesRoot(t *testing.T) {
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	require.NoError(t, os.Mkdir(realDir, 0o755))
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(realDir, link))

	g, err := New(link)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)
	require.Equal(t, want, g.Root())
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrRootNotFound)
}

func TestNew_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err := New(file)
	require.Error(t, err)
}

func TestConfine_AcceptsPathsInsideRoot(t *testing.T) {
	g, _ := newTestRoot(t)
	require.NoError(t, os.Mkdir(filepath.Join(g.Root(), "Docs"), 0o755))

	for _, arg := range []string{
		"Docs",
		"Docs/new.txt",
		"does-not-exist-yet",
		"./Docs",
		"Docs/../Images",
		"a/b/c/d",
		"with space.txt",
		"学习-Python",
	} {
		require.NoError(t, g.Confine(arg), arg)
	}
}

func TestConfine_RejectsDotDotEscapes(t *testing.T) {
	g, _ := newTestRoot(t)

	for _, arg := range []string{
		"..",
		"../outside",
		"../../etc",
		"Docs/../../outside",
		"a/b/../../../etc/passwd",
		"/etc",
	} {
		err := g.Confine(arg)
		require.ErrorIs(t, err, ErrEscapesRoot, arg)

		var ee *EscapeError
		require.ErrorAs(t, err, &ee)
		require.Equal(t, arg, ee.Arg)
	}
}

func TestConfine_RejectsRootItself(t *testing.T) {
	g, _ := newTestRoot(t)

	for _, arg := range []string{".", "", "Docs/..", "./"} {
		require.ErrorIs(t, g.Confine(arg), ErrEscapesRoot, arg)
	}
}

func TestConfine_RejectsSiblingWithSharedPrefix(t *testing.T) {
	g, base := newTestRoot(t)
	require.NoError(t, os.Mkdir(filepath.Join(base, "Downloads-old"), 0o755))

	require.ErrorIs(t, g.Confine("../Downloads-old/x"), ErrEscapesRoot)
}

func TestConfine_AcceptsAbsolutePathInsideRoot(t *testing.T) {
	g, _ := newTestRoot(t)
	require.NoError(t, g.Confine(filepath.Join(g.Root(), "Docs")))
}

func TestConfine_RejectsSymlinkEscape(t *testing.T) {
	g, base := newTestRoot(t)
	require.NoError(t, os.Symlink(filepath.Join(base, "outside"), filepath.Join(g.Root(), "sneaky")))

	require.ErrorIs(t, g.Confine("sneaky"), ErrEscapesRoot)
	require.ErrorIs(t, g.Confine("sneaky/file.txt"), ErrEscapesRoot)
}

func TestConfine_RejectsRelativeSymlinkEscape(t *testing.T) {
	g, _ := newTestRoot(t)
	require.NoError(t, os.Symlink("../outside", filepath.Join(g.Root(), "sneaky")))

	require.ErrorIs(t, g.Confine("sneaky/file.txt"), ErrEscapesRoot)
}

func TestConfine_DotDotAppliesAfterSymlink(t *testing.T) {
	g, base := newTestRoot(t)
	deep := filepath.Join(base, "outside", "deep")
	require.NoError(t, os.Mkdir(deep, 0o755))
	require.NoError(t, os.Symlink(deep, filepath.Join(g.Root(), "link")))

	// Lexically this is root/x, but the kernel would resolve it to outside/x
	require.ErrorIs(t, g.Confine("link/../x"), ErrEscapesRoot)
}

func TestConfine_AcceptsSymlinkInsideRoot(t *testing.T) {
	g, _ := newTestRoot(t)
	require.NoError(t, os.Mkdir(filepath.Join(g.Root(), "Real"), 0o755))
	require.NoError(t, os.Symlink("Real", filepath.Join(g.Root(), "alias")))

	require.NoError(t, g.Confine("alias/file.txt"))
}

func TestConfine_SymlinkLoop(t *testing.T) {
	g, _ := newTestRoot(t)
	require.NoError(t, os.Symlink("loop", filepath.Join(g.Root(), "loop")))

	require.ErrorIs(t, g.Confine("loop/x"), ErrSymlinkLoop)
}

func TestConfine_FileUsedAsDirectory(t *testing.T) {
	g, _ := newTestRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "a.txt"), nil, 0o644))

	require.NoError(t, g.Confine("a.txt/b"))
}

func TestRelative_CleansArguments(t *testing.T) {
	g, _ := newTestRoot(t)

	cases := map[string]string{
		"Docs":                           "Docs",
		"./Docs/":                        "Docs",
		"Docs//sub":                      "Docs/sub",
		"Docs/../Images":                 "Images",
		filepath.Join(g.Root(), "Media"): "Media",
	}
	for arg, want := range cases {
		got, err := g.Relative(arg)
		require.NoError(t, err, arg)
		require.Equal(t, want, got, arg)
	}
}

func TestValidate_MakeDirectory(t *testing.T) {
	g, _ := newTestRoot(t)

	outcome := g.Validate(command.MakeDirectory{Name: "./Docs"})
	require.True(t, outcome.Accepted())
	require.Equal(t, command.MakeDirectory{Name: "Docs"}, outcome.Command)
}

func TestValidate_RejectsEtcEscapeRegardlessOfContents(t *testing.T) {
	g, _ := newTestRoot(t)
	cmd, err := command.Parse("mkdir -p '../../etc'")
	require.NoError(t, err)

	outcome := g.Validate(cmd)
	require.False(t, outcome.Accepted())
	require.Nil(t, outcome.Command)
	require.ErrorIs(t, outcome.Reason, ErrEscapesRoot)
}

func TestValidate_MoveChecksEveryArgument(t *testing.T) {
	g, _ := newTestRoot(t)

	cases := []string{
		"mv '../secret.txt' 'Docs'",
		"mv 'x.txt' '../outside'",
		"mv 'x.txt' 'Docs/../../outside'",
		"mv 'x.txt' '..'",
	}
	for _, line := range cases {
		cmd, err := command.Parse(line)
		require.NoError(t, err, line)

		outcome := g.Validate(cmd)
		require.False(t, outcome.Accepted(), line)
		require.ErrorIs(t, outcome.Reason, ErrEscapesRoot, line)
	}
}

func TestValidate_MoveAccepted(t *testing.T) {
	g, _ := newTestRoot(t)
	cmd, err := command.Parse("mv './x.txt' 'Docs/y.txt'")
	require.NoError(t, err)

	outcome := g.Validate(cmd)
	require.True(t, outcome.Accepted())
	require.Equal(t, command.Move{
		Source:          "x.txt",
		Target:          "Docs/y.txt",
		DestinationDir:  "Docs",
		DestinationName: "y.txt",
	}, outcome.Command)
}

func TestValidate_MoveIntoRootIsRejected(t *testing.T) {
	g, _ := newTestRoot(t)
	// The target splits into directory "." and name "Docs", and "." is the root itself
	cmd, err := command.Parse("mv 'x.txt' './Docs'")
	require.NoError(t, err)

	require.False(t, g.Validate(cmd).Accepted())
}

// newCleaningEscapeRoot builds a root where "link/../evil" resolves inside the root but its cleaned form "evil" is a
// symlink to the outside
func newCleaningEscapeRoot(t *testing.T) (*Guard, string) {
	t.Helper()
	g, base := newTestRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(g.Root(), "a", "b"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join("a", "b"), filepath.Join(g.Root(), "link")))
	require.NoError(t, os.Symlink(filepath.Join(base, "outside"), filepath.Join(g.Root(), "evil")))
	return g, base
}

func TestRelative_RejectsCleanedFormThatEscapes(t *testing.T) {
	g, _ := newCleaningEscapeRoot(t)

	// As written this resolves to root/a/evil/new
	require.NoError(t, g.Confine("link/../evil/new"))

	_, err := g.Relative("link/../evil/new")
	require.ErrorIs(t, err, ErrEscapesRoot)
}

func TestValidate_RejectsCleanedFormThatEscapes(t *testing.T) {
	g, _ := newCleaningEscapeRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "x.txt"), nil, 0o644))

	for _, line := range []string{
		"mkdir -p 'link/../evil/new'",
		"mv 'x.txt' 'link/../evil'",
		"mv 'link/../evil/x.txt' 'a'",
	} {
		cmd, err := command.Parse(line)
		require.NoError(t, err, line)

		outcome := g.Validate(cmd)
		require.False(t, outcome.Accepted(), line)
		require.ErrorIs(t, outcome.Reason, ErrEscapesRoot, line)
	}
}

func TestValidate_MoveCleansDestinationName(t *testing.T) {
	g, _ := newTestRoot(t)

	cases := map[string]command.Move{
		"mv 'x.txt' 'Docs/./b.txt'": {
			Source: "x.txt", Target: "Docs/./b.txt", DestinationDir: "Docs", DestinationName: "b.txt",
		},
		"mv 'x.txt' 'Docs/sub/../b.txt'": {
			Source: "x.txt", Target: "Docs/sub/../b.txt", DestinationDir: "Docs", DestinationName: "b.txt",
		},
		"mv 'x.txt' 'Docs/sub/b.txt'": {
			Source: "x.txt", Target: "Docs/sub/b.txt", DestinationDir: "Docs/sub", DestinationName: "b.txt",
		},
	}
	for line, want := range cases {
		cmd, err := command.Parse(line)
		require.NoError(t, err, line)

		outcome := g.Validate(cmd)
		require.True(t, outcome.Accepted(), line)
		require.Equal(t, want, outcome.Command, line)
	}
}

func TestValidate_MoveWhoseNameClimbsToRootIsRejected(t *testing.T) {
	g, _ := newTestRoot(t)
	cmd, err := command.Parse("mv 'x.txt' 'Docs/sub/..'")
	require.NoError(t, err)

	outcome := g.Validate(cmd)
	require.False(t, outcome.Accepted())
	require.ErrorIs(t, outcome.Reason, ErrDestinationIsRoot)
}
