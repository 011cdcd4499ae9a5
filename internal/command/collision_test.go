package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func takenSet(names ...string) func(string) bool {
	set := map[string]struct{}{}
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

func TestFreeName_Untaken(t *testing.T) {
	require.Equal(t, "a.txt", FreeName("a.txt", takenSet("b.txt")))
}

func TestFreeName_InsertsSuffixBeforeExtension(t *testing.T) {
	require.Equal(t, "a_1.txt", FreeName("a.txt", takenSet("a.txt")))
	require.Equal(t, "a_2.txt", FreeName("a.txt", takenSet("a.txt", "a_1.txt")))
}

func TestFreeName_SkipsToFirstGap(t *testing.T) {
	require.Equal(t, "a_2.txt", FreeName("a.txt", takenSet("a.txt", "a_1.txt", "a_3.txt")))
}

func TestFreeName_NoExtension(t *testing.T) {
	require.Equal(t, "Makefile_1", FreeName("Makefile", takenSet("Makefile")))
}

func TestSplitExt(t *testing.T) {
	cases := []struct {
		name, base, ext string
	}{
		{"a.txt", "a", ".txt"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{".bashrc", ".bashrc", ""},
		{"..hidden.conf", "..hidden", ".conf"},
		{"noext", "noext", ""},
		{"trailing.", "trailing", "."},
	}
	for _, c := range cases {
		base, ext := SplitExt(c.name)
		require.Equal(t, c.base, base, c.name)
		require.Equal(t, c.ext, ext, c.name)
	}
}
