package command

import (
	"fmt"
	"strings"
)

// FreeName returns name if it is not taken, otherwise the first of name_1, name_2, ... (suffix inserted before the
// extension) that is not taken
func FreeName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	base, ext := SplitExt(name)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}

// SplitExt splits name into base and extension at the last dot. Leading dots belong to the base, so ".bashrc" has no
// extension and "a.tar.gz" has extension ".gz"
func SplitExt(name string) (base string, ext string) {
	leading := len(name) - len(strings.TrimLeft(name, "."))
	i := strings.LastIndex(name[leading:], ".")
	if i < 0 {
		return name, ""
	}
	i += leading
	return name[:i], name[i:]
}
