package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cchalm/downloads-arranger/internal/session"
)

// PreviewPrinter writes rendered trees to a terminal. Colours are dropped when the writer is not a terminal
type PreviewPrinter struct {
	output io.Writer
	title  lipgloss.Style
	dir    lipgloss.Style
	branch lipgloss.Style
}

func NewPreviewPrinter(output io.Writer) *PreviewPrinter {
	r := lipgloss.NewRenderer(output)
	return &PreviewPrinter{
		output: output,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		dir:    r.NewStyle().Foreground(lipgloss.Color("39")),
		branch: r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (p *PreviewPrinter) Preview(title string, lines []string) {
	var b strings.Builder
	b.WriteString(p.title.Render(fmt.Sprintf("── %s ──", title)))
	b.WriteString("\n")
	if len(lines) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, line := range lines {
		b.WriteString(p.line(line))
		b.WriteString("\n")
	}
	fmt.Fprint(p.output, b.String())
}

// line colours the tree connectors and directory names of one rendered line
func (p *PreviewPrinter) line(line string) string {
	prefix, name := "", line
	if i := connector(line); i >= 0 {
		prefix, name = line[:i+len(connectorMid)], line[i+len(connectorMid):]
	}
	if prefix != "" {
		prefix = p.branch.Render(prefix)
	}
	if strings.HasSuffix(name, "/") {
		name = p.dir.Render(name)
	}
	return prefix + name
}

const (
	connectorMid  = "├── "
	connectorLast = "└── "
)

// connector returns the index of the first branch connector in line, or -1
func connector(line string) int {
	mid, last := strings.Index(line, connectorMid), strings.Index(line, connectorLast)
	switch {
	case mid < 0:
		return last
	case last < 0:
		return mid
	default:
		return min(mid, last)
	}
}

var _ session.Previewer = (*PreviewPrinter)(nil)
