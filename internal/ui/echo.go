package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// EchoWriter writes streamed model output faintly, so it stands apart from the previews
type EchoWriter struct {
	output io.Writer
	style  lipgloss.Style
}

func NewEchoWriter(output io.Writer) *EchoWriter {
	return &EchoWriter{
		output: output,
		style:  lipgloss.NewRenderer(output).NewStyle().Faint(true),
	}
}

// Write styles each line fragment separately. Chunks split lines arbitrarily and lipgloss would pad a multi-line block
func (e *EchoWriter) Write(p []byte) (int, error) {
	parts := strings.Split(string(p), "\n")
	for i, part := range parts {
		if part != "" {
			parts[i] = e.style.Render(part)
		}
	}
	if _, err := io.WriteString(e.output, strings.Join(parts, "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}
