package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed user_prompt.tmpl
var userPromptTemplate string

//go:embed system_prompt.md
var systemPrompt string

var userPrompt = template.Must(template.New("user").Parse(userPromptTemplate))

// BuildSystemPrompt returns the system prompt, with the user's organizing style appended if there is one. style is
// YAML
func BuildSystemPrompt(style string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return systemPrompt
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n## Organizing style\n\n")
	b.WriteString("Follow these preferences. Entries under \"User Style\" were written by the user and take precedence ")
	b.WriteString("over entries under \"LLM Style\".\n\n```yaml\n")
	b.WriteString(style)
	b.WriteString("\n```\n")
	return b.String()
}

type userPromptData struct {
	Entries []ListingEntry
}

// BuildUserPrompt returns the user prompt describing the entries to arrange
func BuildUserPrompt(entries []ListingEntry) (string, error) {
	var buf bytes.Buffer
	if err := userPrompt.Execute(&buf, userPromptData{Entries: entries}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
