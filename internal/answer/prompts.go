package answer

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.md
var promptFS embed.FS

// promptTemplates holds every prompt, keyed by filename. Parsed once at
// package init; reused on every call.
var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.md"))

// renderPrompt executes the named prompt template with data.
func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
