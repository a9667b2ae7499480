package gemini

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/phrazzld/scry-batch/internal/generation"
)

//go:embed prompts/*.tmpl
var embeddedPrompts embed.FS

var kinds = []generation.Kind{
	generation.KindSummary,
	generation.KindDocumentSummary,
	generation.KindTranslation,
}

// promptData is the data passed to every prompt template.
type promptData struct {
	Content        string
	Style          string
	TargetLanguage string
	MaxWords       int
}

// promptSet holds one parsed template per generation kind.
type promptSet struct {
	templates map[generation.Kind]*template.Template
}

// loadPrompts parses the embedded templates, replacing any kind for which
// overrideDir contains a <kind>.tmpl file.
func loadPrompts(overrideDir string) (*promptSet, error) {
	set := &promptSet{templates: make(map[generation.Kind]*template.Template, len(kinds))}

	for _, kind := range kinds {
		name := string(kind) + ".tmpl"

		content, err := fs.ReadFile(embeddedPrompts, "prompts/"+name)
		if err != nil {
			return nil, fmt.Errorf("%w: missing built-in prompt %s: %v", generation.ErrInvalidConfig, name, err)
		}

		if overrideDir != "" {
			override, err := os.ReadFile(filepath.Join(overrideDir, name))
			switch {
			case err == nil:
				content = override
			case errors.Is(err, fs.ErrNotExist):
			default:
				return nil, fmt.Errorf("%w: failed to read prompt template %s: %v",
					generation.ErrInvalidConfig, name, err)
			}
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse prompt template %s: %v",
				generation.ErrInvalidConfig, name, err)
		}
		set.templates[kind] = tmpl
	}

	return set, nil
}

// render builds the prompt for content. opts must already carry defaults.
func (p *promptSet) render(content string, opts generation.Options) (string, error) {
	tmpl, ok := p.templates[opts.Kind]
	if !ok {
		return "", fmt.Errorf("%w: no prompt for kind %q", generation.ErrInvalidOptions, opts.Kind)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Content:        content,
		Style:          string(opts.Style),
		TargetLanguage: opts.TargetLanguage,
		MaxWords:       opts.MaxWords,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
