package generation

import (
	"context"
	"fmt"
	"strings"
)

// Kind selects what the generator produces from a piece of content.
type Kind string

// Supported generation kinds.
const (
	KindSummary         Kind = "summary"
	KindDocumentSummary Kind = "document_summary"
	KindTranslation     Kind = "translation"
)

// Style tunes the shape of generated summaries.
type Style string

// Supported summary styles.
const (
	StyleBrief    Style = "brief"
	StyleDetailed Style = "detailed"
	StyleBullets  Style = "bullets"
)

// Options carries per-request generation settings. The zero value is a
// brief summary.
type Options struct {
	Kind           Kind   `json:"kind,omitempty"            yaml:"kind"`
	TargetLanguage string `json:"targetLanguage,omitempty"  yaml:"target_language"`
	Style          Style  `json:"style,omitempty"           yaml:"style"`
	MaxWords       int    `json:"maxWords,omitempty"        yaml:"max_words"`
}

// WithDefaults returns a copy of o with empty fields filled in.
func (o Options) WithDefaults() Options {
	if o.Kind == "" {
		o.Kind = KindSummary
	}
	if o.Style == "" {
		o.Style = StyleBrief
	}
	o.TargetLanguage = strings.TrimSpace(o.TargetLanguage)
	return o
}

// Validate checks that the options describe a request a generator can serve.
func (o Options) Validate() error {
	switch o.Kind {
	case KindSummary, KindDocumentSummary, KindTranslation, "":
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOptions, o.Kind)
	}

	switch o.Style {
	case StyleBrief, StyleDetailed, StyleBullets, "":
	default:
		return fmt.Errorf("%w: unknown style %q", ErrInvalidOptions, o.Style)
	}

	if o.Kind == KindTranslation && strings.TrimSpace(o.TargetLanguage) == "" {
		return fmt.Errorf("%w: translation requires a target language", ErrInvalidOptions)
	}

	if o.MaxWords < 0 {
		return fmt.Errorf("%w: max words cannot be negative", ErrInvalidOptions)
	}

	return nil
}

// Generator produces text from content using an external model.
type Generator interface {
	// Generate returns the generated text for content.
	//
	// Provider-side failures are returned as *ProviderError (possibly
	// wrapped) so callers can classify them with IsQuotaError and read
	// retry hints with RetryAfter.
	Generate(ctx context.Context, content string, opts Options) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, content string, opts Options) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, content string, opts Options) (string, error) {
	return f(ctx, content, opts)
}
