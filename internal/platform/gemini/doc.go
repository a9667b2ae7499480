// Package gemini provides an implementation of the generation.Generator interface
// backed by Google's Gemini API.
//
// The package is an infrastructure adapter: it renders a prompt for the
// requested generation kind, calls Models.GenerateContent through the genai
// client and translates provider failures into *generation.ProviderError so
// the retry layer can classify quota errors and honor retry-after hints.
//
// Prompt templates are embedded in the binary and may be overridden per kind
// by placing <kind>.tmpl files in the configured prompt template directory.
//
// The generator makes exactly one provider call per Generate. Throttling and
// retries belong to the ratelimit and retry packages.
package gemini
