// Package generation defines the boundary between the batch pipeline and
// external AI/LLM text-generation services (Gemini). The Generator interface
// takes one piece of content plus generation options and returns generated
// text; provider failures are reported as ProviderError values so the retry
// layer can tell quota exhaustion apart from other failures without knowing
// which provider is bound.
package generation
