package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/phrazzld/scry-batch/internal/generation"
	"google.golang.org/genai"
)

// contentModel is the subset of *genai.Models the generator calls.
type contentModel interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger      *slog.Logger
	models      contentModel
	model       string
	temperature float32
	prompts     *promptSet
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator with a Gemini API client built from cfg.
//
// Parameters:
//   - ctx: Context for client initialization
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing the API key, model name and prompt settings
//
// Returns:
//   - A ready Generator, or an error wrapping generation.ErrInvalidConfig
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(client.Models, logger, cfg)
}

func newGenerator(models contentModel, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	prompts, err := loadPrompts(cfg.PromptTemplateDir)
	if err != nil {
		return nil, err
	}

	return &Generator{
		logger:      logger.With("component", "gemini_generator"),
		models:      models,
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		prompts:     prompts,
	}, nil
}

// validateConfig checks the settings the Gemini client cannot run without.
func validateConfig(cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// Generate renders the prompt for opts and makes a single GenerateContent call.
func (g *Generator) Generate(ctx context.Context, content string, opts generation.Options) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", generation.ErrEmptyContent
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	opts = opts.WithDefaults()

	prompt, err := g.prompts.render(content, opts)
	if err != nil {
		return "", err
	}

	g.logger.DebugContext(ctx, "calling Gemini",
		"model", g.model,
		"kind", opts.Kind,
		"prompt_length", len(prompt))

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		mapped := mapError(err)
		g.logger.WarnContext(ctx, "Gemini call failed",
			"model", g.model,
			"quota", generation.IsQuotaError(mapped),
			"error", mapped)
		return "", mapped
	}

	text, err := extractText(resp)
	if err != nil {
		g.logger.WarnContext(ctx, "unusable Gemini response", "model", g.model, "error", err)
		return "", err
	}

	g.logger.DebugContext(ctx, "Gemini call succeeded", "model", g.model, "result_length", len(text))
	return text, nil
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: candidate has no content", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// isAPIError extracts a genai.APIError, which the client may return by value
// or by pointer.
func isAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
