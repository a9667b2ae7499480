package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=43200"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// PromptTemplateDir optionally overrides the built-in prompt templates.
	// Files are named after the generation kind, e.g. summary.tmpl.
	PromptTemplateDir string `mapstructure:"prompt_template_dir"`

	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// PipelineConfig holds the throttling, retry and batch limits of the
// generation pipeline.
type PipelineConfig struct {
	// MaxCallsPerWindow is the provider's call ceiling per window.
	MaxCallsPerWindow int `mapstructure:"max_calls_per_window" validate:"gt=0"`

	// WindowSeconds is the length of the sliding rate-limit window.
	WindowSeconds int `mapstructure:"window_seconds" validate:"gt=0"`

	// MinSpacingSeconds is slept before every provider call.
	MinSpacingSeconds int `mapstructure:"min_spacing_seconds" validate:"gte=0"`

	// MaxAttempts is the per-item attempt budget, including the first try.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gt=0,lte=10"`

	// BaseDelayMs is the backoff after the first failed attempt.
	BaseDelayMs int `mapstructure:"base_delay_ms" validate:"gt=0"`

	// MaxDelayMs caps the computed backoff; provider hints may exceed it.
	MaxDelayMs int `mapstructure:"max_delay_ms" validate:"gtefield=BaseDelayMs"`

	// MaxItemsPerBatch is the largest batch accepted.
	MaxItemsPerBatch int `mapstructure:"max_items_per_batch" validate:"gt=0,lte=100"`
}

// Window returns the rate-limit window as a duration.
func (c PipelineConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// MinSpacing returns the per-call spacing as a duration.
func (c PipelineConfig) MinSpacing() time.Duration {
	return time.Duration(c.MinSpacingSeconds) * time.Second
}

// BaseDelay returns the first backoff delay as a duration.
func (c PipelineConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the backoff cap as a duration.
func (c PipelineConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}
