package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SCRY_SERVER_PORT.
const EnvPrefix = "SCRY"

// defaults are applied before files and environment variables.
var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 10,
	"auth.token_lifetime_minutes":     60,
	"llm.model_name":                  "gemini-2.0-flash",
	"llm.temperature":                 0.3,
	"pipeline.max_calls_per_window":   15,
	"pipeline.window_seconds":         60,
	"pipeline.min_spacing_seconds":    4,
	"pipeline.max_attempts":           3,
	"pipeline.base_delay_ms":          2000,
	"pipeline.max_delay_ms":           60000,
	"pipeline.max_items_per_batch":    20,
}

// envOnlyKeys have no default but must still be readable from the environment.
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"llm.gemini_api_key",
	"llm.prompt_template_dir",
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files. Every section is validated.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadSections loads configuration like Load but only validates the named
// sections (by their mapstructure keys, e.g. "llm", "pipeline"). Tools that
// never touch the database use it to avoid requiring database settings.
func LoadSections(sections ...string) (*Config, error) {
	return LoadFile("", sections...)
}

// LoadFile loads configuration from an explicit YAML file (or config.yaml in
// the working directory when path is empty) plus the environment, and
// validates the given sections, or all sections when none are named.
func LoadFile(path string, sections ...string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateSections(&cfg, sections); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

func validateSections(cfg *Config, sections []string) error {
	if len(sections) == 0 {
		return validate.Struct(cfg)
	}

	fields, err := sectionFields(sections)
	if err != nil {
		return err
	}
	return validate.StructPartial(cfg, fields...)
}

// sectionFields maps section keys to the namespaced Go field names
// StructPartial expects, including every field of each section.
func sectionFields(sections []string) ([]string, error) {
	cfgType := reflect.TypeOf(Config{})
	var fields []string

	for _, section := range sections {
		found := false
		for i := 0; i < cfgType.NumField(); i++ {
			f := cfgType.Field(i)
			if f.Tag.Get("mapstructure") != section {
				continue
			}
			found = true
			fields = append(fields, f.Name)
			for j := 0; j < f.Type.NumField(); j++ {
				fields = append(fields, f.Name+"."+f.Type.Field(j).Name)
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown config section %q", section)
		}
	}

	return fields, nil
}
