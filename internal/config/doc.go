// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components, including
// the throttling and retry limits of the generation pipeline, while keeping
// configuration details separate from business logic.
package config
