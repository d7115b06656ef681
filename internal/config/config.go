// Package config provides hierarchical configuration loading for LensForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the LensForge service.
type Config struct {
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Cache    Cache    `yaml:"cache"`
	Provider Provider `yaml:"provider"`
	Engine   Engine   `yaml:"engine"`
	Breaker  Breaker  `yaml:"breaker"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level       string `yaml:"level"`
	Service     string `yaml:"service"`
	Async       bool   `yaml:"async"`
	AsyncBuffer int    `yaml:"async_buffer"`
}

// Cache holds analysis cache configuration.
type Cache struct {
	// Backend selects the store: "memory", "file", or "tiered"
	// (memory in front of file).
	Backend    string        `yaml:"backend"`
	Dir        string        `yaml:"dir"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int64         `yaml:"max_entries"`
}

// Provider holds AI vision provider configuration.
type Provider struct {
	// ID selects the backend: "openai", "openrouter", or a vendor
	// alias ("anthropic", "google", "gemini") routed via OpenRouter.
	ID        string        `yaml:"id"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
	// Temperature is the sampling temperature passed to the chat
	// completion. Zero leaves the vendor default in place.
	Temperature float64 `yaml:"temperature"`
}

// Engine holds batch execution configuration.
type Engine struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
}

// Breaker holds circuit breaker configuration for provider calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:       "info",
			Service:     "lensforge",
			AsyncBuffer: 1024,
		},
		Cache: Cache{
			Backend:    "memory",
			Dir:        ".lensforge/cache",
			TTL:        24 * time.Hour,
			MaxEntries: 10000,
		},
		Provider: Provider{
			ID:        "openai",
			Timeout:   60 * time.Second,
			MaxTokens: 1024,
		},
		Engine: Engine{
			MaxConcurrent: 5,
			CallTimeout:   90 * time.Second,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
	}
}
