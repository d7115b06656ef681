package service

import (
	"os"
	"time"

	"github.com/Strob0t/LensForge/internal/adapter/openaivision"
	"github.com/Strob0t/LensForge/internal/adapter/openrouter"
	"github.com/Strob0t/LensForge/internal/config"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/provider"
	"github.com/Strob0t/LensForge/internal/resilience"
)

// NewProvider constructs the vision backend named by cfg.ID.
// "openai" talks to the OpenAI API directly; "openrouter" and the
// vendor aliases "anthropic", "google", and "gemini" all route through
// OpenRouter. An unknown ID is a configuration error.
func NewProvider(cfg config.Provider, breaker config.Breaker) (provider.Provider, error) {
	pc := provider.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxTokens:   cfg.MaxTokens,
		Temperature: float32(cfg.Temperature),
	}

	switch cfg.ID {
	case "openai":
		if pc.APIKey == "" {
			pc.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		return openaivision.New(pc)
	case "openrouter", "anthropic", "google", "gemini":
		if pc.APIKey == "" {
			pc.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
		c, err := openrouter.New(pc)
		if err != nil {
			return nil, err
		}
		c.SetBreaker(newBreaker(breaker))
		return c, nil
	default:
		return nil, analysis.NewError(analysis.KindConfiguration, "unknown provider "+cfg.ID)
	}
}

func newBreaker(cfg config.Breaker) *resilience.Breaker {
	if cfg.MaxFailures < 1 {
		return nil
	}
	cooldown := cfg.Timeout
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return resilience.NewBreaker(cfg.MaxFailures, cooldown)
}
