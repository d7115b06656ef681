// Package provider defines the port interface for AI vision backends.
package provider

import (
	"context"
	"time"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
)

// Config holds the construction-time settings shared by all providers.
// A missing credential is a configuration error at construction, never
// mid-batch.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// Provider is the uniform capability every AI vision backend implements.
// Analyze normalizes the vendor response into an analysis.Result and maps
// transport/auth failures to typed *analysis.Error values; it never
// returns an unstructured error for a class the taxonomy covers.
type Provider interface {
	// Name returns the provider identifier ("openai", "openrouter").
	Name() string

	// Analyze answers the request's query about the given image bytes.
	Analyze(ctx context.Context, req analysis.Request, image []byte) (analysis.Result, error)
}
