// Package openrouter implements the provider port against the OpenRouter
// chat completions API, which fronts Anthropic, Google, and other vendor
// models behind one OpenAI-compatible endpoint.
package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/LensForge/internal/adapter/prompt"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/provider"
	"github.com/Strob0t/LensForge/internal/resilience"
)

const (
	// DefaultBaseURL is the public OpenRouter endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when the request and config leave the model blank.
	DefaultModel = "anthropic/claude-sonnet-4"

	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 1024
)

// Client talks to the OpenRouter chat completions API.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	httpClient  *http.Client
	breaker     *resilience.Breaker
}

// New constructs a Client from cfg. The API key is mandatory; its
// absence is a configuration error, caught before any batch starts.
func New(cfg provider.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, analysis.NewError(analysis.KindConfiguration, "openrouter: api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

func (c *Client) Name() string { return "openrouter" }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float32       `json:"temperature,omitempty"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the screenshot and query as a multi-part vision message
// and normalizes the response through the shared prompt parser.
func (c *Client) Analyze(ctx context.Context, req analysis.Request, image []byte) (analysis.Result, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(image), base64.StdEncoding.EncodeToString(image))

	body, err := json.Marshal(chatRequest{
		Model:          model,
		MaxTokens:      c.maxTokens,
		Temperature:    c.temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt.Build(req.Query, req.Context)},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return analysis.Result{}, fmt.Errorf("marshal chat request: %w", err)
	}

	data, err := c.doRequest(ctx, body)
	if err != nil {
		return analysis.Result{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return analysis.Result{}, analysis.WrapError(analysis.KindProvider, "openrouter: malformed response", err)
	}
	if len(parsed.Choices) == 0 {
		return analysis.Result{}, analysis.NewError(analysis.KindProvider, "openrouter: response contained no choices")
	}

	ans := prompt.Parse(parsed.Choices[0].Message.Content)
	res := analysis.Result{
		Source:     req.Source,
		Query:      req.Query,
		Viewport:   req.Viewport,
		Answer:     ans.Answer,
		Confidence: ans.Confidence,
		Reasoning:  ans.Reasoning,
		Provider:   c.Name(),
		Model:      model,
		Duration:   time.Since(start),
	}
	if !ans.Structured {
		res.Metadata = map[string]string{"raw_response": "true"}
	}
	return res, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransport(err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return analysis.WrapError(analysis.KindNetwork, "openrouter: read response", err)
		}

		if resp.StatusCode >= 400 {
			return classifyStatus(resp.StatusCode, data)
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			if errors.Is(err, resilience.ErrOpen) {
				return nil, analysis.WrapError(analysis.KindProvider, "openrouter: shedding load", err)
			}
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

func classifyTransport(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return analysis.WrapError(analysis.KindTimeout, "openrouter: request timed out", err)
	case errors.Is(err, context.Canceled):
		return analysis.WrapError(analysis.KindCanceled, "openrouter: request canceled", err)
	}
	return analysis.WrapError(analysis.KindNetwork, "openrouter: request failed", err)
}

func classifyStatus(status int, body []byte) error {
	msg := fmt.Sprintf("openrouter: api error %d: %s", status, string(body))
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return analysis.NewError(analysis.KindAuthentication, msg)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return analysis.NewError(analysis.KindTimeout, msg)
	default:
		return analysis.NewError(analysis.KindProvider, msg)
	}
}
