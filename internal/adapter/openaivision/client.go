// Package openaivision implements the provider port against the OpenAI
// chat completions API with image input.
package openaivision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Strob0t/LensForge/internal/adapter/prompt"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/provider"
)

const (
	// DefaultModel is used when the request and config leave the model blank.
	DefaultModel = "gpt-4o"

	defaultMaxTokens = 1024
)

// Client answers vision queries through the OpenAI API.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New constructs a Client from cfg. The API key is mandatory; its
// absence is a configuration error, caught before any batch starts.
func New(cfg provider.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, analysis.NewError(analysis.KindConfiguration, "openai: api key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) Name() string { return "openai" }

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

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.Build(req.Query, req.Context)},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
					},
				},
			},
		},
	})
	if err != nil {
		return analysis.Result{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return analysis.Result{}, analysis.NewError(analysis.KindProvider, "openai: response contained no choices")
	}

	ans := prompt.Parse(resp.Choices[0].Message.Content)
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

// classify maps transport and API failures onto the engine's error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return analysis.WrapError(analysis.KindTimeout, "openai: request timed out", err)
	case errors.Is(err, context.Canceled):
		return analysis.WrapError(analysis.KindCanceled, "openai: request canceled", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return analysis.WrapError(analysis.KindAuthentication, "openai: credentials rejected", err)
		case http.StatusTooManyRequests:
			return analysis.WrapError(analysis.KindProvider, "openai: rate limited", err)
		default:
			return analysis.WrapError(analysis.KindProvider, "openai: api error", err)
		}
	}

	return analysis.WrapError(analysis.KindNetwork, "openai: request failed", err)
}
