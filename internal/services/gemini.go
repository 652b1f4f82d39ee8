package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ErrRateLimited marks a backend refusal due to quota or rate limiting.
var ErrRateLimited = errors.New("backend rate limited")

// Backend is one generative model endpoint.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiBackend struct {
	models          *genai.Models
	model           string
	temperature     float32
	maxOutputTokens int32
}

type GeminiOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// NewGeminiClient creates the shared genai client used by every Gemini backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiBackends returns one backend per model id, in the given order.
func NewGeminiBackends(client *genai.Client, modelIDs []string, opts GeminiOptions) []Backend {
	backends := make([]Backend, 0, len(modelIDs))
	for _, id := range modelIDs {
		backends = append(backends, &geminiBackend{
			models:          client.Models,
			model:           id,
			temperature:     opts.Temperature,
			maxOutputTokens: opts.MaxOutputTokens,
		})
	}
	return backends
}

func (g *geminiBackend) Name() string {
	return g.model
}

func (g *geminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.maxOutputTokens,
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGeminiError(g.model, err)
	}

	if resp == nil {
		return "", fmt.Errorf("%s: no response generated", g.model)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%s: no text content in response", g.model)
	}

	return text, nil
}

func classifyGeminiError(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%s: %w: %w", model, ErrRateLimited, err)
	}
	return fmt.Errorf("%s: failed to generate text: %w", model, err)
}

// IsRateLimited reports whether err signals a rate limit or quota refusal.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
