package vlm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini implements provider.Model on the Gemini API.
type Gemini struct {
	model   string
	timeout time.Duration
	logger  *slog.Logger

	// generate is overridable for testing.
	generate func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGemini creates a Gemini-backed model client.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Gemini{
		model:    model,
		timeout:  timeout,
		logger:   logger,
		generate: client.Models.GenerateContent,
	}, nil
}

// Generate sends the prompt plus any PNG images and returns the response text.
func (g *Gemini) Generate(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	start := time.Now()
	resp, err := g.generate(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("gemini: timed out after %s", g.timeout)
		}
		return "", fmt.Errorf("gemini: generating content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}

	g.logger.Debug("gemini responded", "model", g.model, "images", len(images), "elapsed", time.Since(start))
	return text, nil
}
