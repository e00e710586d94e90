package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// GeminiCompleter implements Completer with the Google Gen AI SDK
type GeminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
	log         *logger.Logger
}

// NewGeminiCompleter creates a Gemini API backed completer
func NewGeminiCompleter(ctx context.Context, apiKey, model string, temperature float64) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiCompleter{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		log:         logger.Get().With("component", "gemini_completer", "model", model),
	}, nil
}

// Complete generates content for a single text prompt
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string, maxLen int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if maxLen > 0 {
		cfg.MaxOutputTokens = int32(maxLen)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(errors.ErrTimeout, "gemini: "+err.Error())
		}
		return "", errors.Wrap(errors.ErrUnavailable, "gemini: "+err.Error())
	}

	text := strings.TrimSpace(resp.Text())
	if resp.UsageMetadata != nil {
		c.log.Debug("Completion received",
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, nil
}
