package embeddings

import (
	"context"
	"time"

	"google.golang.org/genai"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

const defaultGeminiModel = "gemini-embedding-001"

// GeminiProvider embeds text with the Gemini API. Output dimensionality is
// pinned so vectors fit the same column as OpenAI ones; mixing providers in
// one table is still wrong, because the vector spaces differ.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiProvider{
		client:  client,
		model:   model,
		timeout: timeout,
		log:     logger.Get().With("component", "embeddings", "provider", "gemini", "model", model),
	}, nil
}

func (p *GeminiProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: genai.Ptr[int32](StoredDimensions),
	})
	if err != nil {
		return nil, upstreamError(ctx, "gemini", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.Wrap(errors.ErrUnavailable, "gemini embeddings: empty response")
	}

	p.log.Debugw("Generated embedding", "text_length", len(text))
	return checkVector(p.model, resp.Embeddings[0].Values)
}

func (p *GeminiProvider) Dimensions() int { return StoredDimensions }

func (p *GeminiProvider) Name() string { return p.model }
