package embeddings

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// OpenAIProvider embeds text with the OpenAI embeddings endpoint.
// The v3 models accept a dimensions parameter, so large models are shortened to fit.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
		log:     logger.Get().With("component", "embeddings", "provider", "openai", "model", model),
	}, nil
}

func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(p.model),
		Dimensions: openai.Int(StoredDimensions),
	})
	if err != nil {
		return nil, upstreamError(ctx, "openai", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.Wrap(errors.ErrUnavailable, "openai embeddings: empty response")
	}

	// the API returns float64, pgvector stores float32
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}

	p.log.Debugw("Generated embedding", "text_length", len(text), "tokens", resp.Usage.TotalTokens)
	return checkVector(p.model, vec)
}

func (p *OpenAIProvider) Dimensions() int { return StoredDimensions }

func (p *OpenAIProvider) Name() string { return p.model }
