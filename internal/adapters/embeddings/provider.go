package embeddings

import (
	"context"
	"time"

	"finsight/pkg/errors"
)

// StoredDimensions is the width of news_articles.embedding. Every provider
// is asked for vectors of exactly this size.
const StoredDimensions = 1536

// Provider turns text into a vector comparable with stored article embeddings.
// The model must match the one used at ingestion time.
type Provider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	// Name returns the model name, e.g. "text-embedding-3-small"
	Name() string
}

type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
)

type Config struct {
	Provider ProviderType
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewProvider builds the provider named in cfg
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s embeddings: API key is required", cfg.Provider)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.Timeout)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Timeout)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported embedding provider: %s", cfg.Provider)
	}
}

// checkVector rejects empty input and vectors that would not fit the column
func checkVector(model string, vec []float32) ([]float32, error) {
	if len(vec) != StoredDimensions {
		return nil, errors.Wrapf(errors.ErrInvalidOutput, "%s returned %d dims, want %d", model, len(vec), StoredDimensions)
	}
	return vec, nil
}

// upstreamError classifies an SDK error as a timeout or an outage
func upstreamError(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil {
		return errors.Wrapf(errors.ErrTimeout, "%s embeddings: %v", provider, err)
	}
	return errors.Wrapf(errors.ErrUnavailable, "%s embeddings: %v", provider, err)
}
