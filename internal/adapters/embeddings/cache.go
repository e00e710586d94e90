package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Cache is the subset of the redis adapter used for query embeddings
type Cache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
}

// CachedProvider memoizes embeddings of identical texts.
// Search queries are built from asset metadata and repeat on every run.
type CachedProvider struct {
	inner Provider
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedProvider wraps inner with a cache
func NewCachedProvider(inner Provider, cache Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().With("component", "embedding_cache"),
	}
}

// GenerateEmbedding returns the cached vector or computes and stores it.
// Cache failures never fail the call.
func (p *CachedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := p.key(text)

	var cached []float32
	err := p.cache.GetJSON(ctx, key, &cached)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		p.log.Warn("Embedding cache read failed", "error", err)
	}

	vec, err := p.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetJSON(ctx, key, vec, p.ttl); err != nil {
		p.log.Warn("Embedding cache write failed", "error", err)
	}
	return vec, nil
}

// Dimensions delegates to the wrapped provider
func (p *CachedProvider) Dimensions() int { return p.inner.Dimensions() }

// Name delegates to the wrapped provider
func (p *CachedProvider) Name() string { return p.inner.Name() }

func (p *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + p.inner.Name() + ":" + hex.EncodeToString(sum[:16])
}
