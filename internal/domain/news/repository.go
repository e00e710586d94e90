package news

import "context"

// Repository stores and searches news articles
type Repository interface {
	// SearchSimilar returns articles tagged with the asset or untagged, best match first
	SearchSimilar(ctx context.Context, q SearchQuery) ([]ScoredArticle, error)
	Upsert(ctx context.Context, a *Article) error
	Count(ctx context.Context) (int, error)
}
