package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"finsight/internal/domain/news"
	"finsight/pkg/errors"
)

// Compile-time check
var _ news.Repository = (*NewsRepository)(nil)

// NewsRepository implements news.Repository using sqlx and pgvector
type NewsRepository struct {
	db DBTX
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db DBTX) *NewsRepository {
	return &NewsRepository{db: db}
}

// SearchSimilar performs semantic search using pgvector cosine similarity.
// Articles tagged with the asset and untagged market news are both candidates; duplicates by link collapse to the best match.
func (r *NewsRepository) SearchSimilar(ctx context.Context, q news.SearchQuery) ([]news.ScoredArticle, error) {
	var articles []news.ScoredArticle

	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (link)
			       id, link, title, description, source, asset_id, published_at,
			       positive, negative, neutral,
			       1 - (embedding <=> $1) AS similarity
			FROM news_articles
			WHERE (asset_id = $2 OR asset_id IS NULL)
			  AND embedding IS NOT NULL
			  AND 1 - (embedding <=> $1) >= $3
			ORDER BY link, embedding <=> $1
		) candidates
		ORDER BY similarity DESC
		LIMIT $4`

	err := r.db.SelectContext(ctx, &articles, query,
		pgvector.NewVector(q.Embedding), q.AssetID, q.MinScore, q.Limit)
	if err != nil {
		return nil, errors.Wrapf(err, "search news for %s", q.AssetID)
	}
	return articles, nil
}

// Upsert stores an article keyed by link
func (r *NewsRepository) Upsert(ctx context.Context, a *news.Article) error {
	query := `
		INSERT INTO news_articles (
			link, title, description, source, asset_id, published_at,
			positive, negative, neutral, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (link) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			asset_id = EXCLUDED.asset_id,
			positive = EXCLUDED.positive,
			negative = EXCLUDED.negative,
			neutral = EXCLUDED.neutral,
			embedding = EXCLUDED.embedding
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		a.Link, a.Title, a.Description, a.Source, a.AssetID, a.PublishedAt,
		a.Positive, a.Negative, a.Neutral, a.Embedding,
	).Scan(&a.ID)
}

// Count returns the number of indexed articles
func (r *NewsRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM news_articles WHERE embedding IS NOT NULL`); err != nil {
		return 0, errors.Wrap(err, "count news articles")
	}
	return n, nil
}
