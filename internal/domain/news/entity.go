package news

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Article is an indexed news article with its embedding and sentiment triple
type Article struct {
	ID          string           `db:"id" json:"id"`
	Link        string           `db:"link" json:"link"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Source      string           `db:"source" json:"source"`
	AssetID     *string          `db:"asset_id" json:"asset_id,omitempty"` // nil for general market news
	PublishedAt time.Time        `db:"published_at" json:"published_at"`
	Positive    float64          `db:"positive" json:"positive"`
	Negative    float64          `db:"negative" json:"negative"`
	Neutral     float64          `db:"neutral" json:"neutral"`
	Embedding   *pgvector.Vector `db:"embedding" json:"-"`
}

// Score is the article's net sentiment in [-1, 1]
func (a *Article) Score() float64 {
	return a.Positive - a.Negative
}

// ScoredArticle pairs an article with its cosine similarity to the search query
type ScoredArticle struct {
	Article
	Similarity float64 `db:"similarity" json:"similarity"`
}

// SearchQuery describes a semantic lookup for one asset
type SearchQuery struct {
	AssetID   string
	Embedding []float32
	MinScore  float64
	Limit     int
}
