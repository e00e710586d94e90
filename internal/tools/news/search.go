package news

import (
	"context"
	"fmt"

	"finsight/internal/adapters/config"
	"finsight/internal/adapters/embeddings"
	"finsight/internal/domain/news"
	"finsight/internal/tools"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Input identifies the asset to search news for
type Input struct {
	AssetID     string
	Description string
}

// Result is the ranked article list for one asset. An empty list is a valid result.
type Result struct {
	AssetID   string               `json:"asset_id"`
	Query     string               `json:"query"`
	Threshold float64              `json:"threshold"` // the similarity cutoff that produced the articles
	Articles  []news.ScoredArticle `json:"articles"`
}

// SearchTool retrieves news by embedding similarity
type SearchTool struct {
	repo       news.Repository
	embedder   embeddings.Provider
	topK       int
	thresholds []float64
	log        *logger.Logger
}

// NewSearchTool creates the semantic news search tool
func NewSearchTool(repo news.Repository, embedder embeddings.Provider, cfg config.WorkflowConfig) *SearchTool {
	return &SearchTool{
		repo:       repo,
		embedder:   embedder,
		topK:       cfg.NewsTopK,
		thresholds: cfg.SimilarityThresholds,
		log:        logger.Get().With("component", "news_search_tool"),
	}
}

// Tool exposes the search through the tools.Tool interface
func (t *SearchTool) Tool() tools.Tool {
	return tools.Typed(tools.NewsSearchTool,
		"News articles most similar to an asset query, best match first",
		t.Search)
}

// QueryText is the text embedded to search news for an asset
func QueryText(assetID, description string) string {
	if description == "" {
		return fmt.Sprintf("financial news analysis about %s", assetID)
	}
	return fmt.Sprintf("financial news analysis about %s (%s)", assetID, description)
}

// Search embeds the asset query and walks the similarity thresholds from strictest to loosest,
// stopping at the first that yields articles. Index or embedding failures are ErrSearchUnavailable.
func (t *SearchTool) Search(ctx context.Context, in Input) (*Result, error) {
	query := QueryText(in.AssetID, in.Description)
	res := &Result{AssetID: in.AssetID, Query: query, Articles: []news.ScoredArticle{}}

	vec, err := t.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrSearchUnavailable, err), "embed query for %s", in.AssetID)
	}

	for _, threshold := range t.thresholds {
		found, err := t.repo.SearchSimilar(ctx, news.SearchQuery{
			AssetID:   in.AssetID,
			Embedding: vec,
			MinScore:  threshold,
			Limit:     t.topK,
		})
		if err != nil {
			return nil, errors.Wrapf(errors.Join(errors.ErrSearchUnavailable, err), "search news for %s", in.AssetID)
		}

		found = dedupe(found, t.topK)
		if len(found) > 0 {
			res.Threshold = threshold
			res.Articles = found
			break
		}
	}

	t.log.Debug("news search finished",
		"asset_id", in.AssetID,
		"articles", len(res.Articles),
		"threshold", res.Threshold,
	)
	return res, nil
}

// dedupe keeps the first occurrence of each link and at most limit articles
func dedupe(in []news.ScoredArticle, limit int) []news.ScoredArticle {
	seen := make(map[string]struct{}, len(in))
	out := make([]news.ScoredArticle, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a.Link]; ok {
			continue
		}
		seen[a.Link] = struct{}{}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
