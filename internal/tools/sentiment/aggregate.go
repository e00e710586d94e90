package sentiment

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/news"
	"finsight/internal/tools"
)

// Category buckets a mean sentiment score
type Category string

const (
	Positive Category = "positive"
	Neutral  Category = "neutral"
	Negative Category = "negative"
)

// Verdict summarizes the categories across all assets
type Verdict string

const (
	VerdictPositive Verdict = "POSITIVE"
	VerdictNegative Verdict = "NEGATIVE"
	VerdictMixed    Verdict = "MIXED"
)

// Input is the set of retrieved articles per asset
type Input struct {
	Articles map[string][]news.ScoredArticle
}

// Aggregate is the sentiment of one asset
type Aggregate struct {
	AssetID    string    `json:"asset_id"`
	ArticleIDs []string  `json:"article_ids"`
	Scores     []float64 `json:"scores"`
	Mean       float64   `json:"mean"`
	Category   Category  `json:"category"`
}

// Overall tallies categories across assets
type Overall struct {
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Verdict  Verdict `json:"verdict"`
}

// Result holds one aggregate per asset, sorted by asset id, and the overall tally
type Result struct {
	Assets  []Aggregate `json:"assets"`
	Overall Overall     `json:"overall"`
}

// Aggregator averages article sentiment per asset
type Aggregator struct {
	positive float64
	negative float64
}

// NewAggregator creates the sentiment aggregate tool with configured category cutoffs
func NewAggregator(cfg config.WorkflowConfig) *Aggregator {
	return &Aggregator{positive: cfg.PositiveCutoff, negative: cfg.NegativeCutoff}
}

// Tool exposes the aggregation through the tools.Tool interface
func (a *Aggregator) Tool() tools.Tool {
	return tools.Typed(tools.SentimentAggregateTool,
		"Unweighted mean news sentiment per asset with an overall verdict",
		a.AggregateAll)
}

// AggregateAll aggregates every asset in the input. It never fails: an asset without articles is neutral.
func (a *Aggregator) AggregateAll(_ context.Context, in Input) (*Result, error) {
	ids := make([]string, 0, len(in.Articles))
	for id := range in.Articles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := &Result{Assets: make([]Aggregate, 0, len(ids))}
	for _, id := range ids {
		agg := a.Aggregate(id, in.Articles[id])
		res.Assets = append(res.Assets, agg)
	}
	res.Overall = Summarize(res.Assets)
	return res, nil
}

// Aggregate computes the unweighted mean of positive - negative over the articles.
// No articles gives mean 0 and an empty id set.
func (a *Aggregator) Aggregate(assetID string, articles []news.ScoredArticle) Aggregate {
	agg := Aggregate{
		AssetID:    assetID,
		ArticleIDs: make([]string, 0, len(articles)),
		Scores:     make([]float64, 0, len(articles)),
	}
	for i := range articles {
		agg.ArticleIDs = append(agg.ArticleIDs, articles[i].ID)
		agg.Scores = append(agg.Scores, articles[i].Score())
	}

	if len(agg.Scores) > 0 {
		agg.Mean = stat.Mean(agg.Scores, nil)
	}
	agg.Category = a.Categorize(agg.Mean)
	return agg
}

// Categorize maps a mean score to a category using the configured cutoffs (inclusive)
func (a *Aggregator) Categorize(mean float64) Category {
	switch {
	case mean >= a.positive:
		return Positive
	case mean <= a.negative:
		return Negative
	default:
		return Neutral
	}
}

// Summarize counts categories. The verdict is the category holding a strict majority of the
// counts over each other category; ties and neutral leads are MIXED.
func Summarize(aggs []Aggregate) Overall {
	var o Overall
	for _, a := range aggs {
		switch a.Category {
		case Positive:
			o.Positive++
		case Negative:
			o.Negative++
		default:
			o.Neutral++
		}
	}

	switch {
	case o.Positive > o.Negative && o.Positive > o.Neutral:
		o.Verdict = VerdictPositive
	case o.Negative > o.Positive && o.Negative > o.Neutral:
		o.Verdict = VerdictNegative
	default:
		o.Verdict = VerdictMixed
	}
	return o
}
