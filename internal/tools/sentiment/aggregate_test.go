package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/news"
)

func article(id string, score float64) news.ScoredArticle {
	a := news.ScoredArticle{Article: news.Article{ID: id}}
	if score >= 0 {
		a.Positive = score
	} else {
		a.Negative = -score
	}
	return a
}

func TestAggregate_Mean(t *testing.T) {
	agg := NewAggregator(config.DefaultWorkflowConfig()).Aggregate("SPY", []news.ScoredArticle{
		article("a", 0.8), article("b", -0.2), article("c", 0.4),
	})

	assert.InDelta(t, 0.3333333, agg.Mean, 1e-6)
	assert.Equal(t, Positive, agg.Category)
	assert.Equal(t, []string{"a", "b", "c"}, agg.ArticleIDs)
	assert.Len(t, agg.Scores, 3)
}

func TestAggregate_Empty(t *testing.T) {
	agg := NewAggregator(config.DefaultWorkflowConfig()).Aggregate("SPY", nil)

	assert.Zero(t, agg.Mean)
	assert.Empty(t, agg.ArticleIDs)
	assert.NotNil(t, agg.ArticleIDs)
	assert.Equal(t, Neutral, agg.Category)
}

func TestCategorize_Cutoffs(t *testing.T) {
	a := NewAggregator(config.DefaultWorkflowConfig())

	assert.Equal(t, Positive, a.Categorize(0.2))
	assert.Equal(t, Neutral, a.Categorize(0.19))
	assert.Equal(t, Neutral, a.Categorize(-0.19))
	assert.Equal(t, Negative, a.Categorize(-0.2))
}

func TestAggregateAll_SortedWithVerdict(t *testing.T) {
	in := Input{Articles: map[string][]news.ScoredArticle{
		"TLT": {article("t1", -0.6)},
		"GLD": {},
		"SPY": {article("s1", 0.9), article("s2", 0.5)},
		"QQQ": {article("q1", 0.3)},
	}}

	res, err := NewAggregator(config.DefaultWorkflowConfig()).AggregateAll(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Assets, 4)

	ids := []string{res.Assets[0].AssetID, res.Assets[1].AssetID, res.Assets[2].AssetID, res.Assets[3].AssetID}
	assert.Equal(t, []string{"GLD", "QQQ", "SPY", "TLT"}, ids)
	assert.Equal(t, Overall{Positive: 2, Neutral: 1, Negative: 1, Verdict: VerdictPositive}, res.Overall)
}

func TestSummarize_Mixed(t *testing.T) {
	o := Summarize([]Aggregate{{Category: Positive}, {Category: Negative}})
	assert.Equal(t, VerdictMixed, o.Verdict)

	o = Summarize(nil)
	assert.Equal(t, VerdictMixed, o.Verdict)
}
