package synthesis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/ai"
	"finsight/internal/adapters/config"
	"finsight/internal/domain/news"
	domainportfolio "finsight/internal/domain/portfolio"
	"finsight/internal/domain/profile"
	"finsight/internal/domain/report"
	"finsight/internal/tools/macro"
	"finsight/internal/tools/portfolio"
	"finsight/internal/tools/sentiment"
	"finsight/internal/tools/trend"
	"finsight/internal/tools/volatility"
	"finsight/pkg/errors"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		AgentID:      profile.MarketAnalysisAgentID,
		Role:         "Market Analyst",
		KindOfData:   "market data",
		Motive:       "diagnose",
		Instructions: "be brief",
		Rules:        "plain text",
		Goals:        "daily diagnosis",
		MaxWords:     80,
	}
}

func analysisSlice() Slice {
	return Slice{
		Kind: report.KindMarketAnalysis,
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		View: AnalysisView{
			Allocation: portfolio.Result{
				PortfolioID: "P1",
				Positions: []domainportfolio.Position{
					{AssetID: "SPY", Description: "S&P 500 ETF", AssetType: domainportfolio.AssetTypeEquity, Allocation: decimal.NewFromInt(60)},
					{AssetID: "TLT", Description: "Treasury ETF", AssetType: domainportfolio.AssetTypeBond, Allocation: decimal.NewFromInt(38)},
				},
				RiskProfile: domainportfolio.RiskProfile{ID: "BALANCE"},
			},
			Trends: []TrendEntry{
				{AssetID: "SPY", Trend: &trend.Result{AssetID: "SPY", Diagnosis: "SPY is trading above its moving average"}},
				{AssetID: "TLT", Degraded: true, Reason: "insufficient history"},
			},
			Macro: macro.Result{Entries: []macro.Entry{
				{Diagnosis: "GDP is up by +1.2% with respect to the previous period"},
			}},
			Volatility: volatility.Result{Diagnosis: "VIX rose 15.00% to 23"},
		},
		Warnings: []string{"allocations sum to 98.00%, expected 100% within 0.5 points"},
	}
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "word"
	}
	return strings.Join(w, " ")
}

func fixedCompleter(text string, err error) ai.Completer {
	return ai.CompleterFunc(func(ctx context.Context, prompt string, maxLen int) (string, error) {
		return text, err
	})
}

func TestPrompt_ContainsProfileDataAndWarnings(t *testing.T) {
	s := New(fixedCompleter("", nil), nil, config.DefaultWorkflowConfig())

	prompt, err := s.Prompt(testProfile(), analysisSlice())
	require.NoError(t, err)

	assert.Contains(t, prompt, "You are a Market Analyst.")
	assert.Contains(t, prompt, "at most 80 words")
	assert.Contains(t, prompt, "SPY is trading above its moving average")
	assert.Contains(t, prompt, "TLT: trend unavailable (insufficient history)")
	assert.Contains(t, prompt, "GDP is up by +1.2%")
	assert.Contains(t, prompt, "allocations sum to 98.00%")
	assert.Contains(t, prompt, "2026-03-02")
}

func TestPrompt_RespectsCharacterBudget(t *testing.T) {
	cfg := config.DefaultWorkflowConfig()
	cfg.PromptCharBudget = 900
	s := New(fixedCompleter("", nil), nil, cfg)

	slice := analysisSlice()
	view := slice.View.(AnalysisView)
	for i := 0; i < 50; i++ {
		view.Trends = append(view.Trends, TrendEntry{AssetID: "X", Trend: &trend.Result{Diagnosis: words(20)}})
	}
	slice.View = view

	prompt, err := s.Prompt(testProfile(), slice)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(prompt)), 900)
	assert.Contains(t, prompt, "at most 80 words")
	assert.True(t, strings.HasSuffix(prompt, truncationMark))
}

func TestPrompt_BoundsNewsArticles(t *testing.T) {
	cfg := config.DefaultWorkflowConfig()
	s := New(fixedCompleter("", nil), nil, cfg)

	long := strings.Repeat("h", 500)
	var articles []news.ScoredArticle
	for i := 0; i < 5; i++ {
		articles = append(articles, news.ScoredArticle{Article: news.Article{Title: long, Description: "desc"}})
	}
	view := NewsView{
		Allocation: portfolio.Result{PortfolioID: "P1"},
		Assets: []AssetNews{{
			AssetID:   "SPY",
			Sentiment: sentiment.Aggregate{AssetID: "SPY", Category: sentiment.Neutral},
			Articles:  articles,
		}},
		Overall: sentiment.Overall{Neutral: 1, Verdict: sentiment.VerdictMixed},
	}

	prompt, err := s.Prompt(testProfile(), Slice{Kind: report.KindMarketNews, View: view})
	require.NoError(t, err)

	assert.Contains(t, prompt, "3. ")
	assert.NotContains(t, prompt, "4. ")
	assert.NotContains(t, prompt, long)
	assert.Contains(t, prompt, strings.Repeat("h", 197)+"...")
	// the caller's view is untouched
	assert.Len(t, view.Assets[0].Articles, 5)
	assert.Equal(t, long, view.Assets[0].Articles[0].Title)
}

func TestSynthesize_TruncatesToWordLimit(t *testing.T) {
	s := New(fixedCompleter(words(150), nil), nil, config.DefaultWorkflowConfig())

	res, err := s.Synthesize(context.Background(), testProfile(), analysisSlice())
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, 80, res.Words)
	assert.Equal(t, 150, res.RawWords)
	assert.True(t, strings.HasSuffix(res.Text, "..."))
}

func TestSynthesize_StripsMarkup(t *testing.T) {
	s := New(fixedCompleter("## Summary\n- **SPY** is *up*\n- see [link](http://x)", nil), nil, config.DefaultWorkflowConfig())

	res, err := s.Synthesize(context.Background(), testProfile(), analysisSlice())
	require.NoError(t, err)
	assert.Equal(t, "Summary SPY is up see link", res.Text)
	assert.False(t, res.Truncated)
}

func TestSynthesize_EmptyCompletion(t *testing.T) {
	s := New(fixedCompleter("  ", nil), nil, config.DefaultWorkflowConfig())

	_, err := s.Synthesize(context.Background(), testProfile(), analysisSlice())
	require.Error(t, err)
	assert.Equal(t, errors.KindSynthesis, errors.KindOf(err))
}

func TestSynthesize_ErrorClassification(t *testing.T) {
	transient := New(fixedCompleter("", errors.ErrUnavailable), nil, config.DefaultWorkflowConfig())
	_, err := transient.Synthesize(context.Background(), testProfile(), analysisSlice())
	assert.True(t, errors.IsTransient(err))

	definitive := New(fixedCompleter("", errors.New("bad request")), nil, config.DefaultWorkflowConfig())
	_, err = definitive.Synthesize(context.Background(), testProfile(), analysisSlice())
	assert.Equal(t, errors.KindSynthesis, errors.KindOf(err))
}

func TestSynthesize_RequestsBoundedLength(t *testing.T) {
	var gotMax int
	c := ai.CompleterFunc(func(ctx context.Context, prompt string, maxLen int) (string, error) {
		gotMax = maxLen
		return "fine", nil
	})
	p := testProfile()
	p.MaxWords = 0

	res, err := New(c, nil, config.DefaultWorkflowConfig()).Synthesize(context.Background(), p, analysisSlice())
	require.NoError(t, err)
	assert.Equal(t, 80, res.Limit)
	assert.Equal(t, 160, gotMax)
}
