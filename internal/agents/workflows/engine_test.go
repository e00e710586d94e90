package workflows

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/ai"
	"finsight/internal/adapters/config"
	"finsight/internal/adapters/errors/noop"
	"finsight/internal/agents/profiles"
	"finsight/internal/agents/synthesis"
	"finsight/internal/domain/macro"
	domainnews "finsight/internal/domain/news"
	domainportfolio "finsight/internal/domain/portfolio"
	"finsight/internal/domain/report"
	"finsight/internal/tools"
	macrotool "finsight/internal/tools/macro"
	"finsight/internal/tools/news"
	"finsight/internal/tools/portfolio"
	"finsight/internal/tools/sentiment"
	"finsight/internal/tools/trend"
	"finsight/internal/tools/volatility"
	"finsight/pkg/errors"
)

type memorySink struct {
	mu      sync.Mutex
	reports []*report.Report
	err     error
}

func (s *memorySink) Persist(_ context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return errors.Join(errors.ErrStorage, s.err)
	}
	s.reports = append(s.reports, r)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

type memoryFailures struct {
	mu      sync.Mutex
	records []*report.FailureRecord
}

func (f *memoryFailures) Record(_ context.Context, rec *report.FailureRecord, _ error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

type memoryEvents struct {
	mu     sync.Mutex
	events []*report.RunEvent
}

func (m *memoryEvents) PublishRunEvent(_ context.Context, e *report.RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryEvents) statuses(runID string) []report.RunStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []report.RunStatus
	for _, e := range m.events {
		if e.RunID == runID {
			out = append(out, e.Status)
		}
	}
	return out
}

type fixture struct {
	cfg      config.WorkflowConfig
	sink     *memorySink
	failures *memoryFailures
	events   *memoryEvents
	tracker  *noop.Tracker

	positions  []domainportfolio.Position
	trend      func(ctx context.Context, in trend.Input) (*trend.Result, error)
	macro      func(ctx context.Context, in macrotool.Input) (*macrotool.Result, error)
	search     func(ctx context.Context, in news.Input) (*news.Result, error)
	completion func(ctx context.Context, prompt string, maxLen int) (string, error)

	mu      sync.Mutex
	prompts []string
}

func newFixture() *fixture {
	cfg := config.DefaultWorkflowConfig()
	cfg.PortfolioID = "P1"
	cfg.RetryBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond

	return &fixture{
		cfg:      cfg,
		sink:     &memorySink{},
		failures: &memoryFailures{},
		events:   &memoryEvents{},
		tracker:  noop.New(),
		positions: []domainportfolio.Position{
			{AssetID: "TLT", Description: "Treasury bond ETF", AssetType: domainportfolio.AssetTypeBond, Allocation: decimal.NewFromInt(40)},
			{AssetID: "SPY", Description: "S&P 500 ETF", AssetType: domainportfolio.AssetTypeEquity, Allocation: decimal.NewFromInt(60)},
		},
		trend: func(_ context.Context, in trend.Input) (*trend.Result, error) {
			return &trend.Result{
				AssetID:       in.AssetID,
				Direction:     trend.Up,
				Magnitude:     0.1,
				Latest:        110,
				MovingAverage: 100,
				Diagnosis:     in.AssetID + " trades 10% above its moving average",
			}, nil
		},
		macro: func(_ context.Context, in macrotool.Input) (*macrotool.Result, error) {
			return &macrotool.Result{Entries: []macrotool.Entry{{
				IndicatorSnapshot: macro.IndicatorSnapshot{Name: macro.IndicatorGDP, Latest: 2.1, Previous: 2.0, Change: 5},
				Diagnosis:         "GDP is up by +5% with respect to the previous period",
			}}}, nil
		},
		search: func(_ context.Context, in news.Input) (*news.Result, error) {
			return &news.Result{AssetID: in.AssetID, Articles: []domainnews.ScoredArticle{
				{Article: domainnews.Article{ID: in.AssetID + "-1", Link: "https://n/" + in.AssetID, Title: in.AssetID + " rallies", Positive: 0.8}, Similarity: 0.3},
			}}, nil
		},
		completion: func(_ context.Context, _ string, _ int) (string, error) {
			return "The portfolio is well positioned.", nil
		},
	}
}

func (f *fixture) registry() *tools.Registry {
	reg := tools.NewRegistry()
	reg.Register(tools.Typed(tools.PortfolioAllocationTool, "allocation", func(_ context.Context, in portfolio.Input) (*portfolio.Result, error) {
		total := decimal.Zero
		for _, p := range f.positions {
			total = total.Add(p.Allocation)
		}
		res := &portfolio.Result{
			PortfolioID:     in.PortfolioID,
			Positions:       f.positions,
			TotalAllocation: total,
			RiskProfile:     domainportfolio.RiskProfile{ID: domainportfolio.DefaultRiskProfile},
		}
		if !total.Equal(decimal.NewFromInt(100)) {
			res.Warnings = []string{"allocations sum to " + total.StringFixed(2) + "%, expected 100% within 0.5 points"}
		}
		return res, nil
	}))
	reg.Register(tools.Typed(tools.AssetTrendTool, "trend", f.trend))
	reg.Register(tools.Typed(tools.MacroIndicatorsTool, "macro", f.macro))
	reg.Register(tools.Typed(tools.MarketVolatilityTool, "vix", func(_ context.Context, _ volatility.Input) (*volatility.Result, error) {
		return &volatility.Result{Symbol: "VIX", Level: 23, Previous: 20, PctChange: 15, Regime: volatility.RegimeHigh, Diagnosis: "VIX rose 15.00% to 23"}, nil
	}))
	reg.Register(tools.Typed(tools.NewsSearchTool, "news", f.search))
	reg.Register(sentiment.NewAggregator(f.cfg).Tool())

	completer := ai.CompleterFunc(func(ctx context.Context, prompt string, maxLen int) (string, error) {
		f.mu.Lock()
		f.prompts = append(f.prompts, prompt)
		f.mu.Unlock()
		return f.completion(ctx, prompt, maxLen)
	})
	reg.Register(synthesis.New(completer, nil, f.cfg).Tool())
	return reg
}

func (f *fixture) engine(t *testing.T) *Engine {
	t.Helper()
	src := profiles.NewStaticSource()
	require.NoError(t, profiles.Seed(context.Background(), src, profiles.Defaults()))

	e, err := NewEngine(Deps{
		Tools:    f.registry(),
		Profiles: profiles.NewRegistry(src, nil, 0),
		Sink:     f.sink,
		Failures: f.failures,
		Events:   f.events,
		Tracker:  f.tracker,
	}, f.cfg, Definitions()...)
	require.NoError(t, err)
	return e
}

func (f *fixture) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func TestMarketAnalysis_Succeeds(t *testing.T) {
	f := newFixture()
	res, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, res.Status)
	assert.Equal(t, []string{
		StepPortfolioAllocation, StepAssetTrends, StepMacroIndicators, StepMarketVolatility, StepSynthesis,
	}, res.State.StepNames())
	require.NotNil(t, res.Report)
	assert.Equal(t, res.RunID, res.Report.RunID)
	assert.Equal(t, "The portfolio is well positioned.", res.Report.Text)
	assert.Equal(t, report.DateKey(res.State.StartedAt), res.Report.DateKey)
	assert.Contains(t, string(res.Report.Snapshot), `"asset_trends"`)
	assert.Contains(t, string(res.Report.Snapshot), `"report":`)
	require.NotNil(t, res.State.Report)
	assert.Equal(t, res.Report.Text, *res.State.Report)
	assert.Equal(t, 1, f.sink.count())
	assert.Empty(t, f.failures.records)

	prompt := f.lastPrompt()
	assert.Contains(t, prompt, "SPY trades 10% above its moving average")
	assert.Contains(t, prompt, "GDP is up by +5%")
	assert.Contains(t, prompt, "VIX rose 15.00% to 23")

	statuses := f.events.statuses(res.RunID)
	assert.Equal(t, report.RunStarted, statuses[0])
	assert.Equal(t, report.RunSucceeded, statuses[len(statuses)-1])

	_, _, crumbs := f.tracker.Counts()
	assert.Equal(t, int64(5), crumbs)
}

func TestMarketAnalysis_TrendsSortedByAsset(t *testing.T) {
	f := newFixture()
	e := f.engine(t)

	res, err := e.Run(context.Background(), report.KindMarketAnalysis)
	require.NoError(t, err)
	assert.True(t, strings.Index(string(res.State.Steps[1].Outputs), `"SPY"`) < strings.Index(string(res.State.Steps[1].Outputs), `"TLT"`))
}

func TestMarketAnalysis_AllocationWarningReachesPrompt(t *testing.T) {
	f := newFixture()
	f.positions[0].Allocation = decimal.NewFromInt(38)

	res, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.NoError(t, err)

	assert.Contains(t, res.State.Warnings, "allocations sum to 98.00%, expected 100% within 0.5 points")
	assert.Contains(t, f.lastPrompt(), "allocations sum to 98.00%")
}

func TestMarketAnalysis_DegradesAssetWithShortHistory(t *testing.T) {
	f := newFixture()
	base := f.trend
	f.trend = func(ctx context.Context, in trend.Input) (*trend.Result, error) {
		if in.AssetID == "TLT" {
			return nil, errors.Wrapf(errors.ErrInsufficientHistory, "asset %s has 12 observations, need 50", in.AssetID)
		}
		return base(ctx, in)
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Status)
	assert.Contains(t, f.lastPrompt(), "TLT: trend unavailable")
	require.NotEmpty(t, res.State.Warnings)
	assert.Contains(t, res.State.Warnings[0], "trend unavailable for TLT")
}

func TestMarketAnalysis_FailsWhenNoAssetHasHistory(t *testing.T) {
	f := newFixture()
	f.trend = func(_ context.Context, in trend.Input) (*trend.Result, error) {
		return nil, errors.ErrInsufficientHistory
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.Error(t, err)
	require.NotNil(t, res.Failure)
	assert.Equal(t, StepAssetTrends, res.Failure.Step)
	assert.Equal(t, string(errors.KindInsufficientHistory), res.Failure.ErrorKind)
	assert.Len(t, res.State.Steps, 1)
}

func TestMarketAnalysis_FailureAtStepKeepsPreviousSteps(t *testing.T) {
	f := newFixture()
	f.macro = func(_ context.Context, in macrotool.Input) (*macrotool.Result, error) {
		return nil, errors.Wrap(errors.ErrDataUnavailable, "no macro series")
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.Error(t, err)
	assert.Equal(t, errors.KindDataUnavailable, errors.KindOf(err))

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Report)
	assert.Nil(t, res.State.Report)
	assert.Equal(t, []string{StepPortfolioAllocation, StepAssetTrends}, res.State.StepNames())
	assert.Equal(t, 0, f.sink.count())

	require.Len(t, f.failures.records, 1)
	rec := f.failures.records[0]
	assert.Equal(t, StepMacroIndicators, rec.Step)
	assert.Equal(t, "data_unavailable", rec.ErrorKind)
	assert.Contains(t, string(rec.Snapshot), `"portfolio_allocation"`)

	statuses := f.events.statuses(res.RunID)
	assert.Equal(t, report.RunFailed, statuses[len(statuses)-1])
}

func TestMarketAnalysis_DataUnavailableIsNotRetried(t *testing.T) {
	f := newFixture()
	var calls int32
	f.macro = func(_ context.Context, in macrotool.Input) (*macrotool.Result, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.ErrDataUnavailable
	}

	_, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSynthesis_TruncatesLongCompletion(t *testing.T) {
	f := newFixture()
	f.completion = func(_ context.Context, _ string, _ int) (string, error) {
		return strings.TrimSpace(strings.Repeat("word ", 150)), nil
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketAnalysis)
	require.NoError(t, err)

	assert.True(t, res.Report.Truncated)
	assert.Len(t, strings.Fields(res.Report.Text), 80)
	assert.True(t, strings.HasSuffix(res.Report.Text, "..."))
	assert.Contains(t, res.State.Warnings, "report truncated to the word limit")
}

func TestSynthesis_FailureIsTerminal(t *testing.T) {
	f := newFixture()
	var calls int32
	f.completion = func(_ context.Context, _ string, _ int) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.ErrUnavailable
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketNews)
	require.Error(t, err)
	assert.Equal(t, errors.KindSynthesis, errors.KindOf(err))
	assert.Equal(t, StepSynthesis, res.Failure.Step)
	assert.Equal(t, int32(1+f.cfg.MaxRetries), atomic.LoadInt32(&calls))
	assert.Len(t, res.State.Steps, 3)
}

func TestMarketNews_Succeeds(t *testing.T) {
	f := newFixture()
	res, err := f.engine(t).Run(context.Background(), report.KindMarketNews)
	require.NoError(t, err)

	assert.Equal(t, []string{
		StepPortfolioAllocation, StepNewsSearch, StepSentimentAggregation, StepSynthesis,
	}, res.State.StepNames())

	prompt := f.lastPrompt()
	assert.Contains(t, prompt, "SPY rallies")
	assert.Contains(t, prompt, "OVERALL SENTIMENT: POSITIVE")
}

func TestMarketNews_RetriesTransientSearchFailure(t *testing.T) {
	f := newFixture()
	base := f.search
	var spyCalls int32
	f.search = func(ctx context.Context, in news.Input) (*news.Result, error) {
		if in.AssetID == "SPY" && atomic.AddInt32(&spyCalls, 1) <= 2 {
			return nil, errors.ErrSearchUnavailable
		}
		return base(ctx, in)
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketNews)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&spyCalls))
}

func TestMarketNews_SearchOutageFailsRun(t *testing.T) {
	f := newFixture()
	f.search = func(_ context.Context, in news.Input) (*news.Result, error) {
		return nil, errors.ErrSearchUnavailable
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketNews)
	require.Error(t, err)
	assert.Equal(t, StepNewsSearch, res.Failure.Step)
	assert.Equal(t, "search_unavailable", res.Failure.ErrorKind)
	assert.Len(t, res.State.Steps, 1)
}

func TestMarketNews_EmptySearchIsNeutral(t *testing.T) {
	f := newFixture()
	f.search = func(_ context.Context, in news.Input) (*news.Result, error) {
		return &news.Result{AssetID: in.AssetID}, nil
	}

	res, err := f.engine(t).Run(context.Background(), report.KindMarketNews)
	require.NoError(t, err)
	assert.Contains(t, f.lastPrompt(), "No relevant news found.")
	assert.Contains(t, string(res.State.Steps[2].Outputs), `"category":"neutral"`)
}

func TestRun_CancelledDuringStepDiscardsResult(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.macro = func(_ context.Context, in macrotool.Input) (*macrotool.Result, error) {
		cancel()
		return &macrotool.Result{Entries: []macrotool.Entry{{Diagnosis: "late"}}}, nil
	}

	res, err := f.engine(t).Run(ctx, report.KindMarketAnalysis)
	require.Error(t, err)
	assert.Equal(t, errors.KindCancelled, errors.KindOf(err))
	assert.Equal(t, StepMacroIndicators, res.Failure.Step)
	assert.Equal(t, []string{StepPortfolioAllocation, StepAssetTrends}, res.State.StepNames())
	require.Len(t, f.failures.records, 1)
}

func TestRun_StorageFailure(t *testing.T) {
	f := newFixture()
	f.sink.err = errors.New("disk full")

	res, err := f.engine(t).Run(context.Background(), report.KindMarketNews)
	require.Error(t, err)
	assert.Equal(t, errors.KindStorage, errors.KindOf(err))
	assert.Equal(t, StepPersistReport, res.Failure.Step)
	assert.Len(t, res.State.Steps, 4)
	assert.Nil(t, res.Report)
	assert.Nil(t, res.State.Report)
	assert.NotContains(t, string(res.Failure.Snapshot), `"report":`)

	require.Len(t, f.failures.records, 1)
	assert.NotContains(t, string(f.failures.records[0].Snapshot), `"report":`)
}

func TestRun_MissingProfile(t *testing.T) {
	f := newFixture()
	e, err := NewEngine(Deps{
		Tools:    f.registry(),
		Profiles: profiles.NewRegistry(profiles.NewStaticSource(), nil, 0),
		Sink:     f.sink,
		Failures: f.failures,
	}, f.cfg, Definitions()...)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), report.KindMarketAnalysis)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, res.RunID)
	assert.Empty(t, f.failures.records)
}

func TestRun_UnknownKind(t *testing.T) {
	_, err := newFixture().engine(t).Run(context.Background(), report.Kind("weekly"))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	f := newFixture()
	e := f.engine(t)

	kinds := []report.Kind{
		report.KindMarketAnalysis, report.KindMarketNews,
		report.KindMarketAnalysis, report.KindMarketNews,
	}
	results := make([]*RunResult, len(kinds))
	var wg sync.WaitGroup
	for i, k := range kinds {
		wg.Add(1)
		go func(i int, k report.Kind) {
			defer wg.Done()
			res, err := e.Run(context.Background(), k)
			assert.NoError(t, err)
			results[i] = res
		}(i, k)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, res := range results {
		require.NotNil(t, res)
		assert.False(t, seen[res.RunID])
		seen[res.RunID] = true
		assert.Equal(t, kinds[i], res.State.Kind)
		if kinds[i] == report.KindMarketAnalysis {
			assert.Len(t, res.State.Steps, 5)
		} else {
			assert.Len(t, res.State.Steps, 4)
		}
	}
	assert.Equal(t, len(kinds), f.sink.count())
}

func TestNewEngine_RejectsUnregisteredTool(t *testing.T) {
	f := newFixture()
	_, err := NewEngine(Deps{
		Tools:    tools.NewRegistry(),
		Profiles: profiles.NewRegistry(profiles.NewStaticSource(), nil, 0),
		Sink:     f.sink,
	}, f.cfg, MarketNews())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
