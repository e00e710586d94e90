package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
)

type payload struct {
	Values []int `json:"values"`
}

func TestRunState_RecordOnce(t *testing.T) {
	s := Start(report.KindMarketAnalysis)
	require.NotEmpty(t, s.RunID())

	require.NoError(t, s.Record("portfolio_allocation", map[string]string{"portfolio_id": "P1"}, payload{Values: []int{1}}))
	err := s.Record("portfolio_allocation", nil, payload{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateStep))
	assert.Equal(t, 1, s.Len())
}

func TestRunState_SnapshotIsDetached(t *testing.T) {
	s := Start(report.KindMarketNews)
	out := &payload{Values: []int{1, 2, 3}}
	require.NoError(t, s.Record("news_search", nil, out))

	snap := s.Snapshot()
	out.Values[0] = 99
	snap.Steps[0].Outputs[0] = 'x'

	again := s.Snapshot()
	assert.JSONEq(t, `{"values":[1,2,3]}`, string(again.Steps[0].Outputs))
	assert.Equal(t, []string{"news_search"}, again.StepNames())
}

func TestRunState_ReportSetOnce(t *testing.T) {
	s := Start(report.KindMarketNews)
	_, ok := s.Report()
	assert.False(t, ok)
	assert.Nil(t, s.Snapshot().Report)

	require.NoError(t, s.SetReport("first"))
	assert.Error(t, s.SetReport("second"))

	text, ok := s.Report()
	require.True(t, ok)
	assert.Equal(t, "first", text)
	require.NotNil(t, s.Snapshot().Report)
	assert.Equal(t, "first", *s.Snapshot().Report)
}

func TestRunState_TypedOutput(t *testing.T) {
	s := Start(report.KindMarketAnalysis)
	require.NoError(t, s.Record("market_volatility", nil, payload{Values: []int{7}}))

	got, ok := Output[payload](s, "market_volatility")
	require.True(t, ok)
	assert.Equal(t, []int{7}, got.Values)

	_, ok = Output[string](s, "market_volatility")
	assert.False(t, ok)
	_, ok = Output[payload](s, "missing")
	assert.False(t, ok)
}

func TestRunState_DistinctRuns(t *testing.T) {
	a := Start(report.KindMarketAnalysis)
	b := Start(report.KindMarketNews)
	assert.NotEqual(t, a.RunID(), b.RunID())

	require.NoError(t, a.Record("portfolio_allocation", nil, 1))
	assert.Equal(t, 0, b.Len())
}

func TestRunState_ConcurrentReaders(t *testing.T) {
	s := Start(report.KindMarketAnalysis)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.Warnings()
		}()
	}
	s.AddWarning("allocations sum to 98%")
	wg.Wait()
	assert.Equal(t, []string{"allocations sum to 98%"}, s.Snapshot().Warnings)
}
