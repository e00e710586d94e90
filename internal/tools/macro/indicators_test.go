package macro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/macro"
	"finsight/pkg/errors"
)

type fakeSeries map[string][]float64 // newest first

func (f fakeSeries) GetLatest(ctx context.Context, name string, n int) ([]macro.Observation, error) {
	values := f[name]
	if len(values) > n {
		values = values[:n]
	}
	out := make([]macro.Observation, len(values))
	for i, v := range values {
		out[i] = macro.Observation{Name: name, Value: v, ObservedAt: time.Date(2024, time.Month(6-i), 1, 0, 0, 0, 0, time.UTC)}
	}
	return out, nil
}

func TestIndicatorsTool_Units(t *testing.T) {
	repo := fakeSeries{
		macro.IndicatorGDP:          {28_000, 27_500},
		macro.IndicatorRealRate10Y:  {1.8, 2.1},
		macro.IndicatorUnemployment: {4.0, 4.0},
	}

	res, err := NewIndicatorsTool(repo, config.DefaultWorkflowConfig()).Indicators(context.Background(), Input{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	gdp := res.Entries[0]
	assert.Equal(t, macro.ChangePercent, gdp.Unit)
	assert.InDelta(t, 1.82, gdp.Change, 1e-9)
	assert.Contains(t, gdp.Diagnosis, "up by +1.82%")

	rate := res.Entries[1]
	assert.Equal(t, macro.ChangePoints, rate.Unit)
	assert.InDelta(t, -0.3, rate.Change, 1e-9)
	assert.Contains(t, rate.Diagnosis, "down by -0.30 points")

	assert.Contains(t, res.Entries[2].Diagnosis, "neutral")
	assert.Empty(t, res.Missing())
}

func TestIndicatorsTool_MissingIsFlagged(t *testing.T) {
	repo := fakeSeries{
		macro.IndicatorGDP:          {28_000, 27_500},
		macro.IndicatorUnemployment: {4.1},
	}

	res, err := NewIndicatorsTool(repo, config.DefaultWorkflowConfig()).Indicators(context.Background(), Input{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, []string{macro.IndicatorRealRate10Y, macro.IndicatorUnemployment}, res.Missing())
	assert.True(t, res.Entries[2].Missing)
	assert.NotEmpty(t, res.Entries[2].Reason)
}

func TestIndicatorsTool_AllMissing(t *testing.T) {
	res, err := NewIndicatorsTool(fakeSeries{}, config.DefaultWorkflowConfig()).Indicators(context.Background(), Input{})
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
	require.NotNil(t, res)
	assert.Len(t, res.Missing(), 3)
}
