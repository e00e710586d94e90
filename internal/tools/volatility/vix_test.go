package volatility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/market_data"
	"finsight/pkg/errors"
)

type fakeHistory []float64

func (f fakeHistory) GetRecent(ctx context.Context, assetID string, n int) ([]market_data.Observation, error) {
	closes := []float64(f)
	if len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	out := make([]market_data.Observation, len(closes))
	for i, c := range closes {
		out[i] = market_data.Observation{AssetID: assetID, Close: c, Timestamp: time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC)}
	}
	return out, nil
}

func (f fakeHistory) InsertObservations(ctx context.Context, obs []market_data.Observation) error {
	return nil
}

func (f fakeHistory) GetRange(ctx context.Context, assetID string, from, to time.Time) ([]market_data.Observation, error) {
	return nil, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		pct  float64
		want Regime
	}{
		{0, RegimeLow},
		{4.99, RegimeLow},
		{-4.99, RegimeLow},
		{5, RegimeElevated},
		{-9.99, RegimeElevated},
		{10, RegimeHigh},
		{-25, RegimeHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.pct, 5, 10), "pct=%v", tt.pct)
	}
}

func TestVIXTool_Assess(t *testing.T) {
	res, err := NewVIXTool(fakeHistory{14, 20, 23}, config.DefaultWorkflowConfig()).Assess(context.Background(), Input{})
	require.NoError(t, err)

	assert.Equal(t, "VIX", res.Symbol)
	assert.Equal(t, 23.0, res.Level)
	assert.Equal(t, 20.0, res.Previous)
	assert.InDelta(t, 15.0, res.PctChange, 1e-9)
	assert.Equal(t, RegimeHigh, res.Regime)
	assert.Contains(t, res.Diagnosis, "+15.00%")
}

func TestVIXTool_NotEnoughData(t *testing.T) {
	_, err := NewVIXTool(fakeHistory{14}, config.DefaultWorkflowConfig()).Assess(context.Background(), Input{})
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}
