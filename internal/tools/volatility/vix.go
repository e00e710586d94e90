package volatility

import (
	"context"
	"fmt"
	"math"
	"time"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/market_data"
	"finsight/internal/tools"
	"finsight/pkg/errors"
)

// Regime buckets the size of the day-over-day move
type Regime string

const (
	RegimeLow      Regime = "low"
	RegimeElevated Regime = "elevated"
	RegimeHigh     Regime = "high"
)

// Input is empty: the tool always reads the configured volatility index
type Input struct{}

// Result is the latest volatility index reading
type Result struct {
	Symbol     string    `json:"symbol"`
	Level      float64   `json:"level"`
	Previous   float64   `json:"previous"`
	PctChange  float64   `json:"pct_change"`
	Regime     Regime    `json:"regime"`
	AsOf       time.Time `json:"as_of"`
	PreviousAt time.Time `json:"previous_at"`
	Diagnosis  string    `json:"diagnosis"`
}

// VIXTool reads the volatility index and classifies its latest move
type VIXTool struct {
	repo   market_data.Repository
	symbol string
	t1, t2 float64
}

// NewVIXTool creates the market volatility tool
func NewVIXTool(repo market_data.Repository, cfg config.WorkflowConfig) *VIXTool {
	return &VIXTool{
		repo:   repo,
		symbol: cfg.VolatilitySymbol,
		t1:     cfg.VolatilityThresholdT1,
		t2:     cfg.VolatilityThresholdT2,
	}
}

// Tool exposes the volatility reading through the tools.Tool interface
func (t *VIXTool) Tool() tools.Tool {
	return tools.Typed(tools.MarketVolatilityTool,
		"Volatility index level and change versus the previous close",
		t.Assess)
}

// Assess returns the latest reading. Fewer than two closes is ErrDataUnavailable.
func (t *VIXTool) Assess(ctx context.Context, _ Input) (*Result, error) {
	obs, err := t.repo.GetRecent(ctx, t.symbol, 2)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", t.symbol)
	}
	if len(obs) < 2 {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "%s needs two closes, have %d", t.symbol, len(obs))
	}

	prev, cur := obs[0], obs[1]
	if prev.Close == 0 {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "%s previous close is zero", t.symbol)
	}

	pct := (cur.Close - prev.Close) / prev.Close * 100
	res := &Result{
		Symbol:     t.symbol,
		Level:      cur.Close,
		Previous:   prev.Close,
		PctChange:  pct,
		Regime:     Classify(pct, t.t1, t.t2),
		AsOf:       cur.Timestamp,
		PreviousAt: prev.Timestamp,
	}
	res.Diagnosis = fmt.Sprintf(
		"%s close is %.2f (reported on %s), previous close was %.2f (reported on %s), change %+.2f%%, %s volatility regime.",
		res.Symbol, res.Level, res.AsOf.Format("2006-01-02"),
		res.Previous, res.PreviousAt.Format("2006-01-02"), res.PctChange, res.Regime,
	)
	return res, nil
}

// Classify maps a percentage change to a regime: |pct| < t1 low, < t2 elevated, otherwise high
func Classify(pct, t1, t2 float64) Regime {
	abs := math.Abs(pct)
	switch {
	case abs < t1:
		return RegimeLow
	case abs < t2:
		return RegimeElevated
	default:
		return RegimeHigh
	}
}
