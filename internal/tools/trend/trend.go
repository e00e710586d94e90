package trend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/markcheno/go-talib"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/market_data"
	"finsight/internal/tools"
	"finsight/pkg/errors"
)

// Direction is the sign of the latest close against its moving average
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// flatBand treats relative deviations below this as no trend
const flatBand = 1e-9

// Input identifies the asset to evaluate
type Input struct {
	AssetID     string
	Description string
}

// Result describes where the latest close sits relative to the moving average
type Result struct {
	AssetID       string    `json:"asset_id"`
	Direction     Direction `json:"direction"`
	Magnitude     float64   `json:"magnitude"` // (latest - MA) / MA
	Latest        float64   `json:"latest"`
	MovingAverage float64   `json:"moving_average"`
	Lookback      int       `json:"lookback"`
	RSI           *float64  `json:"rsi,omitempty"`
	AsOf          time.Time `json:"as_of"`
	Diagnosis     string    `json:"diagnosis"`
}

// TrendTool computes moving-average trends from price history
type TrendTool struct {
	repo      market_data.Repository
	lookback  int
	rsiPeriod int
}

// NewTrendTool creates the asset trend tool
func NewTrendTool(repo market_data.Repository, cfg config.WorkflowConfig) *TrendTool {
	return &TrendTool{
		repo:      repo,
		lookback:  cfg.LookbackPeriods,
		rsiPeriod: cfg.RSIPeriod,
	}
}

// Tool exposes the trend computation through the tools.Tool interface
func (t *TrendTool) Tool() tools.Tool {
	return tools.Typed(tools.AssetTrendTool,
		"Latest close versus its simple moving average, with RSI momentum",
		t.Trend)
}

// Trend evaluates one asset. Fewer observations than the lookback yields ErrInsufficientHistory.
func (t *TrendTool) Trend(ctx context.Context, in Input) (*Result, error) {
	obs, err := t.repo.GetRecent(ctx, in.AssetID, t.lookback)
	if err != nil {
		return nil, errors.Wrapf(err, "load history for %s", in.AssetID)
	}
	if len(obs) < t.lookback {
		return nil, errors.Wrapf(errors.ErrInsufficientHistory,
			"%s has %d observations, need %d", in.AssetID, len(obs), t.lookback)
	}

	closes := market_data.Closes(obs)
	res, err := Compute(closes, t.lookback)
	if err != nil {
		return nil, errors.Wrapf(err, "trend for %s", in.AssetID)
	}
	res.AssetID = in.AssetID
	res.AsOf = obs[len(obs)-1].Timestamp

	if t.rsiPeriod > 0 && len(closes) > t.rsiPeriod {
		rsi := talib.Rsi(closes, t.rsiPeriod)
		last := rsi[len(rsi)-1]
		res.RSI = &last
	}

	res.Diagnosis = diagnose(res)
	return res, nil
}

// Compute derives direction and magnitude from closes in ascending time order.
// The moving average covers the last lookback closes, the latest one included.
func Compute(closes []float64, lookback int) (*Result, error) {
	if lookback < 1 || len(closes) < lookback {
		return nil, errors.Wrapf(errors.ErrInsufficientHistory, "have %d closes, need %d", len(closes), lookback)
	}

	window := closes[len(closes)-lookback:]
	sma := talib.Sma(window, lookback)
	ma := sma[len(sma)-1]
	if ma == 0 {
		return nil, errors.Wrap(errors.ErrDataUnavailable, "moving average is zero")
	}

	latest := window[len(window)-1]
	magnitude := (latest - ma) / ma

	direction := Flat
	switch {
	case magnitude > flatBand:
		direction = Up
	case magnitude < -flatBand:
		direction = Down
	}

	return &Result{
		Direction:     direction,
		Magnitude:     magnitude,
		Latest:        latest,
		MovingAverage: ma,
		Lookback:      lookback,
	}, nil
}

func diagnose(r *Result) string {
	pct := math.Abs(r.Magnitude * 100)
	var s string
	switch r.Direction {
	case Up:
		s = fmt.Sprintf("%s close %s is %.2f%% above MA%d (%s), uptrend.",
			r.AssetID, price(r.Latest), pct, r.Lookback, price(r.MovingAverage))
	case Down:
		s = fmt.Sprintf("%s close %s is %.2f%% below MA%d (%s), downtrend.",
			r.AssetID, price(r.Latest), pct, r.Lookback, price(r.MovingAverage))
	default:
		s = fmt.Sprintf("%s close %s is at its MA%d, no clear trend.", r.AssetID, price(r.Latest), r.Lookback)
	}

	if r.RSI != nil {
		switch {
		case *r.RSI >= 70:
			s += fmt.Sprintf(" RSI %.0f, overbought.", *r.RSI)
		case *r.RSI <= 30:
			s += fmt.Sprintf(" RSI %.0f, oversold.", *r.RSI)
		default:
			s += fmt.Sprintf(" RSI %.0f.", *r.RSI)
		}
	}
	return s
}

func price(v float64) string {
	if v >= 1 {
		return "$" + humanize.CommafWithDigits(v, 2)
	}
	return fmt.Sprintf("$%.6f", v)
}
