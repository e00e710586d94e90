package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/portfolio"
	"finsight/internal/metrics"
	"finsight/internal/tools"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Input selects the portfolio to read
type Input struct {
	PortfolioID string
}

// Result is the allocation snapshot plus the risk stance it should be judged against
type Result struct {
	PortfolioID     string                `json:"portfolio_id"`
	AsOf            time.Time             `json:"as_of"`
	Positions       []portfolio.Position  `json:"positions"`
	TotalAllocation decimal.Decimal       `json:"total_allocation"`
	RiskProfile     portfolio.RiskProfile `json:"risk_profile"`
	Warnings        []string              `json:"warnings,omitempty"`
}

// AllocationTool reads the latest allocation snapshot
type AllocationTool struct {
	repo      portfolio.Repository
	tolerance float64
	log       *logger.Logger
}

// NewAllocationTool creates the portfolio allocation tool
func NewAllocationTool(repo portfolio.Repository, cfg config.WorkflowConfig) *AllocationTool {
	return &AllocationTool{
		repo:      repo,
		tolerance: cfg.AllocationTolerance,
		log:       logger.Get().With("component", "portfolio_allocation_tool"),
	}
}

// Tool exposes the allocation reader through the tools.Tool interface
func (t *AllocationTool) Tool() tools.Tool {
	return tools.Typed(tools.PortfolioAllocationTool,
		"Latest portfolio allocation with the active risk profile",
		t.Allocation)
}

// Allocation returns the snapshot. A missing snapshot is ErrDataUnavailable; an allocation
// that does not sum to 100% is reported as a warning, not an error.
func (t *AllocationTool) Allocation(ctx context.Context, in Input) (*Result, error) {
	snap, err := t.repo.GetLatestSnapshot(ctx, in.PortfolioID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "portfolio %s has no allocation snapshot", in.PortfolioID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load portfolio snapshot")
	}
	if len(snap.Positions) == 0 {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "portfolio %s has no positions", in.PortfolioID)
	}

	res := &Result{
		PortfolioID:     snap.PortfolioID,
		AsOf:            snap.AsOf,
		Positions:       snap.Positions,
		TotalAllocation: snap.TotalAllocation(),
	}

	if !snap.AllocationWithin(t.tolerance) {
		warning := fmt.Sprintf("allocations sum to %s%%, expected 100%% within %.1f points",
			res.TotalAllocation.StringFixed(2), t.tolerance)
		res.Warnings = append(res.Warnings, warning)
		metrics.AllocationWarnings.WithLabelValues(in.PortfolioID).Inc()
		t.log.Warn("portfolio allocation out of tolerance",
			"portfolio_id", in.PortfolioID,
			"total", res.TotalAllocation.String(),
		)
	}

	risk, err := t.repo.GetActiveRiskProfile(ctx)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		res.RiskProfile = portfolio.RiskProfile{ID: portfolio.DefaultRiskProfile, Active: true}
	case err != nil:
		return nil, errors.Wrap(err, "load active risk profile")
	default:
		res.RiskProfile = *risk
	}

	return res, nil
}
