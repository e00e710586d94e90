package portfolio

import "context"

// Repository reads portfolio allocations and risk profiles
type Repository interface {
	// GetLatestSnapshot returns errors.ErrNotFound when the portfolio has no allocation snapshot
	GetLatestSnapshot(ctx context.Context, portfolioID string) (*Snapshot, error)

	// GetActiveRiskProfile returns errors.ErrNotFound when no profile is marked active
	GetActiveRiskProfile(ctx context.Context) (*RiskProfile, error)
}
