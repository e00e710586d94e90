package postgres

import (
	"context"
	"database/sql"
	"time"

	"finsight/internal/domain/portfolio"
	"finsight/pkg/errors"
)

// Compile-time check
var _ portfolio.Repository = (*PortfolioRepository)(nil)

// PortfolioRepository implements portfolio.Repository
type PortfolioRepository struct {
	db DBTX
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db DBTX) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetLatestSnapshot returns the most recent allocation of a portfolio
func (r *PortfolioRepository) GetLatestSnapshot(ctx context.Context, portfolioID string) (*portfolio.Snapshot, error) {
	var asOf sql.NullTime
	err := r.db.GetContext(ctx, &asOf,
		`SELECT MAX(as_of) FROM portfolio_allocations WHERE portfolio_id = $1`, portfolioID)
	if err != nil {
		return nil, errors.Wrap(err, "get latest allocation date")
	}
	if !asOf.Valid {
		return nil, errors.Wrapf(errors.ErrNotFound, "portfolio %s has no allocation", portfolioID)
	}

	var positions []portfolio.Position
	query := `
		SELECT asset_id, description, asset_type, allocation_pct
		FROM portfolio_allocations
		WHERE portfolio_id = $1 AND as_of = $2
		ORDER BY asset_id`

	if err := r.db.SelectContext(ctx, &positions, query, portfolioID, asOf.Time); err != nil {
		return nil, errors.Wrap(err, "get allocation positions")
	}

	return &portfolio.Snapshot{
		PortfolioID: portfolioID,
		AsOf:        asOf.Time,
		Positions:   positions,
	}, nil
}

// SaveSnapshot writes every position of a snapshot, replacing an existing one for the same date
func (r *PortfolioRepository) SaveSnapshot(ctx context.Context, s *portfolio.Snapshot) error {
	asOf := s.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC().Truncate(24 * time.Hour)
	}

	query := `
		INSERT INTO portfolio_allocations (
			portfolio_id, as_of, asset_id, description, asset_type, allocation_pct
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (portfolio_id, as_of, asset_id) DO UPDATE SET
			description = EXCLUDED.description,
			asset_type = EXCLUDED.asset_type,
			allocation_pct = EXCLUDED.allocation_pct`

	for _, p := range s.Positions {
		if _, err := r.db.ExecContext(ctx, query,
			s.PortfolioID, asOf, p.AssetID, p.Description, p.AssetType, p.Allocation,
		); err != nil {
			return errors.Wrapf(err, "save position %s", p.AssetID)
		}
	}
	return nil
}

// GetActiveRiskProfile returns the risk profile currently marked active
func (r *PortfolioRepository) GetActiveRiskProfile(ctx context.Context) (*portfolio.RiskProfile, error) {
	var rp portfolio.RiskProfile
	err := r.db.GetContext(ctx, &rp,
		`SELECT risk_id, description, active FROM risk_profiles WHERE active LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "no active risk profile")
	}
	if err != nil {
		return nil, errors.Wrap(err, "get active risk profile")
	}
	return &rp, nil
}

// UpsertRiskProfile inserts or updates a risk profile
func (r *PortfolioRepository) UpsertRiskProfile(ctx context.Context, rp *portfolio.RiskProfile) error {
	query := `
		INSERT INTO risk_profiles (risk_id, description, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (risk_id) DO UPDATE SET
			description = EXCLUDED.description,
			active = EXCLUDED.active`

	if _, err := r.db.ExecContext(ctx, query, rp.ID, rp.Description, rp.Active); err != nil {
		return errors.Wrap(err, "upsert risk profile")
	}
	return nil
}
