package postgres

import (
	"context"

	"finsight/internal/domain/macro"
	"finsight/pkg/errors"
)

// Compile-time check
var _ macro.Repository = (*MacroRepository)(nil)

// MacroRepository implements macro.Repository
type MacroRepository struct {
	db DBTX
}

// NewMacroRepository creates a new macro indicator repository
func NewMacroRepository(db DBTX) *MacroRepository {
	return &MacroRepository{db: db}
}

// GetLatest returns up to n observations of a series, newest first
func (r *MacroRepository) GetLatest(ctx context.Context, name string, n int) ([]macro.Observation, error) {
	var obs []macro.Observation

	query := `
		SELECT indicator, value, observed_at
		FROM macro_indicators
		WHERE indicator = $1
		ORDER BY observed_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &obs, query, name, n); err != nil {
		return nil, errors.Wrapf(err, "get latest %s", name)
	}
	return obs, nil
}

// Insert stores an observation, overwriting a revision for the same date
func (r *MacroRepository) Insert(ctx context.Context, o macro.Observation) error {
	query := `
		INSERT INTO macro_indicators (indicator, value, observed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (indicator, observed_at) DO UPDATE SET value = EXCLUDED.value`

	if _, err := r.db.ExecContext(ctx, query, o.Name, o.Value, o.ObservedAt); err != nil {
		return errors.Wrap(err, "insert macro observation")
	}
	return nil
}
