package market_data

import (
	"context"
	"time"
)

// Repository reads price history
type Repository interface {
	// GetRecent returns the latest n observations in ascending time order
	GetRecent(ctx context.Context, assetID string, n int) ([]Observation, error)

	// InsertObservations bulk-loads observations, used by the seeder and imports
	InsertObservations(ctx context.Context, obs []Observation) error

	// GetRange returns observations within [from, to] in ascending order
	GetRange(ctx context.Context, assetID string, from, to time.Time) ([]Observation, error)
}
