package macro

import "context"

// Repository reads macroeconomic indicator series
type Repository interface {
	// GetLatest returns up to n observations of the named series, newest first
	GetLatest(ctx context.Context, name string, n int) ([]Observation, error)
}
