package market_data

import "time"

// Observation is a daily closing observation for an asset
type Observation struct {
	AssetID   string    `ch:"asset_id" json:"asset_id"`
	Timestamp time.Time `ch:"ts" json:"ts"`
	Close     float64   `ch:"close" json:"close"`
	Volume    float64   `ch:"volume" json:"volume"`
}

// Closes extracts closing prices preserving order
func Closes(obs []Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Close
	}
	return out
}
