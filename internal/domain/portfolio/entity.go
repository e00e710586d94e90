package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies a holding
type AssetType string

const (
	AssetTypeEquity AssetType = "equity"
	AssetTypeBond   AssetType = "bond"
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeCash   AssetType = "cash"
	AssetTypeOther  AssetType = "other"
)

// Position is one holding of a portfolio snapshot
type Position struct {
	AssetID     string          `db:"asset_id" json:"asset_id"`
	Description string          `db:"description" json:"description"`
	AssetType   AssetType       `db:"asset_type" json:"asset_type"`
	Allocation  decimal.Decimal `db:"allocation_pct" json:"allocation_pct"` // percent, 0..100
}

// Snapshot is the allocation of a portfolio at a point in time
type Snapshot struct {
	PortfolioID string     `json:"portfolio_id"`
	AsOf        time.Time  `json:"as_of"`
	Positions   []Position `json:"positions"`
}

// TotalAllocation sums allocation percentages without float drift
func (s *Snapshot) TotalAllocation() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Positions {
		total = total.Add(p.Allocation)
	}
	return total
}

// AllocationWithin reports whether the allocations sum to 100% within tolerance percentage points
func (s *Snapshot) AllocationWithin(tolerance float64) bool {
	diff := s.TotalAllocation().Sub(decimal.NewFromInt(100)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// AssetIDs returns asset identifiers in snapshot order
func (s *Snapshot) AssetIDs() []string {
	ids := make([]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		ids = append(ids, p.AssetID)
	}
	return ids
}

// DefaultRiskProfile is used when no risk profile is marked active
const DefaultRiskProfile = "BALANCE"

// RiskProfile is the investor risk stance the diagnosis should respect
type RiskProfile struct {
	ID          string `db:"risk_id" json:"risk_id"`
	Description string `db:"description" json:"description"`
	Active      bool   `db:"active" json:"active"`
}
