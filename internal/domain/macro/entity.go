package macro

import "time"

// Indicator series tracked by the macro step
const (
	IndicatorGDP          = "GDP"
	IndicatorRealRate10Y  = "REAINTRATREARAT10Y"
	IndicatorUnemployment = "UNRATE"
)

// ChangeUnit tells how an indicator's change is expressed
type ChangeUnit string

const (
	ChangePercent ChangeUnit = "percent"
	ChangePoints  ChangeUnit = "points"
)

// UnitFor returns how changes of the named indicator are reported. GDP is a level, rates are already percentages.
func UnitFor(name string) ChangeUnit {
	if name == IndicatorGDP {
		return ChangePercent
	}
	return ChangePoints
}

// Observation is one published value of an indicator series
type Observation struct {
	Name       string    `db:"indicator" json:"indicator"`
	Value      float64   `db:"value" json:"value"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at"`
}

// IndicatorSnapshot is the latest value of a series compared with its previous value
type IndicatorSnapshot struct {
	Name       string     `json:"name"`
	Latest     float64    `json:"latest"`
	Previous   float64    `json:"previous"`
	Change     float64    `json:"change"`
	Unit       ChangeUnit `json:"unit"`
	ObservedAt time.Time  `json:"observed_at"`
	Missing    bool       `json:"missing,omitempty"`
}
