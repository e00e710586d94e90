package report

import (
	"encoding/json"
	"time"
)

// Kind identifies a workflow
type Kind string

const (
	KindMarketAnalysis Kind = "market_analysis"
	KindMarketNews     Kind = "market_news"
)

// Valid reports whether k is a known workflow kind
func (k Kind) Valid() bool {
	switch k {
	case KindMarketAnalysis, KindMarketNews:
		return true
	}
	return false
}

// String returns string representation
func (k Kind) String() string {
	return string(k)
}

// DateKeyLayout formats the report day key as YYYYMMDD
const DateKeyLayout = "20060102"

// DateKey returns the report day key for t in UTC
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// Report is the persisted outcome of a successful run
type Report struct {
	RunID     string          `db:"run_id" json:"run_id"`
	Kind      Kind            `db:"workflow_kind" json:"workflow_kind"`
	DateKey   string          `db:"date_key" json:"date_key"`
	Text      string          `db:"text" json:"text"`
	Truncated bool            `db:"truncated" json:"truncated"`
	Snapshot  json.RawMessage `db:"snapshot" json:"snapshot"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// FailureRecord captures the step at which a run stopped
type FailureRecord struct {
	RunID     string          `db:"run_id" json:"run_id"`
	Kind      Kind            `db:"workflow_kind" json:"workflow_kind"`
	Step      string          `db:"step" json:"step"`
	ErrorKind string          `db:"error_kind" json:"error_kind"`
	Message   string          `db:"message" json:"message"`
	Snapshot  json.RawMessage `db:"snapshot" json:"snapshot"`
	FailedAt  time.Time       `db:"failed_at" json:"failed_at"`
}
