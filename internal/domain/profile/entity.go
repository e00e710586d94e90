package profile

import "time"

// Well-known agent identifiers seeded at startup
const (
	DefaultAgentID        = "DEFAULT_AGENT"
	MarketAnalysisAgentID = "MARKET_ANALYSIS_AGENT"
	MarketNewsAgentID     = "MARKET_NEWS_AGENT"
	AssistantAgentID      = "MARKET_ASSISTANT_AGENT"
)

// Profile configures how an agent speaks: the synthesis step reads it, nothing mutates it.
type Profile struct {
	AgentID      string    `db:"agent_id" json:"agent_id"`
	Role         string    `db:"role" json:"role"`
	KindOfData   string    `db:"kind_of_data" json:"kind_of_data"`
	Motive       string    `db:"motive" json:"motive"`
	Instructions string    `db:"instructions" json:"instructions"`
	Rules        string    `db:"rules" json:"rules"`
	Goals        string    `db:"goals" json:"goals"`
	MaxWords     int       `db:"max_words" json:"max_words"` // 0 means the configured default
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WordLimit returns the profile's output word limit, or fallback when unset
func (p *Profile) WordLimit(fallback int) int {
	if p.MaxWords > 0 {
		return p.MaxWords
	}
	return fallback
}
