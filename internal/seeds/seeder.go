package seeds

import (
	"context"

	"finsight/internal/adapters/embeddings"
	"finsight/internal/domain/macro"
	"finsight/internal/domain/market_data"
	"finsight/internal/domain/news"
	"finsight/internal/domain/portfolio"
	"finsight/internal/domain/profile"
	"finsight/pkg/logger"
)

// PortfolioStore is the write side of portfolio persistence
type PortfolioStore interface {
	SaveSnapshot(ctx context.Context, s *portfolio.Snapshot) error
	UpsertRiskProfile(ctx context.Context, rp *portfolio.RiskProfile) error
}

// MacroStore stores indicator observations
type MacroStore interface {
	Insert(ctx context.Context, o macro.Observation) error
}

// MarketDataStore stores price observations
type MarketDataStore interface {
	InsertObservations(ctx context.Context, obs []market_data.Observation) error
}

// NewsStore indexes articles
type NewsStore interface {
	Upsert(ctx context.Context, a *news.Article) error
}

// Seeder gives seed functions access to the stores they fill.
// Embedder is optional: without it articles are stored unindexed.
type Seeder struct {
	Profiles   profile.Repository
	Portfolio  PortfolioStore
	Macro      MacroStore
	MarketData MarketDataStore
	News       NewsStore
	Embedder   embeddings.Provider

	log *logger.Logger
}

// New creates a seeder
func New(s Seeder) *Seeder {
	s.log = logger.Get().With("component", "seeder")
	return &s
}

// Log returns the seeder logger
func (s *Seeder) Log() *logger.Logger {
	return s.log
}

// Func is one idempotent seeding step
type Func func(ctx context.Context, s *Seeder) error
