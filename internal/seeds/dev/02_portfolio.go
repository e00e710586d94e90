package dev

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/domain/portfolio"
	"finsight/internal/seeds"
	"finsight/pkg/errors"
)

// Assets is the sample portfolio used by the dev data set
var Assets = []portfolio.Position{
	{AssetID: "SPY", Description: "SPDR S&P 500 ETF", AssetType: portfolio.AssetTypeEquity, Allocation: decimal.RequireFromString("40")},
	{AssetID: "QQQ", Description: "Invesco Nasdaq 100 ETF", AssetType: portfolio.AssetTypeEquity, Allocation: decimal.RequireFromString("25")},
	{AssetID: "TLT", Description: "iShares 20+ Year Treasury Bond ETF", AssetType: portfolio.AssetTypeBond, Allocation: decimal.RequireFromString("20")},
	{AssetID: "GLD", Description: "SPDR Gold Shares", AssetType: portfolio.AssetTypeOther, Allocation: decimal.RequireFromString("10")},
	{AssetID: "BTC", Description: "Bitcoin", AssetType: portfolio.AssetTypeCrypto, Allocation: decimal.RequireFromString("5")},
}

// SeedPortfolio writes today's snapshot of the default portfolio and the risk profiles
func SeedPortfolio(ctx context.Context, s *seeds.Seeder) error {
	risks := []portfolio.RiskProfile{
		{ID: "CONSERVATIVE", Description: "Capital preservation first, low drawdown tolerance"},
		{ID: portfolio.DefaultRiskProfile, Description: "Balanced growth and income", Active: true},
		{ID: "AGGRESSIVE", Description: "Growth first, tolerates large drawdowns"},
	}
	for i := range risks {
		if err := s.Portfolio.UpsertRiskProfile(ctx, &risks[i]); err != nil {
			return errors.Wrapf(err, "seed risk profile %s", risks[i].ID)
		}
	}

	snapshot := &portfolio.Snapshot{
		PortfolioID: "default",
		AsOf:        time.Now().UTC().Truncate(24 * time.Hour),
		Positions:   Assets,
	}
	if err := s.Portfolio.SaveSnapshot(ctx, snapshot); err != nil {
		return errors.Wrap(err, "seed portfolio snapshot")
	}

	s.Log().Infow("Portfolio seeded", "positions", len(Assets), "total", snapshot.TotalAllocation().String())
	return nil
}
