package dev

import (
	"context"
	"math"
	"time"

	"finsight/internal/domain/market_data"
	"finsight/internal/seeds"
	"finsight/pkg/errors"
)

const historyDays = 120

// series describes a deterministic synthetic price path
type series struct {
	assetID string
	start   float64
	drift   float64 // per day, fractional
	wave    float64 // amplitude of the weekly oscillation, fractional
}

// SeedMarketData writes daily closes for every sample asset plus the VIX
func SeedMarketData(ctx context.Context, s *seeds.Seeder) error {
	paths := []series{
		{assetID: "SPY", start: 560, drift: 0.0006, wave: 0.004},
		{assetID: "QQQ", start: 480, drift: 0.0009, wave: 0.007},
		{assetID: "TLT", start: 92, drift: -0.0004, wave: 0.003},
		{assetID: "GLD", start: 235, drift: 0.0007, wave: 0.002},
		{assetID: "BTC", start: 61000, drift: 0.0012, wave: 0.02},
		{assetID: "VIX", start: 15, drift: 0.0015, wave: 0.05},
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	for _, p := range paths {
		obs := make([]market_data.Observation, 0, historyDays)
		for d := 0; d < historyDays; d++ {
			day := end.AddDate(0, 0, d-historyDays+1)
			price := p.start * math.Exp(p.drift*float64(d)) * (1 + p.wave*math.Sin(float64(d)*2*math.Pi/7))
			obs = append(obs, market_data.Observation{
				AssetID:   p.assetID,
				Timestamp: day,
				Close:     math.Round(price*100) / 100,
				Volume:    1e6 * (1 + 0.3*math.Cos(float64(d))),
			})
		}
		if err := s.MarketData.InsertObservations(ctx, obs); err != nil {
			return errors.Wrapf(err, "seed market data %s", p.assetID)
		}
	}

	s.Log().Infow("Market data seeded", "assets", len(paths), "days", historyDays)
	return nil
}
