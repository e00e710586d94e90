package dev

import (
	"context"
	"time"

	"finsight/internal/domain/macro"
	"finsight/internal/seeds"
	"finsight/pkg/errors"
)

// SeedMacro writes the two latest periods of each tracked indicator
func SeedMacro(ctx context.Context, s *seeds.Seeder) error {
	quarter := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	month := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	observations := []macro.Observation{
		{Name: macro.IndicatorGDP, Value: 29350.2, ObservedAt: quarter.AddDate(0, -3, 0)},
		{Name: macro.IndicatorGDP, Value: 29612.8, ObservedAt: quarter},
		{Name: macro.IndicatorRealRate10Y, Value: 1.92, ObservedAt: month.AddDate(0, -1, 0)},
		{Name: macro.IndicatorRealRate10Y, Value: 1.85, ObservedAt: month},
		{Name: macro.IndicatorUnemployment, Value: 4.1, ObservedAt: month.AddDate(0, -1, 0)},
		{Name: macro.IndicatorUnemployment, Value: 4.2, ObservedAt: month},
	}

	for _, o := range observations {
		if err := s.Macro.Insert(ctx, o); err != nil {
			return errors.Wrapf(err, "seed %s", o.Name)
		}
	}

	s.Log().Infow("Macro indicators seeded", "observations", len(observations))
	return nil
}
