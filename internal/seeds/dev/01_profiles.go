package dev

import (
	"context"

	"finsight/internal/agents/profiles"
	"finsight/internal/seeds"
)

// SeedProfiles upserts the default agent profiles (idempotent)
func SeedProfiles(ctx context.Context, s *seeds.Seeder) error {
	defaults := profiles.Defaults()
	if err := profiles.Seed(ctx, s.Profiles, defaults); err != nil {
		return err
	}
	s.Log().Infow("Agent profiles seeded", "count", len(defaults))
	return nil
}
