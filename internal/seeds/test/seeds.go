// Package test seeds only what integration tests cannot create themselves
package test

import (
	"context"

	"finsight/internal/agents/profiles"
	"finsight/internal/seeds"
)

// All returns the test seed steps
func All() []seeds.Func {
	return []seeds.Func{SeedProfiles}
}

// SeedProfiles upserts the default agent profiles
func SeedProfiles(ctx context.Context, s *seeds.Seeder) error {
	return profiles.Seed(ctx, s.Profiles, profiles.Defaults())
}
