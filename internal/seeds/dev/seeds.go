// Package dev holds the development data set: default profiles, a sample portfolio
// and enough market, macro and news history for both workflows to run end to end.
package dev

import "finsight/internal/seeds"

// All returns the dev seed steps in dependency order
func All() []seeds.Func {
	return []seeds.Func{
		SeedProfiles,
		SeedPortfolio,
		SeedMacro,
		SeedMarketData,
		SeedNews,
	}
}
