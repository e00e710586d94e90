package profiles

import (
	"context"

	"finsight/internal/domain/profile"
	"finsight/pkg/errors"
)

// Defaults are the profiles the workflows expect to exist
func Defaults() []profile.Profile {
	return []profile.Profile{
		{
			AgentID:      profile.DefaultAgentID,
			Role:         "Financial Analyst",
			KindOfData:   "Portfolio and market data",
			Motive:       "Give a concise, balanced view of the portfolio",
			Instructions: "Summarize the data provided. Do not invent figures.",
			Rules:        "Plain text only. No markdown, no lists, no headings.",
			Goals:        "Help the investor understand where the portfolio stands today.",
			MaxWords:     80,
		},
		{
			AgentID:      profile.MarketAnalysisAgentID,
			Role:         "Market Analyst",
			KindOfData:   "Asset trends, macroeconomic indicators and market volatility",
			Motive:       "Diagnose the portfolio against current market conditions",
			Instructions: "Relate each asset trend to the macro backdrop and the volatility regime. Respect the active risk profile.",
			Rules:        "Plain text only. No markdown. Mention allocation warnings if any are present.",
			Goals:        "Produce an actionable portfolio diagnosis for the day.",
			MaxWords:     80,
		},
		{
			AgentID:      profile.MarketNewsAgentID,
			Role:         "Market News Analyst",
			KindOfData:   "News articles and their sentiment per asset",
			Motive:       "Explain how recent news affects the portfolio",
			Instructions: "Weigh each asset's news sentiment by its allocation. Respect the active risk profile.",
			Rules:        "Plain text only. No markdown. Do not quote headlines verbatim.",
			Goals:        "Produce a news-driven portfolio diagnosis for the day.",
			MaxWords:     80,
		},
		{
			AgentID:      profile.AssistantAgentID,
			Role:         "Market Assistant",
			KindOfData:   "Latest reports",
			Motive:       "Answer investor questions from the latest reports",
			Instructions: "Ground every answer in the most recent report of each kind.",
			Rules:        "Plain text only.",
			Goals:        "Keep the investor informed.",
			MaxWords:     120,
		},
	}
}

// Seed upserts the given profiles, typically Defaults()
func Seed(ctx context.Context, repo profile.Repository, ps []profile.Profile) error {
	for i := range ps {
		p := ps[i]
		if err := repo.Upsert(ctx, &p); err != nil {
			return errors.Wrapf(err, "seed profile %s", p.AgentID)
		}
	}
	return nil
}
