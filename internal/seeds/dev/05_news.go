package dev

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"finsight/internal/domain/news"
	"finsight/internal/seeds"
	"finsight/pkg/errors"
)

type article struct {
	assetID     string // empty for general market news
	title       string
	description string
	pos, neg    float64
}

var articles = []article{
	{"SPY", "S&P 500 closes at record as earnings beat estimates", "Broad gains across sectors lifted the index as more than three quarters of reporting companies topped forecasts.", 0.82, 0.05},
	{"SPY", "Strategists warn of stretched equity valuations", "Several banks trimmed their year-end targets, citing high multiples and slowing buybacks.", 0.10, 0.61},
	{"QQQ", "Chipmakers rally on data center demand", "Semiconductor shares led the Nasdaq higher after strong guidance from cloud providers.", 0.77, 0.08},
	{"TLT", "Treasury yields ease after soft jobs report", "Long-dated bonds gained as investors priced in a slower pace of hiring.", 0.55, 0.12},
	{"GLD", "Gold steadies near highs as central banks keep buying", "Official sector demand continued to support prices despite a firmer dollar.", 0.48, 0.15},
	{"BTC", "Bitcoin slides as ETF outflows accelerate", "Spot bitcoin funds recorded a third week of net redemptions.", 0.06, 0.74},
	{"", "Fed minutes show officials split on timing of next cut", "Policymakers agreed inflation is cooling but disagreed on how quickly to ease.", 0.30, 0.35},
}

// SeedNews indexes sample articles. Without an embedder they are stored but not searchable.
func SeedNews(ctx context.Context, s *seeds.Seeder) error {
	if s.Embedder == nil {
		s.Log().Warn("No embedding provider configured, news articles will not be searchable")
	}

	published := time.Now().UTC().Add(-6 * time.Hour)
	for i, a := range articles {
		n := &news.Article{
			Link:        fmt.Sprintf("https://news.example.com/finsight/article-%02d", i),
			Title:       a.title,
			Description: a.description,
			Source:      "example-wire",
			PublishedAt: published.Add(-time.Duration(i) * time.Hour),
			Positive:    a.pos,
			Negative:    a.neg,
			Neutral:     1 - a.pos - a.neg,
		}
		if a.assetID != "" {
			assetID := a.assetID
			n.AssetID = &assetID
		}

		if s.Embedder != nil {
			vec, err := s.Embedder.GenerateEmbedding(ctx, a.title+"\n"+a.description)
			if err != nil {
				return errors.Wrapf(err, "embed article %d", i)
			}
			v := pgvector.NewVector(vec)
			n.Embedding = &v
		}

		if err := s.News.Upsert(ctx, n); err != nil {
			return errors.Wrapf(err, "seed article %d", i)
		}
	}

	s.Log().Infow("News seeded", "articles", len(articles), "indexed", s.Embedder != nil)
	return nil
}

