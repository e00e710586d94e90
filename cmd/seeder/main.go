package main

import (
	"context"
	"flag"

	chclient "finsight/internal/adapters/clickhouse"
	"finsight/internal/adapters/config"
	"finsight/internal/adapters/embeddings"
	pgclient "finsight/internal/adapters/postgres"
	chrepo "finsight/internal/repository/clickhouse"
	pgrepo "finsight/internal/repository/postgres"
	"finsight/internal/seeds"
	devseeds "finsight/internal/seeds/dev"
	testseeds "finsight/internal/seeds/test"
	"finsight/pkg/logger"
)

func main() {
	env := flag.String("env", "dev", "Environment: dev, test")
	dryRun := flag.Bool("dry-run", false, "List seed functions without executing")
	embed := flag.Bool("embed", true, "Embed news articles (needs OPENAI_API_KEY)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()

	log.Infow("Starting seeder",
		"environment", *env,
		"dry_run", *dryRun,
		"database", cfg.Postgres.Database,
	)

	seedFuncs := getSeedFunctions(*env)
	if len(seedFuncs) == 0 {
		log.Warnw("No seeds available for environment", "environment", *env)
		return
	}

	log.Infow("Found seed functions", "environment", *env, "count", len(seedFuncs))

	if *dryRun {
		log.Info("Dry-run mode: seed functions validated")
		return
	}

	ctx := context.Background()

	pg, err := pgclient.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pg.Close()

	ch, err := chclient.NewClient(ctx, cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to clickhouse: %v", err)
	}
	defer ch.Close()

	var embedder embeddings.Provider
	if *embed && cfg.EmbeddingsAPIKey() != "" {
		embedder, err = embeddings.NewProvider(ctx, embeddings.Config{
			Provider: embeddings.ProviderType(cfg.Embeddings.Provider),
			APIKey:   cfg.EmbeddingsAPIKey(),
			Model:    cfg.Embeddings.Model,
			Timeout:  cfg.Embeddings.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to create embedding provider: %v", err)
		}
	}

	portfolioRepo := pgrepo.NewPortfolioRepository(pg.DB())
	seeder := seeds.New(seeds.Seeder{
		Profiles:   pgrepo.NewProfileRepository(pg.DB()),
		Portfolio:  portfolioRepo,
		Macro:      pgrepo.NewMacroRepository(pg.DB()),
		MarketData: chrepo.NewMarketDataRepository(ch.Conn()),
		News:       pgrepo.NewNewsRepository(pg.DB()),
		Embedder:   embedder,
	})

	// Execute each seed function in order
	for i, seedFunc := range seedFuncs {
		log.Infow("Executing seed", "step", i+1, "total", len(seedFuncs))

		if err := seedFunc(ctx, seeder); err != nil {
			log.Errorw("Failed to execute seed",
				"step", i+1,
				"error", err,
			)
			return
		}
	}

	log.Info("All seeds applied successfully")
}

// getSeedFunctions returns seed functions for the given environment
func getSeedFunctions(env string) []seeds.Func {
	switch env {
	case "dev":
		return devseeds.All()
	case "test":
		return testseeds.All()
	default:
		return nil
	}
}
