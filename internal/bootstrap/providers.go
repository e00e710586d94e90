package bootstrap

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"finsight/internal/adapters/ai"
	chclient "finsight/internal/adapters/clickhouse"
	"finsight/internal/adapters/config"
	"finsight/internal/adapters/embeddings"
	errnoop "finsight/internal/adapters/errors/noop"
	"finsight/internal/adapters/errors/sentry"
	"finsight/internal/adapters/kafka"
	pgclient "finsight/internal/adapters/postgres"
	redisclient "finsight/internal/adapters/redis"
	"finsight/internal/adapters/telegram"
	"finsight/internal/agents/profiles"
	"finsight/internal/agents/reports"
	"finsight/internal/agents/synthesis"
	"finsight/internal/agents/workflows"
	"finsight/internal/api"
	"finsight/internal/api/health"
	reportsapi "finsight/internal/api/reports"
	"finsight/internal/consumers"
	"finsight/internal/events"
	"finsight/internal/metrics"
	chrepo "finsight/internal/repository/clickhouse"
	pgrepo "finsight/internal/repository/postgres"
	"finsight/internal/tools"
	"finsight/internal/tools/macro"
	"finsight/internal/tools/news"
	"finsight/internal/tools/portfolio"
	"finsight/internal/tools/sentiment"
	"finsight/internal/tools/trend"
	"finsight/internal/tools/volatility"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
	"finsight/pkg/templates"
)

const (
	profileCacheTTL              = 10 * time.Minute
	maxConsecutiveWorkerFailures = 3
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	c.Templates, err = templates.WithOverrides(cfg.App.TemplatesDir)
	if err != nil {
		c.Log.Fatalf("failed to load templates from %s: %v", cfg.App.TemplatesDir, err)
	}
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects to Postgres, ClickHouse and Redis
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Context, c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}

	c.Log.Info("Connecting to ClickHouse...")
	c.CH, err = chclient.NewClient(c.Context, c.Config.ClickHouse)
	if err != nil {
		c.Log.Fatalf("failed to connect clickhouse: %v", err)
	}

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Context, c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}

	c.Log.Info("Data stores connected")
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories initializes all repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Profiles = pgrepo.NewProfileRepository(c.PG.DB())
	c.Repos.Portfolio = pgrepo.NewPortfolioRepository(c.PG.DB())
	c.Repos.Macro = pgrepo.NewMacroRepository(c.PG.DB())
	c.Repos.News = pgrepo.NewNewsRepository(c.PG.DB())
	c.Repos.Reports = pgrepo.NewReportRepository(c.PG.DB())
	c.Repos.MarketData = chrepo.NewMarketDataRepository(c.CH.Conn())
	c.Repos.RunEvents = chrepo.NewRunEventRepository(c.CH.Conn())

	prometheus.MustRegister(metrics.NewStoreCollector(c.Log.With("component", "store_collector"), c.PG.DB()))
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes Kafka, embeddings and the optional Telegram notifier
func (c *Container) MustInitAdapters() {
	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.RunEventsConsumer = provideKafkaConsumer(c.Config, kafka.TopicWorkflowRuns, c.Log)
	c.Adapters.EventPublisher = events.NewPublisher(c.Adapters.KafkaProducer, c.Log.With("component", "event_publisher"))

	embedder, err := embeddings.NewProvider(c.Context, embeddings.Config{
		Provider: embeddings.ProviderType(c.Config.Embeddings.Provider),
		APIKey:   c.Config.EmbeddingsAPIKey(),
		Model:    c.Config.Embeddings.Model,
		Timeout:  c.Config.Embeddings.Timeout,
	})
	if err != nil {
		c.Log.Fatalf("failed to create embedding provider: %v", err)
	}
	c.Adapters.EmbeddingProvider = embeddings.NewCachedProvider(embedder, c.Redis, c.Config.Embeddings.CacheTTL)

	c.Adapters.TelegramNotifier = provideTelegramNotifier(c.Config, c.Templates, c.Log)
}

// ========================================
// Phase 5: Workflow core
// ========================================

// MustInitBusiness builds the tool registry, profile registry, synthesizer, sinks and the engine
func (c *Container) MustInitBusiness() {
	cfg := c.Config.Workflow

	completer, err := ai.NewCompleter(c.Context, c.Config.AI, c.Redis.Client())
	if err != nil {
		c.Log.Fatalf("failed to create LLM completer: %v", err)
	}

	c.Business.Synthesizer = synthesis.New(completer, c.Templates, cfg)
	c.Business.ToolRegistry = provideToolRegistry(c.Repos, c.Adapters.EmbeddingProvider, c.Business.Synthesizer, cfg)

	c.Business.Profiles = profiles.NewRegistry(c.Repos.Profiles, c.Redis, profileCacheTTL)
	if err := profiles.Seed(c.Context, c.Repos.Profiles, profiles.Defaults()); err != nil {
		c.Log.Fatalf("failed to seed agent profiles: %v", err)
	}

	sinkOpts := []reports.Option{reports.WithPublisher(c.Adapters.EventPublisher)}
	if c.Adapters.TelegramNotifier != nil {
		sinkOpts = append(sinkOpts, reports.WithNotifier(c.Adapters.TelegramNotifier))
	}
	c.Business.ReportSink = reports.NewSink(c.Repos.Reports, sinkOpts...)
	c.Business.FailureSink = reports.NewFailureSink(c.Repos.Reports, c.ErrorTracker)

	c.Business.Engine, err = workflows.NewEngine(workflows.Deps{
		Tools:    c.Business.ToolRegistry,
		Profiles: c.Business.Profiles,
		Sink:     c.Business.ReportSink,
		Failures: c.Business.FailureSink,
		Events:   c.Adapters.EventPublisher,
		Tracker:  c.ErrorTracker,
	}, cfg, workflows.Definitions()...)
	if err != nil {
		c.Log.Fatalf("failed to build workflow engine: %v", err)
	}

	c.Log.Infow("Workflow engine initialized",
		"tools", c.Business.ToolRegistry.List(),
		"workflows", c.Business.Engine.Kinds(),
	)
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes the HTTP server
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = health.New(c.Log.With("component", "health"), c.Config.App.Name, c.Config.App.Version,
		health.Check{Name: "postgres", Fn: c.PG.Health},
		health.Check{Name: "clickhouse", Fn: c.CH.Health},
		health.Check{Name: "redis", Fn: c.Redis.Health},
		health.Check{Name: "workers", Fn: c.checkWorkers, Optional: true},
	)

	c.Application.HTTPServer = api.NewServer(
		api.ServerConfig{
			Port:        c.Config.HTTP.Port,
			ServiceName: c.Config.App.Name,
			Version:     c.Config.App.Version,
		},
		c.Application.HealthHandler,
		reportsapi.New(c.Repos.Reports, c.Log.With("component", "reports_api")),
		c.Log.With("component", "http"),
	)
}

// checkWorkers reports workflows stuck in a failure streak. The scheduler is
// built after the HTTP layer, so it is resolved at check time.
func (c *Container) checkWorkers(ctx context.Context) error {
	if c.Background.WorkerScheduler == nil {
		return nil
	}
	return c.Background.WorkerScheduler.CheckHealth(maxConsecutiveWorkerFailures)
}

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground initializes the workflow scheduler and the run events consumer
func (c *Container) MustInitBackground() {
	c.Background.WorkerScheduler = provideWorkers(c.Business.Engine, c.Redis, c.Config.Schedule, c.Log)

	c.Background.RunEventsSvc = consumers.NewRunEventsConsumer(
		c.Adapters.RunEventsConsumer,
		c.Repos.RunEvents,
		c.Log.With("component", "run_events_consumer"),
	)

	c.Log.Info("Background processing initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		WriteTimeout: 10 * time.Second,
	})
	log.Infow("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	return producer
}

func provideKafkaConsumer(cfg *config.Config, topic string, log *logger.Logger) *kafka.Consumer {
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topic:   topic,
	})
	log.Infow("Kafka consumer initialized", "topic", topic)
	return consumer
}

// provideToolRegistry registers every tool the workflow definitions reference
func provideToolRegistry(repos *Repositories, embedder embeddings.Provider, synth *synthesis.Synthesizer, cfg config.WorkflowConfig) *tools.Registry {
	registry := tools.NewRegistry()

	registry.Register(portfolio.NewAllocationTool(repos.Portfolio, cfg).Tool())
	registry.Register(trend.NewTrendTool(repos.MarketData, cfg).Tool())
	registry.Register(macro.NewIndicatorsTool(repos.Macro, cfg).Tool())
	registry.Register(volatility.NewVIXTool(repos.MarketData, cfg).Tool())
	registry.Register(news.NewSearchTool(repos.News, embedder, cfg).Tool())
	registry.Register(sentiment.NewAggregator(cfg).Tool())
	registry.Register(synth.Tool())

	return registry
}

// provideTelegramNotifier returns nil when no bot token or admin chat is configured
func provideTelegramNotifier(cfg *config.Config, tmpl *templates.Registry, log *logger.Logger) *telegram.ReportNotifier {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.AdminIDs) == 0 {
		log.Info("Telegram notifications disabled")
		return nil
	}

	bot, err := telegram.NewBot(telegram.Config{
		Token:       cfg.Telegram.BotToken,
		HTTPTimeout: 30 * time.Second,
	}, log.With("component", "telegram"))
	if err != nil {
		log.Warnf("Failed to initialize Telegram bot, notifications disabled: %v", err)
		return nil
	}

	return telegram.NewReportNotifier(bot, cfg.Telegram.AdminIDs, tmpl)
}
