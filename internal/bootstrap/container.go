package bootstrap

import (
	"context"
	"sync"

	chclient "finsight/internal/adapters/clickhouse"
	"finsight/internal/adapters/config"
	"finsight/internal/adapters/embeddings"
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
	"finsight/internal/consumers"
	"finsight/internal/events"
	chrepo "finsight/internal/repository/clickhouse"
	pgrepo "finsight/internal/repository/postgres"
	"finsight/internal/tools"
	"finsight/internal/workers"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
	"finsight/pkg/templates"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker
	Templates    *templates.Registry

	// Infrastructure Layer (Data stores)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Adapters    *Adapters
	Business    *Business
	Application *Application
	Background  *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all repositories
type Repositories struct {
	Profiles   *pgrepo.ProfileRepository
	Portfolio  *pgrepo.PortfolioRepository
	Macro      *pgrepo.MacroRepository
	News       *pgrepo.NewsRepository
	Reports    *pgrepo.ReportRepository
	MarketData *chrepo.MarketDataRepository
	RunEvents  *chrepo.RunEventRepository
}

// Adapters groups all external adapters
type Adapters struct {
	KafkaProducer     *kafka.Producer
	RunEventsConsumer *kafka.Consumer
	EventPublisher    *events.Publisher
	EmbeddingProvider embeddings.Provider
	TelegramNotifier  *telegram.ReportNotifier // nil without a bot token
}

// Business groups the workflow core
type Business struct {
	ToolRegistry *tools.Registry
	Profiles     *profiles.Registry
	Synthesizer  *synthesis.Synthesizer
	ReportSink   *reports.Sink
	FailureSink  *reports.FailureSink
	Engine       *workflows.Engine
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
	RunEventsSvc    *consumers.RunEventsConsumer
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Adapters:    &Adapters{},
		Business:    &Business{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitBusiness()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts the consumers, the HTTP server and the workflow scheduler
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.startConsumers()

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("All systems operational", "workflows", c.Business.Engine.Kinds())
	return nil
}

// startConsumers starts all Kafka consumers in background goroutines
func (c *Container) startConsumers() {
	consumers := []struct {
		name string
		svc  interface{ Start(context.Context) error }
	}{
		{"run_events", c.Background.RunEventsSvc},
	}

	c.WG.Add(len(consumers))
	for _, consumer := range consumers {
		svc := consumer.svc
		name := consumer.name
		go func() {
			defer c.WG.Done()
			if err := svc.Start(c.Context); err != nil && c.Context.Err() == nil {
				c.Log.Error(name+" consumer failed", "error", err)
			}
		}()
	}

	c.Log.Infow("Event consumers started", "consumers", len(consumers))
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(c.WG, Stoppables{
		HTTPServer:     c.Application.HTTPServer,
		Scheduler:      c.Background.WorkerScheduler,
		KafkaProducer:  c.Adapters.KafkaProducer,
		KafkaConsumers: map[string]*kafka.Consumer{"run_events": c.Adapters.RunEventsConsumer},
		PG:             c.PG,
		CH:             c.CH,
		Redis:          c.Redis,
		ErrorTracker:   c.ErrorTracker,
	}, c.Log)
}
