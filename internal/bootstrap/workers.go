package bootstrap

import (
	"finsight/internal/adapters/config"
	redisclient "finsight/internal/adapters/redis"
	"finsight/internal/agents/workflows"
	"finsight/internal/domain/report"
	"finsight/internal/workers"
	"finsight/internal/workers/workflow"
	"finsight/pkg/logger"
)

// provideWorkers registers one cron-triggered worker per workflow kind.
// An empty schedule disables the worker; the workflow still runs through -run.
func provideWorkers(engine *workflows.Engine, redis *redisclient.Client, cfg config.ScheduleConfig, log *logger.Logger) *workers.Scheduler {
	scheduler := workers.NewScheduler()
	lock := workflow.NewRedisSlotLock(redis)

	schedules := map[report.Kind]string{
		report.KindMarketAnalysis: cfg.MarketAnalysis,
		report.KindMarketNews:     cfg.MarketNews,
	}

	for _, kind := range engine.Kinds() {
		schedule := schedules[kind]
		scheduler.RegisterWorker(workflow.NewWorker(engine, kind, schedule, lock, cfg.SlotLockTTL, schedule != ""))
	}

	log.Infow("Workflow workers registered", "count", len(scheduler.GetWorkers()))
	return scheduler
}
