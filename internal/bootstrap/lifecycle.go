package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "finsight/internal/adapters/clickhouse"
	"finsight/internal/adapters/kafka"
	pgclient "finsight/internal/adapters/postgres"
	redisclient "finsight/internal/adapters/redis"
	"finsight/internal/api"
	"finsight/internal/workers"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 150 * time.Second, // scheduler alone may wait 2 minutes for a run
	}
}

// Stoppables are the components Shutdown closes. Nil fields are skipped.
type Stoppables struct {
	HTTPServer     *api.Server
	Scheduler      *workers.Scheduler
	KafkaProducer  *kafka.Producer
	KafkaConsumers map[string]*kafka.Consumer
	PG             *pgclient.Client
	CH             *chclient.Client
	Redis          *redisclient.Client
	ErrorTracker   errors.Tracker
}

// Shutdown closes components in dependency order:
// no new requests, running workflows finish, consumers unblock, producer closes after them,
// tracker and logs flush, and databases close last because everything above may use them.
func (l *Lifecycle) Shutdown(wg *sync.WaitGroup, s Stoppables, log *logger.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/7] Stopping HTTP server...")
	if s.HTTPServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := s.HTTPServer.Shutdown(httpCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	log.Info("[2/7] Stopping workflow scheduler...")
	if s.Scheduler != nil && s.Scheduler.IsRunning() {
		if err := s.Scheduler.Stop(); err != nil {
			log.Error("Workers shutdown failed", "error", err)
		} else {
			log.Info("Workers stopped")
		}
	}

	// Closing readers unblocks ReadMessage before we wait for the goroutines
	log.Info("[3/7] Closing Kafka consumers...")
	for name, consumer := range s.KafkaConsumers {
		if consumer == nil {
			continue
		}
		if err := consumer.Close(); err != nil {
			log.Error("Kafka consumer close failed", "consumer", name, "error", err)
		}
	}

	log.Info("[4/7] Waiting for consumer goroutines...")
	l.waitForGoroutines(wg, 15*time.Second, log)

	log.Info("[5/7] Closing Kafka producer...")
	if s.KafkaProducer != nil {
		if err := s.KafkaProducer.Close(); err != nil {
			log.Error("Kafka producer close failed", "error", err)
		}
	}

	log.Info("[6/7] Flushing error tracker and logs...")
	l.flushErrorTracker(shutdownCtx, s.ErrorTracker, log)
	_ = logger.Sync()

	log.Info("[7/7] Closing database connections...")
	l.closeDatabases(s, log)

	log.Info("Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("All goroutines finished")
	case <-time.After(timeout):
		log.Warn("Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Error("Error tracker flush failed", "error", err)
	}
}

func (l *Lifecycle) closeDatabases(s Stoppables, log *logger.Logger) {
	var dbErrors []error

	if s.PG != nil {
		if err := s.PG.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "postgres"))
		}
	}
	if s.CH != nil {
		if err := s.CH.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "clickhouse"))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "redis"))
		}
	}

	if len(dbErrors) > 0 {
		log.Error("Database close errors", "errors", errors.Join(dbErrors...))
	} else {
		log.Info("Database connections closed")
	}
}
