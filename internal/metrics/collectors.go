package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"finsight/pkg/logger"
)

// StoreCollector exposes gauges read from the document store at scrape time
type StoreCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB

	reportAge    *prometheus.Desc
	failures24h  *prometheus.Desc
	newsArticles *prometheus.Desc
}

// NewStoreCollector creates a collector over the postgres store
func NewStoreCollector(log *logger.Logger, postgres *sqlx.DB) *StoreCollector {
	return &StoreCollector{
		log:      log,
		postgres: postgres,

		reportAge: prometheus.NewDesc(
			"finsight_latest_report_age_seconds",
			"Seconds since the latest persisted report per workflow",
			[]string{"workflow"}, nil,
		),
		failures24h: prometheus.NewDesc(
			"finsight_workflow_failures_24h",
			"Failure records written in the last 24 hours per workflow",
			[]string{"workflow"}, nil,
		),
		newsArticles: prometheus.NewDesc(
			"finsight_news_articles_indexed",
			"News articles with an embedding available for search",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.reportAge
	ch <- c.failures24h
	ch <- c.newsArticles
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectReportAge(ctx, ch)
	c.collectFailures(ctx, ch)
	c.collectNewsArticles(ctx, ch)
}

func (c *StoreCollector) collectReportAge(ctx context.Context, ch chan<- prometheus.Metric) {
	var rows []struct {
		Workflow string    `db:"workflow_kind"`
		Latest   time.Time `db:"latest"`
	}
	err := c.postgres.SelectContext(ctx, &rows, `
		SELECT workflow_kind, MAX(created_at) AS latest
		FROM workflow_reports
		GROUP BY workflow_kind`)
	if err != nil {
		c.log.Warn("Failed to collect report age", "error", err)
		return
	}

	for _, row := range rows {
		ch <- prometheus.MustNewConstMetric(c.reportAge, prometheus.GaugeValue,
			time.Since(row.Latest).Seconds(), row.Workflow)
	}
}

func (c *StoreCollector) collectFailures(ctx context.Context, ch chan<- prometheus.Metric) {
	var rows []struct {
		Workflow string `db:"workflow_kind"`
		Count    int    `db:"count"`
	}
	err := c.postgres.SelectContext(ctx, &rows, `
		SELECT workflow_kind, COUNT(*) AS count
		FROM workflow_failures
		WHERE failed_at > NOW() - INTERVAL '24 hours'
		GROUP BY workflow_kind`)
	if err != nil {
		c.log.Warn("Failed to collect failure counts", "error", err)
		return
	}

	for _, row := range rows {
		ch <- prometheus.MustNewConstMetric(c.failures24h, prometheus.GaugeValue, float64(row.Count), row.Workflow)
	}
}

func (c *StoreCollector) collectNewsArticles(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	if err := c.postgres.GetContext(ctx, &count, `SELECT COUNT(*) FROM news_articles WHERE embedding IS NOT NULL`); err != nil {
		c.log.Warn("Failed to collect news article count", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.newsArticles, prometheus.GaugeValue, float64(count))
}
