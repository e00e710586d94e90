package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"finsight/internal/adapters/clickhouse"
	"finsight/internal/adapters/config"
	"finsight/internal/domain/market_data"
)

// ClickHouseTestHelper connects to ClickHouse with the schema applied.
// ClickHouse has no transactions, so tests clean up the rows they insert.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper connects and applies the (idempotent) migrations
func NewClickHouseTestHelper(t *testing.T, cfg config.ClickHouseConfig) *ClickHouseTestHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := clickhouse.NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	migrations, err := UpMigrations("clickhouse")
	if err != nil {
		t.Fatalf("failed to read migrations: %v", err)
	}
	for _, m := range migrations {
		for _, stmt := range Statements(m) {
			if err := client.Exec(ctx, stmt); err != nil {
				t.Fatalf("failed to apply migration: %v", err)
			}
		}
	}

	return &ClickHouseTestHelper{client: client}
}

// Client exposes the ClickHouse client.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}

// RegisterTableCleanup deletes rows matching condition once the test finishes
func (h *ClickHouseTestHelper) RegisterTableCleanup(t *testing.T, table, condition string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.client.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, condition))
	})
}

// ObservationFixture builds market observations for tests
type ObservationFixture struct {
	obs market_data.Observation
}

// NewObservationFixture creates a daily observation for the asset dated today
func NewObservationFixture(assetID string) *ObservationFixture {
	return &ObservationFixture{
		obs: market_data.Observation{
			AssetID:   assetID,
			Timestamp: time.Now().UTC().Truncate(24 * time.Hour),
			Close:     100,
			Volume:    1_000_000,
		},
	}
}

func (f *ObservationFixture) At(ts time.Time) *ObservationFixture {
	f.obs.Timestamp = ts
	return f
}

func (f *ObservationFixture) WithClose(close float64) *ObservationFixture {
	f.obs.Close = close
	return f
}

func (f *ObservationFixture) WithVolume(volume float64) *ObservationFixture {
	f.obs.Volume = volume
	return f
}

func (f *ObservationFixture) Build() market_data.Observation {
	return f.obs
}

// ObservationSeries builds consecutive daily observations from the given closes
func ObservationSeries(assetID string, start time.Time, closes ...float64) []market_data.Observation {
	out := make([]market_data.Observation, 0, len(closes))
	for i, c := range closes {
		out = append(out, NewObservationFixture(assetID).At(start.AddDate(0, 0, i)).WithClose(c).Build())
	}
	return out
}
