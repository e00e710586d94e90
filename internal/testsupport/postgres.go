package testsupport

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"finsight/internal/adapters/config"
	"finsight/internal/adapters/postgres"
)

// PostgresTestHelper runs a test inside a transaction that is always rolled back.
// The schema is migrated inside that transaction, so tests need only an empty database.
type PostgresTestHelper struct {
	client   *postgres.Client
	tx       *sqlx.Tx
	rollback sync.Once
}

// NewPostgresTestHelper connects, begins a transaction and applies the migrations in it
func NewPostgresTestHelper(t *testing.T, cfg config.PostgresConfig) *PostgresTestHelper {
	t.Helper()
	ctx := context.Background()

	client, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	tx, err := client.DB().BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to start transaction: %v", err)
	}

	h := &PostgresTestHelper{client: client, tx: tx}
	t.Cleanup(h.Rollback)

	migrations, err := UpMigrations("postgres")
	if err != nil {
		t.Fatalf("failed to read migrations: %v", err)
	}
	for _, m := range migrations {
		if _, err := tx.ExecContext(ctx, m); err != nil {
			t.Fatalf("failed to apply migration: %v", err)
		}
	}

	return h
}

// NewTestPostgres builds a helper from the environment, skipping when it is not configured
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()
	return NewPostgresTestHelper(t, LoadDatabaseConfigsFromEnv(t).Postgres)
}

// Tx returns the test transaction; repositories accept it as their DBTX.
func (h *PostgresTestHelper) Tx() *sqlx.Tx { return h.tx }

// DB returns the underlying pool, outside the test transaction.
func (h *PostgresTestHelper) DB() *sqlx.DB { return h.client.DB() }

// Rollback discards everything the test wrote. Safe to call more than once.
func (h *PostgresTestHelper) Rollback() {
	h.rollback.Do(func() { _ = h.tx.Rollback() })
}

// Close is an alias for Rollback
func (h *PostgresTestHelper) Close() { h.Rollback() }
