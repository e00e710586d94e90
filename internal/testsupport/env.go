package testsupport

import (
	"os"
	"testing"

	"github.com/kelseyhightower/envconfig"

	"finsight/internal/adapters/config"
)

// DatabaseConfigs bundles the data store sections integration tests connect to.
type DatabaseConfigs struct {
	Postgres   config.PostgresConfig
	ClickHouse config.ClickHouseConfig
	Redis      config.RedisConfig
}

var requiredEnv = []string{
	"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"CLICKHOUSE_HOST",
	"REDIS_HOST",
}

// LoadDatabaseConfigsFromEnv reads the store sections with the same envconfig
// tags the service uses, so defaults match production.
// The test is skipped unless every required variable is set.
func LoadDatabaseConfigsFromEnv(t *testing.T) DatabaseConfigs {
	t.Helper()

	var missing []string
	for _, key := range requiredEnv {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		t.Skipf("integration environment missing, set %v to run", missing)
	}

	var cfgs DatabaseConfigs
	sections := map[string]interface{}{
		"postgres":   &cfgs.Postgres,
		"clickhouse": &cfgs.ClickHouse,
		"redis":      &cfgs.Redis,
	}
	for name, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			t.Fatalf("load %s config: %v", name, err)
		}
	}
	return cfgs
}
