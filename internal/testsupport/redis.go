package testsupport

import (
	"context"
	"testing"

	"finsight/internal/adapters/config"
	redisclient "finsight/internal/adapters/redis"
)

// NewRedisClient connects to the test Redis database and flushes it before
// and after the test. Point REDIS_DB at a scratch database.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redisclient.Client {
	t.Helper()
	ctx := context.Background()

	client, err := redisclient.NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	if err := client.Client().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Client().FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
