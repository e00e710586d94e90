package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_LockIsExclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := NewRedisClient(t, LoadDatabaseConfigsFromEnv(t).Redis)
	ctx := context.Background()

	lock, err := client.AcquireLock(ctx, "workflow:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lock)

	second, err := client.AcquireLock(ctx, "workflow:test", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, client.ReleaseLock(ctx, lock))
	again, err := client.AcquireLock(ctx, "workflow:test", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, again)
}
