package profiles

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/profile"
	"finsight/pkg/errors"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	b, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return errors.ErrNotFound
	}
	return json.Unmarshal(b, dest)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetByID(ctx context.Context, agentID string) (*profile.Profile, error) {
	args := m.Called(ctx, agentID)
	if p, ok := args.Get(0).(*profile.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegistry_ReadsThroughCache(t *testing.T) {
	src := &mockSource{}
	src.On("GetByID", mock.Anything, profile.MarketNewsAgentID).
		Return(&profile.Profile{AgentID: profile.MarketNewsAgentID, Role: "News"}, nil).Once()

	reg := NewRegistry(src, newMemoryCache(), time.Hour)

	for i := 0; i < 3; i++ {
		p, err := reg.Get(context.Background(), profile.MarketNewsAgentID)
		require.NoError(t, err)
		assert.Equal(t, "News", p.Role)
	}
	src.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestRegistry_NotFound(t *testing.T) {
	reg := NewRegistry(NewStaticSource(), nil, 0)

	_, err := reg.Get(context.Background(), "UNKNOWN")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSeed_Defaults(t *testing.T) {
	src := NewStaticSource()
	require.NoError(t, Seed(context.Background(), src, Defaults()))

	all, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4)

	reg := NewRegistry(src, nil, 0)
	p, err := reg.Get(context.Background(), profile.MarketAnalysisAgentID)
	require.NoError(t, err)
	assert.Equal(t, 80, p.WordLimit(50))
	assert.False(t, p.CreatedAt.IsZero())
}

func TestStaticSource_ReturnsCopies(t *testing.T) {
	src := NewStaticSource(profile.Profile{AgentID: "A", Role: "original"})

	p, err := src.GetByID(context.Background(), "A")
	require.NoError(t, err)
	p.Role = "mutated"

	again, err := src.GetByID(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Role)
}
