package embeddings

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *mockProvider) Dimensions() int { return 3 }
func (m *mockProvider) Name() string    { return "test-model" }

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
	c.data[key] = b
	c.mu.Unlock()
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

func TestCachedProvider_ComputesOnce(t *testing.T) {
	inner := &mockProvider{}
	inner.On("GenerateEmbedding", mock.Anything, "financial news analysis about SPY (S&P 500 ETF)").
		Return([]float32{0.1, 0.2, 0.3}, nil).Once()

	p := NewCachedProvider(inner, newMemoryCache(), time.Hour)
	ctx := context.Background()

	first, err := p.GenerateEmbedding(ctx, "financial news analysis about SPY (S&P 500 ETF)")
	require.NoError(t, err)
	second, err := p.GenerateEmbedding(ctx, "financial news analysis about SPY (S&P 500 ETF)")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "test-model", p.Name())
	assert.Equal(t, 3, p.Dimensions())
	inner.AssertExpectations(t)
}

func TestCachedProvider_PropagatesProviderError(t *testing.T) {
	inner := &mockProvider{}
	inner.On("GenerateEmbedding", mock.Anything, "q").
		Return(nil, errors.Wrap(errors.ErrTimeout, "openai")).Once()

	p := NewCachedProvider(inner, newMemoryCache(), time.Hour)
	_, err := p.GenerateEmbedding(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}
