package news

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/news"
	"finsight/pkg/errors"
)

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v, ok := args.Get(0).([]float32); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }

type mockNewsRepo struct {
	mock.Mock
}

func (m *mockNewsRepo) SearchSimilar(ctx context.Context, q news.SearchQuery) ([]news.ScoredArticle, error) {
	args := m.Called(ctx, q.MinScore)
	if v, ok := args.Get(0).([]news.ScoredArticle); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNewsRepo) Upsert(ctx context.Context, a *news.Article) error { return nil }
func (m *mockNewsRepo) Count(ctx context.Context) (int, error)           { return 0, nil }

func scored(link string, sim float64) news.ScoredArticle {
	return news.ScoredArticle{Article: news.Article{Link: link, Title: link}, Similarity: sim}
}

func TestQueryText(t *testing.T) {
	assert.Equal(t, "financial news analysis about SPY (S&P 500 ETF)", QueryText("SPY", "S&P 500 ETF"))
	assert.Equal(t, "financial news analysis about SPY", QueryText("SPY", ""))
}

func TestSearchTool_ProgressiveThresholds(t *testing.T) {
	embedder := &mockEmbedder{}
	embedder.On("GenerateEmbedding", mock.Anything, "financial news analysis about SPY (S&P 500 ETF)").
		Return([]float32{1, 0, 0}, nil)

	repo := &mockNewsRepo{}
	repo.On("SearchSimilar", mock.Anything, 0.09).Return([]news.ScoredArticle{}, nil)
	repo.On("SearchSimilar", mock.Anything, 0.05).Return([]news.ScoredArticle{
		scored("a", 0.07), scored("a", 0.06), scored("b", 0.055),
	}, nil)

	res, err := NewSearchTool(repo, embedder, config.DefaultWorkflowConfig()).
		Search(context.Background(), Input{AssetID: "SPY", Description: "S&P 500 ETF"})
	require.NoError(t, err)

	assert.Equal(t, 0.05, res.Threshold)
	require.Len(t, res.Articles, 2)
	assert.Equal(t, "a", res.Articles[0].Link)
	assert.Equal(t, "b", res.Articles[1].Link)
	repo.AssertNotCalled(t, "SearchSimilar", mock.Anything, 0.01)
}

func TestSearchTool_NothingClearsThreshold(t *testing.T) {
	embedder := &mockEmbedder{}
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	repo := &mockNewsRepo{}
	repo.On("SearchSimilar", mock.Anything, mock.Anything).Return([]news.ScoredArticle{}, nil)

	res, err := NewSearchTool(repo, embedder, config.DefaultWorkflowConfig()).
		Search(context.Background(), Input{AssetID: "GLD"})
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.NotNil(t, res.Articles)
	repo.AssertNumberOfCalls(t, "SearchSimilar", 3)
}

func TestSearchTool_IndexUnavailableIsTransient(t *testing.T) {
	embedder := &mockEmbedder{}
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	repo := &mockNewsRepo{}
	repo.On("SearchSimilar", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := NewSearchTool(repo, embedder, config.DefaultWorkflowConfig()).
		Search(context.Background(), Input{AssetID: "GLD"})
	assert.True(t, errors.Is(err, errors.ErrSearchUnavailable))
	assert.True(t, errors.IsTransient(err))
}

func TestSearchTool_EmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{}
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.ErrTimeout)

	_, err := NewSearchTool(&mockNewsRepo{}, embedder, config.DefaultWorkflowConfig()).
		Search(context.Background(), Input{AssetID: "GLD"})
	assert.True(t, errors.Is(err, errors.ErrSearchUnavailable))
}

func TestDedupe_RespectsLimit(t *testing.T) {
	in := []news.ScoredArticle{scored("a", 0.9), scored("b", 0.8), scored("c", 0.7)}
	assert.Len(t, dedupe(in, 2), 2)
}
