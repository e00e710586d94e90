package portfolio

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/portfolio"
	"finsight/internal/tools"
	"finsight/pkg/errors"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetLatestSnapshot(ctx context.Context, portfolioID string) (*portfolio.Snapshot, error) {
	args := m.Called(ctx, portfolioID)
	if s, ok := args.Get(0).(*portfolio.Snapshot); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetActiveRiskProfile(ctx context.Context) (*portfolio.RiskProfile, error) {
	args := m.Called(ctx)
	if r, ok := args.Get(0).(*portfolio.RiskProfile); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func position(id, pct string) portfolio.Position {
	return portfolio.Position{AssetID: id, Description: id + " fund", AssetType: portfolio.AssetTypeEquity, Allocation: decimal.RequireFromString(pct)}
}

func TestAllocationTool_WithinTolerance(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetLatestSnapshot", mock.Anything, "default").Return(&portfolio.Snapshot{
		PortfolioID: "default",
		Positions:   []portfolio.Position{position("SPY", "60"), position("TLT", "40.3")},
	}, nil)
	repo.On("GetActiveRiskProfile", mock.Anything).Return(&portfolio.RiskProfile{ID: "AGGRESSIVE", Active: true}, nil)

	tool := NewAllocationTool(repo, config.DefaultWorkflowConfig()).Tool()
	res, err := tools.Invoke[*Result](context.Background(), tool, Input{PortfolioID: "default"})
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, "AGGRESSIVE", res.RiskProfile.ID)
	assert.Equal(t, "100.3", res.TotalAllocation.String())
	repo.AssertExpectations(t)
}

func TestAllocationTool_OutOfToleranceWarns(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetLatestSnapshot", mock.Anything, "default").Return(&portfolio.Snapshot{
		PortfolioID: "default",
		Positions:   []portfolio.Position{position("SPY", "60"), position("TLT", "30")},
	}, nil)
	repo.On("GetActiveRiskProfile", mock.Anything).Return(nil, errors.ErrNotFound)

	res, err := NewAllocationTool(repo, config.DefaultWorkflowConfig()).Allocation(context.Background(), Input{PortfolioID: "default"})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "90.00%")
	assert.Equal(t, portfolio.DefaultRiskProfile, res.RiskProfile.ID)
}

func TestAllocationTool_MissingSnapshot(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetLatestSnapshot", mock.Anything, "ghost").Return(nil, errors.ErrNotFound)

	_, err := NewAllocationTool(repo, config.DefaultWorkflowConfig()).Allocation(context.Background(), Input{PortfolioID: "ghost"})
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
	assert.False(t, errors.IsTransient(err))
}

func TestAllocationTool_EmptySnapshot(t *testing.T) {
	repo := &mockRepo{}
	repo.On("GetLatestSnapshot", mock.Anything, "default").Return(&portfolio.Snapshot{PortfolioID: "default"}, nil)

	_, err := NewAllocationTool(repo, config.DefaultWorkflowConfig()).Allocation(context.Background(), Input{PortfolioID: "default"})
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}
