package workflows

import (
	"fmt"
	"sort"

	"finsight/internal/agents/state"
	"finsight/internal/agents/synthesis"
	"finsight/internal/domain/profile"
	"finsight/internal/domain/report"
	"finsight/internal/tools"
	"finsight/internal/tools/macro"
	"finsight/internal/tools/portfolio"
	"finsight/internal/tools/trend"
	"finsight/internal/tools/volatility"
	"finsight/pkg/errors"
)

// MarketAnalysis diagnoses the portfolio against trends, macro indicators and volatility
func MarketAnalysis() Definition {
	return Definition{
		Kind:    report.KindMarketAnalysis,
		AgentID: profile.MarketAnalysisAgentID,
		Steps: []Step{
			allocationStep(),
			{
				Name:     StepAssetTrends,
				Tool:     tools.AssetTrendTool,
				Fanout:   perPosition(func(assetID, description string) any { return trend.Input{AssetID: assetID, Description: description} }),
				Collect:  collectTrends,
				Tolerate: func(err error) bool { return errors.Is(err, errors.ErrInsufficientHistory) },
				Valid:    validTrends,
				Warnings: trendWarnings,
			},
			{
				Name: StepMacroIndicators,
				Tool: tools.MacroIndicatorsTool,
				Input: func(rc *RunContext) (any, error) {
					return macro.Input{Names: rc.Config.MacroIndicators}, nil
				},
				Valid: func(out any) error {
					res, ok := out.(*macro.Result)
					if !ok || res == nil {
						return errors.Newf("unexpected macro output %T", out)
					}
					if !res.Available() {
						return errors.Wrap(errors.ErrDataUnavailable, "no macro indicator available")
					}
					return nil
				},
				Warnings: func(out any) []string {
					res, _ := out.(*macro.Result)
					if res == nil {
						return nil
					}
					var ws []string
					for _, name := range res.Missing() {
						ws = append(ws, fmt.Sprintf("macro indicator %s is missing", name))
					}
					return ws
				},
			},
			{
				Name: StepMarketVolatility,
				Tool: tools.MarketVolatilityTool,
				Input: func(rc *RunContext) (any, error) {
					return volatility.Input{}, nil
				},
			},
			synthesisStep(analysisSlice),
		},
	}
}

func collectTrends(rc *RunContext, results []FanoutResult) (any, error) {
	alloc, err := allocation(rc.State)
	if err != nil {
		return nil, err
	}
	byAsset := make(map[string]FanoutResult, len(results))
	for _, r := range results {
		byAsset[r.Key] = r
	}

	entries := make([]synthesis.TrendEntry, 0, len(alloc.Positions))
	for _, pos := range alloc.Positions {
		r, ok := byAsset[pos.AssetID]
		if !ok {
			continue
		}
		entry := synthesis.TrendEntry{
			AssetID:     pos.AssetID,
			Description: pos.Description,
			Allocation:  pos.Allocation,
		}
		if r.Err != nil {
			entry.Degraded = true
			entry.Reason = r.Err.Error()
		} else {
			res, ok := r.Output.(*trend.Result)
			if !ok {
				return nil, errors.Wrapf(errors.ErrInvalidOutput, "asset %s: unexpected trend output %T", pos.AssetID, r.Output)
			}
			entry.Trend = res
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AssetID < entries[j].AssetID })
	return entries, nil
}

// validTrends requires at least one asset with a usable trend
func validTrends(out any) error {
	entries, ok := out.([]synthesis.TrendEntry)
	if !ok {
		return errors.Newf("unexpected trends output %T", out)
	}
	for _, e := range entries {
		if !e.Degraded {
			return nil
		}
	}
	return errors.Wrap(errors.ErrInsufficientHistory, "no asset has enough price history")
}

func trendWarnings(out any) []string {
	entries, _ := out.([]synthesis.TrendEntry)
	var ws []string
	for _, e := range entries {
		if e.Degraded {
			ws = append(ws, fmt.Sprintf("trend unavailable for %s: %s", e.AssetID, e.Reason))
		}
	}
	return ws
}

func analysisSlice(rc *RunContext) (synthesis.Slice, error) {
	alloc, err := allocation(rc.State)
	if err != nil {
		return synthesis.Slice{}, err
	}
	trends, _ := state.Output[[]synthesis.TrendEntry](rc.State, StepAssetTrends)
	macroRes, ok := state.Output[*macro.Result](rc.State, StepMacroIndicators)
	if !ok || macroRes == nil {
		return synthesis.Slice{}, errors.Wrap(errors.ErrInternal, "macro indicators were not recorded")
	}
	vol, ok := state.Output[*volatility.Result](rc.State, StepMarketVolatility)
	if !ok || vol == nil {
		return synthesis.Slice{}, errors.Wrap(errors.ErrInternal, "market volatility was not recorded")
	}

	return synthesis.Slice{
		Kind: rc.Kind,
		View: synthesis.AnalysisView{
			Allocation: *alloc,
			Trends:     trends,
			Macro:      *macroRes,
			Volatility: *vol,
		},
	}, nil
}

// allocationStep is the first step of every workflow
func allocationStep() Step {
	return Step{
		Name: StepPortfolioAllocation,
		Tool: tools.PortfolioAllocationTool,
		Input: func(rc *RunContext) (any, error) {
			return portfolio.Input{PortfolioID: rc.Config.PortfolioID}, nil
		},
		Valid: func(out any) error {
			res, ok := out.(*portfolio.Result)
			if !ok || res == nil {
				return errors.Newf("unexpected allocation output %T", out)
			}
			if len(res.Positions) == 0 {
				return errors.Wrapf(errors.ErrDataUnavailable, "portfolio %s has no positions", res.PortfolioID)
			}
			return nil
		},
		Warnings: func(out any) []string {
			if res, ok := out.(*portfolio.Result); ok && res != nil {
				return res.Warnings
			}
			return nil
		},
	}
}

// perPosition fans a step out over the positions of the recorded allocation
func perPosition(input func(assetID, description string) any) func(rc *RunContext) (map[string]any, error) {
	return func(rc *RunContext) (map[string]any, error) {
		alloc, err := allocation(rc.State)
		if err != nil {
			return nil, err
		}
		inputs := make(map[string]any, len(alloc.Positions))
		for _, pos := range alloc.Positions {
			inputs[pos.AssetID] = input(pos.AssetID, pos.Description)
		}
		return inputs, nil
	}
}

func allocation(s *state.RunState) (*portfolio.Result, error) {
	res, ok := state.Output[*portfolio.Result](s, StepPortfolioAllocation)
	if !ok || res == nil {
		return nil, errors.Wrap(errors.ErrInternal, "portfolio allocation was not recorded")
	}
	return res, nil
}
