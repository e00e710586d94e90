package workflows

import (
	"sort"

	"finsight/internal/agents/state"
	"finsight/internal/agents/synthesis"
	domainnews "finsight/internal/domain/news"
	"finsight/internal/domain/profile"
	"finsight/internal/domain/report"
	"finsight/internal/tools"
	"finsight/internal/tools/news"
	"finsight/internal/tools/sentiment"
	"finsight/pkg/errors"
)

// MarketNews diagnoses the portfolio from retrieved news and its sentiment
func MarketNews() Definition {
	return Definition{
		Kind:    report.KindMarketNews,
		AgentID: profile.MarketNewsAgentID,
		Steps: []Step{
			allocationStep(),
			{
				Name:    StepNewsSearch,
				Tool:    tools.NewsSearchTool,
				Fanout:  perPosition(func(assetID, description string) any { return news.Input{AssetID: assetID, Description: description} }),
				Collect: collectSearches,
			},
			{
				Name: StepSentimentAggregation,
				Tool: tools.SentimentAggregateTool,
				Input: func(rc *RunContext) (any, error) {
					searches, err := searchResults(rc.State)
					if err != nil {
						return nil, err
					}
					articles := make(map[string][]domainnews.ScoredArticle, len(searches))
					for _, s := range searches {
						articles[s.AssetID] = s.Articles
					}
					return sentiment.Input{Articles: articles}, nil
				},
				Describe: func(args any) any {
					in, ok := args.(sentiment.Input)
					if !ok {
						return nil
					}
					ids := make(map[string]int, len(in.Articles))
					for asset, arts := range in.Articles {
						ids[asset] = len(arts)
					}
					return map[string]any{"articles_per_asset": ids}
				},
				Valid: func(out any) error {
					if res, ok := out.(*sentiment.Result); !ok || res == nil {
						return errors.Newf("unexpected sentiment output %T", out)
					}
					return nil
				},
			},
			synthesisStep(newsSlice),
		},
	}
}

func collectSearches(_ *RunContext, results []FanoutResult) (any, error) {
	out := make([]*news.Result, 0, len(results))
	for _, r := range results {
		res, ok := r.Output.(*news.Result)
		if !ok || res == nil {
			return nil, errors.Wrapf(errors.ErrInvalidOutput, "asset %s: unexpected search output %T", r.Key, r.Output)
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

func searchResults(s *state.RunState) ([]*news.Result, error) {
	res, ok := state.Output[[]*news.Result](s, StepNewsSearch)
	if !ok {
		return nil, errors.Wrap(errors.ErrInternal, "news search was not recorded")
	}
	return res, nil
}

func newsSlice(rc *RunContext) (synthesis.Slice, error) {
	alloc, err := allocation(rc.State)
	if err != nil {
		return synthesis.Slice{}, err
	}
	searches, err := searchResults(rc.State)
	if err != nil {
		return synthesis.Slice{}, err
	}
	agg, ok := state.Output[*sentiment.Result](rc.State, StepSentimentAggregation)
	if !ok || agg == nil {
		return synthesis.Slice{}, errors.Wrap(errors.ErrInternal, "sentiment aggregation was not recorded")
	}

	articles := make(map[string][]domainnews.ScoredArticle, len(searches))
	for _, s := range searches {
		articles[s.AssetID] = s.Articles
	}
	aggregates := make(map[string]sentiment.Aggregate, len(agg.Assets))
	for _, a := range agg.Assets {
		aggregates[a.AssetID] = a
	}

	assets := make([]synthesis.AssetNews, 0, len(alloc.Positions))
	for _, pos := range alloc.Positions {
		assets = append(assets, synthesis.AssetNews{
			AssetID:     pos.AssetID,
			Description: pos.Description,
			Allocation:  pos.Allocation,
			Sentiment:   aggregates[pos.AssetID],
			Articles:    articles[pos.AssetID],
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].AssetID < assets[j].AssetID })

	return synthesis.Slice{
		Kind: rc.Kind,
		View: synthesis.NewsView{
			Allocation: *alloc,
			Assets:     assets,
			Overall:    agg.Overall,
		},
	}, nil
}
