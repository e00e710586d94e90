package synthesis

import (
	"github.com/shopspring/decimal"

	"finsight/internal/domain/news"
	"finsight/internal/tools/macro"
	"finsight/internal/tools/portfolio"
	"finsight/internal/tools/sentiment"
	"finsight/internal/tools/trend"
	"finsight/internal/tools/volatility"
)

// AnalysisView is the slice of a market analysis run rendered into the prompt
type AnalysisView struct {
	Allocation portfolio.Result
	Trends     []TrendEntry
	Macro      macro.Result
	Volatility volatility.Result
}

// TrendEntry is one asset's trend. Degraded entries carry a reason instead of a trend.
type TrendEntry struct {
	AssetID     string          `json:"asset_id"`
	Description string          `json:"description"`
	Allocation  decimal.Decimal `json:"allocation"`
	Trend       *trend.Result   `json:"trend,omitempty"`
	Degraded    bool            `json:"degraded,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// NewsView is the slice of a market news run rendered into the prompt
type NewsView struct {
	Allocation portfolio.Result
	Assets     []AssetNews
	Overall    sentiment.Overall
}

// AssetNews pairs an asset with its retrieved articles and their aggregate
type AssetNews struct {
	AssetID     string
	Description string
	Allocation  decimal.Decimal
	Sentiment   sentiment.Aggregate
	Articles    []news.ScoredArticle
}
