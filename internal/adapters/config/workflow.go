package config

import (
	"time"

	"finsight/pkg/errors"
)

// WorkflowConfig is passed to the engine and the tools at construction time.
// Every threshold the workflows use lives here.
type WorkflowConfig struct {
	PortfolioID string `envconfig:"WORKFLOW_PORTFOLIO_ID" default:"default"`

	// Asset trend
	LookbackPeriods int `envconfig:"WORKFLOW_LOOKBACK_PERIODS" default:"50"`
	RSIPeriod       int `envconfig:"WORKFLOW_RSI_PERIOD" default:"14"`

	// Macro indicators, evaluated in this order
	MacroIndicators []string `envconfig:"WORKFLOW_MACRO_INDICATORS" default:"GDP,REAINTRATREARAT10Y,UNRATE"`

	// Volatility regime: |pct_change| < T1 low, < T2 elevated, otherwise high
	VolatilitySymbol      string  `envconfig:"WORKFLOW_VOLATILITY_SYMBOL" default:"VIX"`
	VolatilityThresholdT1 float64 `envconfig:"WORKFLOW_VOLATILITY_T1" default:"5"`
	VolatilityThresholdT2 float64 `envconfig:"WORKFLOW_VOLATILITY_T2" default:"10"`

	// News search: thresholds are tried in order until one yields results
	NewsTopK             int       `envconfig:"WORKFLOW_NEWS_TOP_K" default:"5"`
	SimilarityThresholds []float64 `envconfig:"WORKFLOW_SIMILARITY_THRESHOLDS" default:"0.09,0.05,0.01"`

	// Sentiment category cutoffs on the mean score in [-1, 1]
	PositiveCutoff float64 `envconfig:"WORKFLOW_SENTIMENT_POSITIVE" default:"0.2"`
	NegativeCutoff float64 `envconfig:"WORKFLOW_SENTIMENT_NEGATIVE" default:"-0.2"`

	// Allocation sum tolerance in percentage points
	AllocationTolerance float64 `envconfig:"WORKFLOW_ALLOCATION_TOLERANCE" default:"0.5"`

	// Calls
	CallTimeout      time.Duration `envconfig:"WORKFLOW_CALL_TIMEOUT" default:"20s"`
	SynthesisTimeout time.Duration `envconfig:"WORKFLOW_SYNTHESIS_TIMEOUT" default:"60s"`
	MaxRetries       int           `envconfig:"WORKFLOW_MAX_RETRIES" default:"2"`
	RetryBackoff     time.Duration `envconfig:"WORKFLOW_RETRY_BACKOFF" default:"500ms"`
	MaxBackoff       time.Duration `envconfig:"WORKFLOW_MAX_BACKOFF" default:"5s"`
	Concurrency      int           `envconfig:"WORKFLOW_CONCURRENCY" default:"4"`

	// Synthesis
	DefaultWordLimit     int `envconfig:"WORKFLOW_WORD_LIMIT" default:"80"`
	PromptCharBudget     int `envconfig:"WORKFLOW_PROMPT_CHAR_BUDGET" default:"12000"`
	ArticlesPerAsset     int `envconfig:"WORKFLOW_PROMPT_ARTICLES_PER_ASSET" default:"3"`
	HeadlineCharLimit    int `envconfig:"WORKFLOW_PROMPT_HEADLINE_CHARS" default:"200"`
	DescriptionCharLimit int `envconfig:"WORKFLOW_PROMPT_DESCRIPTION_CHARS" default:"1500"`
}

// DefaultWorkflowConfig mirrors the envconfig defaults for callers that do not read the environment
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		PortfolioID:           "default",
		LookbackPeriods:       50,
		RSIPeriod:             14,
		MacroIndicators:       []string{"GDP", "REAINTRATREARAT10Y", "UNRATE"},
		VolatilitySymbol:      "VIX",
		VolatilityThresholdT1: 5,
		VolatilityThresholdT2: 10,
		NewsTopK:              5,
		SimilarityThresholds:  []float64{0.09, 0.05, 0.01},
		PositiveCutoff:        0.2,
		NegativeCutoff:        -0.2,
		AllocationTolerance:   0.5,
		CallTimeout:           20 * time.Second,
		SynthesisTimeout:      60 * time.Second,
		MaxRetries:            2,
		RetryBackoff:          500 * time.Millisecond,
		MaxBackoff:            5 * time.Second,
		Concurrency:           4,
		DefaultWordLimit:      80,
		PromptCharBudget:      12000,
		ArticlesPerAsset:      3,
		HeadlineCharLimit:     200,
		DescriptionCharLimit:  1500,
	}
}

// Validate rejects configurations that would make the workflows meaningless
func (c WorkflowConfig) Validate() error {
	var errs errors.MultiError

	if c.LookbackPeriods < 2 {
		errs.Add(errors.NewValidationError("lookback_periods", "must be at least 2", c.LookbackPeriods))
	}
	if c.VolatilityThresholdT1 <= 0 || c.VolatilityThresholdT1 >= c.VolatilityThresholdT2 {
		errs.Add(errors.NewValidationError("volatility_thresholds", "require 0 < T1 < T2",
			[2]float64{c.VolatilityThresholdT1, c.VolatilityThresholdT2}))
	}
	if c.NewsTopK <= 0 {
		errs.Add(errors.NewValidationError("news_top_k", "must be positive", c.NewsTopK))
	}
	if len(c.SimilarityThresholds) == 0 {
		errs.Add(errors.NewValidationError("similarity_thresholds", "at least one threshold required", c.SimilarityThresholds))
	}
	for i := 1; i < len(c.SimilarityThresholds); i++ {
		if c.SimilarityThresholds[i] > c.SimilarityThresholds[i-1] {
			errs.Add(errors.NewValidationError("similarity_thresholds", "must be non-increasing", c.SimilarityThresholds))
			break
		}
	}
	if c.NegativeCutoff >= c.PositiveCutoff {
		errs.Add(errors.NewValidationError("sentiment_cutoffs", "negative cutoff must be below positive cutoff",
			[2]float64{c.NegativeCutoff, c.PositiveCutoff}))
	}
	if c.AllocationTolerance < 0 {
		errs.Add(errors.NewValidationError("allocation_tolerance", "must not be negative", c.AllocationTolerance))
	}
	if c.MaxRetries < 0 {
		errs.Add(errors.NewValidationError("max_retries", "must not be negative", c.MaxRetries))
	}
	if c.CallTimeout <= 0 || c.SynthesisTimeout <= 0 {
		errs.Add(errors.NewValidationError("timeouts", "must be positive", [2]time.Duration{c.CallTimeout, c.SynthesisTimeout}))
	}
	if c.DefaultWordLimit <= 0 {
		errs.Add(errors.NewValidationError("word_limit", "must be positive", c.DefaultWordLimit))
	}
	if len(c.MacroIndicators) == 0 {
		errs.Add(errors.NewValidationError("macro_indicators", "at least one indicator required", c.MacroIndicators))
	}

	return errs.ToError()
}
