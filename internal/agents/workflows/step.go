package workflows

import (
	"time"

	"finsight/internal/adapters/config"
	"finsight/internal/agents/state"
	"finsight/internal/agents/synthesis"
	"finsight/internal/domain/profile"
	"finsight/internal/domain/report"
	"finsight/internal/tools"
	"finsight/pkg/errors"
)

// Step names as they appear in run state and failure records
const (
	StepPortfolioAllocation  = "portfolio_allocation"
	StepAssetTrends          = "asset_trends"
	StepMacroIndicators      = "macro_indicators"
	StepMarketVolatility     = "market_volatility"
	StepNewsSearch           = "news_search"
	StepSentimentAggregation = "sentiment_aggregation"
	StepSynthesis            = "synthesis"
	StepPersistReport        = "persist_report"
)

// RunContext is what a step can see when building its input
type RunContext struct {
	Kind    report.Kind
	State   *state.RunState
	Profile *profile.Profile
	Config  config.WorkflowConfig
}

// FanoutResult is the outcome of one per-asset call
type FanoutResult struct {
	Key    string
	Output any
	Err    error // only set for errors the step tolerates
}

// Step describes one stage of a workflow: which tool to call, with what, and what counts as success.
// A step either has Input (one call) or Fanout and Collect (one call per key, then merged).
type Step struct {
	Name string
	Tool string

	Input   func(rc *RunContext) (any, error)
	Fanout  func(rc *RunContext) (map[string]any, error)
	Collect func(rc *RunContext, results []FanoutResult) (any, error)

	// Tolerate marks per-key errors that degrade the key instead of failing the step
	Tolerate func(err error) bool

	// Valid rejects outputs the next steps cannot use
	Valid func(out any) error

	// Warnings extracts non-fatal observations to attach to the run
	Warnings func(out any) []string

	// Describe replaces the tool arguments in the recorded inputs
	Describe func(args any) any

	// FailAs classifies any failure of the step that is not a cancellation
	FailAs error
}

// Definition is the fixed step list of one workflow kind
type Definition struct {
	Kind    report.Kind
	AgentID string
	Steps   []Step
}

// SliceFunc builds the synthesis slice for a run
type SliceFunc func(rc *RunContext) (synthesis.Slice, error)

// synthesisStep is shared by both workflows; only the slice differs
func synthesisStep(slice SliceFunc) Step {
	return Step{
		Name:   StepSynthesis,
		Tool:   tools.SynthesisTool,
		FailAs: errors.ErrSynthesis,
		Input: func(rc *RunContext) (any, error) {
			s, err := slice(rc)
			if err != nil {
				return nil, err
			}
			s.Warnings = rc.State.Warnings()
			if s.Date.IsZero() {
				s.Date = rc.State.StartedAt()
			}
			return synthesis.Input{Profile: rc.Profile, Slice: s}, nil
		},
		Describe: func(args any) any {
			in, ok := args.(synthesis.Input)
			if !ok || in.Profile == nil {
				return nil
			}
			return map[string]any{
				"agent_id": in.Profile.AgentID,
				"workflow": in.Slice.Kind,
				"warnings": in.Slice.Warnings,
			}
		},
	}
}

// timeoutFor returns the per-attempt timeout of a tool
func timeoutFor(cfg config.WorkflowConfig, tool string) time.Duration {
	if tool == tools.SynthesisTool {
		return cfg.SynthesisTimeout
	}
	return cfg.CallTimeout
}
