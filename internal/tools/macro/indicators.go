package macro

import (
	"context"
	"fmt"
	"math"

	"finsight/internal/adapters/config"
	"finsight/internal/domain/macro"
	"finsight/internal/tools"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Input lists the series to evaluate, in report order
type Input struct {
	Names []string
}

// Entry is one evaluated indicator
type Entry struct {
	macro.IndicatorSnapshot
	Diagnosis string `json:"diagnosis"`
	Reason    string `json:"reason,omitempty"` // why the indicator is missing
}

// Result holds entries in the order they were requested
type Result struct {
	Entries []Entry `json:"entries"`
}

// Missing returns the names of indicators that could not be evaluated
func (r *Result) Missing() []string {
	var out []string
	for _, e := range r.Entries {
		if e.Missing {
			out = append(out, e.Name)
		}
	}
	return out
}

// Available reports whether at least one indicator was evaluated
func (r *Result) Available() bool {
	return len(r.Missing()) < len(r.Entries)
}

// IndicatorsTool compares the latest value of each macro series with the previous one
type IndicatorsTool struct {
	repo     macro.Repository
	defaults []string
	log      *logger.Logger
}

// NewIndicatorsTool creates the macro indicators tool
func NewIndicatorsTool(repo macro.Repository, cfg config.WorkflowConfig) *IndicatorsTool {
	return &IndicatorsTool{
		repo:     repo,
		defaults: cfg.MacroIndicators,
		log:      logger.Get().With("component", "macro_indicators_tool"),
	}
}

// Tool exposes the evaluation through the tools.Tool interface
func (t *IndicatorsTool) Tool() tools.Tool {
	return tools.Typed(tools.MacroIndicatorsTool,
		"Latest macroeconomic indicators compared with the previous period",
		t.Indicators)
}

// Indicators evaluates every requested series. A series without two observations is flagged
// missing, never dropped. Only when every series is missing does the call fail.
func (t *IndicatorsTool) Indicators(ctx context.Context, in Input) (*Result, error) {
	names := in.Names
	if len(names) == 0 {
		names = t.defaults
	}

	res := &Result{Entries: make([]Entry, 0, len(names))}
	for _, name := range names {
		obs, err := t.repo.GetLatest(ctx, name, 2)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Wrapf(err, "load indicator %s", name)
		}
		if len(obs) < 2 {
			reason := fmt.Sprintf("%d of 2 observations available", len(obs))
			t.log.Warn("macro indicator missing", "indicator", name, "reason", reason)
			res.Entries = append(res.Entries, Entry{
				IndicatorSnapshot: macro.IndicatorSnapshot{Name: name, Unit: macro.UnitFor(name), Missing: true},
				Diagnosis:         fmt.Sprintf("No %s data available.", name),
				Reason:            reason,
			})
			continue
		}
		res.Entries = append(res.Entries, evaluate(name, obs[0], obs[1]))
	}

	if !res.Available() {
		return res, errors.Wrapf(errors.ErrDataUnavailable, "no macro indicator available among %v", names)
	}
	return res, nil
}

func evaluate(name string, latest, previous macro.Observation) Entry {
	snap := macro.IndicatorSnapshot{
		Name:       name,
		Latest:     latest.Value,
		Previous:   previous.Value,
		Unit:       macro.UnitFor(name),
		ObservedAt: latest.ObservedAt,
	}

	switch snap.Unit {
	case macro.ChangePercent:
		if previous.Value != 0 {
			snap.Change = (latest.Value - previous.Value) / previous.Value * 100
		}
	default:
		snap.Change = latest.Value - previous.Value
	}
	snap.Change = math.Round(snap.Change*100) / 100

	return Entry{IndicatorSnapshot: snap, Diagnosis: diagnose(snap)}
}

func diagnose(s macro.IndicatorSnapshot) string {
	suffix := " points"
	if s.Unit == macro.ChangePercent {
		suffix = "%"
	}

	switch {
	case s.Change > 0:
		return fmt.Sprintf("%s is up by +%.2f%s with respect to the previous period.", s.Name, s.Change, suffix)
	case s.Change < 0:
		return fmt.Sprintf("%s is down by -%.2f%s with respect to the previous period.", s.Name, math.Abs(s.Change), suffix)
	default:
		return fmt.Sprintf("%s is neutral with respect to the previous period.", s.Name)
	}
}
