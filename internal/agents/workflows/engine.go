package workflows

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/adapters/config"
	"finsight/internal/agents/state"
	"finsight/internal/agents/synthesis"
	"finsight/internal/domain/profile"
	"finsight/internal/domain/report"
	"finsight/internal/metrics"
	"finsight/internal/tools"
	"finsight/internal/tools/middleware"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// RunStatus is the outcome of a run
type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// RunResult is returned by Run. Exactly one of Report and Failure is set, except when the
// run failed before any state existed (unknown kind or missing profile).
type RunResult struct {
	RunID   string
	Kind    report.Kind
	Status  RunStatus
	Report  *report.Report
	Failure *report.FailureRecord
	State   state.Snapshot
}

// Profiles resolves agent profiles
type Profiles interface {
	Get(ctx context.Context, agentID string) (*profile.Profile, error)
}

// ReportSink persists finished reports
type ReportSink interface {
	Persist(ctx context.Context, r *report.Report) error
}

// FailureSink records failed runs
type FailureSink interface {
	Record(ctx context.Context, f *report.FailureRecord, cause error) error
}

// EventPublisher announces run lifecycle events
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, e *report.RunEvent) error
}

// Engine walks the step list of a workflow, one run at a time per call.
// Runs share nothing but the engine's collaborators, so concurrent runs are independent.
type Engine struct {
	tools       map[string]tools.Tool
	profiles    Profiles
	sink        ReportSink
	failures    FailureSink
	events      EventPublisher
	tracker     errors.Tracker
	cfg         config.WorkflowConfig
	definitions map[report.Kind]Definition
	log         *logger.Logger
}

// Deps are the collaborators of an Engine. Failures, Events and Tracker are optional.
type Deps struct {
	Tools    *tools.Registry
	Profiles Profiles
	Sink     ReportSink
	Failures FailureSink
	Events   EventPublisher
	Tracker  errors.Tracker
}

// NewEngine wraps every registered tool with the retry and timeout policy and
// validates that each definition only references registered tools.
func NewEngine(deps Deps, cfg config.WorkflowConfig, defs ...Definition) (*Engine, error) {
	if deps.Tools == nil || deps.Profiles == nil || deps.Sink == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "engine requires tools, profiles and a report sink")
	}

	wrapped := make(map[string]tools.Tool)
	for _, name := range deps.Tools.List() {
		t, err := deps.Tools.MustGet(name)
		if err != nil {
			return nil, err
		}
		wrapped[name] = middleware.Chain(t, middleware.Standard(cfg, timeoutFor(cfg, name))...)
	}

	byKind := make(map[report.Kind]Definition, len(defs))
	for _, def := range defs {
		for _, step := range def.Steps {
			if _, ok := wrapped[step.Tool]; !ok {
				return nil, errors.Wrapf(errors.ErrNotFound, "workflow %s step %s: tool %s is not registered", def.Kind, step.Name, step.Tool)
			}
			if step.Input == nil && (step.Fanout == nil || step.Collect == nil) {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "workflow %s step %s has no input", def.Kind, step.Name)
			}
		}
		byKind[def.Kind] = def
	}

	return &Engine{
		tools:       wrapped,
		profiles:    deps.Profiles,
		sink:        deps.Sink,
		failures:    deps.Failures,
		events:      deps.Events,
		tracker:     deps.Tracker,
		cfg:         cfg,
		definitions: byKind,
		log:         logger.Get().With("component", "workflow_engine"),
	}, nil
}

// Kinds lists the workflows the engine can run
func (e *Engine) Kinds() []report.Kind {
	kinds := make([]report.Kind, 0, len(e.definitions))
	for k := range e.definitions {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Run executes one workflow run to completion or to its first fatal failure
func (e *Engine) Run(ctx context.Context, kind report.Kind) (*RunResult, error) {
	started := time.Now()

	def, ok := e.definitions[kind]
	if !ok {
		return &RunResult{Kind: kind, Status: StatusFailed}, errors.Wrapf(errors.ErrInvalidInput, "unknown workflow %q", kind)
	}

	p, err := e.profiles.Get(ctx, def.AgentID)
	if err != nil {
		metrics.RecordWorkflowRun(kind.String(), time.Since(started), errors.KindOf(err).String())
		return &RunResult{Kind: kind, Status: StatusFailed}, errors.Wrapf(err, "load profile %s", def.AgentID)
	}

	rc := &RunContext{
		Kind:    kind,
		State:   state.Start(kind),
		Profile: p,
		Config:  e.cfg,
	}
	log := e.log.With("run_id", rc.State.RunID(), "workflow", kind)
	log.Info("Workflow run started", "agent_id", p.AgentID, "steps", len(def.Steps))
	e.publish(ctx, rc, report.RunStarted, "", "", 0)

	for _, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, rc, started, step.Name, errors.Join(errors.ErrCancelled, err))
		}

		stepStarted := time.Now()
		if err := e.runStep(ctx, rc, step); err != nil {
			return e.fail(ctx, rc, started, step.Name, err)
		}
		took := time.Since(stepStarted)
		metrics.StepDuration.WithLabelValues(kind.String(), step.Name).Observe(took.Seconds())
		log.Debug("Step recorded", "step", step.Name, "duration_ms", took.Milliseconds())
		e.publish(ctx, rc, report.RunStepCompleted, step.Name, "", took)
	}

	if err := ctx.Err(); err != nil {
		return e.fail(ctx, rc, started, StepPersistReport, errors.Join(errors.ErrCancelled, err))
	}

	r, err := e.buildReport(rc)
	if err != nil {
		return e.fail(ctx, rc, started, StepPersistReport, err)
	}
	if err := e.sink.Persist(ctx, r); err != nil {
		return e.fail(ctx, rc, started, StepPersistReport, err)
	}
	// the run state only carries the report once it is stored
	if err := rc.State.SetReport(r.Text); err != nil {
		return e.fail(ctx, rc, started, StepPersistReport, err)
	}

	took := time.Since(started)
	metrics.RecordWorkflowRun(kind.String(), took, "")
	e.publish(ctx, rc, report.RunSucceeded, "", "", took)
	log.Info("Workflow run succeeded",
		"duration_ms", took.Milliseconds(),
		"warnings", len(rc.State.Warnings()),
		"truncated", r.Truncated,
	)

	return &RunResult{
		RunID:  rc.State.RunID(),
		Kind:   kind,
		Status: StatusSucceeded,
		Report: r,
		State:  rc.State.Snapshot(),
	}, nil
}

// runStep calls the step's tool, validates the output and records it
func (e *Engine) runStep(ctx context.Context, rc *RunContext, step Step) error {
	tool := e.tools[step.Tool]

	var (
		args any
		out  any
		err  error
	)
	if step.Fanout != nil {
		var inputs map[string]any
		inputs, err = step.Fanout(rc)
		if err == nil {
			args = inputs
			var results []FanoutResult
			results, err = e.fanout(ctx, step, tool, inputs)
			if err == nil {
				out, err = step.Collect(rc, results)
			}
		}
	} else {
		args, err = step.Input(rc)
		if err == nil {
			out, err = tool.Execute(ctx, args)
		}
	}

	// a result that arrives after cancellation is discarded
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(errors.ErrCancelled, ctxErr)
	}
	if err != nil {
		return classify(step, err)
	}
	if step.Valid != nil {
		if verr := step.Valid(out); verr != nil {
			if errors.KindOf(verr) == errors.KindInternal {
				verr = errors.Join(errors.ErrInvalidOutput, verr)
			}
			return classify(step, verr)
		}
	}

	recorded := args
	if step.Describe != nil {
		recorded = step.Describe(args)
	}
	if err := rc.State.Record(step.Name, recorded, out); err != nil {
		return err
	}

	if step.Warnings != nil {
		for _, w := range step.Warnings(out) {
			rc.State.AddWarning(w)
		}
	}
	return nil
}

// fanout calls the tool once per key with bounded concurrency. Results come back sorted by key.
func (e *Engine) fanout(ctx context.Context, step Step, tool tools.Tool, inputs map[string]any) ([]FanoutResult, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]FanoutResult, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.Concurrency > 0 {
		g.SetLimit(e.cfg.Concurrency)
	}

	for i, key := range keys {
		g.Go(func() error {
			out, err := tool.Execute(gctx, inputs[key])
			if err != nil {
				if step.Tolerate != nil && step.Tolerate(err) {
					results[i] = FanoutResult{Key: key, Err: err}
					return nil
				}
				return errors.Wrapf(err, "%s %s", step.Name, key)
			}
			results[i] = FanoutResult{Key: key, Output: out}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// buildReport turns the synthesis output into a report. The run state itself is left without a report.
func (e *Engine) buildReport(rc *RunContext) (*report.Report, error) {
	res, ok := state.Output[*synthesis.Result](rc.State, StepSynthesis)
	if !ok || res == nil {
		return nil, errors.Wrap(errors.ErrSynthesis, "run has no synthesis output")
	}
	if res.Truncated {
		rc.State.AddWarning("report truncated to the word limit")
	}
	view := rc.State.Snapshot()
	text := res.Text
	view.Report = &text
	snap, err := view.JSON()
	if err != nil {
		return nil, err
	}

	return &report.Report{
		RunID:     rc.State.RunID(),
		Kind:      rc.Kind,
		DateKey:   report.DateKey(rc.State.StartedAt()),
		Text:      res.Text,
		Truncated: res.Truncated,
		Snapshot:  snap,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// fail records the failure everywhere it is observed and returns the run result with the error
func (e *Engine) fail(ctx context.Context, rc *RunContext, started time.Time, stepName string, cause error) (*RunResult, error) {
	kind := errors.KindOf(cause)
	took := time.Since(started)
	snap := rc.State.Snapshot()

	rec := &report.FailureRecord{
		RunID:     rc.State.RunID(),
		Kind:      rc.Kind,
		Step:      stepName,
		ErrorKind: kind.String(),
		Message:   cause.Error(),
		FailedAt:  time.Now().UTC(),
	}
	if raw, err := snap.JSON(); err == nil {
		rec.Snapshot = raw
	}

	// the run context may already be cancelled; recording the failure must still happen
	bg := context.WithoutCancel(ctx)
	if e.failures != nil {
		if err := e.failures.Record(bg, rec, cause); err != nil {
			e.log.Error("Failed to record run failure", "run_id", rec.RunID, "error", err, "cause", cause)
		}
	}
	metrics.RecordWorkflowRun(rc.Kind.String(), took, kind.String())
	e.publish(bg, rc, report.RunFailed, stepName, kind.String(), took)

	e.log.Warn("Workflow run failed",
		"run_id", rec.RunID,
		"workflow", rc.Kind,
		"step", stepName,
		"error_kind", kind,
		"recorded_steps", len(snap.Steps),
		"error", cause,
	)

	return &RunResult{
		RunID:   rec.RunID,
		Kind:    rc.Kind,
		Status:  StatusFailed,
		Failure: rec,
		State:   snap,
	}, errors.Wrapf(cause, "%s failed at %s", rc.Kind, stepName)
}

func (e *Engine) publish(ctx context.Context, rc *RunContext, status report.RunStatus, step, errorKind string, took time.Duration) {
	if e.tracker != nil && status == report.RunStepCompleted {
		e.tracker.AddBreadcrumb(ctx, step, "workflow."+rc.Kind.String(), errors.LevelInfo, map[string]interface{}{
			"run_id":      rc.State.RunID(),
			"duration_ms": took.Milliseconds(),
		})
	}
	if e.events == nil {
		return
	}
	event := &report.RunEvent{
		RunID:      rc.State.RunID(),
		Kind:       rc.Kind,
		Status:     status,
		Step:       step,
		ErrorKind:  errorKind,
		DurationMs: took.Milliseconds(),
		Warnings:   uint32(len(rc.State.Warnings())),
		OccurredAt: time.Now().UTC(),
	}
	if err := e.events.PublishRunEvent(ctx, event); err != nil {
		e.log.Warn("Failed to publish run event", "run_id", event.RunID, "status", status, "error", err)
	}
}

// classify applies the step's failure class to anything that is not a cancellation
func classify(step Step, err error) error {
	if step.FailAs == nil || errors.Is(err, step.FailAs) || errors.KindOf(err) == errors.KindCancelled {
		return err
	}
	return errors.Join(step.FailAs, err)
}
