package state

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
)

// Entry is one recorded step. Inputs and Outputs are JSON encoded at record time,
// so later mutation of the recorded values never leaks into a snapshot.
type Entry struct {
	Step       string          `json:"step"`
	Inputs     json.RawMessage `json:"inputs"`
	Outputs    json.RawMessage `json:"outputs"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Snapshot is a detached copy of a run's state
type Snapshot struct {
	RunID     string      `json:"run_id"`
	Kind      report.Kind `json:"workflow_kind"`
	StartedAt time.Time   `json:"started_at"`
	Steps     []Entry     `json:"steps"`
	Warnings  []string    `json:"warnings,omitempty"`
	Report    *string     `json:"report,omitempty"`
}

// StepNames lists recorded steps in order
func (s Snapshot) StepNames() []string {
	names := make([]string, len(s.Steps))
	for i, e := range s.Steps {
		names[i] = e.Step
	}
	return names
}

// JSON encodes the snapshot for persistence
func (s Snapshot) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "encode run snapshot")
	}
	return b, nil
}

// RunState is the append-only ledger of one workflow run.
// Each step is written once; the report is set once, after synthesis.
type RunState struct {
	mu        sync.RWMutex
	runID     string
	kind      report.Kind
	startedAt time.Time
	entries   []Entry
	values    map[string]any
	warnings  []string
	report    *string
}

// Start creates the state for a new run with a fresh run id
func Start(kind report.Kind) *RunState {
	return &RunState{
		runID:     uuid.NewString(),
		kind:      kind,
		startedAt: time.Now().UTC(),
		values:    make(map[string]any),
	}
}

// RunID returns the run identifier
func (s *RunState) RunID() string { return s.runID }

// Kind returns the workflow kind
func (s *RunState) Kind() report.Kind { return s.kind }

// StartedAt returns when the run started
func (s *RunState) StartedAt() time.Time { return s.startedAt }

// Record appends a step. A step name can only be recorded once per run.
func (s *RunState) Record(step string, inputs, outputs any) error {
	in, err := json.Marshal(inputs)
	if err != nil {
		return errors.Wrapf(err, "encode inputs of %s", step)
	}
	out, err := json.Marshal(outputs)
	if err != nil {
		return errors.Wrapf(err, "encode outputs of %s", step)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[step]; ok {
		return errors.Wrapf(errors.ErrDuplicateStep, "step %s", step)
	}
	s.values[step] = outputs
	s.entries = append(s.entries, Entry{
		Step:       step,
		Inputs:     in,
		Outputs:    out,
		RecordedAt: time.Now().UTC(),
	})
	return nil
}

// Has reports whether step was recorded
func (s *RunState) Has(step string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[step]
	return ok
}

// Len returns the number of recorded steps
func (s *RunState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AddWarning attaches a non-fatal observation to the run
func (s *RunState) AddWarning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

// Warnings returns a copy of the run warnings
func (s *RunState) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.warnings...)
}

// SetReport stores the synthesized report text. It can be set once.
func (s *RunState) SetReport(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil {
		return errors.Wrap(errors.ErrAlreadyExists, "report already set")
	}
	s.report = &text
	return nil
}

// Report returns the report text if it was set
func (s *RunState) Report() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return "", false
	}
	return *s.report, true
}

// Snapshot returns a deep copy of the current state
func (s *RunState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		steps[i] = Entry{
			Step:       e.Step,
			Inputs:     append(json.RawMessage(nil), e.Inputs...),
			Outputs:    append(json.RawMessage(nil), e.Outputs...),
			RecordedAt: e.RecordedAt,
		}
	}

	snap := Snapshot{
		RunID:     s.runID,
		Kind:      s.kind,
		StartedAt: s.startedAt,
		Steps:     steps,
		Warnings:  append([]string(nil), s.warnings...),
	}
	if s.report != nil {
		text := *s.report
		snap.Report = &text
	}
	return snap
}

// Output returns the typed output recorded for step
func Output[T any](s *RunState, step string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	v, ok := s.values[step]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
