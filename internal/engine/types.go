// Package engine provides the deployment orchestration core for Golem.
// It defines the step contract, the shared execution context, and the
// installer that sequences fallible steps with automatic reverse-order
// rollback on partial failure.
package engine

import (
	"fmt"
	"time"
)

// StepStatus represents the status of a deployment step.
type StepStatus int

const (
	// StepStatusPending indicates the step has not yet been executed.
	StepStatusPending StepStatus = iota
	// StepStatusRunning indicates the step is currently executing.
	StepStatusRunning
	// StepStatusCompleted indicates the step completed successfully.
	StepStatusCompleted
	// StepStatusFailed indicates the step failed.
	StepStatusFailed
	// StepStatusSkipped indicates the step was skipped.
	StepStatusSkipped
	// StepStatusRolledBack indicates the step was compensated after execution.
	StepStatusRolledBack
)

// String returns the string representation of the step status.
func (s StepStatus) String() string {
	switch s {
	case StepStatusPending:
		return "pending"
	case StepStatusRunning:
		return "running"
	case StepStatusCompleted:
		return "completed"
	case StepStatusFailed:
		return "failed"
	case StepStatusSkipped:
		return "skipped"
	case StepStatusRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsTerminal returns true if this status represents a terminal state.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped, StepStatusRolledBack:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if this status represents a successful outcome.
func (s StepStatus) IsSuccess() bool {
	return s == StepStatusCompleted || s == StepStatusSkipped
}

// Data is an ordered string-keyed collection of step output values,
// such as paths a step created for a later step to consume.
// Keys preserve insertion order; setting an existing key updates the
// value in place.
type Data struct {
	keys   []string
	values map[string]string
}

// NewData creates an empty data collection.
func NewData() *Data {
	return &Data{values: make(map[string]string)}
}

// Set stores a value under the given key.
func (d *Data) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get retrieves a value by key.
func (d *Data) Get(key string) (string, bool) {
	if d == nil || d.values == nil {
		return "", false
	}
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Data) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string{}, d.keys...)
}

// Len returns the number of entries.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// StepResult contains the outcome of a single step lifecycle call.
// Results are returned as values, never raised as control flow.
type StepResult struct {
	// Status is the final status of the call.
	Status StepStatus

	// Message is a human-readable message describing the result.
	Message string

	// Error is the error that caused failure, if any.
	Error error

	// Data holds step-specific output in insertion order.
	Data *Data

	// Duration is how long the call took.
	Duration time.Duration
}

// NewStepResult creates a new step result with the given status and message.
func NewStepResult(status StepStatus, message string) StepResult {
	return StepResult{Status: status, Message: message}
}

// WithError adds an error to the step result.
func (r StepResult) WithError(err error) StepResult {
	r.Error = err
	return r
}

// WithDuration adds a duration to the step result.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.Duration = d
	return r
}

// WithData appends a key-value pair to the result data.
func (r StepResult) WithData(key, value string) StepResult {
	if r.Data == nil {
		r.Data = NewData()
	}
	r.Data.Set(key, value)
	return r
}

// IsSuccess returns true if the call completed successfully.
func (r StepResult) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// IsFailure returns true if the call failed.
func (r StepResult) IsFailure() bool {
	return r.Status == StepStatusFailed
}

// String returns a human-readable representation of the step result.
func (r StepResult) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: %s (error: %v)", r.Status, r.Message, r.Error)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}

// Progress is a two-level snapshot of run progress: which step is running
// and how far along its internal work is.
type Progress struct {
	// StepIndex is the 1-based index of the current step.
	StepIndex int

	// TotalSteps is the total number of steps in the run.
	TotalSteps int

	// StepName is the display name of the current step.
	StepName string

	// SubStep describes the step-internal operation in flight, if any.
	SubStep string

	// Percent is the intra-step completion percentage (0-100).
	Percent int
}

// OverallPercent combines the step index and the intra-step percentage
// into a whole-run percentage. Returns 0 when TotalSteps is 0.
func (p Progress) OverallPercent() float64 {
	if p.TotalSteps <= 0 {
		return 0
	}
	return float64((p.StepIndex-1)*100+p.Percent) / float64(p.TotalSteps)
}

// String returns a human-readable representation of the progress.
func (p Progress) String() string {
	if p.SubStep != "" {
		return fmt.Sprintf("[%d/%d] %s: %s (%.1f%%)",
			p.StepIndex, p.TotalSteps, p.StepName, p.SubStep, p.OverallPercent())
	}
	return fmt.Sprintf("[%d/%d] %s (%.1f%%)",
		p.StepIndex, p.TotalSteps, p.StepName, p.OverallPercent())
}

// RunStatus represents the overall outcome of an installer run.
type RunStatus int

const (
	// RunStatusPending indicates the run has not yet started.
	RunStatusPending RunStatus = iota
	// RunStatusRunning indicates the run is currently executing.
	RunStatusRunning
	// RunStatusCompleted indicates the run completed successfully.
	RunStatusCompleted
	// RunStatusFailed indicates the run failed.
	RunStatusFailed
	// RunStatusCancelled indicates the run was cancelled. Rollback of the
	// steps executed so far has already been attempted.
	RunStatusCancelled
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	switch s {
	case RunStatusPending:
		return "pending"
	case RunStatusRunning:
		return "running"
	case RunStatusCompleted:
		return "completed"
	case RunStatusFailed:
		return "failed"
	case RunStatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsTerminal returns true if this status represents a terminal state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if this status represents a successful outcome.
func (s RunStatus) IsSuccess() bool {
	return s == RunStatusCompleted
}

// ResultSet is an ordered collection of step results keyed by display
// name. A step recorded twice keeps its position and its last outcome.
type ResultSet struct {
	names   []string
	results map[string]StepResult
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{results: make(map[string]StepResult)}
}

// Record stores the result for the named step, replacing any earlier
// outcome while preserving the original position.
func (rs *ResultSet) Record(name string, result StepResult) {
	if rs.results == nil {
		rs.results = make(map[string]StepResult)
	}
	if _, ok := rs.results[name]; !ok {
		rs.names = append(rs.names, name)
	}
	rs.results[name] = result
}

// Get retrieves the result for the named step.
func (rs *ResultSet) Get(name string) (StepResult, bool) {
	if rs == nil || rs.results == nil {
		return StepResult{}, false
	}
	r, ok := rs.results[name]
	return r, ok
}

// Names returns the step names in recording order.
func (rs *ResultSet) Names() []string {
	if rs == nil {
		return nil
	}
	return append([]string{}, rs.names...)
}

// Len returns the number of recorded results.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.names)
}

// RunSummary contains the outcome of a whole Install, Uninstall or Repair
// run. It is created once at the end of the run and never mutated.
type RunSummary struct {
	// Status is the final status of the run. Cancellation is reported
	// here as a distinct outcome from ordinary failure.
	Status RunStatus

	// Success is true only if every non-skipped step either succeeded
	// or failed with continue-on-error set.
	Success bool

	// Message describes the overall outcome.
	Message string

	// StepResults retains every step's last recorded outcome, including
	// skipped markers, keyed by display name in run order.
	StepResults *ResultSet

	// CompletedSteps is the number of steps that completed successfully.
	CompletedSteps int

	// FailedStep names the first step whose failure stopped the run, if any.
	FailedStep string

	// Duration is the total time taken by the run.
	Duration time.Duration
}

// IsCancelled returns true if the run was cancelled.
func (s RunSummary) IsCancelled() bool {
	return s.Status == RunStatusCancelled
}

// String returns a human-readable representation of the run summary.
func (s RunSummary) String() string {
	if s.FailedStep != "" {
		return fmt.Sprintf("%s: failed at step '%s': %s", s.Status, s.FailedStep, s.Message)
	}
	return fmt.Sprintf("%s: %s (%d steps in %v)", s.Status, s.Message, s.CompletedSteps, s.Duration)
}
