package engine

import (
	"time"
)

// Step is a single deployment operation. Implementations carry their own
// private bookkeeping across the lifecycle so that a later Rollback can
// compensate for what Execute did.
//
// Validate is a read-only precondition check; it may inspect the
// filesystem or environment but must not mutate persistent state, and
// must be safe to call repeatedly without a following Execute.
//
// Execute performs the real side effect. On success it must privately
// record everything required to compensate later. On failure it must
// leave the system in a state from which Rollback can still make
// meaningful progress.
//
// Rollback is best-effort compensation. It must tolerate being called
// when Execute never ran (succeed as a no-op) and when Execute partially
// failed; internal failures are reported in the returned result but must
// not stop the step from attempting the rest of its own compensation.
//
// Dispose cleans up private ephemeral resources such as temporary backup
// copies. The installer invokes it exactly once per run regardless of the
// branch taken; it must be idempotent, and failures are swallowed.
//
// Long-running operations inside Validate, Execute, and Rollback are
// expected to poll the context's cancellation signal; the installer only
// checks it at step boundaries.
type Step interface {
	// Name returns the unique name of the step.
	Name() string

	// Description returns a human-readable description of what the step does.
	Description() string

	// Validate checks the step's preconditions against the given context.
	Validate(ctx *Context) StepResult

	// Execute runs the step with the given context.
	Execute(ctx *Context) StepResult

	// Rollback reverses the step's effects, best-effort.
	Rollback(ctx *Context) StepResult

	// Dispose releases the step's private ephemeral resources.
	Dispose(ctx *Context)
}

// BaseStep provides common functionality for steps.
// It should be embedded in concrete step implementations.
type BaseStep struct {
	name        string
	description string
}

// NewBaseStep creates a new base step with the given name and description.
func NewBaseStep(name, description string) BaseStep {
	return BaseStep{name: name, description: description}
}

// Name returns the step name.
func (s BaseStep) Name() string {
	return s.name
}

// Description returns the step description.
func (s BaseStep) Description() string {
	return s.description
}

// Dispose is a no-op. Steps holding ephemeral resources override it.
func (s BaseStep) Dispose(ctx *Context) {}

// FuncStep is a step implementation that uses functions for the lifecycle
// calls. This is useful for simple steps that don't need a full struct
// implementation.
type FuncStep struct {
	BaseStep
	executeFunc  func(ctx *Context) StepResult
	rollbackFunc func(ctx *Context) StepResult
	validateFunc func(ctx *Context) StepResult
	disposeFunc  func(ctx *Context)
}

// FuncStepOption is a functional option for FuncStep.
type FuncStepOption func(*FuncStep)

// WithRollbackFunc sets the rollback function for a FuncStep.
func WithRollbackFunc(fn func(ctx *Context) StepResult) FuncStepOption {
	return func(s *FuncStep) {
		s.rollbackFunc = fn
	}
}

// WithValidateFunc sets the validate function for a FuncStep.
func WithValidateFunc(fn func(ctx *Context) StepResult) FuncStepOption {
	return func(s *FuncStep) {
		s.validateFunc = fn
	}
}

// WithDisposeFunc sets the dispose function for a FuncStep.
func WithDisposeFunc(fn func(ctx *Context)) FuncStepOption {
	return func(s *FuncStep) {
		s.disposeFunc = fn
	}
}

// NewFuncStep creates a new function-based step.
func NewFuncStep(name, description string, executeFunc func(ctx *Context) StepResult, opts ...FuncStepOption) *FuncStep {
	s := &FuncStep{
		BaseStep:    NewBaseStep(name, description),
		executeFunc: executeFunc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the step's execute function.
func (s *FuncStep) Execute(ctx *Context) StepResult {
	if s.executeFunc == nil {
		return NewStepResult(StepStatusFailed, "no execute function defined")
	}

	start := time.Now()
	result := s.executeFunc(ctx)
	result.Duration = time.Since(start)

	return result
}

// Rollback runs the step's rollback function if defined.
// Without one the step has nothing to compensate and rollback succeeds.
func (s *FuncStep) Rollback(ctx *Context) StepResult {
	if s.rollbackFunc == nil {
		return NewStepResult(StepStatusRolledBack, "nothing to roll back")
	}
	return s.rollbackFunc(ctx)
}

// Validate runs the step's validate function if defined.
func (s *FuncStep) Validate(ctx *Context) StepResult {
	if s.validateFunc == nil {
		return CompleteStep("no validation required")
	}
	return s.validateFunc(ctx)
}

// Dispose runs the step's dispose function if defined.
func (s *FuncStep) Dispose(ctx *Context) {
	if s.disposeFunc != nil {
		s.disposeFunc(ctx)
	}
}

// SkipStep creates a step result indicating the step was skipped.
func SkipStep(reason string) StepResult {
	return NewStepResult(StepStatusSkipped, reason)
}

// CompleteStep creates a step result indicating successful completion.
func CompleteStep(message string) StepResult {
	return NewStepResult(StepStatusCompleted, message)
}

// FailStep creates a step result indicating failure.
func FailStep(message string, err error) StepResult {
	return NewStepResult(StepStatusFailed, message).WithError(err)
}

// RolledBackStep creates a step result indicating successful compensation.
func RolledBackStep(message string) StepResult {
	return NewStepResult(StepStatusRolledBack, message)
}

// Ensure FuncStep implements Step.
var _ Step = (*FuncStep)(nil)
