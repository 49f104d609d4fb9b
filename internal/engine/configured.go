package engine

// SkipPredicate decides whether a step should be skipped for this run.
// It receives the shared context and may block on I/O; a true return
// means the step's Execute and Rollback are never called.
type SkipPredicate func(ctx *Context) bool

// ConfiguredStep wraps a Step with per-step behavioral overrides.
// It is built once per run and not mutated afterwards.
type ConfiguredStep struct {
	step            Step
	displayName     string
	retryCount      int
	continueOnError bool
	skipWhen        SkipPredicate
}

// StepOption is a functional option for ConfiguredStep.
type StepOption func(*ConfiguredStep)

// WithDisplayName overrides the step's intrinsic name in run summaries
// and progress reports.
func WithDisplayName(name string) StepOption {
	return func(cs *ConfiguredStep) {
		cs.displayName = name
	}
}

// WithRetryCount sets the number of additional Execute attempts after the
// first. Negative values are treated as zero. Retries are immediate.
func WithRetryCount(n int) StepOption {
	return func(cs *ConfiguredStep) {
		if n < 0 {
			n = 0
		}
		cs.retryCount = n
	}
}

// WithContinueOnError allows the run to proceed past this step's failure
// without triggering rollback or dragging down the overall result.
func WithContinueOnError(enabled bool) StepOption {
	return func(cs *ConfiguredStep) {
		cs.continueOnError = enabled
	}
}

// WithSkipWhen sets a predicate evaluated before the step executes; when
// it returns true the step is recorded as skipped and never executed or
// rolled back.
func WithSkipWhen(pred SkipPredicate) StepOption {
	return func(cs *ConfiguredStep) {
		cs.skipWhen = pred
	}
}

// NewConfiguredStep wraps a step with the given overrides.
func NewConfiguredStep(step Step, opts ...StepOption) *ConfiguredStep {
	cs := &ConfiguredStep{step: step}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Step returns the wrapped step.
func (cs *ConfiguredStep) Step() Step {
	return cs.step
}

// DisplayName returns the override if set, otherwise the step's own name.
func (cs *ConfiguredStep) DisplayName() string {
	if cs.displayName != "" {
		return cs.displayName
	}
	return cs.step.Name()
}

// RetryCount returns the number of additional Execute attempts.
func (cs *ConfiguredStep) RetryCount() int {
	return cs.retryCount
}

// ContinueOnError returns whether the run proceeds past this step's failure.
func (cs *ConfiguredStep) ContinueOnError() bool {
	return cs.continueOnError
}

// shouldSkip evaluates the skip predicate, if any.
func (cs *ConfiguredStep) shouldSkip(ctx *Context) bool {
	if cs.skipWhen == nil {
		return false
	}
	return cs.skipWhen(ctx)
}
