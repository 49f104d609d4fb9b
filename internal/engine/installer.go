package engine

import (
	"fmt"
	"time"
)

// Installer sequences an ordered list of configured steps against a
// shared context. A failure partway through an Install triggers
// best-effort compensation of everything already executed, in reverse
// order; Uninstall is the same compensation applied unconditionally to
// the whole list.
type Installer struct {
	name          string
	ctx           *Context
	steps         []*ConfiguredStep
	validateFirst bool
}

// InstallerOption is a functional option for Installer.
type InstallerOption func(*Installer)

// WithValidation controls the pre-flight validation phase of Install.
// It is enabled by default.
func WithValidation(enabled bool) InstallerOption {
	return func(in *Installer) {
		in.validateFirst = enabled
	}
}

// WithConfiguredSteps appends configured steps to the run list.
func WithConfiguredSteps(steps ...*ConfiguredStep) InstallerOption {
	return func(in *Installer) {
		in.steps = append(in.steps, steps...)
	}
}

// NewInstaller creates an installer for the named plan using the given
// shared context.
func NewInstaller(name string, ctx *Context, opts ...InstallerOption) *Installer {
	if ctx == nil {
		ctx = NewContext()
	}
	in := &Installer{
		name:          name,
		ctx:           ctx,
		validateFirst: true,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// AddStep wraps a step with the given overrides and appends it.
func (in *Installer) AddStep(step Step, opts ...StepOption) {
	in.steps = append(in.steps, NewConfiguredStep(step, opts...))
}

// AddConfiguredStep appends an already-configured step.
func (in *Installer) AddConfiguredStep(cs *ConfiguredStep) {
	in.steps = append(in.steps, cs)
}

// Steps returns a copy of the configured step list.
func (in *Installer) Steps() []*ConfiguredStep {
	return append([]*ConfiguredStep{}, in.steps...)
}

// Context returns the shared execution context.
func (in *Installer) Context() *Context {
	return in.ctx
}

// runState tracks per-run bookkeeping: recorded results, the steps whose
// Execute was actually invoked (rollback covers exactly those), and which
// steps have been disposed.
type runState struct {
	results   *ResultSet
	executed  []executedStep
	completed int
	disposed  []bool
}

type executedStep struct {
	index int
	cs    *ConfiguredStep
}

func (in *Installer) newRunState() *runState {
	return &runState{
		results:  NewResultSet(),
		disposed: make([]bool, len(in.steps)),
	}
}

// executeOutcome reports how the forward execution loop ended.
type executeOutcome struct {
	failedStep string
	failResult StepResult
	cancelled  bool
}

// Install runs every configured step in order. When the pre-flight
// validation phase is enabled (the default) it completes fully before any
// Execute call, short-circuiting on the first validation failure with no
// execution and no rollback. An execution failure on a step without
// continue-on-error triggers reverse-order rollback of every step whose
// Execute was invoked, then stops the run.
func (in *Installer) Install() RunSummary {
	start := time.Now()
	st := in.newRunState()
	defer in.disposeAll(st)

	in.ctx.Log("starting install", "plan", in.name, "steps", len(in.steps))

	if in.validateFirst {
		if name, res, failed := in.validateAll(st); failed {
			in.disposeAll(st)
			return in.summarize(st, RunStatusFailed,
				fmt.Sprintf("validation failed at step '%s': %s", name, res.Message),
				name, start)
		}
	}

	outcome := in.executeSteps(st, in.allIndices())

	switch {
	case outcome.cancelled:
		in.ctx.LogWarn("install cancelled, compensating executed steps", "executed", len(st.executed))
		in.rollbackExecuted(st)
		in.disposeAll(st)
		return in.summarize(st, RunStatusCancelled,
			fmt.Sprintf("install cancelled after %d steps; rollback attempted", len(st.executed)),
			"", start)

	case outcome.failedStep != "":
		in.ctx.LogError("install failed, compensating executed steps",
			"step", outcome.failedStep, "executed", len(st.executed))
		in.rollbackExecuted(st)
		in.disposeAll(st)
		return in.summarize(st, RunStatusFailed,
			failureMessage(outcome.failedStep, outcome.failResult),
			outcome.failedStep, start)
	}

	in.disposeAll(st)
	in.ctx.Log("install completed", "plan", in.name, "completed", st.completed)
	return in.summarize(st, RunStatusCompleted,
		fmt.Sprintf("install completed: %d of %d steps", st.completed, len(in.steps)),
		"", start)
}

// Uninstall tears down the deployment: it calls Rollback, never Execute,
// on every configured step in reverse list order. A step's rollback
// failure never stops the remaining teardown; whether it drags down the
// overall result is governed by that step's continue-on-error flag.
func (in *Installer) Uninstall() RunSummary {
	start := time.Now()
	st := in.newRunState()
	defer in.disposeAll(st)

	in.ctx.markUninstall()
	in.ctx.Log("starting uninstall", "plan", in.name, "steps", len(in.steps))

	total := len(in.steps)
	failedStep := ""
	cancelled := false

	for i := total - 1; i >= 0; i-- {
		if in.ctx.IsCancelled() {
			cancelled = true
			break
		}

		cs := in.steps[i]
		name := cs.DisplayName()
		in.ctx.SetCurrentStep(i+1, total, name)

		res := in.safeCall(cs, "rollback", cs.Step().Rollback)
		if res.IsFailure() {
			st.results.Record(name, res)
			in.ctx.LogError("rollback failed", "step", name, "error", res.Error)
			if !cs.ContinueOnError() && failedStep == "" {
				failedStep = name
			}
			continue
		}

		if res.Status != StepStatusRolledBack {
			res.Status = StepStatusRolledBack
		}
		st.results.Record(name, res)
		st.completed++
	}

	in.disposeAll(st)

	switch {
	case cancelled:
		return in.summarize(st, RunStatusCancelled,
			fmt.Sprintf("uninstall cancelled after %d steps", st.completed), "", start)
	case failedStep != "":
		return in.summarize(st, RunStatusFailed,
			fmt.Sprintf("uninstall failed at step '%s'", failedStep), failedStep, start)
	}

	in.ctx.Log("uninstall completed", "plan", in.name, "completed", st.completed)
	return in.summarize(st, RunStatusCompleted,
		fmt.Sprintf("uninstall completed: %d of %d steps", st.completed, total), "", start)
}

// Repair re-executes the configured steps whose display names are in the
// supplied set, or all steps when the set is empty, in original order.
// It uses the same execute, retry, and continue-on-error machinery as
// Install but skips the whole-list validation phase.
func (in *Installer) Repair(names ...string) RunSummary {
	start := time.Now()
	st := in.newRunState()
	defer in.disposeAll(st)

	selected := in.allIndices()
	if len(names) > 0 {
		want := make(map[string]bool, len(names))
		for _, n := range names {
			want[n] = true
		}
		selected = selected[:0]
		for i, cs := range in.steps {
			if want[cs.DisplayName()] {
				selected = append(selected, i)
			}
		}
		if len(selected) == 0 {
			in.disposeAll(st)
			return in.summarize(st, RunStatusFailed,
				fmt.Sprintf("no configured step matches %v", names), "", start)
		}
	}

	in.ctx.Log("starting repair", "plan", in.name, "steps", len(selected))

	outcome := in.executeSteps(st, selected)

	switch {
	case outcome.cancelled:
		in.rollbackExecuted(st)
		in.disposeAll(st)
		return in.summarize(st, RunStatusCancelled,
			fmt.Sprintf("repair cancelled after %d steps; rollback attempted", len(st.executed)),
			"", start)

	case outcome.failedStep != "":
		in.rollbackExecuted(st)
		in.disposeAll(st)
		return in.summarize(st, RunStatusFailed,
			failureMessage(outcome.failedStep, outcome.failResult),
			outcome.failedStep, start)
	}

	in.disposeAll(st)
	return in.summarize(st, RunStatusCompleted,
		fmt.Sprintf("repair completed: %d of %d steps", st.completed, len(selected)), "", start)
}

// validateAll runs the pre-flight validation phase: every step's Validate
// in list order, short-circuiting on the first failure. No Execute call
// happens and nothing is rolled back when validation fails.
func (in *Installer) validateAll(st *runState) (string, StepResult, bool) {
	for _, cs := range in.steps {
		name := cs.DisplayName()
		res := in.safeCall(cs, "validate", cs.Step().Validate)
		if res.IsFailure() {
			st.results.Record(name, res)
			in.ctx.LogError("validation failed", "step", name, "error", res.Error)
			return name, res, true
		}
		in.ctx.LogDebug("validation passed", "step", name)
	}
	return "", StepResult{}, false
}

// executeSteps drives the forward execution loop over the selected step
// indices. The per-step order is: skip predicate, step tracking update,
// cancellation check, execute with retries.
func (in *Installer) executeSteps(st *runState, selected []int) executeOutcome {
	total := len(in.steps)

	for _, i := range selected {
		cs := in.steps[i]
		name := cs.DisplayName()

		if cs.shouldSkip(in.ctx) {
			st.results.Record(name, SkipStep("skip condition satisfied"))
			in.ctx.Log("step skipped", "step", name)
			continue
		}

		in.ctx.SetCurrentStep(i+1, total, name)

		if in.ctx.IsCancelled() {
			return executeOutcome{cancelled: true}
		}

		in.ctx.Log("executing step", "step", name, "index", i+1, "total", total)
		res := in.executeWithRetry(cs)
		st.executed = append(st.executed, executedStep{index: i, cs: cs})
		st.results.Record(name, res)

		if res.IsFailure() {
			if cs.ContinueOnError() {
				in.ctx.LogWarn("step failed, continuing", "step", name, "error", res.Error)
				continue
			}
			return executeOutcome{failedStep: name, failResult: res}
		}

		st.completed++
	}

	return executeOutcome{}
}

// executeWithRetry calls Execute up to RetryCount additional times on
// failure. Retries are immediate and do not change the failure taxonomy,
// only delay when the failure is declared.
func (in *Installer) executeWithRetry(cs *ConfiguredStep) StepResult {
	attempts := cs.RetryCount() + 1

	var res StepResult
	for attempt := 1; attempt <= attempts; attempt++ {
		res = in.safeCall(cs, "execute", cs.Step().Execute)
		if !res.IsFailure() {
			return res
		}
		if attempt < attempts {
			in.ctx.LogWarn("step failed, retrying",
				"step", cs.DisplayName(), "attempt", attempt, "remaining", attempts-attempt)
		}
	}
	return res
}

// rollbackExecuted compensates every step whose Execute was invoked, most
// recently executed first. A rollback failure on one step never prevents
// attempting rollback on the remaining steps.
func (in *Installer) rollbackExecuted(st *runState) {
	total := len(in.steps)

	for i := len(st.executed) - 1; i >= 0; i-- {
		e := st.executed[i]
		name := e.cs.DisplayName()
		in.ctx.SetCurrentStep(e.index+1, total, name)

		in.ctx.Log("rolling back step", "step", name)
		res := in.safeCall(e.cs, "rollback", e.cs.Step().Rollback)

		if res.IsFailure() {
			in.ctx.LogError("rollback failed", "step", name, "error", res.Error)
			st.results.Record(name, res)
			continue
		}

		res.Status = StepStatusRolledBack
		// Compensation flips the status but must not erase why the run
		// failed: a prior execute failure keeps its message and error.
		if prev, ok := st.results.Get(name); ok && prev.IsFailure() {
			res.Message = prev.Message
			res.Error = prev.Error
		}
		st.results.Record(name, res)
	}
}

// disposeAll releases every step's ephemeral resources exactly once per
// run. Errors raised inside Dispose have no recovery channel and are
// swallowed after logging.
func (in *Installer) disposeAll(st *runState) {
	for i, cs := range in.steps {
		if st.disposed[i] {
			continue
		}
		st.disposed[i] = true
		in.disposeStep(cs)
	}
}

func (in *Installer) disposeStep(cs *ConfiguredStep) {
	defer func() {
		if r := recover(); r != nil {
			in.ctx.LogWarn("dispose panicked, swallowed", "step", cs.DisplayName(), "panic", r)
		}
	}()
	cs.Step().Dispose(in.ctx)
}

// safeCall invokes one lifecycle function, converting a panic into a
// failed result so the run keeps its compensation guarantees.
func (in *Installer) safeCall(cs *ConfiguredStep, op string, fn func(*Context) StepResult) (res StepResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = FailStep(fmt.Sprintf("%s panicked", op),
				fmt.Errorf("panic in %s of step '%s': %v", op, cs.DisplayName(), r))
			res.Duration = time.Since(start)
		}
	}()

	res = fn(in.ctx)
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	return res
}

// failureMessage folds the failing step's error into the run message so
// the summary names the actual cause, not just the step's own phrasing.
func failureMessage(step string, res StepResult) string {
	if res.Error != nil {
		return fmt.Sprintf("step '%s' failed: %s: %v", step, res.Message, res.Error)
	}
	return fmt.Sprintf("step '%s' failed: %s", step, res.Message)
}

func (in *Installer) allIndices() []int {
	idx := make([]int, len(in.steps))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (in *Installer) summarize(st *runState, status RunStatus, message, failedStep string, start time.Time) RunSummary {
	return RunSummary{
		Status:         status,
		Success:        status.IsSuccess(),
		Message:        message,
		StepResults:    st.results,
		CompletedSteps: st.completed,
		FailedStep:     failedStep,
		Duration:       time.Since(start),
	}
}
