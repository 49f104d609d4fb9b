package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseStep(t *testing.T) {
	s := NewBaseStep("copy-config", "Copy configuration files")

	assert.Equal(t, "copy-config", s.Name())
	assert.Equal(t, "Copy configuration files", s.Description())
}

func TestFuncStep_Execute(t *testing.T) {
	t.Run("runs execute function", func(t *testing.T) {
		called := false
		step := NewFuncStep("test", "Test step", func(ctx *Context) StepResult {
			called = true
			return CompleteStep("done")
		})

		result := step.Execute(NewContext())

		assert.True(t, called)
		assert.Equal(t, StepStatusCompleted, result.Status)
		assert.True(t, result.Duration > 0)
	})

	t.Run("fails without execute function", func(t *testing.T) {
		step := NewFuncStep("test", "Test step", nil)

		result := step.Execute(NewContext())

		assert.Equal(t, StepStatusFailed, result.Status)
	})

	t.Run("modifies context properties", func(t *testing.T) {
		step := NewFuncStep("publish", "Test", func(ctx *Context) StepResult {
			ctx.SetProperty("result-key", "result-value")
			return CompleteStep("done")
		})

		ctx := NewContext()
		step.Execute(ctx)

		assert.Equal(t, "result-value", ctx.PropertyString("result-key"))
	})

	t.Run("respects dry run", func(t *testing.T) {
		var wasDryRun bool
		step := NewFuncStep("dry-run", "Test", func(ctx *Context) StepResult {
			wasDryRun = ctx.DryRun
			if ctx.DryRun {
				return SkipStep("dry run mode")
			}
			return CompleteStep("done")
		})

		ctx := NewContext(WithDryRun(true))
		result := step.Execute(ctx)

		assert.True(t, wasDryRun)
		assert.Equal(t, StepStatusSkipped, result.Status)
	})
}

func TestFuncStep_Rollback(t *testing.T) {
	t.Run("no rollback function is a successful no-op", func(t *testing.T) {
		step := NewFuncStep("test", "Test", func(ctx *Context) StepResult {
			return CompleteStep("done")
		})

		result := step.Rollback(NewContext())

		assert.Equal(t, StepStatusRolledBack, result.Status)
		assert.False(t, result.IsFailure())
	})

	t.Run("runs rollback function", func(t *testing.T) {
		called := false
		step := NewFuncStep("test", "Test",
			func(ctx *Context) StepResult { return CompleteStep("done") },
			WithRollbackFunc(func(ctx *Context) StepResult {
				called = true
				return RolledBackStep("undone")
			}))

		result := step.Rollback(NewContext())

		assert.True(t, called)
		assert.Equal(t, StepStatusRolledBack, result.Status)
	})
}

func TestFuncStep_Validate(t *testing.T) {
	t.Run("no validate function succeeds", func(t *testing.T) {
		step := NewFuncStep("test", "Test", func(ctx *Context) StepResult {
			return CompleteStep("done")
		})

		assert.False(t, step.Validate(NewContext()).IsFailure())
	})

	t.Run("runs validate function", func(t *testing.T) {
		step := NewFuncStep("test", "Test",
			func(ctx *Context) StepResult { return CompleteStep("done") },
			WithValidateFunc(func(ctx *Context) StepResult {
				return FailStep("precondition not met", errors.New("missing file"))
			}))

		result := step.Validate(NewContext())

		assert.True(t, result.IsFailure())
	})
}

func TestFuncStep_Dispose(t *testing.T) {
	t.Run("no dispose function is a no-op", func(t *testing.T) {
		step := NewFuncStep("test", "Test", func(ctx *Context) StepResult {
			return CompleteStep("done")
		})

		assert.NotPanics(t, func() { step.Dispose(NewContext()) })
	})

	t.Run("runs dispose function", func(t *testing.T) {
		called := 0
		step := NewFuncStep("test", "Test",
			func(ctx *Context) StepResult { return CompleteStep("done") },
			WithDisposeFunc(func(ctx *Context) { called++ }))

		step.Dispose(NewContext())
		step.Dispose(NewContext())

		assert.Equal(t, 2, called)
	})
}

// MockStep implements Step for testing. It records lifecycle calls and
// returns pre-configured results; SetExecuteQueue sets per-attempt
// results for retry tests.
type MockStep struct {
	BaseStep
	mu             sync.Mutex
	validateResult StepResult
	executeResult  StepResult
	executeQueue   []StepResult
	rollbackResult StepResult
	validateCalls  int
	executeCalls   int
	rollbackCalls  int
	disposeCalls   int
	panicOnDispose bool
}

func NewMockStep(name string) *MockStep {
	return &MockStep{
		BaseStep:       NewBaseStep(name, "Mock step: "+name),
		validateResult: CompleteStep("mock validated"),
		executeResult:  CompleteStep("mock executed"),
		rollbackResult: RolledBackStep("mock rolled back"),
	}
}

func (m *MockStep) Validate(ctx *Context) StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validateCalls++
	return m.validateResult
}

func (m *MockStep) Execute(ctx *Context) StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executeCalls++
	if len(m.executeQueue) > 0 {
		res := m.executeQueue[0]
		m.executeQueue = m.executeQueue[1:]
		return res
	}
	return m.executeResult
}

func (m *MockStep) Rollback(ctx *Context) StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbackCalls++
	return m.rollbackResult
}

func (m *MockStep) Dispose(ctx *Context) {
	m.mu.Lock()
	m.disposeCalls++
	panicking := m.panicOnDispose
	m.mu.Unlock()
	if panicking {
		panic("dispose exploded")
	}
}

func (m *MockStep) SetValidateResult(r StepResult) { m.validateResult = r }
func (m *MockStep) SetExecuteResult(r StepResult)  { m.executeResult = r }
func (m *MockStep) SetExecuteQueue(rs ...StepResult) {
	m.executeQueue = append([]StepResult{}, rs...)
}
func (m *MockStep) SetRollbackResult(r StepResult) { m.rollbackResult = r }

func (m *MockStep) ValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCalls
}

func (m *MockStep) ExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeCalls
}

func (m *MockStep) RollbackCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbackCalls
}

func (m *MockStep) DisposeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposeCalls
}

var _ Step = (*MockStep)(nil)

func TestMockStep(t *testing.T) {
	t.Run("tracks execute calls", func(t *testing.T) {
		step := NewMockStep("mock")

		step.Execute(NewContext())

		assert.Equal(t, 1, step.ExecuteCalls())
	})

	t.Run("returns configured result", func(t *testing.T) {
		step := NewMockStep("mock")
		step.SetExecuteResult(FailStep("configured failure", errors.New("test")))

		result := step.Execute(NewContext())

		assert.Equal(t, StepStatusFailed, result.Status)
	})

	t.Run("drains execute queue before falling back", func(t *testing.T) {
		step := NewMockStep("mock")
		step.SetExecuteQueue(FailStep("first", errors.New("boom")))

		assert.True(t, step.Execute(NewContext()).IsFailure())
		assert.False(t, step.Execute(NewContext()).IsFailure())
	})
}
