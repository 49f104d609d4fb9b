package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tungetti/golem/internal/engine"
	golemexec "github.com/tungetti/golem/internal/exec"
)

func TestCommandStep_Validate(t *testing.T) {
	t.Run("empty command fails", func(t *testing.T) {
		s := NewCommandStep("noop", "", nil)
		assert.True(t, s.Validate(engine.NewContext()).IsFailure())
	})

	t.Run("unknown binary fails", func(t *testing.T) {
		s := NewCommandStep("noop", "nonexistent_command_12345", nil)
		assert.True(t, s.Validate(engine.NewContext()).IsFailure())
	})

	t.Run("known binary passes", func(t *testing.T) {
		s := NewCommandStep("noop", "echo", nil)
		assert.False(t, s.Validate(engine.NewContext()).IsFailure())
	})
}

func TestCommandStep_Execute(t *testing.T) {
	t.Run("successful command completes", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()
		mock.SetResponse("systemctl", golemexec.SuccessResult("ok"))

		s := NewCommandStep("restart", "systemctl", []string{"restart", "app"}, WithExecutor(mock))
		res := s.Execute(engine.NewContext())

		require.Equal(t, engine.StepStatusCompleted, res.Status)
		assert.True(t, mock.WasCalledWith("systemctl", "restart", "app"))
		v, ok := res.Data.Get("stdout")
		require.True(t, ok)
		assert.Equal(t, "ok", v)
	})

	t.Run("non-zero exit fails", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()
		mock.SetResponse("systemctl", golemexec.FailureResult(5, "unit not found"))

		s := NewCommandStep("restart", "systemctl", []string{"restart", "app"}, WithExecutor(mock))
		res := s.Execute(engine.NewContext())

		assert.Equal(t, engine.StepStatusFailed, res.Status)
		assert.Contains(t, res.Message, "unit not found")
	})

	t.Run("dry run executes nothing", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()

		s := NewCommandStep("restart", "systemctl", []string{"restart", "app"}, WithExecutor(mock))
		res := s.Execute(engine.NewContext(engine.WithDryRun(true)))

		assert.Equal(t, engine.StepStatusCompleted, res.Status)
		assert.Equal(t, 0, mock.CallCount())
	})
}

func TestCommandStep_Rollback(t *testing.T) {
	t.Run("runs the undo command", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()
		ctx := engine.NewContext()

		s := NewCommandStep("enable", "systemctl", []string{"enable", "app"},
			WithExecutor(mock),
			WithUndoCommand("systemctl", "disable", "app"))
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		res := s.Rollback(ctx)

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
		assert.True(t, mock.WasCalledWith("systemctl", "disable", "app"))
	})

	t.Run("no undo command is a no-op", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()
		ctx := engine.NewContext()

		s := NewCommandStep("enable", "systemctl", []string{"enable", "app"}, WithExecutor(mock))
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		res := s.Rollback(ctx)

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
		assert.Equal(t, 1, mock.CallCount())
	})

	t.Run("never executed runs no undo", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()

		s := NewCommandStep("enable", "systemctl", []string{"enable", "app"},
			WithExecutor(mock),
			WithUndoCommand("systemctl", "disable", "app"))

		res := s.Rollback(engine.NewContext())

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
		assert.Equal(t, 0, mock.CallCount())
	})

	t.Run("failing undo command reports failure", func(t *testing.T) {
		mock := golemexec.NewMockExecutor()
		ctx := engine.NewContext()

		s := NewCommandStep("enable", "systemctl", []string{"enable", "app"},
			WithExecutor(mock),
			WithUndoCommand("badcmd"))
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		mock.SetResponse("badcmd", golemexec.FailureResult(1, "boom"))
		res := s.Rollback(ctx)

		assert.Equal(t, engine.StepStatusFailed, res.Status)
	})
}
