package steps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tungetti/golem/internal/constants"
	"github.com/tungetti/golem/internal/engine"
)

func TestEnsureDirStep_Validate(t *testing.T) {
	t.Run("empty path fails", func(t *testing.T) {
		s := NewEnsureDirStep("")
		assert.True(t, s.Validate(engine.NewContext()).IsFailure())
	})

	t.Run("missing path is fine", func(t *testing.T) {
		s := NewEnsureDirStep(filepath.Join(t.TempDir(), "new"))
		assert.False(t, s.Validate(engine.NewContext()).IsFailure())
	})

	t.Run("regular file at path fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "occupied")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		s := NewEnsureDirStep(path)
		assert.True(t, s.Validate(engine.NewContext()).IsFailure())
	})
}

func TestEnsureDirStep_Execute(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		root := t.TempDir()
		target := filepath.Join(root, "a", "b", "c")

		s := NewEnsureDirStep(target)
		res := s.Execute(engine.NewContext())

		require.Equal(t, engine.StepStatusCompleted, res.Status)
		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory is skipped", func(t *testing.T) {
		s := NewEnsureDirStep(t.TempDir())
		res := s.Execute(engine.NewContext())

		assert.Equal(t, engine.StepStatusSkipped, res.Status)
	})

	t.Run("dry run creates nothing", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "dry")
		s := NewEnsureDirStep(target)

		res := s.Execute(engine.NewContext(engine.WithDryRun(true)))

		assert.Equal(t, engine.StepStatusCompleted, res.Status)
		_, err := os.Stat(target)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("publishes created paths", func(t *testing.T) {
		root := t.TempDir()
		target := filepath.Join(root, "a", "b")
		ctx := engine.NewContext()

		s := NewEnsureDirStep(target)
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		created := ctx.PropertyStringSlice(constants.PropCreatedPaths)
		assert.Equal(t, []string{filepath.Join(root, "a"), target}, created)
	})

	t.Run("custom mode", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "locked")
		s := NewEnsureDirStep(target, WithDirMode(0o700))

		res := s.Execute(engine.NewContext())

		require.Equal(t, engine.StepStatusCompleted, res.Status)
		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	})
}

func TestEnsureDirStep_Rollback(t *testing.T) {
	t.Run("removes only what it created", func(t *testing.T) {
		root := t.TempDir()
		target := filepath.Join(root, "a", "b")
		ctx := engine.NewContext()

		s := NewEnsureDirStep(target)
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		res := s.Rollback(ctx)

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
		_, err := os.Stat(filepath.Join(root, "a"))
		assert.True(t, os.IsNotExist(err))
		// The pre-existing root survives.
		_, err = os.Stat(root)
		assert.NoError(t, err)
	})

	t.Run("never executed is a no-op", func(t *testing.T) {
		s := NewEnsureDirStep(filepath.Join(t.TempDir(), "never"))

		res := s.Rollback(engine.NewContext())

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
	})

	t.Run("skipped execute leaves the directory alone", func(t *testing.T) {
		existing := t.TempDir()
		ctx := engine.NewContext()

		s := NewEnsureDirStep(existing)
		require.Equal(t, engine.StepStatusSkipped, s.Execute(ctx).Status)

		s.Rollback(ctx)

		_, err := os.Stat(existing)
		assert.NoError(t, err)
	})
}
