package steps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tungetti/golem/internal/engine"
)

func TestSymlinkStep_Validate(t *testing.T) {
	t.Run("free path passes", func(t *testing.T) {
		dir := t.TempDir()
		s := NewSymlinkStep(filepath.Join(dir, "target"), filepath.Join(dir, "link"))

		assert.False(t, s.Validate(engine.NewContext()).IsFailure())
	})

	t.Run("regular file at link path fails", func(t *testing.T) {
		dir := t.TempDir()
		occupied := writeTestFile(t, dir, "link", "x")
		s := NewSymlinkStep(filepath.Join(dir, "target"), occupied)

		assert.True(t, s.Validate(engine.NewContext()).IsFailure())
	})

	t.Run("existing symlink passes", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink("somewhere", link))
		s := NewSymlinkStep(filepath.Join(dir, "target"), link)

		assert.False(t, s.Validate(engine.NewContext()).IsFailure())
	})
}

func TestSymlinkStep_Execute(t *testing.T) {
	t.Run("creates the link", func(t *testing.T) {
		dir := t.TempDir()
		target := writeTestFile(t, dir, "target", "x")
		link := filepath.Join(dir, "link")

		s := NewSymlinkStep(target, link)
		res := s.Execute(engine.NewContext())

		require.Equal(t, engine.StepStatusCompleted, res.Status)
		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	})

	t.Run("replaces an existing link", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink("old-target", link))

		s := NewSymlinkStep("new-target", link)
		res := s.Execute(engine.NewContext())

		require.Equal(t, engine.StepStatusCompleted, res.Status)
		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, "new-target", got)
	})

	t.Run("refuses to replace a regular file", func(t *testing.T) {
		dir := t.TempDir()
		occupied := writeTestFile(t, dir, "link", "x")

		s := NewSymlinkStep("target", occupied)
		res := s.Execute(engine.NewContext())

		assert.Equal(t, engine.StepStatusFailed, res.Status)
	})

	t.Run("dry run creates nothing", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "link")

		s := NewSymlinkStep("target", link)
		res := s.Execute(engine.NewContext(engine.WithDryRun(true)))

		assert.Equal(t, engine.StepStatusCompleted, res.Status)
		_, err := os.Lstat(link)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestSymlinkStep_Rollback(t *testing.T) {
	t.Run("removes the created link", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "link")
		ctx := engine.NewContext()

		s := NewSymlinkStep("target", link)
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		res := s.Rollback(ctx)

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
		_, err := os.Lstat(link)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("restores a replaced link", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink("old-target", link))
		ctx := engine.NewContext()

		s := NewSymlinkStep("new-target", link)
		require.Equal(t, engine.StepStatusCompleted, s.Execute(ctx).Status)

		res := s.Rollback(ctx)

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, "old-target", got)
	})

	t.Run("never executed is a no-op", func(t *testing.T) {
		s := NewSymlinkStep("target", filepath.Join(t.TempDir(), "link"))

		res := s.Rollback(engine.NewContext())

		assert.Equal(t, engine.StepStatusRolledBack, res.Status)
	})
}
