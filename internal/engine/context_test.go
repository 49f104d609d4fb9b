package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Properties(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		ctx := NewContext()

		ctx.SetProperty("key", "value")

		v, ok := ctx.Property("key")
		assert.True(t, ok)
		assert.Equal(t, "value", v)
	})

	t.Run("missing key", func(t *testing.T) {
		ctx := NewContext()

		_, ok := ctx.Property("missing")
		assert.False(t, ok)
	})

	t.Run("typed getters", func(t *testing.T) {
		ctx := NewContext()
		ctx.SetProperty("str", "hello")
		ctx.SetProperty("int", 42)
		ctx.SetProperty("bool", true)
		ctx.SetProperty("slice", []string{"a", "b"})

		assert.Equal(t, "hello", ctx.PropertyString("str"))
		assert.Equal(t, 42, ctx.PropertyInt("int"))
		assert.True(t, ctx.PropertyBool("bool"))
		assert.Equal(t, []string{"a", "b"}, ctx.PropertyStringSlice("slice"))
	})

	t.Run("typed getters on wrong types", func(t *testing.T) {
		ctx := NewContext()
		ctx.SetProperty("int", 42)

		assert.Equal(t, "", ctx.PropertyString("int"))
		assert.Equal(t, 0, ctx.PropertyInt("missing"))
		assert.False(t, ctx.PropertyBool("int"))
		assert.Nil(t, ctx.PropertyStringSlice("int"))
	})

	t.Run("delete", func(t *testing.T) {
		ctx := NewContext()
		ctx.SetProperty("key", "value")

		ctx.DeleteProperty("key")

		_, ok := ctx.Property("key")
		assert.False(t, ok)
	})

	t.Run("seeded via option", func(t *testing.T) {
		ctx := NewContext(WithProperty("seeded", "yes"))

		assert.Equal(t, "yes", ctx.PropertyString("seeded"))
	})
}

func TestContext_Cancellation(t *testing.T) {
	t.Run("not cancelled by default", func(t *testing.T) {
		ctx := NewContext()
		assert.False(t, ctx.IsCancelled())
	})

	t.Run("cancel", func(t *testing.T) {
		ctx := NewContext()
		ctx.Cancel()
		assert.True(t, ctx.IsCancelled())
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		ctx := NewContext(WithParent(parent))

		assert.False(t, ctx.IsCancelled())
		cancel()
		assert.True(t, ctx.IsCancelled())
	})
}

func TestContext_StepTracking(t *testing.T) {
	ctx := NewContext()

	ctx.SetCurrentStep(2, 5, "extract")

	index, total, name := ctx.CurrentStep()
	assert.Equal(t, 2, index)
	assert.Equal(t, 5, total)
	assert.Equal(t, "extract", name)
}

func TestContext_IsUninstall(t *testing.T) {
	ctx := NewContext()
	assert.False(t, ctx.IsUninstall())

	ctx.markUninstall()
	assert.True(t, ctx.IsUninstall())
}

func TestContext_ReportStepProgress(t *testing.T) {
	t.Run("forwards snapshot to sink", func(t *testing.T) {
		var got []Progress
		ctx := NewContext(WithProgressSink(func(p Progress) {
			got = append(got, p)
		}))
		ctx.SetCurrentStep(2, 3, "extract")

		err := ctx.ReportStepProgress("unpacking files", 40)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].StepIndex)
		assert.Equal(t, 3, got[0].TotalSteps)
		assert.Equal(t, "extract", got[0].StepName)
		assert.Equal(t, "unpacking files", got[0].SubStep)
		assert.Equal(t, 40, got[0].Percent)
	})

	t.Run("rejects percent below range without forwarding", func(t *testing.T) {
		forwarded := 0
		ctx := NewContext(WithProgressSink(func(p Progress) { forwarded++ }))

		err := ctx.ReportStepProgress("bad", -1)

		assert.Error(t, err)
		assert.Equal(t, 0, forwarded)
	})

	t.Run("rejects percent above range without forwarding", func(t *testing.T) {
		forwarded := 0
		ctx := NewContext(WithProgressSink(func(p Progress) { forwarded++ }))

		err := ctx.ReportStepProgress("bad", 101)

		assert.Error(t, err)
		assert.Equal(t, 0, forwarded)
	})

	t.Run("no sink configured is not an error", func(t *testing.T) {
		ctx := NewContext()
		ctx.SetCurrentStep(1, 1, "only")

		assert.NoError(t, ctx.ReportStepProgress("working", 50))
	})

	t.Run("boundary values accepted", func(t *testing.T) {
		forwarded := 0
		ctx := NewContext(WithProgressSink(func(p Progress) { forwarded++ }))

		assert.NoError(t, ctx.ReportStepProgress("start", 0))
		assert.NoError(t, ctx.ReportStepProgress("end", 100))
		assert.Equal(t, 2, forwarded)
	})
}
