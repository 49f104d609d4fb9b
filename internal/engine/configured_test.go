package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfiguredStep_DisplayName(t *testing.T) {
	t.Run("falls back to step name", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("install-binary"))
		assert.Equal(t, "install-binary", cs.DisplayName())
	})

	t.Run("override wins", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("install-binary"),
			WithDisplayName("Install application binary"))
		assert.Equal(t, "Install application binary", cs.DisplayName())
	})
}

func TestConfiguredStep_RetryCount(t *testing.T) {
	t.Run("defaults to zero", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("s"))
		assert.Equal(t, 0, cs.RetryCount())
	})

	t.Run("negative values clamp to zero", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("s"), WithRetryCount(-3))
		assert.Equal(t, 0, cs.RetryCount())
	})

	t.Run("positive values kept", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("s"), WithRetryCount(2))
		assert.Equal(t, 2, cs.RetryCount())
	})
}

func TestConfiguredStep_ContinueOnError(t *testing.T) {
	assert.False(t, NewConfiguredStep(NewMockStep("s")).ContinueOnError())
	assert.True(t, NewConfiguredStep(NewMockStep("s"), WithContinueOnError(true)).ContinueOnError())
}

func TestConfiguredStep_ShouldSkip(t *testing.T) {
	t.Run("no predicate never skips", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("s"))
		assert.False(t, cs.shouldSkip(NewContext()))
	})

	t.Run("predicate sees the shared context", func(t *testing.T) {
		cs := NewConfiguredStep(NewMockStep("s"), WithSkipWhen(func(ctx *Context) bool {
			return ctx.PropertyBool("already.installed")
		}))

		ctx := NewContext()
		assert.False(t, cs.shouldSkip(ctx))

		ctx.SetProperty("already.installed", true)
		assert.True(t, cs.shouldSkip(ctx))
	})
}
