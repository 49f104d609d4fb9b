package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExitCode_Int(t *testing.T) {
	tests := []struct {
		name     string
		code     ExitCode
		expected int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitError", ExitError, 1},
		{"ExitValidation", ExitValidation, 2},
		{"ExitRunFailed", ExitRunFailed, 3},
		{"ExitCancelled", ExitCancelled, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.Int())
		})
	}
}

func TestAppMetadata(t *testing.T) {
	assert.Equal(t, "golem", AppName)
	assert.NotEmpty(t, AppDescription)
}

func TestTimeouts(t *testing.T) {
	assert.Equal(t, 15*time.Minute, DefaultTimeout)
	assert.Equal(t, 2*time.Minute, CommandTimeout)

	// A single command must fit inside a whole run.
	assert.Less(t, CommandTimeout, DefaultTimeout)
}

func TestFilePaths(t *testing.T) {
	assert.NotEmpty(t, DefaultConfigDir)
	assert.NotEmpty(t, DefaultLogFile)
	assert.NotEmpty(t, ConfigFileName)
}

func TestPropertyKeys(t *testing.T) {
	// Property keys are a cross-step convention; collisions would silently
	// corrupt the shared bag.
	keys := []string{PropCreatedPaths, PropLastExtracted}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		assert.NotEmpty(t, k)
		assert.False(t, seen[k], "duplicate property key %q", k)
		seen[k] = true
	}
}

func TestConstantsAreTyped(t *testing.T) {
	// Compile-time checks that the constants keep their declared types.
	var _ string = AppName
	var _ string = AppDescription
	var _ time.Duration = DefaultTimeout
	var _ time.Duration = CommandTimeout
	var _ string = DefaultConfigDir
	var _ string = DefaultLogFile
	var _ string = ConfigFileName
	var _ ExitCode = ExitSuccess
	var _ ExitCode = ExitError
	var _ ExitCode = ExitValidation
	var _ ExitCode = ExitRunFailed
	var _ ExitCode = ExitCancelled
}
