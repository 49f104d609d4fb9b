package steps

import (
	"fmt"
	"os"

	"github.com/tungetti/golem/internal/engine"
)

// ChmodStep changes the permission bits of a path and remembers the old
// mode so Rollback can restore it.
type ChmodStep struct {
	engine.BaseStep
	path string
	mode os.FileMode

	changed bool
	oldMode os.FileMode
}

// NewChmodStep creates a step that sets the mode of path.
func NewChmodStep(path string, mode os.FileMode) *ChmodStep {
	return &ChmodStep{
		BaseStep: engine.NewBaseStep("chmod", fmt.Sprintf("Set mode of %s to %04o", path, mode)),
		path:     path,
		mode:     mode,
	}
}

// Validate checks the path exists.
func (s *ChmodStep) Validate(ctx *engine.Context) engine.StepResult {
	if _, err := os.Stat(s.path); err != nil {
		return engine.FailStep(fmt.Sprintf("path %s is not accessible", s.path), err)
	}
	return engine.CompleteStep("path is accessible")
}

// Execute applies the new mode, recording the previous one.
func (s *ChmodStep) Execute(ctx *engine.Context) engine.StepResult {
	info, err := os.Stat(s.path)
	if err != nil {
		return engine.FailStep(fmt.Sprintf("path %s is not accessible", s.path), err)
	}

	current := info.Mode().Perm()
	if current == s.mode {
		return engine.SkipStep(fmt.Sprintf("mode of %s is already %04o", s.path, s.mode))
	}

	if ctx.DryRun {
		ctx.Log("dry run: would chmod", "path", s.path, "mode", fmt.Sprintf("%04o", s.mode))
		return engine.CompleteStep(fmt.Sprintf("dry run: would set mode of %s to %04o", s.path, s.mode))
	}

	if err := os.Chmod(s.path, s.mode); err != nil {
		return engine.FailStep(fmt.Sprintf("failed to chmod %s", s.path), err)
	}
	s.oldMode = current
	s.changed = true

	ctx.Log("mode changed", "path", s.path,
		"old", fmt.Sprintf("%04o", current), "new", fmt.Sprintf("%04o", s.mode))
	return engine.CompleteStep(fmt.Sprintf("set mode of %s to %04o", s.path, s.mode))
}

// Rollback restores the previous mode.
func (s *ChmodStep) Rollback(ctx *engine.Context) engine.StepResult {
	if !s.changed {
		return engine.RolledBackStep("mode was not changed")
	}

	if err := os.Chmod(s.path, s.oldMode); err != nil {
		return engine.FailStep(fmt.Sprintf("failed to restore mode of %s", s.path), err)
	}
	s.changed = false

	return engine.RolledBackStep(fmt.Sprintf("restored mode of %s to %04o", s.path, s.oldMode))
}

// Ensure ChmodStep implements the Step interface.
var _ engine.Step = (*ChmodStep)(nil)
