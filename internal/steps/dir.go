// Package steps provides the built-in deployment step implementations.
// Each step records privately what its Execute changed so a later
// Rollback can compensate.
package steps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tungetti/golem/internal/constants"
	"github.com/tungetti/golem/internal/engine"
)

// recordCreatedPaths appends paths to the run-wide created-paths property
// so later steps and skip predicates can see what the run has written.
func recordCreatedPaths(ctx *engine.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	created := ctx.PropertyStringSlice(constants.PropCreatedPaths)
	ctx.SetProperty(constants.PropCreatedPaths, append(created, paths...))
}

// EnsureDirStep creates a directory, including missing parents. Rollback
// removes only the directories this step actually created, deepest first,
// and leaves pre-existing ancestors alone.
type EnsureDirStep struct {
	engine.BaseStep
	path string
	mode os.FileMode

	// Directories created by Execute, deepest last.
	created []string
}

// EnsureDirOption configures the EnsureDirStep.
type EnsureDirOption func(*EnsureDirStep)

// WithDirMode sets the permission bits for created directories.
// Default is 0755.
func WithDirMode(mode os.FileMode) EnsureDirOption {
	return func(s *EnsureDirStep) {
		s.mode = mode
	}
}

// NewEnsureDirStep creates a step that ensures path exists as a directory.
func NewEnsureDirStep(path string, opts ...EnsureDirOption) *EnsureDirStep {
	s := &EnsureDirStep{
		BaseStep: engine.NewBaseStep("ensure_dir", fmt.Sprintf("Ensure directory %s exists", path)),
		path:     path,
		mode:     0o755,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks that the path is non-empty and not occupied by a
// regular file.
func (s *EnsureDirStep) Validate(ctx *engine.Context) engine.StepResult {
	if s.path == "" {
		return engine.FailStep("directory path is empty", nil)
	}

	info, err := os.Stat(s.path)
	if err == nil && !info.IsDir() {
		return engine.FailStep(fmt.Sprintf("path %s exists and is not a directory", s.path), nil)
	}

	return engine.CompleteStep("directory path is usable")
}

// Execute creates the directory tree, remembering which levels were
// missing beforehand.
func (s *EnsureDirStep) Execute(ctx *engine.Context) engine.StepResult {
	if info, err := os.Stat(s.path); err == nil {
		if info.IsDir() {
			ctx.LogDebug("directory already exists", "path", s.path)
			return engine.SkipStep(fmt.Sprintf("directory %s already exists", s.path))
		}
		return engine.FailStep(fmt.Sprintf("path %s exists and is not a directory", s.path), nil)
	}

	missing := s.missingLevels()

	if ctx.DryRun {
		ctx.Log("dry run: would create directories", "count", len(missing))
		return engine.CompleteStep(fmt.Sprintf("dry run: would create %d directories", len(missing)))
	}

	if err := os.MkdirAll(s.path, s.mode); err != nil {
		return engine.FailStep(fmt.Sprintf("failed to create directory %s", s.path), err)
	}
	s.created = missing
	recordCreatedPaths(ctx, missing...)

	ctx.Log("directory created", "path", s.path, "levels", len(missing))
	return engine.CompleteStep(fmt.Sprintf("created directory %s", s.path)).
		WithData("path", s.path)
}

// Rollback removes the directories Execute created, deepest first. A
// directory that has since gained content is left in place.
func (s *EnsureDirStep) Rollback(ctx *engine.Context) engine.StepResult {
	if len(s.created) == 0 {
		return engine.RolledBackStep("no directories were created")
	}

	removed := 0
	var firstErr error
	for i := len(s.created) - 1; i >= 0; i-- {
		dir := s.created[i]
		if err := os.Remove(dir); err != nil {
			ctx.LogWarn("could not remove directory", "path", dir, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	s.created = nil

	if firstErr != nil {
		return engine.FailStep(fmt.Sprintf("removed %d directories, some could not be removed", removed), firstErr)
	}
	return engine.RolledBackStep(fmt.Sprintf("removed %d directories", removed))
}

// missingLevels walks from the target up to the first existing ancestor
// and returns the missing levels, shallowest first.
func (s *EnsureDirStep) missingLevels() []string {
	var missing []string
	p := filepath.Clean(s.path)
	for p != "." && p != string(filepath.Separator) {
		if _, err := os.Stat(p); err == nil {
			break
		}
		missing = append([]string{p}, missing...)
		p = filepath.Dir(p)
	}
	return missing
}

// Ensure EnsureDirStep implements the Step interface.
var _ engine.Step = (*EnsureDirStep)(nil)
