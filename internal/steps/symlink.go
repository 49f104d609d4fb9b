package steps

import (
	"fmt"
	"os"

	"github.com/tungetti/golem/internal/engine"
)

// SymlinkStep creates a symbolic link. An existing link at the target is
// replaced and its old destination remembered so Rollback can restore it.
type SymlinkStep struct {
	engine.BaseStep
	target string // what the link points at
	link   string // where the link lives

	created   bool
	oldTarget string // previous destination of a replaced link
}

// NewSymlinkStep creates a step that links link -> target.
func NewSymlinkStep(target, link string) *SymlinkStep {
	return &SymlinkStep{
		BaseStep: engine.NewBaseStep("symlink", fmt.Sprintf("Link %s to %s", link, target)),
		target:   target,
		link:     link,
	}
}

// Validate checks the link path is free or holds a replaceable symlink.
func (s *SymlinkStep) Validate(ctx *engine.Context) engine.StepResult {
	info, err := os.Lstat(s.link)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.CompleteStep("link path is free")
		}
		return engine.FailStep(fmt.Sprintf("cannot inspect %s", s.link), err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return engine.FailStep(fmt.Sprintf("path %s exists and is not a symlink", s.link), nil)
	}
	return engine.CompleteStep("existing symlink will be replaced")
}

// Execute creates the symlink, replacing an existing one.
func (s *SymlinkStep) Execute(ctx *engine.Context) engine.StepResult {
	if ctx.DryRun {
		ctx.Log("dry run: would create symlink", "link", s.link, "target", s.target)
		return engine.CompleteStep(fmt.Sprintf("dry run: would link %s to %s", s.link, s.target))
	}

	if info, err := os.Lstat(s.link); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return engine.FailStep(fmt.Sprintf("path %s exists and is not a symlink", s.link), nil)
		}
		old, err := os.Readlink(s.link)
		if err != nil {
			return engine.FailStep(fmt.Sprintf("cannot read existing symlink %s", s.link), err)
		}
		if err := os.Remove(s.link); err != nil {
			return engine.FailStep(fmt.Sprintf("cannot replace existing symlink %s", s.link), err)
		}
		s.oldTarget = old
		ctx.LogDebug("existing symlink replaced", "link", s.link, "old_target", old)
	}

	if err := os.Symlink(s.target, s.link); err != nil {
		return engine.FailStep(fmt.Sprintf("failed to create symlink %s", s.link), err)
	}
	s.created = true
	recordCreatedPaths(ctx, s.link)

	ctx.Log("symlink created", "link", s.link, "target", s.target)
	return engine.CompleteStep(fmt.Sprintf("linked %s to %s", s.link, s.target)).
		WithData("link", s.link)
}

// Rollback removes the created link and restores the previous one, if any.
func (s *SymlinkStep) Rollback(ctx *engine.Context) engine.StepResult {
	if !s.created && s.oldTarget == "" {
		return engine.RolledBackStep("no symlink was created")
	}

	if s.created {
		if err := os.Remove(s.link); err != nil && !os.IsNotExist(err) {
			return engine.FailStep(fmt.Sprintf("failed to remove symlink %s", s.link), err)
		}
		s.created = false
	}

	if s.oldTarget != "" {
		if err := os.Symlink(s.oldTarget, s.link); err != nil {
			return engine.FailStep(fmt.Sprintf("failed to restore previous symlink %s", s.link), err)
		}
		s.oldTarget = ""
	}

	return engine.RolledBackStep(fmt.Sprintf("removed symlink %s", s.link))
}

// Ensure SymlinkStep implements the Step interface.
var _ engine.Step = (*SymlinkStep)(nil)
