package steps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/tungetti/golem/internal/engine"
	golemexec "github.com/tungetti/golem/internal/exec"
)

// CommandStep runs an external command as a deployment step. An optional
// undo command provides the compensation; without one the step rolls back
// as a no-op.
type CommandStep struct {
	engine.BaseStep
	executor golemexec.Executor
	cmd      string
	args     []string
	undoCmd  string
	undoArgs []string

	executed bool
}

// CommandStepOption configures the CommandStep.
type CommandStepOption func(*CommandStep)

// WithUndoCommand sets the command Rollback runs to compensate.
func WithUndoCommand(cmd string, args ...string) CommandStepOption {
	return func(s *CommandStep) {
		s.undoCmd = cmd
		s.undoArgs = args
	}
}

// WithExecutor sets a custom executor. This is primarily used for testing.
func WithExecutor(e golemexec.Executor) CommandStepOption {
	return func(s *CommandStep) {
		s.executor = e
	}
}

// NewCommandStep creates a step that runs cmd with args.
func NewCommandStep(name string, cmd string, args []string, opts ...CommandStepOption) *CommandStep {
	s := &CommandStep{
		BaseStep: engine.NewBaseStep(name, fmt.Sprintf("Run %s", cmd)),
		executor: golemexec.NewExecutor(golemexec.DefaultOptions()),
		cmd:      cmd,
		args:     args,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the command binary can be found.
func (s *CommandStep) Validate(ctx *engine.Context) engine.StepResult {
	if s.cmd == "" {
		return engine.FailStep("command is empty", nil)
	}
	if _, err := exec.LookPath(s.cmd); err != nil {
		return engine.FailStep(fmt.Sprintf("command %s not found in PATH", s.cmd), err)
	}
	return engine.CompleteStep("command is available")
}

// Execute runs the command, failing on a non-zero exit.
func (s *CommandStep) Execute(ctx *engine.Context) engine.StepResult {
	if ctx.DryRun {
		ctx.Log("dry run: would run command", "cmd", s.cmd, "args", strings.Join(s.args, " "))
		return engine.CompleteStep(fmt.Sprintf("dry run: would run %s", s.cmd))
	}

	ctx.LogDebug("running command", "cmd", s.cmd, "args", strings.Join(s.args, " "))
	res := s.executor.Execute(ctx.Context(), s.cmd, s.args...)
	s.executed = true

	if res.Failed() {
		return engine.FailStep(
			fmt.Sprintf("command %s failed with exit code %d: %s",
				s.cmd, res.ExitCode, strings.TrimSpace(res.StderrString())),
			res.Error)
	}

	return engine.CompleteStep(fmt.Sprintf("command %s succeeded", s.cmd)).
		WithData("stdout", strings.TrimSpace(res.StdoutString()))
}

// Rollback runs the undo command if one is configured and Execute ran.
func (s *CommandStep) Rollback(ctx *engine.Context) engine.StepResult {
	if !s.executed {
		return engine.RolledBackStep("command never ran")
	}
	if s.undoCmd == "" {
		return engine.RolledBackStep("no undo command configured")
	}

	ctx.LogDebug("running undo command", "cmd", s.undoCmd, "args", strings.Join(s.undoArgs, " "))
	res := s.executor.Execute(ctx.Context(), s.undoCmd, s.undoArgs...)

	if res.Failed() {
		return engine.FailStep(
			fmt.Sprintf("undo command %s failed with exit code %d: %s",
				s.undoCmd, res.ExitCode, strings.TrimSpace(res.StderrString())),
			res.Error)
	}
	s.executed = false

	return engine.RolledBackStep(fmt.Sprintf("undo command %s succeeded", s.undoCmd))
}

// Ensure CommandStep implements the Step interface.
var _ engine.Step = (*CommandStep)(nil)
