package exec

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/tungetti/golem/internal/constants"
	"github.com/tungetti/golem/internal/errors"
)

// Executor defines the interface for command execution.
// All implementations must be safe for concurrent use.
type Executor interface {
	// Execute runs a command and returns the result.
	Execute(ctx context.Context, cmd string, args ...string) *Result

	// ExecuteWithInput runs a command with stdin input.
	ExecuteWithInput(ctx context.Context, input []byte, cmd string, args ...string) *Result

	// Stream runs a command and streams output to writers.
	Stream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) *Result
}

// Options configures the executor behavior.
type Options struct {
	Timeout time.Duration // Default timeout for commands (0 = no timeout)
	WorkDir string        // Working directory for command execution
	Env     []string      // Environment variables to set (nil = inherit)
}

// DefaultOptions returns sensible defaults for command execution.
func DefaultOptions() Options {
	return Options{
		Timeout: constants.CommandTimeout,
	}
}

// RealExecutor is the production implementation of Executor.
type RealExecutor struct {
	opts Options
	mu   sync.Mutex
}

// NewExecutor creates a new real executor with the given options.
func NewExecutor(opts Options) *RealExecutor {
	return &RealExecutor{opts: opts}
}

// Execute runs a command and returns the result.
func (e *RealExecutor) Execute(ctx context.Context, cmd string, args ...string) *Result {
	return e.run(ctx, nil, nil, nil, cmd, args)
}

// ExecuteWithInput runs a command with stdin input.
func (e *RealExecutor) ExecuteWithInput(ctx context.Context, input []byte, cmd string, args ...string) *Result {
	return e.run(ctx, input, nil, nil, cmd, args)
}

// Stream runs a command and streams output to the given writers while
// still capturing it in the result.
func (e *RealExecutor) Stream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) *Result {
	return e.run(ctx, nil, stdout, stderr, cmd, args)
}

func (e *RealExecutor) run(ctx context.Context, input []byte, stdout, stderr io.Writer, cmd string, args []string) *Result {
	result := &Result{
		Command:   cmd,
		Args:      args,
		StartTime: time.Now(),
	}

	opts := e.Options()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd, args...)

	if opts.WorkDir != "" {
		c.Dir = opts.WorkDir
	}
	if len(opts.Env) > 0 {
		c.Env = opts.Env
	}
	if input != nil {
		c.Stdin = bytes.NewReader(input)
	}

	// Output is always captured in the result; when stream writers are
	// supplied it is teed to them as well.
	var stdoutBuf, stderrBuf bytes.Buffer
	if stdout != nil {
		c.Stdout = io.MultiWriter(stdout, &stdoutBuf)
	} else {
		c.Stdout = &stdoutBuf
	}
	if stderr != nil {
		c.Stderr = io.MultiWriter(stderr, &stderrBuf)
	} else {
		c.Stderr = &stderrBuf
	}

	err := c.Run()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Stdout = stdoutBuf.Bytes()
	result.Stderr = stderrBuf.Bytes()

	if err != nil {
		// Context errors take priority over exit errors because the
		// process may have been killed due to timeout/cancellation.
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			result.Error = errors.Wrap(errors.Timeout, "command timed out", err)
			result.ExitCode = -1
		case ctx.Err() == context.Canceled:
			result.Error = errors.Wrap(errors.Cancelled, "command cancelled", err)
			result.ExitCode = -1
		default:
			if exitErr, ok := err.(*exec.ExitError); ok {
				result.ExitCode = exitErr.ExitCode()
			} else {
				result.Error = errors.Wrap(errors.Execution, "command execution failed", err)
				result.ExitCode = -1
			}
		}
	}

	return result
}

// Options returns the current executor options.
func (e *RealExecutor) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetTimeout updates the default timeout.
func (e *RealExecutor) SetTimeout(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Timeout = timeout
}

// SetWorkDir updates the working directory.
func (e *RealExecutor) SetWorkDir(workDir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.WorkDir = workDir
}

// Ensure RealExecutor implements Executor.
var _ Executor = (*RealExecutor)(nil)
