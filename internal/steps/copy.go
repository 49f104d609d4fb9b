package steps

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tungetti/golem/internal/engine"
)

// CopyFileStep copies a single file into place. An existing destination
// is moved aside to a backup first; Rollback restores the backup or
// removes the copied file, and Dispose deletes the backup once the run
// has settled.
type CopyFileStep struct {
	engine.BaseStep
	src  string
	dst  string
	mode os.FileMode

	wrote      bool
	backupPath string
}

// CopyFileOption configures the CopyFileStep.
type CopyFileOption func(*CopyFileStep)

// WithFileMode sets the permission bits of the copied file.
// Default is to mirror the source file's mode.
func WithFileMode(mode os.FileMode) CopyFileOption {
	return func(s *CopyFileStep) {
		s.mode = mode
	}
}

// NewCopyFileStep creates a step that copies src to dst.
func NewCopyFileStep(src, dst string, opts ...CopyFileOption) *CopyFileStep {
	s := &CopyFileStep{
		BaseStep: engine.NewBaseStep("copy_file", fmt.Sprintf("Copy %s to %s", src, dst)),
		src:      src,
		dst:      dst,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the source file is readable and the destination parent
// directory exists.
func (s *CopyFileStep) Validate(ctx *engine.Context) engine.StepResult {
	info, err := os.Stat(s.src)
	if err != nil {
		return engine.FailStep(fmt.Sprintf("source file %s is not accessible", s.src), err)
	}
	if info.IsDir() {
		return engine.FailStep(fmt.Sprintf("source %s is a directory", s.src), nil)
	}

	parent := filepath.Dir(s.dst)
	if _, err := os.Stat(parent); err != nil {
		return engine.FailStep(fmt.Sprintf("destination directory %s does not exist", parent), err)
	}

	return engine.CompleteStep("source and destination are usable")
}

// Execute moves any existing destination aside, then copies the source
// into place.
func (s *CopyFileStep) Execute(ctx *engine.Context) engine.StepResult {
	if ctx.DryRun {
		ctx.Log("dry run: would copy file", "src", s.src, "dst", s.dst)
		return engine.CompleteStep(fmt.Sprintf("dry run: would copy %s to %s", s.src, s.dst))
	}

	if _, err := os.Stat(s.dst); err == nil {
		backup := s.dst + ".golem-backup"
		if err := os.Rename(s.dst, backup); err != nil {
			return engine.FailStep(fmt.Sprintf("failed to back up existing %s", s.dst), err)
		}
		s.backupPath = backup
		ctx.LogDebug("existing destination backed up", "backup", backup)
	}

	if err := s.copy(); err != nil {
		return engine.FailStep(fmt.Sprintf("failed to copy %s to %s", s.src, s.dst), err)
	}
	s.wrote = true
	recordCreatedPaths(ctx, s.dst)

	ctx.Log("file copied", "src", s.src, "dst", s.dst)
	return engine.CompleteStep(fmt.Sprintf("copied %s to %s", s.src, s.dst)).
		WithData("dst", s.dst)
}

// Rollback removes the copied file and restores the backup, if any.
func (s *CopyFileStep) Rollback(ctx *engine.Context) engine.StepResult {
	if !s.wrote && s.backupPath == "" {
		return engine.RolledBackStep("nothing was copied")
	}

	if s.wrote {
		if err := os.Remove(s.dst); err != nil && !os.IsNotExist(err) {
			return engine.FailStep(fmt.Sprintf("failed to remove copied file %s", s.dst), err)
		}
		s.wrote = false
	}

	if s.backupPath != "" {
		if err := os.Rename(s.backupPath, s.dst); err != nil {
			return engine.FailStep(fmt.Sprintf("failed to restore backup of %s", s.dst), err)
		}
		ctx.LogDebug("backup restored", "dst", s.dst)
		s.backupPath = ""
	}

	return engine.RolledBackStep(fmt.Sprintf("restored %s", s.dst))
}

// Dispose settles the leftover backup. A backup without a written copy
// means Execute failed after moving the destination aside and no rollback
// ran, so the backup is the only copy of the original and must be moved
// back. Otherwise the copy succeeded and the backup is discarded.
func (s *CopyFileStep) Dispose(ctx *engine.Context) {
	if s.backupPath == "" {
		return
	}
	if !s.wrote {
		if err := os.Rename(s.backupPath, s.dst); err != nil {
			ctx.LogWarn("could not restore backup file", "backup", s.backupPath, "error", err)
			return
		}
		ctx.LogDebug("backup restored", "dst", s.dst)
		s.backupPath = ""
		return
	}
	if err := os.Remove(s.backupPath); err != nil && !os.IsNotExist(err) {
		ctx.LogWarn("could not remove backup file", "backup", s.backupPath, "error", err)
		return
	}
	s.backupPath = ""
}

func (s *CopyFileStep) copy() error {
	in, err := os.Open(s.src)
	if err != nil {
		return err
	}
	defer in.Close()

	mode := s.mode
	if mode == 0 {
		info, err := in.Stat()
		if err != nil {
			return err
		}
		mode = info.Mode().Perm()
	}

	out, err := os.OpenFile(s.dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Ensure CopyFileStep implements the Step interface.
var _ engine.Step = (*CopyFileStep)(nil)
