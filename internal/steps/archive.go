package steps

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tungetti/golem/internal/constants"
	"github.com/tungetti/golem/internal/engine"
	"github.com/tungetti/golem/internal/errors"
)

// ExtractArchiveStep unpacks a .tar.gz or .zip archive into a destination
// directory. It reports per-entry progress through the context and records
// every path it writes so Rollback can remove them again.
type ExtractArchiveStep struct {
	engine.BaseStep
	archive string
	dest    string

	// Paths written by Execute, in creation order.
	written []string
}

// NewExtractArchiveStep creates a step that extracts archive into dest.
func NewExtractArchiveStep(archive, dest string) *ExtractArchiveStep {
	return &ExtractArchiveStep{
		BaseStep: engine.NewBaseStep("extract_archive",
			fmt.Sprintf("Extract %s into %s", filepath.Base(archive), dest)),
		archive: archive,
		dest:    dest,
	}
}

// Validate checks the archive is readable and its format recognized.
func (s *ExtractArchiveStep) Validate(ctx *engine.Context) engine.StepResult {
	if _, err := os.Stat(s.archive); err != nil {
		return engine.FailStep(fmt.Sprintf("archive %s is not accessible", s.archive), err)
	}
	if !isTarGz(s.archive) && !isZip(s.archive) {
		return engine.FailStep(fmt.Sprintf("unsupported archive format: %s", filepath.Base(s.archive)),
			errors.Newf(errors.Unsupported, "only .tar.gz, .tgz and .zip are supported"))
	}
	return engine.CompleteStep("archive is readable")
}

// Execute unpacks the archive entry by entry, polling for cancellation
// between entries.
func (s *ExtractArchiveStep) Execute(ctx *engine.Context) engine.StepResult {
	if ctx.DryRun {
		ctx.Log("dry run: would extract archive", "archive", s.archive, "dest", s.dest)
		return engine.CompleteStep(fmt.Sprintf("dry run: would extract %s", filepath.Base(s.archive)))
	}

	var (
		count int
		err   error
	)
	switch {
	case isTarGz(s.archive):
		count, err = s.extractTarGz(ctx)
	case isZip(s.archive):
		count, err = s.extractZip(ctx)
	default:
		err = errors.Newf(errors.Unsupported, "unsupported archive format: %s", s.archive)
	}

	if err != nil {
		return engine.FailStep(fmt.Sprintf("failed to extract %s", filepath.Base(s.archive)), err)
	}

	ctx.SetProperty(constants.PropLastExtracted, s.dest)
	recordCreatedPaths(ctx, s.written...)
	ctx.Log("archive extracted", "archive", s.archive, "entries", count)
	return engine.CompleteStep(fmt.Sprintf("extracted %d entries into %s", count, s.dest)).
		WithData("dest", s.dest)
}

// Rollback removes everything Execute wrote, files first and directories
// afterwards so the directories are empty when removed.
func (s *ExtractArchiveStep) Rollback(ctx *engine.Context) engine.StepResult {
	if len(s.written) == 0 {
		return engine.RolledBackStep("nothing was extracted")
	}

	removed := 0
	var firstErr error
	for i := len(s.written) - 1; i >= 0; i-- {
		p := s.written[i]
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			ctx.LogWarn("could not remove extracted path", "path", p, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	s.written = nil

	if firstErr != nil {
		return engine.FailStep(fmt.Sprintf("removed %d extracted paths, some could not be removed", removed), firstErr)
	}
	return engine.RolledBackStep(fmt.Sprintf("removed %d extracted paths", removed))
}

func (s *ExtractArchiveStep) extractTarGz(ctx *engine.Context) (int, error) {
	f, err := os.Open(s.archive)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(errors.Execution, "archive is not gzip-compressed", err)
	}
	defer gz.Close()

	// Entry counts are unknown up front for tar streams, so progress is
	// reported against the compressed byte offset instead.
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	totalBytes := info.Size()

	tr := tar.NewReader(gz)
	count := 0
	for {
		if ctx.IsCancelled() {
			return count, context.Canceled
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		target, err := s.safeJoin(hdr.Name)
		if err != nil {
			return count, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := s.writeDir(target, os.FileMode(hdr.Mode)); err != nil {
				return count, err
			}
		case tar.TypeReg:
			if err := s.writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return count, err
			}
		case tar.TypeSymlink:
			if err := s.writeSymlink(hdr.Linkname, target); err != nil {
				return count, err
			}
		default:
			ctx.LogDebug("skipping unsupported tar entry", "name", hdr.Name, "type", hdr.Typeflag)
			continue
		}
		count++

		if pos, err := f.Seek(0, io.SeekCurrent); err == nil && totalBytes > 0 {
			percent := int(pos * 100 / totalBytes)
			if percent > 100 {
				percent = 100
			}
			_ = ctx.ReportStepProgress(hdr.Name, percent)
		}
	}
	return count, nil
}

func (s *ExtractArchiveStep) extractZip(ctx *engine.Context) (int, error) {
	r, err := zip.OpenReader(s.archive)
	if err != nil {
		return 0, errors.Wrap(errors.Execution, "archive is not a zip file", err)
	}
	defer r.Close()

	total := len(r.File)
	count := 0
	for i, zf := range r.File {
		if ctx.IsCancelled() {
			return count, context.Canceled
		}

		target, err := s.safeJoin(zf.Name)
		if err != nil {
			return count, err
		}

		if zf.FileInfo().IsDir() {
			if err := s.writeDir(target, zf.Mode()); err != nil {
				return count, err
			}
		} else {
			rc, err := zf.Open()
			if err != nil {
				return count, err
			}
			err = s.writeFile(target, rc, zf.Mode())
			rc.Close()
			if err != nil {
				return count, err
			}
		}
		count++

		_ = ctx.ReportStepProgress(zf.Name, (i+1)*100/total)
	}
	return count, nil
}

// safeJoin resolves an archive entry name under the destination and
// rejects entries that would escape it.
func (s *ExtractArchiveStep) safeJoin(name string) (string, error) {
	target := filepath.Join(s.dest, filepath.Clean(name))
	if !strings.HasPrefix(target, filepath.Clean(s.dest)+string(filepath.Separator)) &&
		target != filepath.Clean(s.dest) {
		return "", errors.Newf(errors.Validation, "archive entry %q escapes destination", name)
	}
	return target, nil
}

func (s *ExtractArchiveStep) writeDir(path string, mode os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(path, mode.Perm()|0o700); err != nil {
		return err
	}
	s.written = append(s.written, path)
	return nil
}

func (s *ExtractArchiveStep) writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := s.writeDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	s.written = append(s.written, path)
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *ExtractArchiveStep) writeSymlink(target, path string) error {
	if err := s.writeDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(target, path); err != nil {
		return err
	}
	s.written = append(s.written, path)
	return nil
}

func isTarGz(name string) bool {
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz")
}

func isZip(name string) bool {
	return strings.HasSuffix(name, ".zip")
}

// Ensure ExtractArchiveStep implements the Step interface.
var _ engine.Step = (*ExtractArchiveStep)(nil)
