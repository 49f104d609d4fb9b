// Package manifest defines the YAML deployment plan format and turns a
// parsed plan into configured engine steps.
package manifest

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/tungetti/golem/internal/errors"
)

// Step types accepted in a manifest.
const (
	TypeEnsureDir      = "ensure_dir"
	TypeCopyFile       = "copy_file"
	TypeSymlink        = "symlink"
	TypeChmod          = "chmod"
	TypeExtractArchive = "extract_archive"
	TypeCommand        = "command"
)

// Manifest is a deployment plan: an ordered list of steps plus run-wide
// settings.
type Manifest struct {
	Name        string     `yaml:"name" validate:"required"`
	Description string     `yaml:"description"`
	Settings    Settings   `yaml:"settings"`
	Steps       []StepSpec `yaml:"steps" validate:"required,min=1,dive"`
}

// Settings are run-wide flags.
type Settings struct {
	// Validate controls the pre-flight validation phase. Defaults to true;
	// the pointer distinguishes "absent" from "false".
	Validate *bool `yaml:"validate"`
	DryRun   bool  `yaml:"dry_run"`
}

// ValidateFirst reports whether the pre-flight validation phase is enabled.
func (s Settings) ValidateFirst() bool {
	if s.Validate == nil {
		return true
	}
	return *s.Validate
}

// StepSpec is one entry in the plan's step list. The shared fields apply
// to every type; the rest are interpreted per type.
type StepSpec struct {
	Type            string `yaml:"type" validate:"required,oneof=ensure_dir copy_file symlink chmod extract_archive command"`
	Name            string `yaml:"name"`
	Retries         int    `yaml:"retries" validate:"min=0"`
	ContinueOnError bool   `yaml:"continue_on_error"`
	// SkipIf names a boolean property-bag key; the step is skipped when
	// the property is true at execution time.
	SkipIf string `yaml:"skip_if"`

	// ensure_dir, chmod
	Path string `yaml:"path"`
	// ensure_dir, copy_file, chmod: octal string such as "0755"
	Mode string `yaml:"mode"`

	// copy_file
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`

	// symlink
	Target string `yaml:"target"`
	Link   string `yaml:"link"`

	// extract_archive
	Archive string `yaml:"archive"`
	Dest    string `yaml:"dest"`

	// command
	Cmd      string   `yaml:"cmd"`
	Args     []string `yaml:"args"`
	UndoCmd  string   `yaml:"undo_cmd"`
	UndoArgs []string `yaml:"undo_args"`
}

// fileMode parses the Mode field as octal. Returns 0 when unset.
func (s StepSpec) fileMode() (uint32, error) {
	if s.Mode == "" {
		return 0, nil
	}
	mode, err := strconv.ParseUint(s.Mode, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(errors.Configuration, err, "invalid mode %q", s.Mode)
	}
	return uint32(mode), nil
}

// Validate checks the manifest structurally (tags) and semantically
// (per-type required fields).
func (m *Manifest) Validate() error {
	v := validator.New()
	if err := v.Struct(m); err != nil {
		return errors.Wrap(errors.Configuration, "manifest failed validation", err).
			WithOp("manifest.Validate")
	}

	for i, spec := range m.Steps {
		if err := spec.validateFields(); err != nil {
			return errors.Wrapf(errors.Configuration, err, "step %d (%s) is invalid", i+1, spec.Type).
				WithOp("manifest.Validate")
		}
	}
	return nil
}

func (s StepSpec) validateFields() error {
	missing := func(field string) error {
		return fmt.Errorf("%s requires %s", s.Type, field)
	}

	switch s.Type {
	case TypeEnsureDir:
		if s.Path == "" {
			return missing("path")
		}
	case TypeCopyFile:
		if s.Src == "" {
			return missing("src")
		}
		if s.Dst == "" {
			return missing("dst")
		}
	case TypeSymlink:
		if s.Target == "" {
			return missing("target")
		}
		if s.Link == "" {
			return missing("link")
		}
	case TypeChmod:
		if s.Path == "" {
			return missing("path")
		}
		if s.Mode == "" {
			return missing("mode")
		}
	case TypeExtractArchive:
		if s.Archive == "" {
			return missing("archive")
		}
		if s.Dest == "" {
			return missing("dest")
		}
	case TypeCommand:
		if s.Cmd == "" {
			return missing("cmd")
		}
	}

	if _, err := s.fileMode(); err != nil {
		return err
	}
	return nil
}
