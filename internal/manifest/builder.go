package manifest

import (
	"os"

	"github.com/tungetti/golem/internal/engine"
	"github.com/tungetti/golem/internal/errors"
	"github.com/tungetti/golem/internal/steps"
)

// Build turns a validated manifest into the configured step list for an
// installer run.
func Build(m *Manifest) ([]*engine.ConfiguredStep, error) {
	configured := make([]*engine.ConfiguredStep, 0, len(m.Steps))
	for i, spec := range m.Steps {
		step, err := buildStep(spec)
		if err != nil {
			return nil, errors.Wrapf(errors.Configuration, err, "step %d (%s) cannot be built", i+1, spec.Type).
				WithOp("manifest.Build")
		}
		configured = append(configured, engine.NewConfiguredStep(step, stepOptions(spec)...))
	}
	return configured, nil
}

// NewInstaller builds a ready-to-run installer from a validated manifest.
func NewInstaller(m *Manifest, ctx *engine.Context) (*engine.Installer, error) {
	configured, err := Build(m)
	if err != nil {
		return nil, err
	}
	return engine.NewInstaller(m.Name, ctx,
		engine.WithValidation(m.Settings.ValidateFirst()),
		engine.WithConfiguredSteps(configured...)), nil
}

func buildStep(spec StepSpec) (engine.Step, error) {
	mode, err := spec.fileMode()
	if err != nil {
		return nil, err
	}

	switch spec.Type {
	case TypeEnsureDir:
		var opts []steps.EnsureDirOption
		if mode != 0 {
			opts = append(opts, steps.WithDirMode(os.FileMode(mode)))
		}
		return steps.NewEnsureDirStep(spec.Path, opts...), nil

	case TypeCopyFile:
		var opts []steps.CopyFileOption
		if mode != 0 {
			opts = append(opts, steps.WithFileMode(os.FileMode(mode)))
		}
		return steps.NewCopyFileStep(spec.Src, spec.Dst, opts...), nil

	case TypeSymlink:
		return steps.NewSymlinkStep(spec.Target, spec.Link), nil

	case TypeChmod:
		return steps.NewChmodStep(spec.Path, os.FileMode(mode)), nil

	case TypeExtractArchive:
		return steps.NewExtractArchiveStep(spec.Archive, spec.Dest), nil

	case TypeCommand:
		name := spec.Name
		if name == "" {
			name = TypeCommand
		}
		var opts []steps.CommandStepOption
		if spec.UndoCmd != "" {
			opts = append(opts, steps.WithUndoCommand(spec.UndoCmd, spec.UndoArgs...))
		}
		return steps.NewCommandStep(name, spec.Cmd, spec.Args, opts...), nil
	}

	return nil, errors.Newf(errors.Configuration, "unknown step type %q", spec.Type)
}

func stepOptions(spec StepSpec) []engine.StepOption {
	var opts []engine.StepOption
	if spec.Name != "" {
		opts = append(opts, engine.WithDisplayName(spec.Name))
	}
	if spec.Retries > 0 {
		opts = append(opts, engine.WithRetryCount(spec.Retries))
	}
	if spec.ContinueOnError {
		opts = append(opts, engine.WithContinueOnError(true))
	}
	if key := spec.SkipIf; key != "" {
		opts = append(opts, engine.WithSkipWhen(func(ctx *engine.Context) bool {
			return ctx.PropertyBool(key)
		}))
	}
	return opts
}
