package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tungetti/golem/internal/constants"
	"github.com/tungetti/golem/internal/engine"
	"github.com/tungetti/golem/internal/manifest"
	"github.com/tungetti/golem/internal/ui"
)

// runMode selects which installer entry point a run uses.
type runMode int

const (
	modeInstall runMode = iota
	modeUninstall
	modeRepair
)

// runPlan loads the manifest at path and drives a full run, rendering
// progress interactively unless quiet mode is on. stepNames is only
// consulted in repair mode.
func (a *app) runPlan(path string, mode runMode, stepNames []string) error {
	m, err := manifest.LoadAndValidate(path)
	if err != nil {
		return exitWith(constants.ExitValidation, err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(inst *engine.Installer) engine.RunSummary {
		switch mode {
		case modeUninstall:
			return inst.Uninstall()
		case modeRepair:
			return inst.Repair(stepNames...)
		default:
			return inst.Install()
		}
	}

	var summary engine.RunSummary
	if a.config.IsSilent() {
		reporter := ui.NewPlainReporter(os.Stdout)
		ectx := engine.NewContext(
			engine.WithParent(sigCtx),
			engine.WithLogger(a.logger),
			engine.WithDryRun(a.config.DryRun),
			engine.WithProgressSink(reporter.Sink()),
		)
		inst, err := manifest.NewInstaller(m, ectx)
		if err != nil {
			return exitWith(constants.ExitValidation, err)
		}
		summary = run(inst)
		reporter.Finish(summary)
	} else {
		// The view owns the terminal in raw mode, so ctrl+c arrives as a
		// key event, not a signal. Route it to the run context's cancel;
		// the indirection is needed because the context wants the
		// runner's sink at construction.
		var cancelRun func()
		runner := ui.NewRunner(m.Name, func() {
			if cancelRun != nil {
				cancelRun()
			}
		})
		ectx := engine.NewContext(
			engine.WithParent(sigCtx),
			engine.WithLogger(a.logger),
			engine.WithDryRun(a.config.DryRun),
			engine.WithProgressSink(runner.Sink()),
		)
		cancelRun = ectx.Cancel
		inst, err := manifest.NewInstaller(m, ectx)
		if err != nil {
			return exitWith(constants.ExitValidation, err)
		}
		summary, err = runner.Run(func() engine.RunSummary { return run(inst) })
		if err != nil {
			return exitWith(constants.ExitError, err)
		}
	}

	return summaryExit(summary)
}

// summaryExit maps the run outcome to a process exit code. The summary
// itself has already been rendered, so failure exits carry no message.
func summaryExit(s engine.RunSummary) error {
	switch {
	case s.IsCancelled():
		return exitWith(constants.ExitCancelled, nil)
	case !s.Success:
		return exitWith(constants.ExitRunFailed, nil)
	default:
		return nil
	}
}

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <manifest>",
		Short: "Run a deployment plan",
		Long:  "Runs every step of the manifest in order. On failure, executed steps are rolled back in reverse order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(args[0], modeInstall, nil)
		},
	}
}

func newUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <manifest>",
		Short: "Tear down a deployed plan",
		Long:  "Rolls back every step of the manifest in reverse order, continuing past individual failures.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(args[0], modeUninstall, nil)
		},
	}
}

func newRepairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <manifest> [step...]",
		Short: "Re-run selected steps of a plan",
		Long:  "Re-executes the named steps in manifest order, skipping upfront validation. With no step names, every step is re-run.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(args[0], modeRepair, args[1:])
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Check a manifest without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.LoadAndValidate(args[0])
			if err != nil {
				return exitWith(constants.ExitValidation, err)
			}
			if _, err := manifest.Build(m); err != nil {
				return exitWith(constants.ExitValidation, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d steps)\n", m.Name, len(m.Steps))
			return nil
		},
	}
}
