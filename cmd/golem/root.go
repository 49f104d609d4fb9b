package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tungetti/golem/internal/config"
	"github.com/tungetti/golem/internal/constants"
	"github.com/tungetti/golem/internal/logging"
)

// globalFlags holds the persistent command-line flags.
type globalFlags struct {
	configFile string
	logLevel   string
	logFile    string
	verbose    bool
	quiet      bool
	dryRun     bool
	noColor    bool
}

// app wires configuration and logging for command handlers.
type app struct {
	flags  globalFlags
	config *config.Config
	logger logging.Logger
}

// exitCodeError carries a process exit code alongside the error. Command
// handlers return it so Execute can map outcomes to distinct codes.
type exitCodeError struct {
	code constants.ExitCode
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code.Int())
}

func (e *exitCodeError) Unwrap() error { return e.err }

// exitWith wraps err with the given exit code. A nil err yields a silent
// non-zero exit, used when the failure was already reported on screen.
func exitWith(code constants.ExitCode, err error) error {
	return &exitCodeError{code: code, err: err}
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var coded *exitCodeError
		if errors.As(err, &coded) {
			if coded.err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", coded.err)
			}
			return coded.code.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return constants.ExitError.Int()
	}
	return constants.ExitSuccess.Int()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           constants.AppName,
		Short:         constants.AppDescription,
		Long:          constants.AppDescription + ".\n\nRuns manifest-driven deployment plans with automatic rollback on failure.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configFile, "config", "c", "", "path to config file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.logFile, "log-file", "", "also write logs to this file")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "plain-text output, no interactive view")
	pf.BoolVar(&a.flags.dryRun, "dry-run", false, "report what would be done without making changes")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInstallCmd(a),
		newUninstallCmd(a),
		newRepairCmd(a),
		newValidateCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger. Flags take precedence
// over file and environment values.
func (a *app) setup() error {
	configPath := a.flags.configFile
	if configPath == "" {
		configPath = config.DefaultConfig().ConfigPath()
	}

	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return exitWith(constants.ExitValidation, err)
	}

	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if a.flags.logFile != "" {
		cfg.LogFile = a.flags.logFile
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}
	if a.flags.quiet {
		cfg.Quiet = true
	}
	if a.flags.dryRun {
		cfg.DryRun = true
	}
	if a.flags.noColor {
		cfg.NoColor = true
	}

	if err := config.NewValidator().ValidateOrError(cfg); err != nil {
		return exitWith(constants.ExitValidation, err)
	}

	a.config = cfg
	a.logger, err = a.buildLogger(cfg)
	if err != nil {
		return exitWith(constants.ExitError, err)
	}
	return nil
}

// buildLogger assembles the logger stack: console unless quiet, plus an
// optional file sink. During an interactive run the console sink would
// fight the live view for the terminal, so it goes to stderr only in
// quiet or verbose mode.
func (a *app) buildLogger(cfg *config.Config) (logging.Logger, error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.IsVerbose() {
		level = logging.LevelDebug
	}

	var sinks []logging.Logger
	if cfg.IsSilent() || cfg.IsVerbose() {
		opts := logging.DefaultOptions()
		opts.Level = level
		opts.NoColor = cfg.NoColor
		sinks = append(sinks, logging.New(opts))
	}

	if cfg.LogFile != "" {
		fileLogger, err := logging.NewFileLogger(cfg.LogFile, level)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fileLogger)
	}

	switch len(sinks) {
	case 0:
		return logging.NewNop(), nil
	case 1:
		return sinks[0], nil
	default:
		return logging.NewMulti(sinks...), nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version has no use for config or logging.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s, commit %s)\n",
				constants.AppName, Version, BuildTime, GitCommit)
		},
	}
}
