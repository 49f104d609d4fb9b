// Package constants defines application-wide constants for Golem.
// All constants are typed to ensure type safety and prevent accidental misuse.
package constants

import "time"

// Application metadata
const (
	// AppName is the application name used in logs, configs, and user messages.
	AppName string = "golem"
	// AppDescription is a short description of the application.
	AppDescription string = "Saga-style deployment orchestrator"
)

// ExitCode represents process exit codes for different termination scenarios.
type ExitCode int

const (
	// ExitSuccess indicates the application completed successfully.
	ExitSuccess ExitCode = iota
	// ExitError indicates a general error occurred.
	ExitError
	// ExitValidation indicates invalid input, manifest, or configuration.
	ExitValidation
	// ExitRunFailed indicates the deployment run failed and was rolled back.
	ExitRunFailed
	// ExitCancelled indicates the user cancelled the run.
	ExitCancelled
)

// Int returns the exit code as an int for use with os.Exit().
func (e ExitCode) Int() int {
	return int(e)
}

// Timeouts for various operations.
const (
	// DefaultTimeout is the standard timeout for a whole run.
	DefaultTimeout time.Duration = 15 * time.Minute
	// CommandTimeout is for shell command execution inside command steps.
	CommandTimeout time.Duration = 2 * time.Minute
)

// File paths relative to the user's home directory
const (
	// DefaultConfigDir is the default configuration directory relative to $HOME.
	DefaultConfigDir string = ".config/golem"
	// DefaultLogFile is the default log file name.
	DefaultLogFile string = "golem.log"
	// ConfigFileName is the configuration file name.
	ConfigFileName string = "config.yaml"
)

// Well-known property-bag keys. These are conventions between step
// authors: a step publishes under a key for a later step (or a skip
// predicate) to consume. The engine does not interpret them.
const (
	// PropCreatedPaths accumulates paths created during the run.
	PropCreatedPaths string = "run.created_paths"
	// PropLastExtracted is the directory the most recent archive step
	// unpacked into.
	PropLastExtracted string = "archive.last_extracted"
)
