package engine

import (
	"context"
	"sync"

	"github.com/tungetti/golem/internal/errors"
	"github.com/tungetti/golem/internal/logging"
)

// ProgressSink receives progress snapshots from the run.
type ProgressSink func(Progress)

// Context holds the mutable state shared by the installer and every step
// for the duration of one run. It is created once per run and is not
// reset between steps.
//
// Steps own writes to arbitrary property keys; the installer exclusively
// owns the step-tracking fields behind SetCurrentStep.
type Context struct {
	// Logger is the write-only log sink available to steps.
	Logger logging.Logger

	// DryRun indicates steps should report what they would do without
	// making changes.
	DryRun bool

	// Cancellation
	ctx    context.Context
	cancel context.CancelFunc

	// Property bag for steps to share data. Keys are a convention
	// between step authors, not interpreted by the installer.
	properties map[string]interface{}
	propsMu    sync.RWMutex

	// Optional sink for progress snapshots.
	progressSink ProgressSink

	// True while a teardown run is in flight. Set by the installer.
	isUninstall bool

	// Step tracking, written only by the installer.
	trackMu    sync.RWMutex
	stepIndex  int
	totalSteps int
	stepName   string
}

// ContextOption is a functional option for Context.
type ContextOption func(*Context)

// WithLogger sets the logger available to the installer and steps.
func WithLogger(logger logging.Logger) ContextOption {
	return func(c *Context) {
		c.Logger = logger
	}
}

// WithProgressSink sets the sink that receives progress snapshots.
func WithProgressSink(sink ProgressSink) ContextOption {
	return func(c *Context) {
		c.progressSink = sink
	}
}

// WithProperty seeds a property before the run starts.
func WithProperty(key string, value interface{}) ContextOption {
	return func(c *Context) {
		c.properties[key] = value
	}
}

// WithDryRun sets the dry run mode in the context.
func WithDryRun(dryRun bool) ContextOption {
	return func(c *Context) {
		c.DryRun = dryRun
	}
}

// WithParent sets a parent context for cancellation.
func WithParent(ctx context.Context) ContextOption {
	return func(c *Context) {
		if c.cancel != nil {
			c.cancel() // Cancel the default context
		}
		c.ctx, c.cancel = context.WithCancel(ctx)
	}
}

// NewContext creates a new execution context with the given options.
func NewContext(opts ...ContextOption) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Context{
		ctx:        ctx,
		cancel:     cancel,
		properties: make(map[string]interface{}),
		Logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProperty stores a value in the property bag with the given key.
// This allows steps to share data with each other.
func (c *Context) SetProperty(key string, value interface{}) {
	c.propsMu.Lock()
	defer c.propsMu.Unlock()
	c.properties[key] = value
}

// Property retrieves a value from the property bag by key.
// Returns the value and a boolean indicating whether the key was found.
func (c *Context) Property(key string) (interface{}, bool) {
	c.propsMu.RLock()
	defer c.propsMu.RUnlock()
	value, ok := c.properties[key]
	return value, ok
}

// PropertyString retrieves a string value from the property bag.
// Returns an empty string if the key is not found or the value is not a string.
func (c *Context) PropertyString(key string) string {
	value, ok := c.Property(key)
	if !ok {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return s
}

// PropertyInt retrieves an int value from the property bag.
// Returns 0 if the key is not found or the value is not an int.
func (c *Context) PropertyInt(key string) int {
	value, ok := c.Property(key)
	if !ok {
		return 0
	}
	i, ok := value.(int)
	if !ok {
		return 0
	}
	return i
}

// PropertyBool retrieves a bool value from the property bag.
// Returns false if the key is not found or the value is not a bool.
func (c *Context) PropertyBool(key string) bool {
	value, ok := c.Property(key)
	if !ok {
		return false
	}
	b, ok := value.(bool)
	if !ok {
		return false
	}
	return b
}

// PropertyStringSlice retrieves a string slice value from the property bag.
// Returns nil if the key is not found or the value is not a string slice.
func (c *Context) PropertyStringSlice(key string) []string {
	value, ok := c.Property(key)
	if !ok {
		return nil
	}
	s, ok := value.([]string)
	if !ok {
		return nil
	}
	return s
}

// DeleteProperty removes a key from the property bag.
func (c *Context) DeleteProperty(key string) {
	c.propsMu.Lock()
	defer c.propsMu.Unlock()
	delete(c.properties, key)
}

// Context returns the underlying context.Context for cancellation support.
// Steps performing long-running work are expected to poll it.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Cancel cancels the run, signaling all operations to stop.
func (c *Context) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

// IsCancelled returns true if the run has been cancelled.
func (c *Context) IsCancelled() bool {
	if c.ctx == nil {
		return false
	}
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// IsUninstall returns true while a teardown run is in flight.
func (c *Context) IsUninstall() bool {
	c.trackMu.RLock()
	defer c.trackMu.RUnlock()
	return c.isUninstall
}

// markUninstall flags the context for a teardown run. Installer-only.
func (c *Context) markUninstall() {
	c.trackMu.Lock()
	defer c.trackMu.Unlock()
	c.isUninstall = true
}

// SetCurrentStep records which step is about to run. It is called by the
// installer immediately before each step's Execute or Rollback; steps
// must not call it.
func (c *Context) SetCurrentStep(index, total int, name string) {
	c.trackMu.Lock()
	defer c.trackMu.Unlock()
	c.stepIndex = index
	c.totalSteps = total
	c.stepName = name
}

// CurrentStep returns the installer-owned step tracking fields.
func (c *Context) CurrentStep() (index, total int, name string) {
	c.trackMu.RLock()
	defer c.trackMu.RUnlock()
	return c.stepIndex, c.totalSteps, c.stepName
}

// ReportStepProgress is the sole channel by which step-internal progress
// reaches the caller. It combines the installer-owned step tracking with
// the supplied sub-description and intra-step percentage and forwards the
// snapshot to the progress sink, if one is configured.
//
// Percentages outside [0, 100] are a caller error: the report is rejected
// and nothing is forwarded.
func (c *Context) ReportStepProgress(subStep string, percent int) error {
	if percent < 0 || percent > 100 {
		return errors.Newf(errors.Validation, "progress percent %d outside [0, 100]", percent).
			WithOp("engine.ReportStepProgress")
	}

	c.trackMu.RLock()
	snapshot := Progress{
		StepIndex:  c.stepIndex,
		TotalSteps: c.totalSteps,
		StepName:   c.stepName,
		SubStep:    subStep,
		Percent:    percent,
	}
	c.trackMu.RUnlock()

	if c.progressSink != nil {
		c.progressSink(snapshot)
	}
	return nil
}

// Log logs a message at the info level if a logger is configured.
func (c *Context) Log(msg string, keyvals ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, keyvals...)
	}
}

// LogDebug logs a message at the debug level if a logger is configured.
func (c *Context) LogDebug(msg string, keyvals ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, keyvals...)
	}
}

// LogWarn logs a message at the warn level if a logger is configured.
func (c *Context) LogWarn(msg string, keyvals ...interface{}) {
	if c.Logger != nil {
		c.Logger.Warn(msg, keyvals...)
	}
}

// LogError logs a message at the error level if a logger is configured.
func (c *Context) LogError(msg string, keyvals ...interface{}) {
	if c.Logger != nil {
		c.Logger.Error(msg, keyvals...)
	}
}
