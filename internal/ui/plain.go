package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/tungetti/golem/internal/engine"
)

// PlainReporter writes progress as unstyled text lines, one per step
// transition. It is the fallback for quiet mode and non-TTY output.
type PlainReporter struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

// NewPlainReporter creates a reporter writing to w.
func NewPlainReporter(w io.Writer) *PlainReporter {
	return &PlainReporter{w: w}
}

// Sink returns a progress sink that prints a line whenever the run
// moves to a new step or sub-step. Intermediate percentage updates
// within the same sub-step are dropped to keep the output readable.
func (r *PlainReporter) Sink() engine.ProgressSink {
	return func(p engine.Progress) {
		r.mu.Lock()
		defer r.mu.Unlock()

		key := fmt.Sprintf("%d/%s/%s", p.StepIndex, p.StepName, p.SubStep)
		if key == r.last {
			return
		}
		r.last = key

		if p.SubStep != "" {
			fmt.Fprintf(r.w, "[%d/%d] %s: %s\n", p.StepIndex, p.TotalSteps, p.StepName, p.SubStep)
			return
		}
		fmt.Fprintf(r.w, "[%d/%d] %s\n", p.StepIndex, p.TotalSteps, p.StepName)
	}
}

// Finish prints the final summary as plain text.
func (r *PlainReporter) Finish(s engine.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range s.StepResults.Names() {
		result, _ := s.StepResults.Get(name)
		if result.Message != "" {
			fmt.Fprintf(r.w, "  %s: %s - %s\n", name, result.Status, result.Message)
		} else {
			fmt.Fprintf(r.w, "  %s: %s\n", name, result.Status)
		}
	}
	fmt.Fprintln(r.w, s.String())
}
