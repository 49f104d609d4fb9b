package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/tungetti/golem/internal/engine"
)

// timeRound trims sub-millisecond noise from reported durations.
const timeRound = time.Millisecond

// Status glyphs used in the summary listing.
const (
	glyphSuccess    = "✓"
	glyphFailure    = "✗"
	glyphSkipped    = "↷"
	glyphRolledBack = "↩"
)

// RenderSummary renders a finished run as a styled step listing with a
// closing status line.
func RenderSummary(s engine.RunSummary, styles Styles) string {
	var b strings.Builder

	for _, name := range s.StepResults.Names() {
		result, _ := s.StepResults.Get(name)
		b.WriteString("  ")
		b.WriteString(statusGlyph(result.Status, styles))
		b.WriteString(" ")
		b.WriteString(name)
		if result.Message != "" {
			b.WriteString(styles.Muted.Render(" - " + result.Message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusLine(s, styles))
	b.WriteString("\n")
	return b.String()
}

func statusGlyph(status engine.StepStatus, styles Styles) string {
	switch status {
	case engine.StepStatusCompleted:
		return styles.Success.Render(glyphSuccess)
	case engine.StepStatusFailed:
		return styles.Failure.Render(glyphFailure)
	case engine.StepStatusSkipped:
		return styles.Muted.Render(glyphSkipped)
	case engine.StepStatusRolledBack:
		return styles.Warning.Render(glyphRolledBack)
	default:
		return styles.Muted.Render("·")
	}
}

func statusLine(s engine.RunSummary, styles Styles) string {
	switch s.Status {
	case engine.RunStatusCompleted:
		return styles.Success.Render(fmt.Sprintf("Completed: %s (%d steps in %v)",
			s.Message, s.CompletedSteps, s.Duration.Round(timeRound)))
	case engine.RunStatusCancelled:
		return styles.Warning.Render("Cancelled: " + s.Message)
	case engine.RunStatusFailed:
		if s.FailedStep != "" {
			return styles.Failure.Render(fmt.Sprintf("Failed at %s: %s", s.FailedStep, s.Message))
		}
		return styles.Failure.Render("Failed: " + s.Message)
	default:
		return styles.Muted.Render(s.Status.String() + ": " + s.Message)
	}
}
