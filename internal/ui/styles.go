// Package ui renders run progress and summaries in the terminal. The
// interactive view is a bubbletea model fed by engine progress snapshots;
// a plain-text fallback covers quiet and non-TTY runs.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette used across the run view and summary rendering.
const (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSuccess = lipgloss.Color("#04B575")
	colorFailure = lipgloss.Color("#FF5F87")
	colorWarning = lipgloss.Color("#FFAF00")
	colorMuted   = lipgloss.Color("#626262")
)

// Styles groups the lipgloss styles used by the run view.
type Styles struct {
	Title    lipgloss.Style
	StepName lipgloss.Style
	SubStep  lipgloss.Style
	Counter  lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		StepName: lipgloss.NewStyle().Bold(true),
		SubStep:  lipgloss.NewStyle().Foreground(colorMuted),
		Counter:  lipgloss.NewStyle().Foreground(colorPrimary),
		Success:  lipgloss.NewStyle().Foreground(colorSuccess),
		Failure:  lipgloss.NewStyle().Foreground(colorFailure),
		Warning:  lipgloss.NewStyle().Foreground(colorWarning),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
	}
}
