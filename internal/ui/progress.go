package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tungetti/golem/internal/engine"
)

const defaultBarWidth = 40

// ProgressMsg carries one engine progress snapshot into the model.
type ProgressMsg engine.Progress

// DoneMsg signals that the run has finished with the given summary.
type DoneMsg engine.RunSummary

// RunModel is the bubbletea model for a live deployment run. It shows
// the plan name, the current step with its sub-description, and an
// overall progress bar derived from the engine's two-level progress.
type RunModel struct {
	planName string
	styles   Styles
	bar      progress.Model
	cancel   func()

	current    engine.Progress
	started    bool
	summary    *engine.RunSummary
	cancelling bool
	quitting   bool
}

// NewRunModel creates a run view for the named plan. The terminal is in
// raw mode while the view is live, so ctrl+c never reaches the process
// as a signal; cancel is invoked instead to stop the underlying run.
func NewRunModel(planName string, cancel func()) RunModel {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(defaultBarWidth),
		progress.WithoutPercentage(),
	)
	return RunModel{
		planName: planName,
		styles:   DefaultStyles(),
		bar:      bar,
		cancel:   cancel,
	}
}

// Init implements tea.Model.
func (m RunModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.current = engine.Progress(msg)
		m.started = true
		return m, m.bar.SetPercent(m.current.OverallPercent() / 100)

	case DoneMsg:
		summary := engine.RunSummary(msg)
		m.summary = &summary
		m.quitting = true
		return m, tea.Quit

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// First ctrl+c cancels the run and waits for its summary so
			// rollback output is not lost. A second one force-quits.
			if m.cancel != nil && !m.cancelling {
				m.cancelling = true
				m.cancel()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m RunModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.planName))
	b.WriteString("\n\n")

	if m.started {
		counter := fmt.Sprintf("[%d/%d]", m.current.StepIndex, m.current.TotalSteps)
		b.WriteString(m.styles.Counter.Render(counter))
		b.WriteString(" ")
		b.WriteString(m.styles.StepName.Render(m.current.StepName))
		if m.current.SubStep != "" {
			b.WriteString(m.styles.SubStep.Render(": " + m.current.SubStep))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.styles.Muted.Render("starting..."))
		b.WriteString("\n")
	}

	b.WriteString(m.bar.View())
	b.WriteString(fmt.Sprintf(" %3.0f%%", m.current.OverallPercent()))
	b.WriteString("\n")

	if m.cancelling && m.summary == nil {
		b.WriteString(m.styles.Muted.Render("cancelling, rolling back..."))
		b.WriteString("\n")
	}

	if m.quitting && m.summary != nil {
		b.WriteString("\n")
		b.WriteString(RenderSummary(*m.summary, m.styles))
	}
	return b.String()
}

// Summary returns the final run summary, if the run has finished.
func (m RunModel) Summary() *engine.RunSummary {
	return m.summary
}

// Runner drives a deployment run behind a live terminal view.
type Runner struct {
	program *tea.Program
}

// NewRunner creates a runner for the named plan. cancel is invoked when
// the user interrupts the view; pass the run context's cancel function
// so ctrl+c actually stops the engine.
func NewRunner(planName string, cancel func()) *Runner {
	return &Runner{
		program: tea.NewProgram(NewRunModel(planName, cancel)),
	}
}

// Sink returns a progress sink that feeds the live view. It is safe to
// call from the run goroutine.
func (r *Runner) Sink() engine.ProgressSink {
	return func(p engine.Progress) {
		r.program.Send(ProgressMsg(p))
	}
}

// Run executes fn in the background while the view is live and returns
// its summary once the view has shut down.
func (r *Runner) Run(fn func() engine.RunSummary) (engine.RunSummary, error) {
	done := make(chan engine.RunSummary, 1)
	go func() {
		summary := fn()
		done <- summary
		r.program.Send(DoneMsg(summary))
	}()

	if _, err := r.program.Run(); err != nil {
		return engine.RunSummary{}, err
	}
	return <-done, nil
}
