package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type phase int

const (
	phaseRunning phase = iota
	phaseStopping
	phaseDone
)

// runProgress is one progress callback from the processing loop
type runProgress struct {
	percent float64
	success int
	errors  int
}

type model struct {
	dir          string
	opts         RunOptions
	currentPhase phase
	spinner      spinner.Model
	progress     progress.Model

	// Progress tracking
	last      runProgress
	statusMsg string

	// Progress channel for async updates
	updates chan runProgress
	cancel  context.CancelFunc
	ctx     context.Context

	width int

	// Result
	success int
	errors  int
	err     error
}

type runDoneMsg struct {
	success int
	errors  int
	err     error
}

type progressMsg runProgress

func initialModel(ctx context.Context, dir string, opts RunOptions) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	p.Width = 60

	ctx, cancel := context.WithCancel(ctx)

	return model{
		dir:          dir,
		opts:         opts,
		currentPhase: phaseRunning,
		spinner:      s,
		progress:     p,
		statusMsg:    "Matching records to media...",
		updates:      make(chan runProgress, 100),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		startRun(m.ctx, m.dir, m.opts, m.updates),
		waitForProgress(m.updates),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Left margin (2) + suffix like " 100% (9999 ok, 9999 errors)"
		progressWidth := msg.Width - 35
		if progressWidth < 20 {
			progressWidth = 20
		}
		m.progress.Width = progressWidth
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.currentPhase == phaseDone {
				return m, tea.Quit
			}
			// The run stops at the next record boundary and reports back
			m.currentPhase = phaseStopping
			m.statusMsg = "Stopping after the current record..."
			m.cancel()
			return m, nil
		case "enter":
			if m.currentPhase == phaseDone {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.last = runProgress(msg)
		return m, waitForProgress(m.updates)

	case runDoneMsg:
		m.currentPhase = phaseDone
		m.success, m.errors, m.err = msg.success, msg.errors, msg.err
		m.cancel()
		m.statusMsg = summaryLine(msg.success, msg.errors)
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	b.WriteString(titleStyle.Render("Photo Metadata Restore"))
	b.WriteString("\n\n")

	configStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	b.WriteString(configStyle.Render(truncatePath(m.dir, 60)))
	b.WriteString("\n\n")

	switch m.currentPhase {
	case phaseRunning, phaseStopping:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.statusMsg))

		b.WriteString("  ")
		b.WriteString(m.progress.ViewAs(m.last.percent / 100))
		b.WriteString(fmt.Sprintf(" %d%% (%d ok, %d errors)\n",
			int(m.last.percent),
			m.last.success,
			m.last.errors))

	case phaseDone:
		if m.err != nil {
			errStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true).
				MarginLeft(2)
			b.WriteString(errStyle.Render("✗ " + m.err.Error()))
			b.WriteString("\n")
		}
		doneStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true).
			MarginLeft(2)
		b.WriteString(doneStyle.Render("✓ " + m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	switch m.currentPhase {
	case phaseDone:
		b.WriteString(helpStyle.Render("enter: quit • q: quit"))
	case phaseStopping:
		b.WriteString(helpStyle.Render("stopping..."))
	default:
		b.WriteString(helpStyle.Render("q: stop"))
	}
	b.WriteString("\n")

	return b.String()
}

// Commands
func startRun(ctx context.Context, dir string, opts RunOptions, updates chan runProgress) tea.Cmd {
	return func() tea.Msg {
		opts.Progress = func(percent float64, success, errors int) {
			// Never block the processing loop on a slow renderer
			select {
			case updates <- runProgress{percent: percent, success: success, errors: errors}:
			default:
			}
		}
		success, errs, err := ProcessDirectory(ctx, dir, opts)
		close(updates)
		return runDoneMsg{success: success, errors: errs, err: err}
	}
}

// waitForProgress polls the progress channel and sends updates
func waitForProgress(updates <-chan runProgress) tea.Cmd {
	return func() tea.Msg {
		prog, ok := <-updates
		if !ok {
			// Channel closed, run done
			return nil
		}
		return progressMsg(prog)
	}
}

// runTUI shows the run in a full-screen view and returns its counts
func runTUI(ctx context.Context, dir string, opts RunOptions) (int, int, error) {
	p := tea.NewProgram(initialModel(ctx, dir, opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return 0, 0, err
	}
	m := final.(model)
	return m.success, m.errors, m.err
}

func summaryLine(success, errors int) string {
	successWord, errorWord := "successes", "errors"
	if success == 1 {
		successWord = "success"
	}
	if errors == 1 {
		errorWord = "error"
	}
	return fmt.Sprintf("Matching process finished with %d %s and %d %s.", success, successWord, errors, errorWord)
}

// truncatePath shortens a file path for display
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	// Try to show end of path with ...
	if maxLen > 10 {
		return "..." + path[len(path)-maxLen+3:]
	}

	return path[:maxLen]
}
