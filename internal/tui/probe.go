package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const statusWidth = len(StatusRejected)

type probeRow struct {
	candidate string
	status    string
}

// ProbeModel is a bubbletea model that lists conda candidates as they are
// tried, with a spinner next to the one in progress.
type ProbeModel struct {
	title   string
	spinner spinner.Model
	rows    []probeRow
	found   string
	done    bool
	err     error
}

// NewProbeModel creates a probe display with the given title.
func NewProbeModel(title string) ProbeModel {
	return ProbeModel{
		title:   title,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}
}

// Init satisfies the tea.Model interface.
func (m ProbeModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update satisfies the tea.Model interface.
func (m ProbeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProbeMsg:
		m.settle(StatusRejected)
		m.rows = append(m.rows, probeRow{candidate: msg.Candidate, status: StatusProbing})
		return m, nil

	case WorkDoneMsg:
		m.done = true
		m.found = msg.Found
		if msg.Found != "" {
			m.settle(StatusFound)
		} else {
			m.settle(StatusRejected)
		}
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// settle gives the candidate in progress its final status.
func (m *ProbeModel) settle(status string) {
	if n := len(m.rows); n > 0 && m.rows[n-1].status == StatusProbing {
		m.rows[n-1].status = status
	}
}

// View satisfies the tea.Model interface.
func (m ProbeModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteByte('\n')
	}
	for _, row := range m.rows {
		b.WriteString(StatusStyle(row.status).Render(pad(row.status, statusWidth)))
		b.WriteString("  ")
		b.WriteString(row.candidate)
		b.WriteByte('\n')
	}

	switch {
	case !m.done:
		current := "starting"
		if n := len(m.rows); n > 0 {
			current = m.rows[n-1].candidate
		}
		fmt.Fprintf(&b, "\n%s Probing %s...\n", m.spinner.View(), current)
	case m.found != "":
		fmt.Fprintf(&b, "\nconda: %s\n", m.found)
	default:
		b.WriteString("\nconda not found\n")
	}
	return b.String()
}

// Found returns the command of the conda that worked, if any.
func (m ProbeModel) Found() string {
	return m.found
}

// Done returns whether the model has finished (work done or error).
func (m ProbeModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m ProbeModel) Err() error {
	return m.err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}
