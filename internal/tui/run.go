package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// RunProbe creates a bubbletea program, launches work in a goroutine, and
// blocks until the program exits. work receives a send callback for
// ProbeMsg updates and returns the command that was found.
func RunProbe(out io.Writer, model ProbeModel, work func(send func(tea.Msg)) (string, error)) (string, error) {
	p := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		found, err := work(p.Send)
		if err != nil {
			p.Send(ErrorMsg{Err: err})
			return
		}
		p.Send(WorkDoneMsg{Found: found})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := finalModel.(ProbeModel)
	if !ok {
		return "", nil
	}
	return m.Found(), m.Err()
}
