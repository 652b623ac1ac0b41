package tui

// ProbeMsg reports that a conda candidate is about to be tried.
type ProbeMsg struct {
	Candidate string
}

// WorkDoneMsg signals that the search has finished. Found is empty when no
// candidate worked.
type WorkDoneMsg struct {
	Found string
}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
