package tui

import (
	"io"
	"os"
	"runtime"
	"strings"
)

// OutputMode describes how a command presents its results.
type OutputMode int

const (
	// ModeTUI uses bubbletea to show candidates while they are probed.
	ModeTUI OutputMode = iota
	// ModePlain writes plain text once the work is done.
	ModePlain
	// ModeJSON writes structured JSON output.
	ModeJSON
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	}
	return "unknown"
}

// DetectMode picks the output mode for out. The interactive display is only
// used on a real terminal outside CI.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case noProgress, os.Getenv("CI") != "":
		return ModePlain
	case !isTerminal(out):
		return ModePlain
	}
	if runtime.GOOS != "windows" {
		term := os.Getenv("TERM")
		if term == "" || strings.EqualFold(term, "dumb") {
			return ModePlain
		}
	}
	return ModeTUI
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
