package topflight

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalCapabilities describes what a console stream can render.
type TerminalCapabilities struct {
	TermType      string // e.g., "xterm-256color"
	IsTerminal    bool   // true if the stream is an interactive terminal
	SupportsColor bool   // true if ANSI colors may be emitted
	Width         int    // columns
	Height        int    // rows
}

// DetectTerminal probes f. Redirected streams report an 80x24 screen without
// color.
func DetectTerminal(f *os.File) *TerminalCapabilities {
	caps := &TerminalCapabilities{
		TermType: os.Getenv("TERM"),
		Width:    80,
		Height:   24,
	}
	if caps.TermType == "" {
		caps.TermType = "unknown"
	}
	if f == nil {
		return caps
	}

	fd := int(f.Fd())
	caps.IsTerminal = term.IsTerminal(fd)
	if !caps.IsTerminal {
		return caps
	}
	if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
		caps.Width, caps.Height = w, h
	}
	caps.SupportsColor = colorAllowed(caps.TermType)
	return caps
}

// colorAllowed honors NO_COLOR (https://no-color.org/) and dumb terminals.
func colorAllowed(termType string) bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return termType != "dumb" && !strings.HasPrefix(termType, "vt5")
}
