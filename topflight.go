package topflight

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Version of the interpreter and its hosts.
const Version = "0.4.0"

// Config holds interpreter settings shared by all sessions it creates.
type Config struct {
	Debug           bool
	DebugCategories []LogCategory // enabled when Debug is set; empty means uncategorized only
	MaxCallDepth    int
	MaxArrayLength  int
	// MaxSteps bounds the instructions a single line may run, routine
	// bodies included. Zero means unlimited.
	MaxSteps int
	// ShowErrorContext adds surrounding source lines to reported errors.
	ShowErrorContext bool
	ContextLines     int
	// ContinueOnError keeps running after a failing line. Fatal errors still
	// stop the run.
	ContinueOnError bool
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		MaxCallDepth:     DefaultMaxCallDepth,
		MaxArrayLength:   DefaultMaxArrayLength,
		ShowErrorContext: true,
		ContextLines:     2,
		ContinueOnError:  false,
	}
}

// Interpreter creates sessions and runs scripts under one configuration.
type Interpreter struct {
	config *Config
	logger *Logger
}

// New creates a new TopFlight interpreter
func New(config *Config) *Interpreter {
	if config == nil {
		config = DefaultConfig()
	}
	ip := &Interpreter{logger: NewLogger(config.Debug)}
	ip.Configure(config)
	return ip
}

// Configure updates the configuration. Existing sessions keep their call
// depth limit.
func (ip *Interpreter) Configure(config *Config) {
	ip.config = config
	ip.logger.SetEnabled(config.Debug)
	for _, cat := range config.DebugCategories {
		ip.logger.EnableCategory(cat)
	}
	ip.logger.SetContextLines(config.ContextLines)
}

// GetConfig returns a copy of the current configuration
func (ip *Interpreter) GetConfig() *Config {
	configCopy := *ip.config
	return &configCopy
}

// Logger returns the logger shared by the interpreter's sessions.
func (ip *Interpreter) Logger() *Logger {
	return ip.logger
}

// SetContextLines sets the number of context lines for error reporting
func (ip *Interpreter) SetContextLines(lines int) {
	lines = min(max(lines, 0), 10)
	ip.config.ContextLines = lines
	ip.logger.SetContextLines(lines)
}

// NewSession creates a session writing program output to out.
func (ip *Interpreter) NewSession(out io.Writer) *Session {
	s := NewSession(out, ip.logger)
	if ip.config.MaxCallDepth > 0 {
		s.MaxCallDepth = ip.config.MaxCallDepth
	}
	if ip.config.MaxArrayLength > 0 {
		s.MaxArrayLength = ip.config.MaxArrayLength
	}
	s.MaxSteps = max(ip.config.MaxSteps, 0)
	return s
}

// Run feeds every line of r to s, in order. A failing line is returned as a
// *LineError. Unless ContinueOnError is set the run stops at the first
// failure; otherwise all failures are joined, and a fatal error still ends
// the run.
func (ip *Interpreter) Run(s *Session, r io.Reader) error {
	br := bufio.NewReader(r)
	var errs []error
	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			errs = append(errs, fmt.Errorf("reading script: %w", readErr))
			break
		}
		if line == "" && readErr == io.EOF {
			break
		}
		lineNo++
		line = strings.TrimSuffix(line, "\n")

		if err := s.HandleLine(line); err != nil {
			lerr := &LineError{
				Line:     lineNo,
				Text:     strings.TrimSuffix(line, "\r"),
				Err:      err,
				Routines: s.Trace(),
			}
			errs = append(errs, lerr)
			if !ip.config.ContinueOnError || IsFatal(err) {
				break
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	if _, open := s.Building(); open && len(errs) == 0 {
		ip.logger.WarnCat(CatRoutine, "input ended while routine was still being defined")
	}
	return errors.Join(errs...)
}

// Execute runs source in a fresh session with args stored in ArgsVariable
// and returns everything the script printed.
func (ip *Interpreter) Execute(source string, args ...string) (string, error) {
	var out strings.Builder
	s := ip.NewSession(&out)
	s.SetArgs(args)
	err := ip.Run(s, strings.NewReader(source))
	return out.String(), err
}

// Report logs err through the interpreter's logger. Line errors are shown
// with their position and, if enabled, the surrounding lines of source.
func (ip *Interpreter) Report(err error, filename string, source []string) {
	if err == nil {
		return
	}
	for _, e := range flattenErrors(err) {
		var le *LineError
		if !errors.As(e, &le) {
			ip.logger.Error("%v", e)
			continue
		}
		pos := &SourcePosition{Filename: filename, Line: le.Line, Routines: le.Routines}
		var context []string
		if ip.config.ShowErrorContext {
			context = source
		}
		ip.logger.ScriptError(le, pos, context)
	}
}

func flattenErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	return []error{err}
}

// SplitLines splits source the way Run reads it.
func SplitLines(source string) []string {
	lines := strings.Split(source, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
