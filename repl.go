package topflight

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/peterh/liner"
)

// REPL color codes
const (
	replColorRed       = "\x1b[91m"
	replColorDarkGray  = "\x1b[90m"
	replColorDarkBrown = "\x1b[33m"
	replColorReset     = "\x1b[0m"
)

const replHelp = `Enter instructions or routine delimiters, one per line.
  :help               show this help
  :vars               list variables as literals
  :routines [name]    list routines, or show one routine's body
  :load <file>        run a script in this session
  :reset              discard all variables and routines
  :debug [cat|all|off] show debug state, toggle a category, or switch all on/off
  :quit               leave (Ctrl-D works too)
`

// REPLConfig configures the REPL behavior
type REPLConfig struct {
	HistoryFile string // empty disables persistent history
	ShowBanner  bool
	Color       bool
	Width       int // listings are cut to this many columns; 0 means no limit
	// LightBackground selects darker colors for light terminals.
	LightBackground bool
}

// DefaultHistoryFile returns ~/.topflight/history, or "" if there is no home
// directory.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".topflight", "history")
}

// REPL is an interactive session reading one line at a time.
type REPL struct {
	ip      *Interpreter
	session *Session
	config  REPLConfig
	out     *trackingWriter
	errOut  io.Writer
	lineNo  int
}

// trackingWriter remembers whether the last byte written ended a line, so
// the REPL can keep its prompt on a fresh line after PRINT.
type trackingWriter struct {
	w       io.Writer
	pending bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		t.pending = p[len(p)-1] != '\n'
	}
	return t.w.Write(p)
}

func (t *trackingWriter) finishLine() {
	if t.pending {
		_, _ = io.WriteString(t.w, "\n")
		t.pending = false
	}
}

// NewREPL creates a REPL with a fresh session of ip.
func NewREPL(ip *Interpreter, config REPLConfig, out, errOut io.Writer) *REPL {
	tw := &trackingWriter{w: out}
	return &REPL{
		ip:      ip,
		session: ip.NewSession(tw),
		config:  config,
		out:     tw,
		errOut:  errOut,
	}
}

// Session returns the REPL's live session.
func (r *REPL) Session() *Session {
	return r.session
}

// Run reads lines from the terminal until :quit or end of input.
func (r *REPL) Run() error {
	if r.config.ShowBanner {
		fmt.Fprintf(r.out, "TopFlight %s. Type :help for help.\n", Version)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeLine)

	if r.config.HistoryFile != "" {
		if f, err := os.Open(r.config.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer r.saveHistory(ln)
	}

	for {
		line, err := ln.Prompt(r.prompt())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if r.processInput(line) {
			return nil
		}
	}
}

func (r *REPL) saveHistory(ln *liner.State) {
	if err := os.MkdirAll(filepath.Dir(r.config.HistoryFile), 0755); err != nil {
		return
	}
	if f, err := os.Create(r.config.HistoryFile); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

// prompt shows the routine being defined, if any.
func (r *REPL) prompt() string {
	if name, ok := r.session.Building(); ok {
		return name + "... "
	}
	return "tf> "
}

// processInput handles one line of input and reports whether the REPL
// should exit.
func (r *REPL) processInput(input string) bool {
	input = strings.TrimSuffix(input, "\r")
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, ":") {
		return r.command(trimmed)
	}

	r.lineNo++
	err := r.session.HandleLine(input)
	r.out.finishLine()
	if err != nil {
		r.printError(&LineError{Line: r.lineNo, Text: input, Err: err, Routines: r.session.Trace()})
	}
	return false
}

func (r *REPL) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":exit":
		return true
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":vars":
		names := r.session.Memory.Names()
		if len(names) == 0 {
			fmt.Fprintln(r.out, r.dim("(no variables)"))
		}
		for _, name := range names {
			v, _ := r.session.Memory.Load(name)
			fmt.Fprintln(r.out, r.fit(name+" = "+FormatLiteral(v)))
		}
	case ":routines":
		r.listRoutines(fields[1:])
	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: :load <file>")
			return false
		}
		r.load(fields[1])
	case ":debug":
		r.debug(fields[1:])
	case ":reset":
		r.session.Reset()
		r.lineNo = 0
		fmt.Fprintln(r.out, "session reset.")
	default:
		fmt.Fprintln(r.out, "unknown command. Type :help for help.")
	}
	return false
}

func (r *REPL) listRoutines(args []string) {
	if len(args) > 0 {
		routine, err := r.session.Routines.Lookup(args[0])
		if err != nil {
			r.printError(err)
			return
		}
		fmt.Fprintf(r.out, "<%s>\n", routine.Name)
		for _, in := range routine.Instructions {
			fmt.Fprintln(r.out, FormatInstruction(in))
		}
		fmt.Fprintf(r.out, "</%s>\n", routine.Name)
		return
	}
	names := r.session.Routines.Names()
	if len(names) == 0 {
		fmt.Fprintln(r.out, r.dim("(no routines)"))
	}
	for _, name := range names {
		fmt.Fprintf(r.out, "%s (%d instructions)\n", name, len(r.session.Routines[name].Instructions))
	}
}

// debug toggles the interpreter's debug output and its categories.
func (r *REPL) debug(args []string) {
	logger := r.ip.Logger()
	if len(args) > 0 {
		switch args[0] {
		case "off":
			logger.SetEnabled(false)
		case "all":
			logger.SetEnabled(true)
			logger.EnableAllCategories()
		default:
			cats, err := ParseCategories(args[0])
			if err != nil {
				r.printError(err)
				return
			}
			logger.SetEnabled(true)
			for _, cat := range cats {
				if logger.IsCategoryEnabled(cat) {
					logger.DisableCategory(cat)
				} else {
					logger.EnableCategory(cat)
				}
			}
		}
	}

	state := "off"
	if logger.Enabled() {
		state = "on"
	}
	fmt.Fprintf(r.out, "debug output %s\n", state)
	for _, cat := range allCategories {
		mark := " "
		if logger.IsCategoryEnabled(cat) {
			mark = "*"
		}
		fmt.Fprintf(r.out, "  %s %s\n", mark, cat)
	}
}

func (r *REPL) load(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		r.printError(fmt.Errorf("cannot read %s: %w", path, err))
		return
	}
	err = r.ip.Run(r.session, strings.NewReader(string(content)))
	r.out.finishLine()
	if err != nil {
		r.printError(err)
	}
}

func (r *REPL) printError(err error) {
	msg := err.Error()
	var le *LineError
	if errors.As(err, &le) && len(flattenErrors(err)) == 1 {
		msg = fmt.Sprintf("Error at line %d: %v", le.Line, le.Err)
		if len(le.Routines) > 0 {
			msg += " (in " + strings.Join(le.Routines, " → ") + ")"
		}
	}
	if r.config.Color {
		msg = replColorRed + msg + replColorReset
	}
	fmt.Fprintln(r.errOut, msg)
}

// fit cuts s to the configured width.
func (r *REPL) fit(s string) string {
	if r.config.Width <= 3 || utf8.RuneCountInString(s) <= r.config.Width {
		return s
	}
	runes := []rune(s)
	return string(runes[:r.config.Width-3]) + "..."
}

func (r *REPL) dim(s string) string {
	if !r.config.Color {
		return s
	}
	if r.config.LightBackground {
		return replColorDarkBrown + s + replColorReset
	}
	return replColorDarkGray + s + replColorReset
}

var replCommands = []string{":debug", ":help", ":load", ":quit", ":reset", ":routines", ":vars"}

// completeLine completes instruction keywords and REPL commands at the start
// of a line.
func completeLine(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	var out []string
	if strings.HasPrefix(line, ":") {
		for _, c := range replCommands {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	}
	upper := strings.ToUpper(line)
	for _, name := range InstructionNames() {
		if strings.HasPrefix(name, upper) {
			out = append(out, name+" ")
		}
	}
	return out
}
