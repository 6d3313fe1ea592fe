package topflight

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message (higher value = higher severity)
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Per-instruction tracing (requires enabled + category)
	LevelInfo                   // Informational messages (requires enabled + category)
	LevelDebug                  // Development debugging (requires enabled + category)
	LevelNotice                 // Notable events (always shown)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Runtime errors (always shown)
	LevelFatal                  // Grammar errors and aborted runs (always shown)
)

// LogCategory represents the subsystem generating the message
type LogCategory string

const (
	CatNone     LogCategory = ""         // Uncategorized
	CatParse    LogCategory = "parse"    // Literal and instruction grammar
	CatRoutine  LogCategory = "routine"  // Routine definition and calls
	CatVariable LogCategory = "variable" // Store/load/free
	CatMath     LogCategory = "math"     // Arithmetic and comparison
	CatArray    LogCategory = "array"    // Array operations
	CatIO       LogCategory = "io"       // Output and script reading
	CatHost     LogCategory = "host"     // CLI, REPL and server hosts
)

var allCategories = []LogCategory{
	CatParse, CatRoutine, CatVariable, CatMath, CatArray, CatIO, CatHost,
}

// ANSI color codes for terminal output
const (
	colorYellow = "\x1b[93m" // Bright yellow foreground
	colorReset  = "\x1b[0m"  // Reset to default
)

// SourcePosition locates a line in a script.
type SourcePosition struct {
	Filename string
	Line     int // 1-based
	// Routines is the call chain active when the error was raised, outermost
	// first. Empty for top-level instructions.
	Routines []string
}

// Logger handles logging for TopFlight
type Logger struct {
	enabled           bool
	enabledCategories map[LogCategory]bool
	out               io.Writer
	errOut            io.Writer
	// colorEnabled is true if terminal colors should be used for errOut
	colorEnabled bool
	// contextLines is the number of source lines shown around an error
	contextLines int
}

// NewLogger creates a new logger writing to the process console.
func NewLogger(enabled bool) *Logger {
	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		out:               os.Stdout,
		errOut:            os.Stderr,
		colorEnabled:      DetectTerminal(os.Stderr).SupportsColor,
		contextLines:      1,
	}
}

// SetOutput redirects log output. Colors are turned off, since arbitrary
// writers are not terminals.
func (l *Logger) SetOutput(out, errOut io.Writer) {
	l.out = out
	l.errOut = errOut
	l.colorEnabled = false
}

// SetContextLines sets how many lines before and after an error line are
// shown. Negative values are treated as zero.
func (l *Logger) SetContextLines(n int) {
	l.contextLines = max(0, n)
}

func (l *Logger) writeOutput(isDebug bool, output string) {
	if isDebug {
		_, _ = fmt.Fprintln(l.out, output)
		return
	}
	if l.colorEnabled {
		_, _ = fmt.Fprintf(l.errOut, "%s%s%s\n", colorYellow, output, colorReset)
	} else {
		_, _ = fmt.Fprintln(l.errOut, output)
	}
}

// SetEnabled enables or disables debug logging
func (l *Logger) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *Logger) Enabled() bool { return l.enabled }

// EnableCategory enables debug logging for a specific category
func (l *Logger) EnableCategory(cat LogCategory) {
	l.enabledCategories[cat] = true
}

// DisableCategory disables debug logging for a specific category
func (l *Logger) DisableCategory(cat LogCategory) {
	delete(l.enabledCategories, cat)
}

// EnableAllCategories enables all categories for debug logging
func (l *Logger) EnableAllCategories() {
	for _, cat := range allCategories {
		l.enabledCategories[cat] = true
	}
}

// IsCategoryEnabled checks if a category is enabled
func (l *Logger) IsCategoryEnabled(cat LogCategory) bool {
	return l.enabledCategories[cat]
}

// ParseCategories turns a comma separated list ("parse,math" or "all") into
// categories. Unknown names are returned as an error.
func ParseCategories(list string) ([]LogCategory, error) {
	var cats []LogCategory
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
			continue
		case "all":
			return append([]LogCategory(nil), allCategories...), nil
		}
		found := false
		for _, cat := range allCategories {
			if string(cat) == name {
				cats = append(cats, cat)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown log category %q", name)
		}
	}
	return cats, nil
}

// shouldLog determines if a message should be logged based on level and category
func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	switch level {
	case LevelFatal, LevelError, LevelWarn, LevelNotice:
		return true
	case LevelDebug, LevelInfo, LevelTrace:
		return l.enabled && (cat == CatNone || l.enabledCategories[cat])
	default:
		return false
	}
}

// Log is the unified logging method
func (l *Logger) Log(level LogLevel, cat LogCategory, message string, position *SourcePosition, context []string) {
	if !l.shouldLog(level, cat) {
		return
	}

	catSuffix := ""
	if cat != CatNone {
		catSuffix = fmt.Sprintf(":%s", cat)
	}

	var prefix string
	switch level {
	case LevelTrace:
		prefix = fmt.Sprintf("[TRACE%s]", catSuffix)
	case LevelInfo:
		prefix = fmt.Sprintf("[INFO%s]", catSuffix)
	case LevelDebug:
		prefix = fmt.Sprintf("[DEBUG%s]", catSuffix)
	case LevelNotice:
		prefix = fmt.Sprintf("[TopFlight%s NOTICE]", catSuffix)
	case LevelWarn:
		prefix = fmt.Sprintf("[TopFlight%s WARN]", catSuffix)
	case LevelError, LevelFatal:
		prefix = fmt.Sprintf("[TopFlight%s ERROR]", catSuffix)
	}

	output := fmt.Sprintf("%s %s", prefix, message)

	if position != nil {
		filename := position.Filename
		if filename == "" {
			filename = "<input>"
		}
		output += fmt.Sprintf("\n  at line %d in %s", position.Line, filename)

		if len(position.Routines) > 0 {
			output += l.formatRoutineChain(position.Routines)
		}
		if len(context) > 0 {
			output += l.formatSourceContext(position, context)
		}
	}

	// Trace, Info, Debug go to out; Notice, Warn, Error, Fatal go to errOut
	isLowSeverity := level == LevelTrace || level == LevelInfo || level == LevelDebug
	l.writeOutput(isLowSeverity, output)
}

// Fatal logs a fatal error message (no position)
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(LevelFatal, CatNone, fmt.Sprintf(format, args...), nil, nil)
}

// Error logs an error message (no position)
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LevelError, CatNone, fmt.Sprintf(format, args...), nil, nil)
}

// ErrorCat logs a categorized error message
func (l *Logger) ErrorCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelError, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Warn logs a warning message (no position)
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(LevelWarn, CatNone, fmt.Sprintf(format, args...), nil, nil)
}

// WarnCat logs a categorized warning message
func (l *Logger) WarnCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelWarn, cat, fmt.Sprintf(format, args...), nil, nil)
}

// Notice logs a notable event (no position)
func (l *Logger) Notice(format string, args ...interface{}) {
	l.Log(LevelNotice, CatNone, fmt.Sprintf(format, args...), nil, nil)
}

// Debug logs a debug message (no position)
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LevelDebug, CatNone, fmt.Sprintf(format, args...), nil, nil)
}

// DebugCat logs a categorized debug message
func (l *Logger) DebugCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...), nil, nil)
}

// InfoCat logs a categorized informational message
func (l *Logger) InfoCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelInfo, cat, fmt.Sprintf(format, args...), nil, nil)
}

// TraceCat logs a categorized trace message
func (l *Logger) TraceCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelTrace, cat, fmt.Sprintf(format, args...), nil, nil)
}

// ScriptError logs a failed script line with its position and surrounding
// source. Grammar errors are reported as fatal, everything else as errors.
func (l *Logger) ScriptError(err error, position *SourcePosition, context []string) {
	level, cat := LevelError, CatNone
	if kind, ok := KindOf(err); ok {
		cat = categoryOf(kind)
		switch kind {
		case KindInstructionDoesNotExist, KindInvalidFormat, KindNativeParseError:
			level = LevelFatal
		}
	}
	message := err.Error()
	var le *LineError
	if errors.As(err, &le) {
		message = le.Err.Error()
		if len(context) == 0 && le.Text != "" {
			message += "\n\t" + le.Text
		}
	}
	l.Log(level, cat, message, position, context)
}

func categoryOf(kind ErrorKind) LogCategory {
	switch kind {
	case KindInstructionDoesNotExist, KindInvalidFormat, KindNativeParseError:
		return CatParse
	case KindInvalidRoutineFormat, KindEmptyRoutineName, KindSubRoutineFound,
		KindUnexpectedEndSubroutine, KindMismatchingEndSubroutine,
		KindRoutineDoesNotExist, KindCallDepthExceeded, KindStepLimitExceeded:
		return CatRoutine
	case KindVariableDoesNotExist, KindExpectedBoolean, KindMismatchingTypes:
		return CatVariable
	case KindExpectedArithmeticTypes, KindDivisionByZero:
		return CatMath
	case KindExpectedArray, KindIndexOutOfBound, KindNegativeIndex, KindNonIntegerIndex,
		KindArrayTooLarge:
		return CatArray
	case KindOutputBufferError:
		return CatIO
	}
	return CatNone
}

// formatRoutineChain formats the routine call chain
func (l *Logger) formatRoutineChain(routines []string) string {
	var message strings.Builder
	message.WriteString("\n\nRoutine call chain:")
	for i, name := range routines {
		indent := strings.Repeat("  ", i+1)
		message.WriteString(fmt.Sprintf("\n%s→ routine \"%s\"", indent, name))
	}
	return message.String()
}

// formatSourceContext formats source context with line numbers
func (l *Logger) formatSourceContext(position *SourcePosition, context []string) string {
	var message strings.Builder
	message.WriteString("\n")

	contextStart := max(0, position.Line-1-l.contextLines)
	contextEnd := min(len(context), position.Line+l.contextLines)

	for i := contextStart; i < contextEnd; i++ {
		lineNum := i + 1
		prefix := " "
		if lineNum == position.Line {
			prefix = ">"
		}
		message.WriteString(fmt.Sprintf("\n  %s %3d | %s", prefix, lineNum, context[i]))
	}

	return message.String()
}
