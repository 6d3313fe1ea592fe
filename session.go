package topflight

import (
	"io"
	"strings"
)

// ArgsVariable is the variable hosts use for script arguments.
const ArgsVariable = "args"

// Session is one live interpreter state: variable store, routine table,
// routine under construction and output writer. A Session is not safe for
// concurrent use.
type Session struct {
	*Machine
	building *Routine
}

// NewSession creates an empty session writing program output to out.
func NewSession(out io.Writer, logger *Logger) *Session {
	return &Session{Machine: NewMachine(out, logger)}
}

// lineKind classifies a script line.
type lineKind int

const (
	lineSkip lineKind = iota
	lineRoutineStart
	lineRoutineEnd
	lineInstruction
)

// classifyLine returns the kind of line and, for delimiters, the routine
// name.
func classifyLine(line string) (lineKind, string, error) {
	switch {
	case strings.TrimSpace(line) == "", strings.HasPrefix(line, "#"):
		return lineSkip, "", nil
	case strings.HasPrefix(line, "</"):
		name, err := delimiterName(line, 2)
		return lineRoutineEnd, name, err
	case strings.HasPrefix(line, "<"):
		name, err := delimiterName(line, 1)
		return lineRoutineStart, name, err
	}
	return lineInstruction, "", nil
}

func delimiterName(line string, prefix int) (string, error) {
	if len(line) < prefix+1 || !strings.HasSuffix(line, ">") {
		return "", &StructureError{Code: KindInvalidRoutineFormat}
	}
	name := line[prefix : len(line)-1]
	if name == "" {
		return "", &StructureError{Code: KindEmptyRoutineName}
	}
	return name, nil
}

// HandleLine processes one script line. Errors abort this line only; the
// session keeps whatever state earlier lines produced.
func (s *Session) HandleLine(line string) error {
	line = strings.TrimSuffix(line, "\r")
	s.trace, s.traced = nil, false
	kind, name, err := classifyLine(line)
	if err != nil {
		return err
	}

	switch kind {
	case lineRoutineStart:
		return s.startRoutine(name)
	case lineRoutineEnd:
		return s.endRoutine(name)
	case lineInstruction:
		in, err := ParseInstruction(line)
		if err != nil {
			return err
		}
		if s.building != nil {
			s.building.Instructions = append(s.building.Instructions, in)
			return nil
		}
		return s.Execute(in)
	}
	return nil
}

func (s *Session) startRoutine(name string) error {
	if s.building != nil {
		return &StructureError{Code: KindSubRoutineFound, Name: name, Building: s.building.Name}
	}
	s.building = &Routine{Name: name}
	return nil
}

func (s *Session) endRoutine(name string) error {
	if s.building == nil {
		return &StructureError{Code: KindUnexpectedEndSubroutine, Name: name}
	}
	if name != s.building.Name {
		return &StructureError{Code: KindMismatchingEndSubroutine, Name: name, Building: s.building.Name}
	}
	if _, exists := s.Routines[name]; exists {
		s.logger.InfoCat(CatRoutine, "routine %s redefined", name)
	}
	s.Routines.Define(s.building)
	if s.logger.Enabled() {
		s.logger.DebugCat(CatRoutine, "defined routine %s (%d instructions)", name, len(s.building.Instructions))
	}
	s.building = nil
	return nil
}

// Building returns the name of the routine under construction, if any.
func (s *Session) Building() (string, bool) {
	if s.building == nil {
		return "", false
	}
	return s.building.Name, true
}

// SetArgs stores script arguments as an ArrayOfString in ArgsVariable.
func (s *Session) SetArgs(args []string) {
	arr := make(ArrayOfString, len(args))
	for i, a := range args {
		arr[i] = String(a)
	}
	s.Memory.Store(ArgsVariable, arr)
}

// Reset discards all variables, routines and any routine under
// construction.
func (s *Session) Reset() {
	s.Memory = NewMemory()
	s.Routines = make(RoutineTable)
	s.building = nil
}
