package topflight

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one entry of the error taxonomy. Every error produced
// by the engine reports a kind, and a kind can be used directly as the target
// of errors.Is.
type ErrorKind int

// Grammar, structural, runtime and fatal error kinds.
const (
	KindInstructionDoesNotExist = ErrorKind(iota)
	KindInvalidFormat
	KindNativeParseError
	KindInvalidRoutineFormat
	KindEmptyRoutineName
	KindSubRoutineFound
	KindUnexpectedEndSubroutine
	KindMismatchingEndSubroutine
	KindVariableDoesNotExist
	KindRoutineDoesNotExist
	KindExpectedBoolean
	KindMismatchingTypes
	KindExpectedArray
	KindExpectedArithmeticTypes
	KindIndexOutOfBound
	KindNegativeIndex
	KindNonIntegerIndex
	KindDivisionByZero
	KindOutputBufferError
	KindCallDepthExceeded
	KindArrayTooLarge
	KindStepLimitExceeded
)

var strKind = []string{
	"instruction does not exist",
	"invalid format",
	"native parse error",
	"invalid routine format",
	"empty routine name",
	"routine inside routine",
	"unexpected end of routine",
	"mismatching end of routine",
	"variable does not exist",
	"routine does not exist",
	"expected boolean",
	"mismatching types",
	"expected array",
	"expected arithmetic types",
	"index out of bound",
	"negative index",
	"non-integer index",
	"division by zero",
	"output buffer error",
	"call depth exceeded",
	"array too large",
	"step limit exceeded",
}

func (k ErrorKind) Error() string {
	if k < 0 || int(k) >= len(strKind) {
		return fmt.Sprintf("error kind %d", int(k))
	}
	return strKind[k]
}

// Fatal reports whether an error of this kind must stop a run regardless of
// the host's continue-on-error policy.
func (k ErrorKind) Fatal() bool {
	return k == KindCallDepthExceeded || k == KindStepLimitExceeded
}

// KindOf extracts the kind of any engine error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}

// IsFatal reports whether err carries a fatal kind.
func IsFatal(err error) bool {
	k, ok := KindOf(err)
	return ok && k.Fatal()
}

// ParseError is raised by the value literal grammar.
type ParseError struct {
	Code   ErrorKind // KindInvalidFormat or KindNativeParseError
	Tag    string    // type tag being parsed, if known
	Detail string    // offending text
}

func (e *ParseError) Error() string {
	msg := "Format is invalid"
	if e.Code == KindNativeParseError {
		msg = "Native parsing error"
	}
	switch {
	case e.Tag != "" && e.Detail != "":
		msg += fmt.Sprintf(" in %s literal near `%s`", e.Tag, e.Detail)
	case e.Tag != "":
		msg += fmt.Sprintf(" in %s literal", e.Tag)
	case e.Detail != "":
		msg += fmt.Sprintf(" near `%s`", e.Detail)
	}
	return msg
}

func (e *ParseError) Kind() ErrorKind { return e.Code }

func (e *ParseError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Code
}

// InstructionError reports an instruction line whose name is unknown.
type InstructionError struct {
	Name       string
	Suggestion string // closest known instruction name, may be empty
}

func (e *InstructionError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("Instruction `%s` does not exist, did you mean `%s`?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("Instruction `%s` does not exist", e.Name)
}

func (e *InstructionError) Kind() ErrorKind { return KindInstructionDoesNotExist }

func (e *InstructionError) Is(target error) bool {
	return target == KindInstructionDoesNotExist
}

// StructureError reports a violation of the routine delimiter discipline.
type StructureError struct {
	Code     ErrorKind
	Name     string // routine named by the offending line
	Building string // routine under construction, if any
}

func (e *StructureError) Error() string {
	switch e.Code {
	case KindInvalidRoutineFormat:
		return "Invalid routine format"
	case KindEmptyRoutineName:
		return "It is not possible to define an unnamed routine"
	case KindSubRoutineFound:
		return fmt.Sprintf("It is not possible to define routine `%s` inside routine `%s`", e.Name, e.Building)
	case KindUnexpectedEndSubroutine:
		return fmt.Sprintf("End of routine `%s` found without start", e.Name)
	case KindMismatchingEndSubroutine:
		return fmt.Sprintf("End of routine `%s` found while building routine `%s`", e.Name, e.Building)
	}
	return e.Code.Error()
}

func (e *StructureError) Kind() ErrorKind { return e.Code }

func (e *StructureError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Code
}

// VMError is a runtime failure raised while executing an instruction.
type VMError struct {
	Code      ErrorKind
	Name      string  // variable or routine name
	Values    []Value // offending operand values
	Index     int
	ArraySize int
	Depth     int
	Limit     int   // configured bound for KindArrayTooLarge and KindStepLimitExceeded
	Err       error // underlying I/O error for KindOutputBufferError
}

func (e *VMError) Error() string {
	switch e.Code {
	case KindVariableDoesNotExist:
		return fmt.Sprintf("Variable `%s` does not exist", e.Name)
	case KindRoutineDoesNotExist:
		return fmt.Sprintf("Routine `%s` does not exist", e.Name)
	case KindExpectedBoolean:
		return fmt.Sprintf("A boolean was expected but instead got %s", e.describe(0))
	case KindMismatchingTypes:
		return fmt.Sprintf("Types are mismatching, got %s and %s", e.describe(0), e.describe(1))
	case KindExpectedArray:
		return fmt.Sprintf("Expected an array but got %s", e.describe(0))
	case KindExpectedArithmeticTypes:
		return fmt.Sprintf("Expected arithmetic types but got %s and %s", e.describe(0), e.describe(1))
	case KindIndexOutOfBound:
		return fmt.Sprintf("Index, with value `%d`, is out of bound. Array size is `%d`", e.Index, e.ArraySize)
	case KindNegativeIndex:
		return fmt.Sprintf("Index is negative or zero, got %s", e.describe(0))
	case KindNonIntegerIndex:
		return fmt.Sprintf("Index must be an integer, got %s", e.describe(0))
	case KindDivisionByZero:
		return fmt.Sprintf("%s by zero", e.Name)
	case KindOutputBufferError:
		return fmt.Sprintf("Error while adding something to the output buffer: %v", e.Err)
	case KindCallDepthExceeded:
		return fmt.Sprintf("Maximum call depth of %d exceeded while calling routine `%s`", e.Depth, e.Name)
	case KindArrayTooLarge:
		return fmt.Sprintf("Array size `%d` exceeds the limit of `%d` elements", e.ArraySize, e.Limit)
	case KindStepLimitExceeded:
		return fmt.Sprintf("Step limit of %d instructions exceeded", e.Limit)
	}
	return e.Code.Error()
}

func (e *VMError) describe(i int) string {
	if i >= len(e.Values) || e.Values[i] == nil {
		return "nothing"
	}
	return fmt.Sprintf("`%s` (%s)", e.Values[i], e.Values[i].Type())
}

func (e *VMError) Kind() ErrorKind { return e.Code }

func (e *VMError) Unwrap() error { return e.Err }

func (e *VMError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Code
}

// LineError wraps an error with the 1-based number and raw text of the line
// that produced it.
type LineError struct {
	Line int
	Text string
	Err  error
	// Routines is the call chain inside which Err was raised.
	Routines []string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("Error at line %d: %v\n\t%s", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

func variableDoesNotExist(name string) error {
	return &VMError{Code: KindVariableDoesNotExist, Name: name}
}

func mismatchingTypes(a, b Value) error {
	return &VMError{Code: KindMismatchingTypes, Values: []Value{a, b}}
}

func arrayTooLarge(size, limit int) error {
	return &VMError{Code: KindArrayTooLarge, ArraySize: size, Limit: limit}
}

func indexOutOfBound(index, size int) error {
	return &VMError{Code: KindIndexOutOfBound, Index: index, ArraySize: size}
}
