package topflight

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func newTestSession() (*Session, *strings.Builder) {
	var out strings.Builder
	return NewSession(&out, nil), &out
}

// feed runs lines that are all expected to succeed.
func feed(t *testing.T, s *Session, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := s.HandleLine(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
}

// expectKind runs line and checks that it fails with kind.
func expectKind(t *testing.T, s *Session, line string, kind ErrorKind) error {
	t.Helper()
	err := s.HandleLine(line)
	if !errors.Is(err, kind) {
		t.Errorf("%s: expected %v, got %v", line, kind, err)
	}
	return err
}

// expectBounds runs line and checks the reported index and array size.
func expectBounds(t *testing.T, s *Session, line string, index, size int) {
	t.Helper()
	err := expectKind(t, s, line, KindIndexOutOfBound)
	var vmErr *VMError
	if !errors.As(err, &vmErr) {
		t.Errorf("%s: expected a *VMError, got %T", line, err)
		return
	}
	if vmErr.Index != index || vmErr.ArraySize != size {
		t.Errorf("%s: expected index %d and size %d, got %d and %d", line, index, size, vmErr.Index, vmErr.ArraySize)
	}
}

func load(t *testing.T, s *Session, name string) Value {
	t.Helper()
	v, err := s.Memory.Load(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return v
}

func TestIntegerArithmetic(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE a INTEGER(17)",
		"STORE b INTEGER(5)",
		"ADD a b sum",
		"SUBSTRACT a b diff",
		"MULTIPLY a b prod",
		"DIVIDE a b quot",
		"MODULO a b rem",
	)
	want := map[string]Integer{"sum": 22, "diff": 12, "prod": 85, "quot": 3, "rem": 2}
	for name, w := range want {
		if v := load(t, s, name); v != w {
			t.Errorf("%s: expected %d, got %v", name, w, v)
		}
	}
}

func TestNumberArithmetic(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE a NUMBER(7.5)",
		"STORE b NUMBER(2.5)",
		"ADD a b sum",
		"DIVIDE a b quot",
		"STORE zero NUMBER(0)",
		"DIVIDE a zero inf",
	)
	if v := load(t, s, "sum"); v != Number(10) {
		t.Errorf("Expected 10, got %v", v)
	}
	if v := load(t, s, "quot"); v != Number(3) {
		t.Errorf("Expected 3, got %v", v)
	}
	if v := load(t, s, "inf").(Number); !math.IsInf(float64(v), 1) {
		t.Errorf("Expected +inf, got %v", v)
	}
	expectKind(t, s, "MODULO a b r", KindExpectedArithmeticTypes)
}

func TestArithmeticErrors(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE i INTEGER(4)",
		"STORE n NUMBER(4)",
		"STORE zero INTEGER(0)",
		"STORE str STRING(\"4\")",
	)
	expectKind(t, s, "ADD i n out", KindExpectedArithmeticTypes)
	expectKind(t, s, "MULTIPLY str str out", KindExpectedArithmeticTypes)
	expectKind(t, s, "ADD i missing out", KindVariableDoesNotExist)
	err := expectKind(t, s, "DIVIDE i zero out", KindDivisionByZero)
	if err != nil && err.Error() != "Division by zero" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	expectKind(t, s, "MODULO i zero out", KindDivisionByZero)
	if _, err := s.Memory.Load("out"); err == nil {
		t.Error("A failing instruction must not write its destination")
	}
}

func TestIntegerOverflowWraps(t *testing.T) {
	s, _ := newTestSession()
	s.Memory.Store("max", Integer(math.MaxInt64))
	s.Memory.Store("min", Integer(math.MinInt64))
	feed(t, s,
		"STORE one INTEGER(1)",
		"STORE minus INTEGER(-1)",
		"ADD max one wrapped",
		"DIVIDE min minus q",
	)
	if v := load(t, s, "wrapped"); v != Integer(math.MinInt64) {
		t.Errorf("Expected wrap to MinInt64, got %v", v)
	}
	if v := load(t, s, "q"); v != Integer(math.MinInt64) {
		t.Errorf("Expected MinInt64, got %v", v)
	}
}

func TestLogicalInstructions(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE t BOOLEAN(true)",
		"STORE f BOOLEAN(false)",
		"LOGICAL_AND t f and",
		"LOGICAL_OR t f or",
		"LOGICAL_NOT f not",
	)
	if load(t, s, "and") != Boolean(false) || load(t, s, "or") != Boolean(true) || load(t, s, "not") != Boolean(true) {
		t.Error("Unexpected logical results")
	}

	feed(t, s, "STORE i INTEGER(1)")
	expectKind(t, s, "LOGICAL_AND t i out", KindMismatchingTypes)
	expectKind(t, s, "LOGICAL_NOT i out", KindExpectedBoolean)
}

func TestCompareInstructions(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE one INTEGER(1)",
		"STORE two INTEGER(2)",
		"COMPARE_LESS one two lt",
		"COMPARE_LESS_OR_EQUAL two two le",
		"COMPARE_GREATER one two gt",
		"COMPARE_GREATER_OR_EQUAL one two ge",
		"COMPARE_EQUAL one one eq",
		"COMPARE_DIFFERENT one two ne",
		`STORE s1 STRING("abc")`,
		`STORE s2 STRING("abd")`,
		"COMPARE_LESS s1 s2 slt",
		"STORE a1 ARRAY_OF_INTEGER(1,2)",
		"STORE a2 ARRAY_OF_INTEGER(1,2)",
		"COMPARE_EQUAL a1 a2 aeq",
	)
	want := map[string]Boolean{"lt": true, "le": true, "gt": false, "ge": false, "eq": true, "ne": true, "slt": true, "aeq": true}
	for name, w := range want {
		if v := load(t, s, name); v != w {
			t.Errorf("%s: expected %v, got %v", name, w, v)
		}
	}

	feed(t, s, "STORE n NUMBER(1)")
	expectKind(t, s, "COMPARE_EQUAL one n out", KindMismatchingTypes)
	expectKind(t, s, "COMPARE_LESS one n out", KindMismatchingTypes)
}

func TestCompareNaN(t *testing.T) {
	s, _ := newTestSession()
	s.Memory.Store("nan", Number(math.NaN()))
	feed(t, s,
		"COMPARE_EQUAL nan nan eq",
		"COMPARE_DIFFERENT nan nan ne",
		"COMPARE_LESS nan nan lt",
		"COMPARE_GREATER_OR_EQUAL nan nan ge",
	)
	if load(t, s, "eq") != Boolean(false) || load(t, s, "ne") != Boolean(true) {
		t.Error("NaN must compare different from itself")
	}
	if load(t, s, "lt") != Boolean(false) || load(t, s, "ge") != Boolean(false) {
		t.Error("Ordering comparisons with NaN must be false")
	}
}

func TestConcat(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		`STORE a STRING("foo")`,
		`STORE b STRING("bar")`,
		"CONCAT a b c",
	)
	if v := load(t, s, "c"); v != String("foobar") {
		t.Errorf("Expected foobar, got %v", v)
	}
	feed(t, s, "STORE arr ARRAY_OF_STRING(\"x\")")
	expectKind(t, s, "CONCAT a arr c", KindMismatchingTypes)
	expectKind(t, s, "CONCAT arr arr c", KindMismatchingTypes)
}

func TestArrayAccess(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE a ARRAY_OF_INTEGER(10,20,30)",
		"STORE one INTEGER(1)",
		"STORE two INTEGER(2)",
		"STORE three INTEGER(3)",
		"GET_AT a one x",
		"STORE_AT a two INTEGER(7)",
		"STORE v INTEGER(5)",
		"COPY_AT a one v",
		"SIZE a n",
	)
	if v := load(t, s, "x"); v != Integer(20) {
		t.Errorf("Index 1 should address 20, got %v", v)
	}
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{10, 5, 7}) {
		t.Errorf("Expected [10, 5, 7], got %v", v)
	}
	if v := load(t, s, "n"); v != Integer(3) {
		t.Errorf("Expected 3, got %v", v)
	}

	expectBounds(t, s, "GET_AT a three x", 3, 3)
	expectBounds(t, s, "STORE_AT a three INTEGER(1)", 3, 3)
	expectBounds(t, s, "COPY_AT a three x", 3, 3)
	expectKind(t, s, "STORE_AT a one NUMBER(1)", KindMismatchingTypes)
	expectKind(t, s, "GET_AT v one x", KindExpectedArray)
	expectKind(t, s, "SIZE v n", KindExpectedArray)
	expectKind(t, s, "STORE_AT v one INTEGER(1)", KindMismatchingTypes)
}

func TestArrayIndexErrors(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE a ARRAY_OF_BOOLEAN(true,false)",
		"STORE zero INTEGER(0)",
		"STORE neg INTEGER(-1)",
		"STORE num NUMBER(1)",
	)
	expectKind(t, s, "GET_AT a zero x", KindNegativeIndex)
	expectKind(t, s, "GET_AT a neg x", KindNegativeIndex)
	expectKind(t, s, "GET_AT a num x", KindNonIntegerIndex)
	expectKind(t, s, "ERASE a zero", KindNegativeIndex)
	expectKind(t, s, "RESIZE a zero", KindNegativeIndex)
	expectKind(t, s, "GET_AT missing zero x", KindVariableDoesNotExist)
}

func TestResizeInsertPushBackErase(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"STORE a ARRAY_OF_INTEGER(10,20,30)",
		"STORE one INTEGER(1)",
		"STORE three INTEGER(3)",
		"STORE five INTEGER(5)",
		"STORE x INTEGER(99)",
		"INSERT a one x",
	)
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{10, 99, 20, 30}) {
		t.Errorf("After INSERT expected [10, 99, 20, 30], got %v", v)
	}

	feed(t, s, "ERASE a one", "PUSH_BACK a x")
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{10, 20, 30, 99}) {
		t.Errorf("After ERASE/PUSH_BACK expected [10, 20, 30, 99], got %v", v)
	}

	feed(t, s, "RESIZE a five")
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{10, 20, 30, 99, 0}) {
		t.Errorf("After growing expected zero padding, got %v", v)
	}
	feed(t, s, "RESIZE a one")
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{10}) {
		t.Errorf("After shrinking expected [10], got %v", v)
	}

	// Inserting at the current length is out of bound.
	expectBounds(t, s, "INSERT a one x", 1, 1)
	expectBounds(t, s, "ERASE a one", 1, 1)

	feed(t, s, `STORE str STRING("s")`)
	expectKind(t, s, "PUSH_BACK a str", KindMismatchingTypes)
	expectKind(t, s, "PUSH_BACK x x", KindMismatchingTypes)
	expectKind(t, s, "PUSH_BACK a a", KindMismatchingTypes)
	expectKind(t, s, "RESIZE x one", KindExpectedArray)
	expectKind(t, s, "ERASE x one", KindExpectedArray)
}

func TestResizePadsWithZeroValues(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		`STORE s ARRAY_OF_STRING("a")`,
		"STORE b ARRAY_OF_BOOLEAN(true)",
		"STORE n ARRAY_OF_NUMBER(1.5)",
		"STORE two INTEGER(2)",
		"RESIZE s two",
		"RESIZE b two",
		"RESIZE n two",
	)
	if v := load(t, s, "s"); !Equal(v, ArrayOfString{"a", ""}) {
		t.Errorf("Expected [a, \"\"], got %v", v)
	}
	if v := load(t, s, "b"); !Equal(v, ArrayOfBoolean{true, false}) {
		t.Errorf("Expected [true, false], got %v", v)
	}
	if v := load(t, s, "n"); !Equal(v, ArrayOfNumber{1.5, 0}) {
		t.Errorf("Expected [1.5, 0.0], got %v", v)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestPrintOutputError(t *testing.T) {
	s := NewSession(failingWriter{}, nil)
	feed(t, s, "STORE x INTEGER(1)")
	expectKind(t, s, "PRINT x", KindOutputBufferError)
}

func TestCallDepthExceeded(t *testing.T) {
	s, _ := newTestSession()
	s.MaxCallDepth = 50
	feed(t, s, "<loop>", "CALL loop", "</loop>")

	err := expectKind(t, s, "CALL loop", KindCallDepthExceeded)
	if !IsFatal(err) {
		t.Error("Call depth errors must be fatal")
	}
	if len(s.Trace()) != 50 {
		t.Errorf("Expected a trace of 50 calls, got %d", len(s.Trace()))
	}

	// The session is still usable afterwards.
	feed(t, s, "STORE x INTEGER(1)")
}

func TestErrorTraceThroughRoutines(t *testing.T) {
	s, _ := newTestSession()
	feed(t, s,
		"<inner>", "PRINT missing", "</inner>",
		"<outer>", "CALL inner", "</outer>",
	)
	expectKind(t, s, "CALL outer", KindVariableDoesNotExist)
	if got := s.Trace(); !slices.Equal(got, []string{"outer", "inner"}) {
		t.Errorf("Expected [outer inner], got %v", got)
	}

	feed(t, s, "STORE ok INTEGER(1)")
	if len(s.Trace()) != 0 {
		t.Errorf("Expected trace to reset, got %v", s.Trace())
	}
}

func TestArrayLengthLimit(t *testing.T) {
	s, _ := newTestSession()
	s.MaxArrayLength = 3
	feed(t, s,
		"STORE a ARRAY_OF_INTEGER(1,2)",
		"STORE big INTEGER(9223372036854775807)",
		"STORE one INTEGER(1)",
		"STORE three INTEGER(3)",
		"STORE four INTEGER(4)",
		"STORE x INTEGER(7)",
	)

	err := expectKind(t, s, "RESIZE a big", KindArrayTooLarge)
	var vmErr *VMError
	if errors.As(err, &vmErr) && (vmErr.ArraySize != math.MaxInt || vmErr.Limit != 3) {
		t.Errorf("Expected size %d and limit 3, got %d and %d", math.MaxInt, vmErr.ArraySize, vmErr.Limit)
	}
	if IsFatal(err) {
		t.Error("An oversized array must not be fatal")
	}
	expectKind(t, s, "RESIZE a four", KindArrayTooLarge)
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{1, 2}) {
		t.Errorf("A rejected RESIZE must leave the array alone, got %v", v)
	}

	feed(t, s, "RESIZE a three")
	expectKind(t, s, "PUSH_BACK a x", KindArrayTooLarge)
	expectKind(t, s, "INSERT a one x", KindArrayTooLarge)
	if v := load(t, s, "a"); !Equal(v, ArrayOfInteger{1, 2, 0}) {
		t.Errorf("Expected [1, 2, 0], got %v", v)
	}
	feed(t, s, "ERASE a one", "PUSH_BACK a x")
	expectKind(t, s, "RESIZE x big", KindExpectedArray)
}

func TestStepLimit(t *testing.T) {
	s, out := newTestSession()
	s.MaxSteps = 100
	feed(t, s,
		"<fork>", "CALL fork", "CALL fork", "</fork>",
		"<count>", "PRINT x", "</count>",
		"STORE x INTEGER(1)",
	)

	err := expectKind(t, s, "CALL fork", KindStepLimitExceeded)
	if !IsFatal(err) {
		t.Error("Step limit errors must be fatal")
	}
	if len(s.Trace()) != 100 {
		t.Errorf("Expected a trace of 100 calls, got %d", len(s.Trace()))
	}

	// The budget is per line.
	for i := 0; i < 3; i++ {
		feed(t, s, "CALL count")
	}
	if out.String() != "111" {
		t.Errorf("Expected 111, got %q", out.String())
	}
}
