package topflight

import (
	"errors"
	"testing"
)

func TestMemoryStoreLoadFree(t *testing.T) {
	m := NewMemory()
	m.Store("x", Integer(1))
	m.Store("x", String("over"))

	v, err := m.Load("x")
	if err != nil || v != String("over") {
		t.Fatalf("Expected overwritten value, got %v, %v", v, err)
	}
	if err := m.Free("x"); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if _, err := m.Load("x"); !errors.Is(err, KindVariableDoesNotExist) {
		t.Errorf("Expected VariableDoesNotExist, got %v", err)
	}
	if err := m.Free("x"); !errors.Is(err, KindVariableDoesNotExist) {
		t.Errorf("Expected VariableDoesNotExist on double free, got %v", err)
	}
}

func TestMemoryUpdateWritesOnlyOnSuccess(t *testing.T) {
	m := NewMemory()
	m.Store("n", Integer(1))

	err := m.Update("n", func(Value) (Value, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("Expected error from update")
	}
	if v, _ := m.Load("n"); v != Integer(1) {
		t.Errorf("Failed update changed the value to %v", v)
	}

	if err := m.Update("n", func(v Value) (Value, error) { return v.(Integer) + 1, nil }); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Load("n"); v != Integer(2) {
		t.Errorf("Expected 2, got %v", v)
	}
	if err := m.Update("missing", func(v Value) (Value, error) { return v, nil }); !errors.Is(err, KindVariableDoesNotExist) {
		t.Errorf("Expected VariableDoesNotExist, got %v", err)
	}
}

func TestMemoryLoadIndex(t *testing.T) {
	m := NewMemory()
	m.Store("one", Integer(1))
	m.Store("zero", Integer(0))
	m.Store("neg", Integer(-4))
	m.Store("num", Number(1))

	if i, err := m.LoadIndex("one"); err != nil || i != 1 {
		t.Errorf("Expected 1, got %d, %v", i, err)
	}
	if _, err := m.LoadIndex("zero"); !errors.Is(err, KindNegativeIndex) {
		t.Errorf("Expected NegativeIndex for 0, got %v", err)
	}
	if _, err := m.LoadIndex("neg"); !errors.Is(err, KindNegativeIndex) {
		t.Errorf("Expected NegativeIndex, got %v", err)
	}
	if _, err := m.LoadIndex("num"); !errors.Is(err, KindNonIntegerIndex) {
		t.Errorf("Expected NonIntegerIndex, got %v", err)
	}
	if _, err := m.LoadIndex("nothing"); !errors.Is(err, KindVariableDoesNotExist) {
		t.Errorf("Expected VariableDoesNotExist, got %v", err)
	}
}

func TestMemoryNames(t *testing.T) {
	m := NewMemory()
	m.Store("b", Integer(1))
	m.Store("a", Integer(2))
	names := m.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" || m.Len() != 2 {
		t.Errorf("Expected [a b], got %v", names)
	}
}

func TestRoutineTable(t *testing.T) {
	rt := make(RoutineTable)
	rt.Define(&Routine{Name: "r", Instructions: []Instruction{Print{Input: "x"}}})
	rt.Define(&Routine{Name: "r"})

	r, err := rt.Lookup("r")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Instructions) != 0 {
		t.Error("Expected redefinition to replace the routine")
	}
	if _, err := rt.Lookup("missing"); !errors.Is(err, KindRoutineDoesNotExist) {
		t.Errorf("Expected RoutineDoesNotExist, got %v", err)
	}
}
