package topflight

import (
	"maps"
	"slices"
)

// Memory is the variable store of one session.
type Memory struct {
	values map[string]Value
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]Value)}
}

// Store inserts or overwrites name.
func (m *Memory) Store(name string, v Value) {
	m.values[name] = v
}

// Load returns the value held by name. Arrays are returned as stored;
// callers that keep or mutate the value must Clone it.
func (m *Memory) Load(name string) (Value, error) {
	v, ok := m.values[name]
	if !ok {
		return nil, variableDoesNotExist(name)
	}
	return v, nil
}

// Update replaces the value of an existing variable with the result of fn.
// Nothing is written when fn fails.
func (m *Memory) Update(name string, fn func(Value) (Value, error)) error {
	v, ok := m.values[name]
	if !ok {
		return variableDoesNotExist(name)
	}
	nv, err := fn(v)
	if err != nil {
		return err
	}
	m.values[name] = nv
	return nil
}

func (m *Memory) Free(name string) error {
	if _, ok := m.values[name]; !ok {
		return variableDoesNotExist(name)
	}
	delete(m.values, name)
	return nil
}

// LoadIndex resolves an index operand. The variable must hold an Integer
// strictly greater than zero; the value is returned unchanged as an offset.
func (m *Memory) LoadIndex(name string) (int, error) {
	v, err := m.Load(name)
	if err != nil {
		return 0, err
	}
	i, ok := v.(Integer)
	if !ok {
		return 0, &VMError{Code: KindNonIntegerIndex, Name: name, Values: []Value{v}}
	}
	if i <= 0 {
		return 0, &VMError{Code: KindNegativeIndex, Name: name, Values: []Value{v}}
	}
	return int(i), nil
}

// Names returns the defined variable names, sorted.
func (m *Memory) Names() []string {
	return slices.Sorted(maps.Keys(m.values))
}

func (m *Memory) Len() int { return len(m.values) }
