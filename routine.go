package topflight

import (
	"maps"
	"slices"
)

// Routine is a named instruction list. It is not modified once committed to
// a RoutineTable.
type Routine struct {
	Name         string
	Instructions []Instruction
}

// RoutineTable maps routine names to their committed definitions.
type RoutineTable map[string]*Routine

// Define commits r, replacing any routine of the same name.
func (t RoutineTable) Define(r *Routine) {
	t[r.Name] = r
}

func (t RoutineTable) Lookup(name string) (*Routine, error) {
	r, ok := t[name]
	if !ok {
		return nil, &VMError{Code: KindRoutineDoesNotExist, Name: name}
	}
	return r, nil
}

// Names returns the defined routine names, sorted.
func (t RoutineTable) Names() []string {
	return slices.Sorted(maps.Keys(t))
}
