package topflight

import "slices"

// array is satisfied by the four array variants, with E their element type.
type array[E Value] interface {
	~[]E
	Value
}

func (m *Machine) getAt(in GetAt) error {
	arr, err := m.Memory.Load(in.Array)
	if err != nil {
		return err
	}
	index, err := m.Memory.LoadIndex(in.Index)
	if err != nil {
		return err
	}

	var v Value
	switch a := arr.(type) {
	case ArrayOfInteger:
		v, err = elementAt(a, index)
	case ArrayOfNumber:
		v, err = elementAt(a, index)
	case ArrayOfString:
		v, err = elementAt(a, index)
	case ArrayOfBoolean:
		v, err = elementAt(a, index)
	default:
		return &VMError{Code: KindExpectedArray, Name: in.Array, Values: []Value{arr}}
	}
	if err != nil {
		return err
	}
	m.Memory.Store(in.Output, v)
	return nil
}

// storeAt overwrites one element. The index is resolved before the array.
func (m *Machine) storeAt(name, indexName string, v Value) error {
	index, err := m.Memory.LoadIndex(indexName)
	if err != nil {
		return err
	}
	return m.Memory.Update(name, func(arr Value) (Value, error) {
		switch a := arr.(type) {
		case ArrayOfInteger:
			return setElement(a, v, index)
		case ArrayOfNumber:
			return setElement(a, v, index)
		case ArrayOfString:
			return setElement(a, v, index)
		case ArrayOfBoolean:
			return setElement(a, v, index)
		}
		return nil, mismatchingTypes(arr, v)
	})
}

func (m *Machine) resize(in Resize) error {
	size, err := m.Memory.LoadIndex(in.NewSize)
	if err != nil {
		return err
	}
	return m.Memory.Update(in.Array, func(arr Value) (Value, error) {
		if err := m.checkGrowth(arr, size); err != nil {
			return nil, err
		}
		switch a := arr.(type) {
		case ArrayOfInteger:
			return resized(a, size), nil
		case ArrayOfNumber:
			return resized(a, size), nil
		case ArrayOfString:
			return resized(a, size), nil
		case ArrayOfBoolean:
			return resized(a, size), nil
		}
		return nil, &VMError{Code: KindExpectedArray, Name: in.Array, Values: []Value{arr}}
	})
}

// insert loads the inserted value, then the index, then the array.
func (m *Machine) insert(in Insert) error {
	v, err := m.Memory.Load(in.Input)
	if err != nil {
		return err
	}
	v = Clone(v)
	index, err := m.Memory.LoadIndex(in.Index)
	if err != nil {
		return err
	}
	return m.Memory.Update(in.Array, func(arr Value) (Value, error) {
		if n, ok := arrayLen(arr); ok && index < n {
			if err := m.checkGrowth(arr, n+1); err != nil {
				return nil, err
			}
		}
		switch a := arr.(type) {
		case ArrayOfInteger:
			return insertElement(a, v, index)
		case ArrayOfNumber:
			return insertElement(a, v, index)
		case ArrayOfString:
			return insertElement(a, v, index)
		case ArrayOfBoolean:
			return insertElement(a, v, index)
		}
		return nil, mismatchingTypes(arr, v)
	})
}

func (m *Machine) pushBack(in PushBack) error {
	v, err := m.Memory.Load(in.Input)
	if err != nil {
		return err
	}
	v = Clone(v)
	return m.Memory.Update(in.Array, func(arr Value) (Value, error) {
		if n, ok := arrayLen(arr); ok {
			if err := m.checkGrowth(arr, n+1); err != nil {
				return nil, err
			}
		}
		switch a := arr.(type) {
		case ArrayOfInteger:
			return appendElement(a, v)
		case ArrayOfNumber:
			return appendElement(a, v)
		case ArrayOfString:
			return appendElement(a, v)
		case ArrayOfBoolean:
			return appendElement(a, v)
		}
		return nil, mismatchingTypes(arr, v)
	})
}

func (m *Machine) erase(in Erase) error {
	index, err := m.Memory.LoadIndex(in.Index)
	if err != nil {
		return err
	}
	return m.Memory.Update(in.Array, func(arr Value) (Value, error) {
		switch a := arr.(type) {
		case ArrayOfInteger:
			return eraseElement(a, index)
		case ArrayOfNumber:
			return eraseElement(a, index)
		case ArrayOfString:
			return eraseElement(a, index)
		case ArrayOfBoolean:
			return eraseElement(a, index)
		}
		return nil, &VMError{Code: KindExpectedArray, Name: in.Array, Values: []Value{arr}}
	})
}

func elementAt[S array[E], E Value](arr S, index int) (Value, error) {
	if index >= len(arr) {
		return nil, indexOutOfBound(index, len(arr))
	}
	return arr[index], nil
}

// setElement requires v to have the array's element type; the type check
// comes before the bounds check.
func setElement[S array[E], E Value](arr S, v Value, index int) (Value, error) {
	e, ok := v.(E)
	if !ok {
		return nil, mismatchingTypes(arr, v)
	}
	if index >= len(arr) {
		return nil, indexOutOfBound(index, len(arr))
	}
	arr[index] = e
	return arr, nil
}

// insertElement only accepts positions that already hold an element.
func insertElement[S array[E], E Value](arr S, v Value, index int) (Value, error) {
	e, ok := v.(E)
	if !ok {
		return nil, mismatchingTypes(arr, v)
	}
	if index >= len(arr) {
		return nil, indexOutOfBound(index, len(arr))
	}
	return slices.Insert(arr, index, e), nil
}

func appendElement[S array[E], E Value](arr S, v Value) (Value, error) {
	e, ok := v.(E)
	if !ok {
		return nil, mismatchingTypes(arr, v)
	}
	return append(arr, e), nil
}

func eraseElement[S array[E], E Value](arr S, index int) (Value, error) {
	if index >= len(arr) {
		return nil, indexOutOfBound(index, len(arr))
	}
	return slices.Delete(arr, index, index+1), nil
}

// resized truncates or pads with the element type's zero value.
func resized[S array[E], E Value](arr S, size int) Value {
	out := make(S, size)
	copy(out, arr)
	return out
}
