package topflight

import (
	"io"
	"slices"
)

// DefaultMaxCallDepth bounds nested CALL/CALL_IF when no limit is configured.
const DefaultMaxCallDepth = 10000

// DefaultMaxArrayLength bounds the element count RESIZE, INSERT and
// PUSH_BACK may produce when no limit is configured.
const DefaultMaxArrayLength = 1 << 24

// Machine executes instructions against one variable store and routine
// table. Routines run in the caller's store; there are no frames.
type Machine struct {
	Memory   *Memory
	Routines RoutineTable
	Output   io.Writer
	// MaxCallDepth is the deepest allowed routine nesting. Zero or less
	// selects DefaultMaxCallDepth.
	MaxCallDepth int
	// MaxArrayLength is the largest array RESIZE, INSERT and PUSH_BACK may
	// produce. Zero or less selects DefaultMaxArrayLength.
	MaxArrayLength int
	// MaxSteps bounds the instructions one Execute may run, routine bodies
	// included. Zero means unlimited.
	MaxSteps int

	logger *Logger
	steps  int
	stack  []string // active routine calls, outermost first
	trace  []string // stack at the point the last Execute failed
	traced bool
}

// NewMachine creates a machine with an empty store and routine table.
func NewMachine(out io.Writer, logger *Logger) *Machine {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = NewLogger(false)
	}
	return &Machine{
		Memory:       NewMemory(),
		Routines:     make(RoutineTable),
		Output:       out,
		MaxCallDepth: DefaultMaxCallDepth,
		logger:       logger,
	}
}

// Execute runs one instruction. Errors raised inside called routines are
// returned unchanged.
func (m *Machine) Execute(in Instruction) error {
	m.stack = m.stack[:0]
	m.trace, m.traced = nil, false
	m.steps = 0
	return m.exec(in)
}

// Trace returns the routine call chain that was active when the last
// Execute failed, outermost first.
func (m *Machine) Trace() []string {
	return m.trace
}

func (m *Machine) exec(in Instruction) error {
	if m.logger.Enabled() {
		m.logger.TraceCat(CatRoutine, "%s", FormatInstruction(in))
	}
	var err error
	m.steps++
	if m.MaxSteps > 0 && m.steps > m.MaxSteps {
		err = &VMError{Code: KindStepLimitExceeded, Limit: m.MaxSteps}
	} else {
		err = m.dispatch(in)
	}
	if err != nil && !m.traced {
		m.trace, m.traced = slices.Clone(m.stack), true
	}
	return err
}

func (m *Machine) dispatch(in Instruction) error {
	mem := m.Memory
	switch in := in.(type) {
	case Store:
		mem.Store(in.Dest, Clone(in.Value))
	case Copy:
		v, err := mem.Load(in.Input)
		if err != nil {
			return err
		}
		mem.Store(in.Dest, Clone(v))
	case Free:
		return mem.Free(in.Dest)
	case Print:
		v, err := mem.Load(in.Input)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(m.Output, v.String()); err != nil {
			return &VMError{Code: KindOutputBufferError, Err: err}
		}
	case Call:
		return m.call(in.Routine)
	case CallIf:
		v, err := mem.Load(in.Condition)
		if err != nil {
			return err
		}
		cond, ok := v.(Boolean)
		if !ok {
			return &VMError{Code: KindExpectedBoolean, Name: in.Condition, Values: []Value{v}}
		}
		if cond {
			return m.call(in.Routine)
		}

	case Add:
		return m.arithmetic(in.A, in.B, in.Dest, "Addition",
			func(a, b Integer) (Integer, bool) { return a + b, true },
			func(a, b Number) Number { return a + b })
	case Substract:
		return m.arithmetic(in.A, in.B, in.Dest, "Substraction",
			func(a, b Integer) (Integer, bool) { return a - b, true },
			func(a, b Number) Number { return a - b })
	case Multiply:
		return m.arithmetic(in.A, in.B, in.Dest, "Multiplication",
			func(a, b Integer) (Integer, bool) { return a * b, true },
			func(a, b Number) Number { return a * b })
	case Divide:
		return m.arithmetic(in.A, in.B, in.Dest, "Division",
			func(a, b Integer) (Integer, bool) {
				if b == 0 {
					return 0, false
				}
				return a / b, true
			},
			func(a, b Number) Number { return a / b })
	case Modulo:
		return m.arithmetic(in.A, in.B, in.Dest, "Modulo",
			func(a, b Integer) (Integer, bool) {
				if b == 0 {
					return 0, false
				}
				return a % b, true
			},
			nil)

	case LogicalAnd:
		return m.logical(in.A, in.B, in.Dest, func(a, b Boolean) Boolean { return a && b })
	case LogicalOr:
		return m.logical(in.A, in.B, in.Dest, func(a, b Boolean) Boolean { return a || b })
	case LogicalNot:
		v, err := mem.Load(in.Input)
		if err != nil {
			return err
		}
		b, ok := v.(Boolean)
		if !ok {
			return &VMError{Code: KindExpectedBoolean, Name: in.Input, Values: []Value{v}}
		}
		mem.Store(in.Dest, !b)

	case CompareEqual:
		return m.compare(in.A, in.B, in.Dest, func(a, b Value) bool { return Equal(a, b) })
	case CompareDifferent:
		return m.compare(in.A, in.B, in.Dest, func(a, b Value) bool { return !Equal(a, b) })
	case CompareLess:
		return m.compare(in.A, in.B, in.Dest, ordered(func(c int) bool { return c < 0 }))
	case CompareLessOrEqual:
		return m.compare(in.A, in.B, in.Dest, ordered(func(c int) bool { return c <= 0 }))
	case CompareGreater:
		return m.compare(in.A, in.B, in.Dest, ordered(func(c int) bool { return c > 0 }))
	case CompareGreaterOrEqual:
		return m.compare(in.A, in.B, in.Dest, ordered(func(c int) bool { return c >= 0 }))

	case GetAt:
		return m.getAt(in)
	case StoreAt:
		return m.storeAt(in.Array, in.Index, Clone(in.Value))
	case CopyAt:
		v, err := mem.Load(in.Input)
		if err != nil {
			return err
		}
		return m.storeAt(in.Array, in.Index, Clone(v))
	case Size:
		v, err := mem.Load(in.Array)
		if err != nil {
			return err
		}
		n, ok := arrayLen(v)
		if !ok {
			return &VMError{Code: KindExpectedArray, Name: in.Array, Values: []Value{v}}
		}
		mem.Store(in.Output, Integer(n))
	case Resize:
		return m.resize(in)
	case Insert:
		return m.insert(in)
	case PushBack:
		return m.pushBack(in)
	case Concat:
		a, err := mem.Load(in.A)
		if err != nil {
			return err
		}
		b, err := mem.Load(in.B)
		if err != nil {
			return err
		}
		sa, okA := a.(String)
		sb, okB := b.(String)
		if !okA || !okB {
			return mismatchingTypes(a, b)
		}
		mem.Store(in.Dest, sa+sb)
	case Erase:
		return m.erase(in)
	}
	return nil
}

func (m *Machine) arrayLimit() int {
	if m.MaxArrayLength <= 0 {
		return DefaultMaxArrayLength
	}
	return m.MaxArrayLength
}

// checkGrowth fails when arr would exceed the array length limit after
// growing to size elements. Non-arrays pass so the caller reports them.
func (m *Machine) checkGrowth(arr Value, size int) error {
	if _, ok := arrayLen(arr); !ok {
		return nil
	}
	if limit := m.arrayLimit(); size > limit {
		return arrayTooLarge(size, limit)
	}
	return nil
}

func (m *Machine) call(name string) error {
	r, err := m.Routines.Lookup(name)
	if err != nil {
		return err
	}
	limit := m.MaxCallDepth
	if limit <= 0 {
		limit = DefaultMaxCallDepth
	}
	if len(m.stack) >= limit {
		return &VMError{Code: KindCallDepthExceeded, Name: name, Depth: limit}
	}

	m.stack = append(m.stack, name)
	if m.logger.Enabled() {
		m.logger.DebugCat(CatRoutine, "enter routine %s (depth %d)", name, len(m.stack))
	}
	for _, in := range r.Instructions {
		if err := m.exec(in); err != nil {
			return err
		}
	}
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// arithmetic applies the Integer or Number form of an operator. A nil
// number function restricts the operator to Integers. The integer function
// reports false for a zero divisor.
func (m *Machine) arithmetic(a, b, dest, opName string, ints func(a, b Integer) (Integer, bool), nums func(a, b Number) Number) error {
	va, err := m.Memory.Load(a)
	if err != nil {
		return err
	}
	vb, err := m.Memory.Load(b)
	if err != nil {
		return err
	}

	var result Value
	switch x := va.(type) {
	case Integer:
		if y, ok := vb.(Integer); ok {
			r, ok := ints(x, y)
			if !ok {
				return &VMError{Code: KindDivisionByZero, Name: opName, Values: []Value{va, vb}}
			}
			result = r
		}
	case Number:
		if y, ok := vb.(Number); ok && nums != nil {
			result = nums(x, y)
		}
	}
	if result == nil {
		return &VMError{Code: KindExpectedArithmeticTypes, Values: []Value{va, vb}}
	}
	if m.logger.Enabled() {
		m.logger.TraceCat(CatMath, "%s %s %s -> %s", opName, va, vb, result)
	}
	m.Memory.Store(dest, result)
	return nil
}

func (m *Machine) logical(a, b, dest string, op func(a, b Boolean) Boolean) error {
	va, err := m.Memory.Load(a)
	if err != nil {
		return err
	}
	vb, err := m.Memory.Load(b)
	if err != nil {
		return err
	}
	x, okA := va.(Boolean)
	y, okB := vb.(Boolean)
	if !okA || !okB {
		return mismatchingTypes(va, vb)
	}
	m.Memory.Store(dest, op(x, y))
	return nil
}

// ordered adapts an ordering test to compare; unordered pairs are false.
func ordered(test func(c int) bool) func(a, b Value) bool {
	return func(a, b Value) bool {
		c, ok := Compare(a, b)
		return ok && test(c)
	}
}

func (m *Machine) compare(a, b, dest string, pred func(a, b Value) bool) error {
	va, err := m.Memory.Load(a)
	if err != nil {
		return err
	}
	vb, err := m.Memory.Load(b)
	if err != nil {
		return err
	}
	if va.Type() != vb.Type() {
		return mismatchingTypes(va, vb)
	}
	m.Memory.Store(dest, Boolean(pred(va, vb)))
	return nil
}
