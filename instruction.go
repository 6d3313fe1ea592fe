package topflight

import "strings"

// Instruction is one parsed operation. The set is closed: every kind is a
// struct declared in this file, and the executor switches over all of them.
type Instruction interface {
	// Name is the instruction keyword as written in scripts.
	Name() string
	// operands renders the operand slots in declaration order.
	operands() []string
}

// FormatInstruction renders in back to a script line.
func FormatInstruction(in Instruction) string {
	ops := in.operands()
	if len(ops) == 0 {
		return in.Name()
	}
	return in.Name() + " " + strings.Join(ops, " ")
}

// Misc

type Store struct {
	Dest  string
	Value Value
}

type Copy struct{ Input, Dest string }

type Free struct{ Dest string }

type Print struct{ Input string }

type Call struct{ Routine string }

type CallIf struct{ Routine, Condition string }

// Arithmetic

type Add struct{ A, B, Dest string }

type Substract struct{ A, B, Dest string }

type Multiply struct{ A, B, Dest string }

type Divide struct{ A, B, Dest string }

type Modulo struct{ A, B, Dest string }

// Logical

type LogicalAnd struct{ A, B, Dest string }

type LogicalOr struct{ A, B, Dest string }

type LogicalNot struct{ Input, Dest string }

// Comparison

type CompareEqual struct{ A, B, Dest string }

type CompareDifferent struct{ A, B, Dest string }

type CompareLess struct{ A, B, Dest string }

type CompareLessOrEqual struct{ A, B, Dest string }

type CompareGreater struct{ A, B, Dest string }

type CompareGreaterOrEqual struct{ A, B, Dest string }

// Arrays. Index operands name a variable holding an Integer.

type GetAt struct{ Array, Index, Output string }

type StoreAt struct {
	Array, Index string
	Value        Value
}

type CopyAt struct{ Array, Index, Input string }

type Size struct{ Array, Output string }

type Resize struct{ Array, NewSize string }

type Insert struct{ Array, Index, Input string }

type PushBack struct{ Array, Input string }

type Concat struct{ A, B, Dest string }

type Erase struct{ Array, Index string }

func (Store) Name() string                 { return "STORE" }
func (Copy) Name() string                  { return "COPY" }
func (Free) Name() string                  { return "FREE" }
func (Print) Name() string                 { return "PRINT" }
func (Call) Name() string                  { return "CALL" }
func (CallIf) Name() string                { return "CALL_IF" }
func (Add) Name() string                   { return "ADD" }
func (Substract) Name() string             { return "SUBSTRACT" }
func (Multiply) Name() string              { return "MULTIPLY" }
func (Divide) Name() string                { return "DIVIDE" }
func (Modulo) Name() string                { return "MODULO" }
func (LogicalAnd) Name() string            { return "LOGICAL_AND" }
func (LogicalOr) Name() string             { return "LOGICAL_OR" }
func (LogicalNot) Name() string            { return "LOGICAL_NOT" }
func (CompareEqual) Name() string          { return "COMPARE_EQUAL" }
func (CompareDifferent) Name() string      { return "COMPARE_DIFFERENT" }
func (CompareLess) Name() string           { return "COMPARE_LESS" }
func (CompareLessOrEqual) Name() string    { return "COMPARE_LESS_OR_EQUAL" }
func (CompareGreater) Name() string        { return "COMPARE_GREATER" }
func (CompareGreaterOrEqual) Name() string { return "COMPARE_GREATER_OR_EQUAL" }
func (GetAt) Name() string                 { return "GET_AT" }
func (StoreAt) Name() string               { return "STORE_AT" }
func (CopyAt) Name() string                { return "COPY_AT" }
func (Size) Name() string                  { return "SIZE" }
func (Resize) Name() string                { return "RESIZE" }
func (Insert) Name() string                { return "INSERT" }
func (PushBack) Name() string              { return "PUSH_BACK" }
func (Concat) Name() string                { return "CONCAT" }
func (Erase) Name() string                 { return "ERASE" }

func (i Store) operands() []string        { return []string{i.Dest, FormatLiteral(i.Value)} }
func (i Copy) operands() []string         { return []string{i.Input, i.Dest} }
func (i Free) operands() []string         { return []string{i.Dest} }
func (i Print) operands() []string        { return []string{i.Input} }
func (i Call) operands() []string         { return []string{i.Routine} }
func (i CallIf) operands() []string       { return []string{i.Routine, i.Condition} }
func (i Add) operands() []string          { return []string{i.A, i.B, i.Dest} }
func (i Substract) operands() []string    { return []string{i.A, i.B, i.Dest} }
func (i Multiply) operands() []string     { return []string{i.A, i.B, i.Dest} }
func (i Divide) operands() []string       { return []string{i.A, i.B, i.Dest} }
func (i Modulo) operands() []string       { return []string{i.A, i.B, i.Dest} }
func (i LogicalAnd) operands() []string   { return []string{i.A, i.B, i.Dest} }
func (i LogicalOr) operands() []string    { return []string{i.A, i.B, i.Dest} }
func (i LogicalNot) operands() []string   { return []string{i.Input, i.Dest} }
func (i CompareEqual) operands() []string { return []string{i.A, i.B, i.Dest} }
func (i CompareDifferent) operands() []string {
	return []string{i.A, i.B, i.Dest}
}
func (i CompareLess) operands() []string { return []string{i.A, i.B, i.Dest} }
func (i CompareLessOrEqual) operands() []string {
	return []string{i.A, i.B, i.Dest}
}
func (i CompareGreater) operands() []string { return []string{i.A, i.B, i.Dest} }
func (i CompareGreaterOrEqual) operands() []string {
	return []string{i.A, i.B, i.Dest}
}
func (i GetAt) operands() []string    { return []string{i.Array, i.Index, i.Output} }
func (i StoreAt) operands() []string  { return []string{i.Array, i.Index, FormatLiteral(i.Value)} }
func (i CopyAt) operands() []string   { return []string{i.Array, i.Index, i.Input} }
func (i Size) operands() []string     { return []string{i.Array, i.Output} }
func (i Resize) operands() []string   { return []string{i.Array, i.NewSize} }
func (i Insert) operands() []string   { return []string{i.Array, i.Index, i.Input} }
func (i PushBack) operands() []string { return []string{i.Array, i.Input} }
func (i Concat) operands() []string   { return []string{i.A, i.B, i.Dest} }
func (i Erase) operands() []string    { return []string{i.Array, i.Index} }
