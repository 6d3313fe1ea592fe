package topflight

import (
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// OperandKind tells how an operand slot is read from the line.
type OperandKind int

const (
	// OperandVariable is a variable or routine name, bounded by a space
	// except in the final slot, which runs to end of line.
	OperandVariable OperandKind = iota
	// OperandValue is an inline literal, bounded by its own grammar.
	OperandValue
)

type instructionSpec struct {
	operands []OperandKind
	build    func(names []string, value Value) Instruction
}

var (
	unary   = []OperandKind{OperandVariable}
	binary  = []OperandKind{OperandVariable, OperandVariable}
	ternary = []OperandKind{OperandVariable, OperandVariable, OperandVariable}
)

var instructionTable = map[string]instructionSpec{
	"STORE": {[]OperandKind{OperandVariable, OperandValue}, func(n []string, v Value) Instruction {
		return Store{Dest: n[0], Value: v}
	}},
	"COPY": {binary, func(n []string, _ Value) Instruction {
		return Copy{Input: n[0], Dest: n[1]}
	}},
	"FREE": {unary, func(n []string, _ Value) Instruction {
		return Free{Dest: n[0]}
	}},
	"PRINT": {unary, func(n []string, _ Value) Instruction {
		return Print{Input: n[0]}
	}},
	"CALL": {unary, func(n []string, _ Value) Instruction {
		return Call{Routine: n[0]}
	}},
	"CALL_IF": {binary, func(n []string, _ Value) Instruction {
		return CallIf{Routine: n[0], Condition: n[1]}
	}},
	"ADD": {ternary, func(n []string, _ Value) Instruction {
		return Add{A: n[0], B: n[1], Dest: n[2]}
	}},
	"SUBSTRACT": {ternary, func(n []string, _ Value) Instruction {
		return Substract{A: n[0], B: n[1], Dest: n[2]}
	}},
	"MULTIPLY": {ternary, func(n []string, _ Value) Instruction {
		return Multiply{A: n[0], B: n[1], Dest: n[2]}
	}},
	"DIVIDE": {ternary, func(n []string, _ Value) Instruction {
		return Divide{A: n[0], B: n[1], Dest: n[2]}
	}},
	"MODULO": {ternary, func(n []string, _ Value) Instruction {
		return Modulo{A: n[0], B: n[1], Dest: n[2]}
	}},
	"LOGICAL_AND": {ternary, func(n []string, _ Value) Instruction {
		return LogicalAnd{A: n[0], B: n[1], Dest: n[2]}
	}},
	"LOGICAL_OR": {ternary, func(n []string, _ Value) Instruction {
		return LogicalOr{A: n[0], B: n[1], Dest: n[2]}
	}},
	"LOGICAL_NOT": {binary, func(n []string, _ Value) Instruction {
		return LogicalNot{Input: n[0], Dest: n[1]}
	}},
	"COMPARE_EQUAL": {ternary, func(n []string, _ Value) Instruction {
		return CompareEqual{A: n[0], B: n[1], Dest: n[2]}
	}},
	"COMPARE_DIFFERENT": {ternary, func(n []string, _ Value) Instruction {
		return CompareDifferent{A: n[0], B: n[1], Dest: n[2]}
	}},
	"COMPARE_LESS": {ternary, func(n []string, _ Value) Instruction {
		return CompareLess{A: n[0], B: n[1], Dest: n[2]}
	}},
	"COMPARE_LESS_OR_EQUAL": {ternary, func(n []string, _ Value) Instruction {
		return CompareLessOrEqual{A: n[0], B: n[1], Dest: n[2]}
	}},
	"COMPARE_GREATER": {ternary, func(n []string, _ Value) Instruction {
		return CompareGreater{A: n[0], B: n[1], Dest: n[2]}
	}},
	"COMPARE_GREATER_OR_EQUAL": {ternary, func(n []string, _ Value) Instruction {
		return CompareGreaterOrEqual{A: n[0], B: n[1], Dest: n[2]}
	}},
	"GET_AT": {ternary, func(n []string, _ Value) Instruction {
		return GetAt{Array: n[0], Index: n[1], Output: n[2]}
	}},
	"STORE_AT": {[]OperandKind{OperandVariable, OperandVariable, OperandValue}, func(n []string, v Value) Instruction {
		return StoreAt{Array: n[0], Index: n[1], Value: v}
	}},
	"COPY_AT": {ternary, func(n []string, _ Value) Instruction {
		return CopyAt{Array: n[0], Index: n[1], Input: n[2]}
	}},
	"SIZE": {binary, func(n []string, _ Value) Instruction {
		return Size{Array: n[0], Output: n[1]}
	}},
	"RESIZE": {binary, func(n []string, _ Value) Instruction {
		return Resize{Array: n[0], NewSize: n[1]}
	}},
	"INSERT": {ternary, func(n []string, _ Value) Instruction {
		return Insert{Array: n[0], Index: n[1], Input: n[2]}
	}},
	"PUSH_BACK": {binary, func(n []string, _ Value) Instruction {
		return PushBack{Array: n[0], Input: n[1]}
	}},
	"CONCAT": {ternary, func(n []string, _ Value) Instruction {
		return Concat{A: n[0], B: n[1], Dest: n[2]}
	}},
	"ERASE": {binary, func(n []string, _ Value) Instruction {
		return Erase{Array: n[0], Index: n[1]}
	}},
}

// InstructionNames lists every instruction keyword, sorted.
func InstructionNames() []string {
	names := make([]string, 0, len(instructionTable))
	for name := range instructionTable {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InstructionOperands returns the operand layout of a keyword.
func InstructionOperands(name string) ([]OperandKind, bool) {
	spec, ok := instructionTable[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(spec.operands), true
}

// ParseInstruction parses an instruction line `NAME operand operand ...`.
//
// Operands are separated by single spaces. Variable operands may be empty
// when two separators are adjacent; the final variable operand keeps any
// spaces it contains. Text after an inline literal is ignored.
func ParseInstruction(line string) (Instruction, error) {
	name, rest, _ := strings.Cut(line, " ")
	spec, ok := instructionTable[name]
	if !ok {
		return nil, &InstructionError{Name: name, Suggestion: suggestInstruction(name)}
	}

	names := make([]string, 0, len(spec.operands))
	var value Value
	for i, kind := range spec.operands {
		last := i == len(spec.operands)-1
		switch kind {
		case OperandVariable:
			if last {
				names = append(names, rest)
				rest = ""
				continue
			}
			var tok string
			tok, rest, _ = strings.Cut(rest, " ")
			names = append(names, tok)
		case OperandValue:
			v, tail, err := ParseValue(rest)
			if err != nil {
				return nil, err
			}
			value, rest = v, tail
		}
	}
	return spec.build(names, value), nil
}

// suggestInstruction finds the closest known keyword to name.
func suggestInstruction(name string) string {
	if name == "" {
		return ""
	}
	candidates := InstructionNames()

	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	// Typos that add or swap letters are not subsequences of any keyword.
	upper := strings.ToUpper(name)
	best, bestDist := "", len(upper)/3+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(upper, c); d <= bestDist && (best == "" || d < bestDist) {
			best, bestDist = c, d
		}
	}
	return best
}
