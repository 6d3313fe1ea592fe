package topflight

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Type is the variant tag of a Value. Its string form is the tag used by the
// literal grammar.
type Type int

const (
	TypeInteger Type = iota
	TypeNumber
	TypeChar
	TypeString
	TypeBoolean
	TypeArrayOfInteger
	TypeArrayOfNumber
	TypeArrayOfString
	TypeArrayOfBoolean
)

var typeTags = []string{
	"INTEGER",
	"NUMBER",
	"CHAR",
	"STRING",
	"BOOLEAN",
	"ARRAY_OF_INTEGER",
	"ARRAY_OF_NUMBER",
	"ARRAY_OF_STRING",
	"ARRAY_OF_BOOLEAN",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeTags) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeTags[t]
}

// IsArray reports whether t is one of the array variants.
func (t Type) IsArray() bool {
	return t >= TypeArrayOfInteger
}

// Value is one instance of the closed set of runtime data kinds. The set is
// sealed: only the nine types declared in this file implement it.
//
// String renders the value for PRINT. Scalars use their natural textual
// form; arrays use a bracketed debug list which is not meant to be parsed
// back.
type Value interface {
	Type() Type
	String() string
	isValue()
}

type (
	Integer        int64
	Number         float64
	Char           rune
	String         string
	Boolean        bool
	ArrayOfInteger []Integer
	ArrayOfNumber  []Number
	ArrayOfString  []String
	ArrayOfBoolean []Boolean
)

func (Integer) Type() Type        { return TypeInteger }
func (Number) Type() Type         { return TypeNumber }
func (Char) Type() Type           { return TypeChar }
func (String) Type() Type         { return TypeString }
func (Boolean) Type() Type        { return TypeBoolean }
func (ArrayOfInteger) Type() Type { return TypeArrayOfInteger }
func (ArrayOfNumber) Type() Type  { return TypeArrayOfNumber }
func (ArrayOfString) Type() Type  { return TypeArrayOfString }
func (ArrayOfBoolean) Type() Type { return TypeArrayOfBoolean }

func (Integer) isValue()        {}
func (Number) isValue()         {}
func (Char) isValue()           {}
func (String) isValue()         {}
func (Boolean) isValue()        {}
func (ArrayOfInteger) isValue() {}
func (ArrayOfNumber) isValue()  {}
func (ArrayOfString) isValue()  {}
func (ArrayOfBoolean) isValue() {}

func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Number) String() string  { return formatNumber(float64(v)) }
func (v Char) String() string    { return string(rune(v)) }
func (v String) String() string  { return string(v) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }

func (v ArrayOfInteger) String() string {
	return debugList(v, func(e Integer) string { return e.String() })
}

func (v ArrayOfNumber) String() string {
	return debugList(v, func(e Number) string { return debugNumber(float64(e)) })
}

func (v ArrayOfString) String() string {
	return debugList(v, func(e String) string { return debugString(string(e)) })
}

func (v ArrayOfBoolean) String() string {
	return debugList(v, func(e Boolean) string { return e.String() })
}

func debugList[E any](elems []E, format func(E) string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(format(e))
	}
	sb.WriteByte(']')
	return sb.String()
}

// formatNumber never uses exponent notation and drops a zero fraction.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// debugNumber keeps a fractional part on integral values and switches to
// exponent notation outside [1e-4, 1e16).
func debugNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatNumber(f)
	}
	abs := math.Abs(f)
	if f != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		n, _ := strconv.Atoi(exp)
		return mantissa + "e" + strconv.Itoa(n)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func debugString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				sb.WriteRune(r)
			} else {
				fmt.Fprintf(&sb, `\u{%x}`, r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Clone returns a copy of v that shares no mutable storage with it.
func Clone(v Value) Value {
	switch v := v.(type) {
	case ArrayOfInteger:
		return slices.Clone(v)
	case ArrayOfNumber:
		return slices.Clone(v)
	case ArrayOfString:
		return slices.Clone(v)
	case ArrayOfBoolean:
		return slices.Clone(v)
	}
	return v
}

// Equal is structural equality: same variant and same payload. NaN is never
// equal to anything.
func Equal(a, b Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a := a.(type) {
	case ArrayOfInteger:
		return slices.Equal(a, b.(ArrayOfInteger))
	case ArrayOfNumber:
		return slices.Equal(a, b.(ArrayOfNumber))
	case ArrayOfString:
		return slices.Equal(a, b.(ArrayOfString))
	case ArrayOfBoolean:
		return slices.Equal(a, b.(ArrayOfBoolean))
	}
	return a == b
}

// Compare orders two values of the same variant. The boolean result is false
// when the values are unordered: different variants, or a NaN is involved.
func Compare(a, b Value) (int, bool) {
	if a.Type() != b.Type() {
		return 0, false
	}
	switch a := a.(type) {
	case Integer:
		return compareOrdered(a, b.(Integer)), true
	case Number:
		return compareNumber(a, b.(Number))
	case Char:
		return compareOrdered(a, b.(Char)), true
	case String:
		return compareOrdered(a, b.(String)), true
	case Boolean:
		return compareBoolean(a, b.(Boolean)), true
	case ArrayOfInteger:
		return compareSlices(a, b.(ArrayOfInteger), func(x, y Integer) (int, bool) { return compareOrdered(x, y), true })
	case ArrayOfNumber:
		return compareSlices(a, b.(ArrayOfNumber), compareNumber)
	case ArrayOfString:
		return compareSlices(a, b.(ArrayOfString), func(x, y String) (int, bool) { return compareOrdered(x, y), true })
	case ArrayOfBoolean:
		return compareSlices(a, b.(ArrayOfBoolean), func(x, y Boolean) (int, bool) { return compareBoolean(x, y), true })
	}
	return 0, false
}

func compareOrdered[T Integer | Char | String](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareNumber(a, b Number) (int, bool) {
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	case a == b:
		return 0, true
	}
	return 0, false
}

func compareBoolean(a, b Boolean) int {
	switch {
	case a == b:
		return 0
	case !bool(a):
		return -1
	}
	return 1
}

func compareSlices[E any](a, b []E, cmp func(x, y E) (int, bool)) (int, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		c, ok := cmp(a[i], b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return compareOrdered(Integer(len(a)), Integer(len(b))), true
}

// arrayLen returns the element count of an array value.
func arrayLen(v Value) (int, bool) {
	switch v := v.(type) {
	case ArrayOfInteger:
		return len(v), true
	case ArrayOfNumber:
		return len(v), true
	case ArrayOfString:
		return len(v), true
	case ArrayOfBoolean:
		return len(v), true
	}
	return 0, false
}
