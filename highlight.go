package topflight

import (
	"strings"
)

// ElementType classifies a span of a script line for syntax highlighting.
type ElementType int

const (
	ElementComment ElementType = iota
	ElementRoutineDelimiter
	ElementRoutineName
	ElementTypeName
	ElementVariableName
	ElementNumericValue
	ElementString
	ElementArrayDelimiter
	ElementInstructionName
	ElementInvalid
)

var elementColors = map[ElementType]string{
	ElementComment:          "\x1b[32m", // green
	ElementRoutineDelimiter: "\x1b[33m", // brown
	ElementRoutineName:      "\x1b[95m", // bright magenta
	ElementTypeName:         "\x1b[36m", // cyan
	ElementVariableName:     "\x1b[35m", // magenta
	ElementNumericValue:     "\x1b[93m", // yellow
	ElementString:           "\x1b[34m", // blue
	ElementArrayDelimiter:   "\x1b[92m", // bright green
	ElementInstructionName:  "\x1b[96m", // bright cyan
	ElementInvalid:          "\x1b[31m", // red
}

// LineElement is a highlighted span [Begin, End) of byte offsets.
type LineElement struct {
	Type  ElementType
	Begin int
	End   int
}

// Highlight splits line into typed spans. building is the name of the
// routine under construction, or "" if none; delimiters that would fail in
// that state are marked invalid.
func Highlight(line, building string) []LineElement {
	line = strings.TrimSuffix(line, "\r")
	switch {
	case strings.TrimSpace(line) == "":
		return nil
	case line[0] == '#':
		return []LineElement{{ElementComment, 0, len(line)}}
	case line[0] == '<':
		return highlightDelimiter(line, building)
	}
	return highlightInstruction(line)
}

func highlightDelimiter(line, building string) []LineElement {
	elems := []LineElement{{ElementRoutineDelimiter, 0, 1}}
	begin := 1
	closing := len(line) > 1 && line[1] == '/'
	if closing {
		elems = append(elems, LineElement{ElementRoutineDelimiter, 1, 2})
		begin = 2
	}

	end := strings.IndexByte(line[begin:], '>')
	if end < 0 {
		return append(elems, LineElement{ElementRoutineName, begin, len(line)})
	}
	end += begin

	nameType := ElementRoutineName
	name := line[begin:end]
	switch {
	case name == "":
		nameType = ElementInvalid
	case !closing && building != "":
		nameType = ElementInvalid
	case closing && name != building:
		nameType = ElementInvalid
	}
	elems = append(elems,
		LineElement{nameType, begin, end},
		LineElement{ElementRoutineDelimiter, end, end + 1})
	if end+1 < len(line) {
		elems = append(elems, LineElement{ElementInvalid, end + 1, len(line)})
	}
	return elems
}

func highlightInstruction(line string) []LineElement {
	name, _, _ := strings.Cut(line, " ")
	kinds, ok := InstructionOperands(name)
	if !ok {
		return []LineElement{{ElementInvalid, 0, len(line)}}
	}
	elems := []LineElement{{ElementInstructionName, 0, len(name)}}

	pos := len(name) + 1
	for i, kind := range kinds {
		if pos > len(line) {
			break
		}
		rest := line[pos:]
		if kind == OperandValue {
			elems = append(elems, highlightValue(rest, pos)...)
			break
		}
		end := len(rest)
		if i < len(kinds)-1 {
			if sp := strings.IndexByte(rest, ' '); sp >= 0 {
				end = sp
			}
		}
		if end > 0 {
			elems = append(elems, LineElement{ElementVariableName, pos, pos + end})
		}
		pos += end + 1
	}
	return elems
}

// highlightValue marks a literal starting at offset. Malformed literals are
// marked invalid as a whole.
func highlightValue(src string, offset int) []LineElement {
	_, tail, err := ParseValue(src)
	if err != nil {
		return []LineElement{{ElementInvalid, offset, offset + len(src)}}
	}
	consumed := len(src) - len(tail)

	open := strings.IndexByte(src, '(')
	elems := []LineElement{
		{ElementTypeName, offset, offset + open},
		{ElementArrayDelimiter, offset + open, offset + open + 1},
	}
	for i := open + 1; i < consumed; {
		switch c := src[i]; c {
		case ',', ')':
			elems = append(elems, LineElement{ElementArrayDelimiter, offset + i, offset + i + 1})
			i++
		case '"', '\'':
			end := closingQuote(src, i, c)
			elems = append(elems, LineElement{ElementString, offset + i, offset + end})
			i = end
		default:
			end := i
			for end < consumed && src[end] != ',' && src[end] != ')' {
				end++
			}
			elems = append(elems, LineElement{ElementNumericValue, offset + i, offset + end})
			i = end
		}
	}
	if consumed < len(src) {
		elems = append(elems, LineElement{ElementInvalid, offset + consumed, offset + len(src)})
	}
	return elems
}

// closingQuote returns the offset just past the quote matching src[start].
func closingQuote(src string, start int, quote byte) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(src)
}

// Highlighter tracks routine definitions across consecutive lines so that
// delimiters are judged in context.
type Highlighter struct {
	building string
}

// Line highlights one line and advances the routine state.
func (h *Highlighter) Line(line string) []LineElement {
	elems := Highlight(line, h.building)
	kind, name, err := classifyLine(strings.TrimSuffix(line, "\r"))
	if err != nil {
		return elems
	}
	switch {
	case kind == lineRoutineStart && h.building == "":
		h.building = name
	case kind == lineRoutineEnd && name == h.building:
		h.building = ""
	}
	return elems
}

// Colorize renders line with ANSI colors for its elements. Bytes not covered
// by any element are written uncolored.
func Colorize(line string, elems []LineElement) string {
	line = strings.TrimSuffix(line, "\r")
	types := make([]ElementType, len(line))
	covered := make([]bool, len(line))
	for _, e := range elems {
		for i := max(e.Begin, 0); i < e.End && i < len(line); i++ {
			types[i], covered[i] = e.Type, true
		}
	}

	var sb strings.Builder
	current, colored := ElementType(-1), false
	for i := 0; i < len(line); i++ {
		switch {
		case covered[i] && (!colored || types[i] != current):
			sb.WriteString(elementColors[types[i]])
			current, colored = types[i], true
		case !covered[i] && colored:
			sb.WriteString(colorReset)
			colored = false
		}
		sb.WriteByte(line[i])
	}
	if colored {
		sb.WriteString(colorReset)
	}
	return sb.String()
}
