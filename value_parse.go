package topflight

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseValue parses one `TYPE(payload)` literal from the start of src. It
// returns the value and whatever text follows the literal's closing
// delimiter.
//
// Scalar and array payloads follow the same element grammar, so a scalar
// literal whose payload is followed by `,` is accepted and the rest of the
// list is left unconsumed.
func ParseValue(src string) (Value, string, error) {
	sc := &literalScanner{src: src}
	var (
		v   Value
		err error
	)
	switch tag := sc.takeUntil('('); tag {
	case "INTEGER":
		v, _, err = sc.integer()
	case "NUMBER":
		v, _, err = sc.number()
	case "BOOLEAN":
		v, _, err = sc.boolean()
	case "CHAR":
		v, err = sc.char()
	case "STRING":
		v, _, err = sc.str()
	case "ARRAY_OF_INTEGER":
		var elems []Integer
		elems, err = parseList(sc.integer)
		v = ArrayOfInteger(elems)
	case "ARRAY_OF_NUMBER":
		var elems []Number
		elems, err = parseList(sc.number)
		v = ArrayOfNumber(elems)
	case "ARRAY_OF_BOOLEAN":
		var elems []Boolean
		elems, err = parseList(sc.boolean)
		v = ArrayOfBoolean(elems)
	case "ARRAY_OF_STRING":
		var elems []String
		elems, err = parseList(sc.str)
		v = ArrayOfString(elems)
	default:
		err = &ParseError{Code: KindInvalidFormat, Detail: tag}
	}
	if err != nil {
		return nil, src, err
	}
	return v, sc.rest(), nil
}

type literalScanner struct {
	src string
	pos int
}

func (sc *literalScanner) rest() string { return sc.src[sc.pos:] }

func (sc *literalScanner) eof() bool { return sc.pos >= len(sc.src) }

// next consumes one rune. ok is false at end of input.
func (sc *literalScanner) next() (r rune, ok bool) {
	if sc.eof() {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
	sc.pos += size
	return r, true
}

// takeUntil returns the text before the first delim and consumes the delim.
// Without a delim the whole remainder is taken.
func (sc *literalScanner) takeUntil(delim byte) string {
	rest := sc.rest()
	i := strings.IndexByte(rest, delim)
	if i < 0 {
		sc.pos = len(sc.src)
		return rest
	}
	sc.pos += i + 1
	return rest[:i]
}

// element takes a bare payload token, ending at `)`, `,` or end of input.
// last is false only when the token was ended by `,`.
func (sc *literalScanner) element() (token string, last bool) {
	rest := sc.rest()
	i := strings.IndexAny(rest, "),")
	if i < 0 {
		sc.pos = len(sc.src)
		return rest, true
	}
	sc.pos += i + 1
	return rest[:i], rest[i] != ','
}

func (sc *literalScanner) fail(code ErrorKind, tag, detail string) *ParseError {
	return &ParseError{Code: code, Tag: tag, Detail: detail}
}

func (sc *literalScanner) integer() (Integer, bool, error) {
	token, last := sc.element()
	i, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, last, sc.fail(KindNativeParseError, "INTEGER", token)
	}
	return Integer(i), last, nil
}

func (sc *literalScanner) number() (Number, bool, error) {
	token, last := sc.element()
	if strings.ContainsAny(token, "xX_") {
		return 0, last, sc.fail(KindNativeParseError, "NUMBER", token)
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, last, sc.fail(KindNativeParseError, "NUMBER", token)
	}
	return Number(f), last, nil
}

func (sc *literalScanner) boolean() (Boolean, bool, error) {
	token, last := sc.element()
	switch token {
	case "true":
		return true, last, nil
	case "false":
		return false, last, nil
	}
	return false, last, sc.fail(KindInvalidFormat, "BOOLEAN", token)
}

// char expects `'c')` where c is one rune or an escape sequence.
func (sc *literalScanner) char() (Char, error) {
	start := sc.pos
	bad := func() (Char, error) {
		return 0, sc.fail(KindInvalidFormat, "CHAR", sc.src[start:sc.pos])
	}
	if r, ok := sc.next(); !ok || r != '\'' {
		return bad()
	}
	r, ok := sc.next()
	if !ok {
		return bad()
	}
	if r == '\\' {
		esc, ok := sc.next()
		if !ok {
			return bad()
		}
		if r, ok = unescape(esc, '\''); !ok {
			return bad()
		}
	} else if r == '\'' {
		return bad()
	}
	if q, ok := sc.next(); !ok || q != '\'' {
		return bad()
	}
	if p, ok := sc.next(); !ok || p != ')' {
		return bad()
	}
	return Char(r), nil
}

// str expects `"..."` followed by `)` or `,`.
func (sc *literalScanner) str() (String, bool, error) {
	start := sc.pos
	bad := func() (String, bool, error) {
		return "", true, sc.fail(KindInvalidFormat, "STRING", sc.src[start:sc.pos])
	}
	if r, ok := sc.next(); !ok || r != '"' {
		return bad()
	}
	var sb strings.Builder
	for {
		r, ok := sc.next()
		if !ok {
			return bad()
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			esc, ok := sc.next()
			if !ok {
				return bad()
			}
			if r, ok = unescape(esc, '"'); !ok {
				return bad()
			}
		}
		sb.WriteRune(r)
	}
	switch r, _ := sc.next(); r {
	case ')':
		return String(sb.String()), true, nil
	case ',':
		return String(sb.String()), false, nil
	}
	return bad()
}

func parseList[E any](elem func() (E, bool, error)) ([]E, error) {
	var out []E
	for {
		v, last, err := elem()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if last {
			return out, nil
		}
	}
}

func unescape(esc, quote rune) (rune, bool) {
	switch esc {
	case '\\':
		return '\\', true
	case '0':
		return 0, true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case quote:
		return quote, true
	}
	return 0, false
}

// FormatLiteral renders v in the literal grammar accepted by ParseValue.
// Empty arrays render as `TAG()`, which the grammar does not accept back.
func FormatLiteral(v Value) string {
	var payload string
	switch v := v.(type) {
	case Integer:
		payload = v.String()
	case Number:
		payload = literalNumber(v)
	case Char:
		payload = quoteLiteral(string(rune(v)), '\'')
	case String:
		payload = quoteLiteral(string(v), '"')
	case Boolean:
		payload = v.String()
	case ArrayOfInteger:
		payload = joinLiteral(v, Integer.String)
	case ArrayOfNumber:
		payload = joinLiteral(v, literalNumber)
	case ArrayOfString:
		payload = joinLiteral(v, func(s String) string { return quoteLiteral(string(s), '"') })
	case ArrayOfBoolean:
		payload = joinLiteral(v, Boolean.String)
	}
	return v.Type().String() + "(" + payload + ")"
}

func literalNumber(n Number) string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func joinLiteral[E any](elems []E, format func(E) string) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = format(e)
	}
	return strings.Join(parts, ",")
}

func quoteLiteral(s string, quote rune) string {
	var sb strings.Builder
	sb.WriteRune(quote)
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case 0:
			sb.WriteString(`\0`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case quote:
			sb.WriteRune('\\')
			sb.WriteRune(quote)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteRune(quote)
	return sb.String()
}
