package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// number, list and dict wrap parameter values for the template engine so they
// print the way prompt authors expect: 3.14 rather than 3.140000, and
// ['a', 'b'] rather than a Go type dump. They keep their underlying kinds, so
// loops, filters and comparisons behave as for the plain values.
type (
	number float64
	list   []any
	dict   map[string]any
)

func (n number) String() string { return FormatFloat(float64(n)) }
func (l list) String() string   { return Repr([]any(l)) }
func (d dict) String() string   { return Repr(map[string]any(d)) }

// wrap converts a normalized parameter value into its template form.
func wrap(v any) any {
	switch t := v.(type) {
	case float64:
		return number(t)
	case []any:
		out := make(list, len(t))
		for i, item := range t {
			out[i] = wrap(item)
		}
		return out
	case map[string]any:
		out := make(dict, len(t))
		for k, item := range t {
			out[k] = wrap(item)
		}
		return out
	default:
		return v
	}
}

// FormatFloat prints the shortest round-trip digits of f, with a trailing
// ".0" for integral values and exponent notation outside [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	exp := 0
	if f != 0 {
		sci := strconv.FormatFloat(f, 'e', -1, 64)
		exp, _ = strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	}
	if exp < -4 || exp >= 16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// Repr renders v in the literal syntax Jinja templates print: quoted
// strings, True/False/None and bracketed lists and dicts. Map keys are sorted.
func Repr(v any) string {
	var sb strings.Builder
	writeRepr(&sb, v)
	return sb.String()
}

func writeRepr(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		sb.WriteString("None")
	case bool:
		if t {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case string:
		sb.WriteString(quoteString(t))
	case int64:
		sb.WriteString(strconv.FormatInt(t, 10))
	case int:
		sb.WriteString(strconv.Itoa(t))
	case float64:
		sb.WriteString(FormatFloat(t))
	case number:
		sb.WriteString(FormatFloat(float64(t)))
	case []any:
		writeList(sb, t)
	case list:
		writeList(sb, []any(t))
	case map[string]any:
		writeDict(sb, t)
	case dict:
		writeDict(sb, map[string]any(t))
	default:
		fmt.Fprint(sb, t)
	}
}

func writeList(sb *strings.Builder, items []any) {
	sb.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeRepr(sb, item)
	}
	sb.WriteByte(']')
}

func writeDict(sb *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteString(k))
		sb.WriteString(": ")
		writeRepr(sb, m[k])
	}
	sb.WriteByte('}')
}

// quoteString uses single quotes unless the string contains a single quote
// and no double quote.
func quoteString(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(q):
			sb.WriteByte('\\')
			sb.WriteByte(q)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}
