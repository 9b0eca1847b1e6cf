package runpacket

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/teerev/promptkit/internal/render"
)

// CanonicalJSON serializes params with sorted keys. The indented form uses
// two spaces per level and is what params.resolved.json holds. The compact
// form separates items with ", " and keys with ": " and is the input of the
// params hash. Both escape non-ASCII characters as \uXXXX so the hash is
// stable across tools.
func CanonicalJSON(params map[string]any, indent bool) ([]byte, error) {
	var sb strings.Builder
	enc := encoder{sb: &sb, indent: indent}
	if err := enc.value(params, 0); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

type encoder struct {
	sb     *strings.Builder
	indent bool
}

func (e encoder) value(v any, level int) error {
	switch t := v.(type) {
	case nil:
		e.sb.WriteString("null")
	case bool:
		if t {
			e.sb.WriteString("true")
		} else {
			e.sb.WriteString("false")
		}
	case string:
		writeString(e.sb, t)
	case int:
		e.sb.WriteString(strconv.Itoa(t))
	case int64:
		e.sb.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		e.sb.WriteString(strconv.FormatUint(t, 10))
	case float64:
		e.sb.WriteString(formatFloat(t))
	case []any:
		return e.array(t, level)
	case map[string]any:
		return e.object(t, level)
	default:
		return fmt.Errorf("cannot encode %T as JSON", v)
	}
	return nil
}

func (e encoder) array(items []any, level int) error {
	if len(items) == 0 {
		e.sb.WriteString("[]")
		return nil
	}
	e.sb.WriteByte('[')
	for i, item := range items {
		e.separator(i, level+1)
		if err := e.value(item, level+1); err != nil {
			return err
		}
	}
	e.closing(level)
	e.sb.WriteByte(']')
	return nil
}

func (e encoder) object(m map[string]any, level int) error {
	if len(m) == 0 {
		e.sb.WriteString("{}")
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	e.sb.WriteByte('{')
	for i, k := range keys {
		e.separator(i, level+1)
		writeString(e.sb, k)
		e.sb.WriteString(": ")
		if err := e.value(m[k], level+1); err != nil {
			return err
		}
	}
	e.closing(level)
	e.sb.WriteByte('}')
	return nil
}

func (e encoder) separator(i, level int) {
	if e.indent {
		if i > 0 {
			e.sb.WriteByte(',')
		}
		e.sb.WriteByte('\n')
		e.sb.WriteString(strings.Repeat("  ", level))
		return
	}
	if i > 0 {
		e.sb.WriteString(", ")
	}
}

func (e encoder) closing(level int) {
	if e.indent {
		e.sb.WriteByte('\n')
		e.sb.WriteString(strings.Repeat("  ", level))
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return render.FormatFloat(f)
}

func writeString(sb *strings.Builder, s string) {
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
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r >= 0x7f && r <= 0xffff):
				fmt.Fprintf(sb, `\u%04x`, r)
			case r > 0xffff:
				r -= 0x10000
				fmt.Fprintf(sb, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			default:
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
