package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		3.14:         "3.14",
		120:          "120.0",
		0:            "0.0",
		-2.5:         "-2.5",
		0.0001:       "0.0001",
		0.00001:      "1e-05",
		1e16:         "1e+16",
		123456789.25: "123456789.25",
		math.Inf(1):  "inf",
		math.Inf(-1): "-inf",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFloat(in), "FormatFloat(%v)", in)
	}
	assert.Equal(t, "nan", FormatFloat(math.NaN()))
}

func TestRepr(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{"plain", "'plain'"},
		{"it's", `"it's"`},
		{`both ' and "`, `'both \' and "'`},
		{"line\nbreak", `'line\nbreak'`},
		{int64(7), "7"},
		{[]any{"a", int64(1), 2.0, nil}, "['a', 1, 2.0, None]"},
		{map[string]any{"z": []any{}, "a": map[string]any{}}, "{'a': {}, 'z': []}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Repr(tt.in))
	}
}

func TestWrapKeepsKinds(t *testing.T) {
	w := wrap(map[string]any{"f": 1.5, "xs": []any{2.0}, "s": "x"}).(dict)
	assert.Equal(t, number(1.5), w["f"])
	assert.Equal(t, list{number(2.0)}, w["xs"])
	assert.Equal(t, "x", w["s"])
	assert.Equal(t, "1.5", w["f"].(number).String())
}
