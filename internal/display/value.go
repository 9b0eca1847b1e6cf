package display

import "github.com/teerev/promptkit/internal/render"

// FormatValue renders a parameter value for humans: strings print as-is,
// everything else the way templates print it.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return render.Repr(v)
}
