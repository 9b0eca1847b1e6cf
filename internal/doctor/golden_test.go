package doctor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, NormalizeText("line1\r\n"), NormalizeText("line1\n"))
	assert.Equal(t, "a\nb", NormalizeText("a  \r\nb\t\r\n\n\n"))
	assert.Equal(t, "a\n\nb", NormalizeText("a\r\rb"))
	assert.Equal(t, "", NormalizeText("\n \n"))
}

func TestCompareGolden(t *testing.T) {
	assert.True(t, CompareGolden("x\n", "x").Match)

	cmp := CompareGolden("a\nb\nc", "a\nb")
	assert.False(t, cmp.Match)
	assert.Equal(t, []string{"Line count mismatch: expected 3, got 2"}, cmp.Details)

	long := strings.Repeat("é", 90)
	cmp = CompareGolden(long, "short")
	assert.Equal(t, "  Expected: "+strings.Repeat("é", 80)+"...", cmp.Details[1])
	assert.Equal(t, "  Got:      short", cmp.Details[2])
}

func TestLineDiff(t *testing.T) {
	lines := LineDiff("a\nb\nc", "a\nB\nc\nd")
	assert.Equal(t, []string{"Diff (- expected, + got):", "- b", "+ B", "+ d"}, lines)
}
