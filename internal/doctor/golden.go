package doctor

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/teerev/promptkit/internal/outline"
)

// truncateAt is how many characters of a differing line are shown.
const truncateAt = 80

// maxDiffLines caps the line diff appended by WithDiff.
const maxDiffLines = 40

// GoldenComparison is the outcome of comparing rendered output with a golden
// file.
type GoldenComparison struct {
	Match   bool
	Details []string
}

// NormalizeText makes golden comparison insensitive to line endings, trailing
// whitespace on each line and trailing blank lines.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// CompareGolden compares normalized texts. On mismatch the details point at
// the first differing line or, when one text is a prefix of the other, at
// the line counts.
func CompareGolden(expected, rendered string) GoldenComparison {
	exp := NormalizeText(expected)
	got := NormalizeText(rendered)
	if exp == got {
		return GoldenComparison{Match: true}
	}

	expLines := strings.Split(exp, "\n")
	gotLines := strings.Split(got, "\n")

	n := min(len(expLines), len(gotLines))
	for i := 0; i < n; i++ {
		if expLines[i] != gotLines[i] {
			return GoldenComparison{Details: []string{
				fmt.Sprintf("First difference at line %d:", i+1),
				"  Expected: " + truncate(expLines[i]),
				"  Got:      " + truncate(gotLines[i]),
			}}
		}
	}
	return GoldenComparison{Details: []string{
		fmt.Sprintf("Line count mismatch: expected %d, got %d", len(expLines), len(gotLines)),
	}}
}

func truncate(line string) string {
	runes := []rune(line)
	if len(runes) <= truncateAt {
		return line
	}
	return string(runes[:truncateAt]) + "..."
}

// LineDiff returns a compact line diff of expected against got: removed lines
// prefixed "- ", added lines "+ ". Unchanged lines are omitted.
func LineDiff(expected, got string) []string {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	a, b, lineArray := dmp.DiffLinesToChars(expected+"\n", got+"\n")
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	lines := []string{"Diff (- expected, + got):"}
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if len(lines) > maxDiffLines {
				return append(lines, "  ...")
			}
			lines = append(lines, prefix+truncate(line))
		}
	}
	return lines
}

func (d *Doctor) outlineDetail(rendered string) []string {
	headings := outline.Headings(rendered)
	if len(headings) == 0 {
		return nil
	}
	return []string{"Output has " + plural(len(headings), "section")}
}
