// Package outline extracts the heading structure of a Markdown document.
package outline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one ATX or setext heading.
type Heading struct {
	Level int
	Text  string
}

var markdown = goldmark.New()

// Headings returns the document's headings in order. Template tags inside a
// heading are kept verbatim.
func Headings(source string) []Heading {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			headings = append(headings, Heading{
				Level: h.Level,
				Text:  strings.TrimSpace(extractText(h, src)),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return headings
}

// Format renders headings as an indented list, two spaces per level below
// the shallowest heading.
func Format(headings []Heading) []string {
	if len(headings) == 0 {
		return nil
	}
	top := headings[0].Level
	for _, h := range headings {
		if h.Level < top {
			top = h.Level
		}
	}
	lines := make([]string, 0, len(headings))
	for _, h := range headings {
		lines = append(lines, strings.Repeat("  ", h.Level-top)+"- "+h.Text)
	}
	return lines
}

func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(extractText(c, source))
		}
	}
	return buf.String()
}
