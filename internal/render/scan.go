package render

import (
	"fmt"
	"sort"
	"strings"
)

// Builtins are names the engine or the renderer provides on its own. They are
// never reported as free variables and never need a schema property.
var Builtins = map[string]bool{
	"forloop": true,
	"pongo2":  true,
	"True":    true,
	"False":   true,
	"None":    true,
	"none":    true,
	"nil":     true,
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokKeyword
	tokString
	tokNumber
	tokSymbol
)

type token struct {
	kind tokenKind
	val  string
}

// block is the content of one {{ ... }} or {% ... %}, delimiters removed.
type block struct {
	tag    bool
	line   int
	tokens []token
}

var keywords = map[string]bool{
	"in": true, "and": true, "or": true, "not": true,
	"true": true, "false": true, "as": true, "export": true,
}

// Longest first, so "==" wins over "=".
var symbols = []string{
	"{{-", "-}}", "{%-", "-%}",
	"==", ">=", "<=", "&&", "||", "{{", "}}", "{%", "%}", "!=", "<>",
	"(", ")", "+", "-", "*", "<", ">", "/", "^", ",", ".", "!", "|", ":", "=", "%", "[", "]",
}

// SyntaxError reports a malformed tag found while scanning.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// FreeVariables returns the sorted, unique names a template reads without
// binding them itself. Names introduced by for, set, with, macro, import and
// "as" clauses are bound for their scope; attribute names, filter names,
// keyword-argument names and Builtins are not free.
func FreeVariables(text string) ([]string, error) {
	ordered, err := freeVariablesInOrder(normalizeSource(text))
	if err != nil {
		return nil, err
	}
	sort.Strings(ordered)
	return ordered, nil
}

func freeVariablesInOrder(text string) ([]string, error) {
	a, err := analyze(text)
	if err != nil {
		return nil, err
	}
	return a.free, nil
}

// requiredVariables returns the free names a render cannot do without, in
// order of first use.
func requiredVariables(text string) ([]string, error) {
	a, err := analyze(text)
	if err != nil {
		return nil, err
	}
	return a.required, nil
}

func analyze(text string) (*analyzer, error) {
	blocks, err := lexBlocks(text)
	if err != nil {
		return nil, err
	}

	a := newAnalyzer()
	for _, b := range blocks {
		a.visit(b)
	}
	return a, nil
}

// lexBlocks splits text into tag and variable blocks, dropping literal text,
// {# #} comments and {% verbatim %} sections.
func lexBlocks(text string) ([]block, error) {
	var blocks []block
	line := 1
	pos := 0

	for pos < len(text) {
		rest := text[pos:]
		switch {
		case strings.HasPrefix(rest, "{% verbatim %}"):
			end := strings.Index(rest, "{% endverbatim %}")
			if end < 0 {
				return nil, &SyntaxError{Line: line, Msg: "verbatim-tag not closed, got EOF."}
			}
			line += strings.Count(rest[:end], "\n")
			pos += end + len("{% endverbatim %}")

		case strings.HasPrefix(rest, "{#"):
			end := strings.Index(rest, "#}")
			nl := strings.IndexByte(rest, '\n')
			if end < 0 {
				return nil, &SyntaxError{Line: line, Msg: "Single-line comment not closed."}
			}
			if nl >= 0 && nl < end {
				return nil, &SyntaxError{Line: line, Msg: "Newline not permitted in a single-line comment."}
			}
			pos += end + 2

		case strings.HasPrefix(rest, "{{") || strings.HasPrefix(rest, "{%"):
			b, n, err := lexBlock(rest, line)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, b)
			pos += n

		default:
			if text[pos] == '\n' {
				line++
			}
			pos++
		}
	}
	return blocks, nil
}

// lexBlock tokenizes a single block starting at s[0:2] ("{{" or "{%") and
// returns it with the number of bytes consumed.
func lexBlock(s string, line int) (block, int, error) {
	b := block{tag: strings.HasPrefix(s, "{%"), line: line}
	pos := 2
	if pos < len(s) && s[pos] == '-' {
		pos++
	}

	for {
		if pos >= len(s) {
			return b, pos, &SyntaxError{Line: line, Msg: "tag or variable not closed, got EOF."}
		}

		c := s[pos]
		switch {
		case c == '\n':
			return b, pos, &SyntaxError{Line: line, Msg: "Newline not allowed within tag/variable."}
		case c == ' ' || c == '\t' || c == '\r':
			pos++
			continue
		case isIdentStart(c):
			end := pos + 1
			for end < len(s) && isIdentChar(s[end]) {
				end++
			}
			b.tokens = append(b.tokens, identOrKeyword(s[pos:end]))
			pos = end
			continue
		case isDigit(c):
			end := pos + 1
			for end < len(s) && isDigit(s[end]) {
				end++
			}
			if end < len(s) && isIdentChar(s[end]) {
				// An identifier that starts with digits, as pongo2 reads it.
				for end < len(s) && isIdentChar(s[end]) {
					end++
				}
				b.tokens = append(b.tokens, identOrKeyword(s[pos:end]))
			} else {
				b.tokens = append(b.tokens, token{kind: tokNumber, val: s[pos:end]})
			}
			pos = end
			continue
		case c == '"' || c == '\'':
			end, err := scanString(s, pos, line)
			if err != nil {
				return b, pos, err
			}
			b.tokens = append(b.tokens, token{kind: tokString, val: s[pos+1 : end-1]})
			pos = end
			continue
		}

		sym := matchSymbol(s[pos:])
		if sym == "" {
			return b, pos, &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
		pos += len(sym)
		if sym == "}}" || sym == "-}}" || sym == "%}" || sym == "-%}" {
			return b, pos, nil
		}
		b.tokens = append(b.tokens, token{kind: tokSymbol, val: sym})
	}
}

// scanString returns the offset just past the closing quote of the string
// literal starting at s[start].
func scanString(s string, start, line int) (int, error) {
	quote := s[start]
	pos := start + 1
	for pos < len(s) {
		switch s[pos] {
		case quote:
			return pos + 1, nil
		case '\\':
			if pos+1 < len(s) && (s[pos+1] == '"' || s[pos+1] == '\\') {
				pos += 2
				continue
			}
			return 0, &SyntaxError{Line: line, Msg: "Unknown escape sequence in string."}
		case '\n':
			return 0, &SyntaxError{Line: line, Msg: "Newline in string is not allowed."}
		}
		pos++
	}
	return 0, &SyntaxError{Line: line, Msg: "Unexpected EOF, string not closed."}
}

func matchSymbol(s string) string {
	for _, sym := range symbols {
		if strings.HasPrefix(s, sym) {
			return sym
		}
	}
	return ""
}

func identOrKeyword(v string) token {
	if keywords[v] {
		return token{kind: tokKeyword, val: v}
	}
	return token{kind: tokIdent, val: v}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scope is one level of bound names; kind is the tag that opened it.
type scope struct {
	kind  string
	names map[string]bool
}

type analyzer struct {
	scopes    []scope
	free      []string
	seen      map[string]bool
	required  []string
	needed    map[string]bool
	paths     [][]string
	seenPath  map[string]bool
	inComment bool
}

func newAnalyzer() *analyzer {
	return &analyzer{
		scopes:   []scope{{kind: "root", names: map[string]bool{}}},
		free:     []string{},
		seen:     map[string]bool{},
		required: []string{},
		needed:   map[string]bool{},
		seenPath: map[string]bool{},
	}
}

func (a *analyzer) bound(name string) bool {
	if Builtins[name] {
		return true
	}
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if a.scopes[i].names[name] {
			return true
		}
	}
	return false
}

func (a *analyzer) bind(names ...string) {
	top := a.scopes[len(a.scopes)-1]
	for _, n := range names {
		top.names[n] = true
	}
}

func (a *analyzer) push(kind string, names ...string) {
	s := scope{kind: kind, names: map[string]bool{}}
	for _, n := range names {
		s.names[n] = true
	}
	a.scopes = append(a.scopes, s)
}

func (a *analyzer) pop(kind string) {
	if n := len(a.scopes); n > 1 && a.scopes[n-1].kind == kind {
		a.scopes = a.scopes[:n-1]
	}
}

// use records a read of name. A read guarded by a default filter still makes
// the name free, but does not make it required at render time.
func (a *analyzer) use(name string, guarded bool) {
	if a.bound(name) {
		return
	}
	if !a.seen[name] {
		a.seen[name] = true
		a.free = append(a.free, name)
	}
	if !guarded && !a.needed[name] {
		a.needed[name] = true
		a.required = append(a.required, name)
	}
}

// expr records every free identifier in toks, skipping attribute names,
// filter names and keyword-argument names.
func (a *analyzer) expr(toks []token) {
	for i, t := range toks {
		if t.kind != tokIdent {
			continue
		}
		if i > 0 && toks[i-1].kind == tokSymbol && (toks[i-1].val == "." || toks[i-1].val == "|") {
			continue
		}
		if i+1 < len(toks) && toks[i+1].kind == tokSymbol && toks[i+1].val == "=" {
			continue
		}
		if a.bound(t.val) {
			continue
		}
		a.use(t.val, hasDefaultFilter(toks[i+1:]))
		a.usePath(t.val, toks[i+1:])
	}
}

// usePath records "name.attr.attr" when name is free and the chain is not
// guarded by a default filter. Subscripts and calls end the chain.
func (a *analyzer) usePath(name string, rest []token) {
	path := []string{name}
	j := 0
	for j+1 < len(rest) && rest[j].kind == tokSymbol && rest[j].val == "." && rest[j+1].kind == tokIdent {
		path = append(path, rest[j+1].val)
		j += 2
	}
	if len(path) == 1 || hasDefaultFilter(rest[j:]) {
		return
	}
	if j < len(rest) && rest[j].kind == tokSymbol && rest[j].val == "(" {
		path = path[:len(path)-1]
		if len(path) == 1 {
			return
		}
	}
	key := strings.Join(path, ".")
	if !a.seenPath[key] {
		a.seenPath[key] = true
		a.paths = append(a.paths, path)
	}
}

// attributePaths returns the unguarded attribute chains rooted at free
// names, in order of first use.
func attributePaths(text string) ([][]string, error) {
	a, err := analyze(text)
	if err != nil {
		return nil, err
	}
	return a.paths, nil
}

func hasDefaultFilter(rest []token) bool {
	return len(rest) >= 2 && rest[0].kind == tokSymbol && rest[0].val == "|" &&
		(rest[1].val == "default" || rest[1].val == "default_if_none")
}

func (a *analyzer) visit(b block) {
	if !b.tag {
		if !a.inComment {
			a.expr(b.tokens)
		}
		return
	}
	if len(b.tokens) == 0 {
		return
	}

	name := b.tokens[0].val
	args := b.tokens[1:]

	if a.inComment {
		if name == "endcomment" {
			a.inComment = false
		}
		return
	}

	switch name {
	case "comment":
		a.inComment = true

	case "for":
		a.visitFor(args)
	case "endfor":
		a.pop("for")

	case "set":
		if len(args) >= 1 && args[0].kind == tokIdent {
			if eq := indexSymbol(args, "="); eq >= 0 {
				a.expr(args[eq+1:])
			}
			a.bind(args[0].val)
		}

	case "with":
		a.visitWith(args)
	case "endwith":
		a.pop("with")

	case "macro":
		a.visitMacro(args)
	case "endmacro":
		a.pop("macro")

	case "import":
		a.visitImport(args)

	case "include":
		a.expr(withoutWords(args, "with", "only", "if_exists"))

	case "filter":
		// Filter names only; parameters after ':' may reference variables.
		for i, t := range args {
			if t.kind == tokIdent && i > 0 && args[i-1].kind == tokSymbol && args[i-1].val == ":" {
				a.use(t.val, false)
			}
		}

	case "cycle":
		a.visitAs(withoutWords(args, "silent"))
	case "now":
		a.visitAs(withoutWords(args, "fake"))

	case "block", "extends", "autoescape", "spaceless", "lorem", "templatetag", "ssi",
		"empty", "else", "endif", "endblock", "endfilter", "endautoescape", "endspaceless",
		"endifchanged", "endifequal", "endifnotequal", "endcomment":

	default:
		a.visitAs(args)
	}
}

func (a *analyzer) visitFor(args []token) {
	in := -1
	for i, t := range args {
		if t.kind == tokKeyword && t.val == "in" {
			in = i
			break
		}
	}
	if in < 0 {
		return
	}

	var vars []string
	for _, t := range args[:in] {
		if t.kind == tokIdent {
			vars = append(vars, t.val)
		}
	}

	object := args[in+1:]
	for len(object) > 1 {
		last := object[len(object)-1]
		if last.kind != tokIdent || (last.val != "reversed" && last.val != "sorted") {
			break
		}
		object = object[:len(object)-1]
	}
	a.expr(object)
	a.push("for", append(vars, "forloop")...)
}

func (a *analyzer) visitWith(args []token) {
	if as := indexKeyword(args, "as"); as >= 0 {
		a.expr(args[:as])
		var names []string
		for _, t := range args[as+1:] {
			if t.kind == tokIdent {
				names = append(names, t.val)
			}
		}
		a.push("with", names...)
		return
	}

	var names []string
	for i, t := range args {
		if t.kind == tokIdent && i+1 < len(args) && args[i+1].kind == tokSymbol && args[i+1].val == "=" {
			names = append(names, t.val)
		}
	}
	a.expr(args)
	a.push("with", names...)
}

func (a *analyzer) visitMacro(args []token) {
	if len(args) == 0 || args[0].kind != tokIdent {
		return
	}
	a.bind(args[0].val)

	var params []string
	depth := 0
	for i := 1; i < len(args); i++ {
		t := args[i]
		if t.kind == tokSymbol {
			switch t.val {
			case "(":
				depth++
			case ")":
				depth--
			}
			continue
		}
		if depth != 1 || t.kind != tokIdent {
			continue
		}
		prev := args[i-1]
		if prev.kind == tokSymbol && (prev.val == "(" || prev.val == ",") {
			params = append(params, t.val)
			continue
		}
		// Default values are evaluated outside the macro body.
		a.expr(args[i : i+1])
	}
	a.push("macro", params...)
}

func (a *analyzer) visitImport(args []token) {
	for i, t := range args {
		if t.kind != tokIdent {
			continue
		}
		if i+1 < len(args) && args[i+1].kind == tokKeyword && args[i+1].val == "as" {
			continue
		}
		a.bind(t.val)
	}
}

// visitAs handles tags of the form "<exprs> [as name]".
func (a *analyzer) visitAs(args []token) {
	as := indexKeyword(args, "as")
	if as < 0 {
		a.expr(args)
		return
	}
	a.expr(args[:as])
	if as+1 < len(args) && args[as+1].kind == tokIdent {
		a.bind(args[as+1].val)
	}
}

func indexSymbol(toks []token, sym string) int {
	for i, t := range toks {
		if t.kind == tokSymbol && t.val == sym {
			return i
		}
	}
	return -1
}

func indexKeyword(toks []token, kw string) int {
	for i, t := range toks {
		if t.kind == tokKeyword && t.val == kw {
			return i
		}
	}
	return -1
}

func withoutWords(toks []token, words ...string) []token {
	out := make([]token, 0, len(toks))
	for _, t := range toks {
		skip := false
		if t.kind == tokIdent {
			for _, w := range words {
				if t.val == w {
					skip = true
					break
				}
			}
		}
		if !skip {
			out = append(out, t)
		}
	}
	return out
}
