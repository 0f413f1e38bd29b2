// Package formula implements the expression language used by derived
// rules. Formulas are parsed once into a tree and evaluated per row against
// an Env; nothing outside the grammar can be reached from a formula.
//
// Grammar:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/' | '%') unary)*
//	unary   := ('-' | '+') unary | primary
//	primary := number | string | column | call | '(' expr ')'
//	column  := ident | '[' any text ']'
//	call    := ident '(' [expr (',' expr)*] ')'
//
// Column references evaluate to the cell's string form, so "A + B" on two
// text columns concatenates them. raw(Col) yields the typed cell instead.
package formula

import (
	"strings"

	"rulecheck/internal/dataset"
)

// Env resolves column names for a single row.
type Env interface {
	Lookup(name string) (dataset.Value, bool)
}

// Formula is a compiled expression. It is safe for concurrent use.
type Formula struct {
	src  string
	root node
	refs []string
}

// Parse compiles src.
func Parse(src string) (*Formula, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Msg: "empty formula"}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, seen: map[string]bool{}}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + describe(t)}
	}
	return &Formula{src: src, root: root, refs: p.refs}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Formula {
	f, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Source returns the text the formula was compiled from.
func (f *Formula) Source() string { return f.src }

// Columns returns the distinct column names referenced, in order of first
// appearance.
func (f *Formula) Columns() []string {
	return append([]string(nil), f.refs...)
}

// Eval evaluates the formula against one row. Integral numeric results are
// returned as Int, other numbers as Float and empty strings as Null.
func (f *Formula) Eval(env Env) (dataset.Value, error) {
	v, err := f.root.eval(env)
	if err != nil {
		return dataset.Null(), err
	}
	return v.toDataset(), nil
}

// MapEnv is an Env backed by a map, convenient for tests and previews.
type MapEnv map[string]dataset.Value

func (m MapEnv) Lookup(name string) (dataset.Value, bool) {
	v, ok := m[name]
	return v, ok
}
