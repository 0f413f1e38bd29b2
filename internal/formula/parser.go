package formula

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type parser struct {
	toks []token
	pos  int
	refs []string
	seen map[string]bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected %s, found %s", what, describe(t))}
	}
	return t, nil
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of formula"
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	case tokColumn:
		return fmt.Sprintf("column [%s]", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

func (p *parser) ref(name string) {
	if !p.seen[name] {
		p.seen[name] = true
		p.refs = append(p.refs, name)
	}
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text[0], left: left, right: right, pos: t.pos}
	}
}

// term := unary (('*' | '/' | '%') unary)*
func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || !strings.Contains("*/%", t.text) {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text[0], left: left, right: right, pos: t.pos}
	}
}

func (p *parser) unary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			return &negNode{operand: operand, pos: t.pos, plus: true}, nil
		}
		return &negNode{operand: operand, pos: t.pos}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		d, err := decimal.NewFromString(t.text)
		if err != nil {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("bad number %q", t.text)}
		}
		return &litNode{v: numberValue(d)}, nil
	case tokString:
		return &litNode{v: stringValue(t.text)}, nil
	case tokColumn:
		p.ref(t.text)
		return &colNode{name: t.text, pos: t.pos}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		p.ref(t.text)
		return &colNode{name: t.text, pos: t.pos}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", describe(t))}
	}
}

func (p *parser) call(name token) (node, error) {
	p.next() // (
	fn := strings.ToLower(name.text)

	if fn == "raw" {
		arg := p.next()
		if arg.kind != tokIdent && arg.kind != tokColumn {
			return nil, &SyntaxError{Pos: arg.pos, Msg: "raw() takes a column name"}
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		p.ref(arg.text)
		return &colNode{name: arg.text, pos: arg.pos, raw: true}, nil
	}

	b, ok := builtins[fn]
	if !ok {
		return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("unknown function %q", name.text)}
	}

	var args []node
	if p.peek().kind != tokRParen {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if len(args) < b.min || (b.max >= 0 && len(args) > b.max) {
		return nil, &SyntaxError{Pos: name.pos, Msg: fmt.Sprintf("%s() takes %s, got %d", fn, arity(b), len(args))}
	}
	return &callNode{name: fn, fn: b.fn, args: args, pos: name.pos}, nil
}

func arity(b builtin) string {
	switch {
	case b.max < 0:
		return fmt.Sprintf("at least %d argument(s)", b.min)
	case b.min == b.max:
		return fmt.Sprintf("%d argument(s)", b.min)
	default:
		return fmt.Sprintf("%d to %d arguments", b.min, b.max)
	}
}
