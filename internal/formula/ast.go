package formula

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type node interface {
	eval(env Env) (value, error)
}

type litNode struct{ v value }

func (n *litNode) eval(Env) (value, error) { return n.v, nil }

// colNode reads a column of the current row. Plain references see the
// cell's string form; raw references see the typed cell.
type colNode struct {
	name string
	pos  int
	raw  bool
}

func (n *colNode) eval(env Env) (value, error) {
	dv, ok := env.Lookup(n.name)
	if !ok {
		return value{}, fmt.Errorf("%w %q", ErrUnknownColumn, n.name)
	}
	if n.raw {
		return fromDataset(dv), nil
	}
	return stringValue(dv.Text()), nil
}

type negNode struct {
	operand node
	pos     int
	plus    bool
}

func (n *negNode) eval(env Env) (value, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return value{}, err
	}
	d, err := v.number()
	if err != nil {
		return value{}, err
	}
	if n.plus {
		return numberValue(d), nil
	}
	return numberValue(d.Neg()), nil
}

type binaryNode struct {
	op          byte
	left, right node
	pos         int
}

func (n *binaryNode) eval(env Env) (value, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return value{}, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return value{}, err
	}
	switch n.op {
	case '+':
		return add(l, r)
	case '-':
		return sub(l, r)
	default:
		return arith(n.op, l, r)
	}
}

// add sums numbers, shifts dates by a day count and otherwise concatenates
// the operands' text.
func add(l, r value) (value, error) {
	switch {
	case l.k == kindNumber && r.k == kindNumber:
		return numberValue(l.n.Add(r.n)), nil
	case l.k == kindDate && r.k == kindNumber:
		d, err := days(r.n)
		if err != nil {
			return value{}, err
		}
		return dateValue(l.t.AddDate(0, 0, d)), nil
	case l.k == kindNumber && r.k == kindDate:
		return add(r, l)
	case l.k == kindDate && r.k == kindDate:
		return value{}, typeErr("cannot add two dates")
	default:
		return stringValue(l.text() + r.text()), nil
	}
}

func sub(l, r value) (value, error) {
	if l.k == kindDate {
		if r.k == kindDate {
			return numberValue(daysBetween(r.t, l.t)), nil
		}
		rn, err := r.number()
		if err != nil {
			return value{}, err
		}
		d, err := days(rn)
		if err != nil {
			return value{}, err
		}
		return dateValue(l.t.AddDate(0, 0, -d)), nil
	}
	return arith('-', l, r)
}

func arith(op byte, l, r value) (value, error) {
	a, err := l.number()
	if err != nil {
		return value{}, err
	}
	b, err := r.number()
	if err != nil {
		return value{}, err
	}
	var out decimal.Decimal
	switch op {
	case '-':
		out = a.Sub(b)
	case '*':
		out = a.Mul(b)
	case '/':
		if b.IsZero() {
			return value{}, ErrDivisionByZero
		}
		out = a.Div(b)
	case '%':
		if b.IsZero() {
			return value{}, ErrDivisionByZero
		}
		out = a.Mod(b)
	default:
		return value{}, fmt.Errorf("unsupported operator %q", op)
	}
	return numberValue(out), nil
}

type callNode struct {
	name string
	fn   func(args []value) (value, error)
	args []node
	pos  int
}

func (n *callNode) eval(env Env) (value, error) {
	args := make([]value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}
	v, err := n.fn(args)
	if err != nil {
		return value{}, fmt.Errorf("%s(): %w", n.name, err)
	}
	return v, nil
}
