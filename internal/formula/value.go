package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rulecheck/internal/dataset"
)

var (
	// ErrType is wrapped by every evaluation error caused by an operand of
	// the wrong kind.
	ErrType = errors.New("type error")
	// ErrDivisionByZero is returned for '/' and '%' with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUnknownColumn is returned when a referenced column is absent.
	ErrUnknownColumn = errors.New("unknown column")
)

type kind uint8

const (
	kindNull kind = iota
	kindString
	kindNumber
	kindDate
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindDate:
		return "date"
	default:
		return "null"
	}
}

type value struct {
	k kind
	s string
	n decimal.Decimal
	t time.Time
}

func stringValue(s string) value { return value{k: kindString, s: s} }
func numberValue(d decimal.Decimal) value { return value{k: kindNumber, n: d} }
func dateValue(t time.Time) value { return value{k: kindDate, t: t} }
func typeErr(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrType, fmt.Sprintf(format, a...))
}

func (v value) text() string {
	switch v.k {
	case kindString:
		return v.s
	case kindNumber:
		return v.n.String()
	case kindDate:
		return dataset.Time(v.t).Text()
	default:
		return ""
	}
}

func (v value) empty() bool {
	switch v.k {
	case kindNull:
		return true
	case kindString:
		return strings.TrimSpace(v.s) == ""
	default:
		return false
	}
}

// number coerces v to a decimal. Strings are parsed after trimming.
func (v value) number() (decimal.Decimal, error) {
	switch v.k {
	case kindNumber:
		return v.n, nil
	case kindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.s))
		if err != nil {
			return decimal.Zero, typeErr("%q is not a number", v.s)
		}
		return d, nil
	default:
		return decimal.Zero, typeErr("expected number, got %s", v.k)
	}
}

func (v value) date() (time.Time, error) {
	if v.k != kindDate {
		return time.Time{}, typeErr("expected date, got %s %q (use date(value, format))", v.k, v.text())
	}
	return v.t, nil
}

func fromDataset(dv dataset.Value) value {
	switch dv.Kind() {
	case dataset.KindString:
		return stringValue(dv.StringVal())
	case dataset.KindInt:
		return numberValue(decimal.NewFromInt(dv.Int()))
	case dataset.KindFloat:
		return numberValue(decimal.NewFromFloat(dv.Float()))
	case dataset.KindTime:
		return dateValue(dv.Time())
	default:
		return value{}
	}
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func (v value) toDataset() dataset.Value {
	switch v.k {
	case kindString:
		if v.s == "" {
			return dataset.Null()
		}
		return dataset.String(v.s)
	case kindNumber:
		if v.n.IsInteger() && v.n.Cmp(minInt64) >= 0 && v.n.Cmp(maxInt64) <= 0 {
			return dataset.Int(v.n.IntPart())
		}
		return dataset.Float(v.n.InexactFloat64())
	case kindDate:
		return dataset.Time(v.t)
	default:
		return dataset.Null()
	}
}

// maxDayOffset keeps date arithmetic within roughly ten thousand years.
const maxDayOffset = 3_660_000

func days(n decimal.Decimal) (int, error) {
	if !n.IsInteger() {
		return 0, typeErr("day offset %s is not a whole number", n)
	}
	if n.Abs().GreaterThan(decimal.NewFromInt(maxDayOffset)) {
		return 0, typeErr("day offset %s is out of range", n)
	}
	return int(n.IntPart()), nil
}

func daysBetween(a, b time.Time) decimal.Decimal {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return decimal.NewFromInt((db.Unix() - da.Unix()) / 86400)
}
