package formula

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"rulecheck/internal/datefmt"
)

type builtin struct {
	min, max int // max < 0 means variadic
	fn       func(args []value) (value, error)
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"str":          {1, 1, fnStr},
		"num":          {1, 1, fnNum},
		"int":          {1, 1, fnInt},
		"upper":        {1, 1, textFn(strings.ToUpper)},
		"lower":        {1, 1, textFn(strings.ToLower)},
		"trim":         {1, 1, textFn(strings.TrimSpace)},
		"len":          {1, 1, fnLen},
		"substr":       {2, 3, fnSubstr},
		"concat":       {1, -1, fnConcat},
		"coalesce":     {1, -1, fnCoalesce},
		"round":        {1, 2, fnRound},
		"abs":          {1, 1, fnAbs},
		"date":         {2, 2, fnDate},
		"format_date":  {2, 2, fnFormatDate},
		"add_days":     {2, 2, fnAddDays},
		"days_between": {2, 2, fnDaysBetween},
	}
}

func textFn(f func(string) string) func([]value) (value, error) {
	return func(args []value) (value, error) {
		return stringValue(f(args[0].text())), nil
	}
}

func fnStr(args []value) (value, error) { return stringValue(args[0].text()), nil }

func fnNum(args []value) (value, error) {
	d, err := args[0].number()
	if err != nil {
		return value{}, err
	}
	return numberValue(d), nil
}

func fnInt(args []value) (value, error) {
	d, err := args[0].number()
	if err != nil {
		return value{}, err
	}
	return numberValue(d.Truncate(0)), nil
}

func fnLen(args []value) (value, error) {
	return numberValue(decimal.NewFromInt(int64(utf8.RuneCountInString(args[0].text())))), nil
}

// fnSubstr is 1-based; the optional third argument is a rune count. Counts
// past the end of the string stop at the end.
func fnSubstr(args []value) (value, error) {
	runes := []rune(args[0].text())
	start, err := wholeArg(args[1])
	if err != nil {
		return value{}, err
	}
	if start.GreaterThan(decimal.NewFromInt(int64(len(runes)))) {
		return stringValue(""), nil
	}
	from := 1
	if start.IsPositive() {
		from = int(start.IntPart())
	}
	end := len(runes)
	if len(args) == 3 {
		n, err := wholeArg(args[2])
		if err != nil {
			return value{}, err
		}
		switch {
		case n.IsNegative():
			end = from - 1
		case n.LessThan(decimal.NewFromInt(int64(end - from + 1))):
			end = from - 1 + int(n.IntPart())
		}
	}
	return stringValue(string(runes[from-1 : end])), nil
}

func fnConcat(args []value) (value, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.text())
	}
	return stringValue(b.String()), nil
}

func fnCoalesce(args []value) (value, error) {
	for _, a := range args {
		if !a.empty() {
			return a, nil
		}
	}
	return value{}, nil
}

func fnRound(args []value) (value, error) {
	d, err := args[0].number()
	if err != nil {
		return value{}, err
	}
	places := 0
	if len(args) == 2 {
		if places, err = intArg(args[1], maxRoundPlaces); err != nil {
			return value{}, err
		}
	}
	return numberValue(d.Round(int32(places))), nil
}

func fnAbs(args []value) (value, error) {
	d, err := args[0].number()
	if err != nil {
		return value{}, err
	}
	return numberValue(d.Abs()), nil
}

func fnDate(args []value) (value, error) {
	if args[0].k == kindDate {
		return args[0], nil
	}
	if args[0].empty() {
		return value{}, nil
	}
	t, err := datefmt.Parse(args[1].text(), args[0].text())
	if err != nil {
		return value{}, typeErr("%q does not match %q", args[0].text(), args[1].text())
	}
	return dateValue(t), nil
}

func fnFormatDate(args []value) (value, error) {
	if args[0].k == kindNull {
		return value{}, nil
	}
	t, err := args[0].date()
	if err != nil {
		return value{}, err
	}
	return stringValue(datefmt.Format(args[1].text(), t)), nil
}

func fnAddDays(args []value) (value, error) {
	if args[0].k == kindNull {
		return value{}, nil
	}
	if _, err := args[0].date(); err != nil {
		return value{}, err
	}
	n, err := args[1].number()
	if err != nil {
		return value{}, err
	}
	return add(args[0], numberValue(n))
}

func fnDaysBetween(args []value) (value, error) {
	a, err := args[0].date()
	if err != nil {
		return value{}, err
	}
	b, err := args[1].date()
	if err != nil {
		return value{}, err
	}
	return numberValue(daysBetween(a, b)), nil
}

// maxRoundPlaces bounds round's second argument in both directions.
const maxRoundPlaces = 64

// wholeArg returns v as an integral decimal.
func wholeArg(v value) (decimal.Decimal, error) {
	d, err := v.number()
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsInteger() {
		return decimal.Zero, typeErr("%s is not a whole number", d)
	}
	return d, nil
}

// intArg returns v as an int within [-limit, limit].
func intArg(v value, limit int64) (int, error) {
	d, err := wholeArg(v)
	if err != nil {
		return 0, err
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(limit)) {
		return 0, typeErr("%s is out of range [-%d, %d]", d, limit, limit)
	}
	return int(d.IntPart()), nil
}
