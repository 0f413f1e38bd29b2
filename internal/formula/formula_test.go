package formula

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"rulecheck/internal/dataset"
)

func row() MapEnv {
	return MapEnv{
		"First":     dataset.String("Ada"),
		"Last":      dataset.String("Lovelace"),
		"Qty":       dataset.String("3"),
		"Price":     dataset.String("2.50"),
		"Count":     dataset.Int(4),
		"Born":      dataset.String("18151210"),
		"Blank":     dataset.Null(),
		"Full Name": dataset.String("Ada Lovelace"),
	}
}

func TestEval(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want dataset.Value
	}{
		{"First + ' ' + Last", dataset.String("Ada Lovelace")},
		{"Qty * Price", dataset.Float(7.5)},
		{"Qty * 2", dataset.Int(6)},
		{"Qty - 1", dataset.Int(2)},
		{"-Qty + 10", dataset.Int(7)},
		{"10 % 4", dataset.Int(2)},
		{"1 + 2 * 3", dataset.Int(7)},
		{"(1 + 2) * 3", dataset.Int(9)},
		{"Count + Count", dataset.String("44")},
		{"raw(Count) + raw(Count)", dataset.Int(8)},
		{"upper(First)", dataset.String("ADA")},
		{"lower([Full Name])", dataset.String("ada lovelace")},
		{"len(Last)", dataset.Int(8)},
		{"substr(Last, 1, 4)", dataset.String("Love")},
		{"substr(Last, 5)", dataset.String("lace")},
		{"substr(Last, 20)", dataset.Null()},
		{"substr(Last, 2, 9223372036854775807)", dataset.String("ovelace")},
		{"substr(Last, -9223372036854775807, 2)", dataset.String("Lo")},
		{"substr(Last, 9223372036854775807)", dataset.Null()},
		{"substr(Last, 3, -1)", dataset.Null()},
		{"round(Price, 64)", dataset.Float(2.5)},
		{"concat(First, '-', Count)", dataset.String("Ada-4")},
		{"coalesce(Blank, '', First)", dataset.String("Ada")},
		{"coalesce(Blank)", dataset.Null()},
		{"round(Price / 3, 2)", dataset.Float(0.83)},
		{"abs(0 - Qty)", dataset.Int(3)},
		{"int('7.9')", dataset.Int(7)},
		{"str(1.50)", dataset.String("1.5")},
		{"date(Born, '%Y%m%d')", dataset.Time(time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC))},
		{"format_date(date(Born, '%Y%m%d'), '%Y-%m-%d')", dataset.String("1815-12-10")},
		{"format_date(add_days(date(Born, '%Y%m%d'), 30), '%Y%m%d')", dataset.String("18160109")},
		{"date(Born, '%Y%m%d') + 1", dataset.Time(time.Date(1815, 12, 11, 0, 0, 0, 0, time.UTC))},
		{"days_between(date('20240101', '%Y%m%d'), date('20240301', '%Y%m%d'))", dataset.Int(60)},
		{"date('20240301', '%Y%m%d') - date('20240101', '%Y%m%d')", dataset.Int(60)},
		{"days_between(date('16000101', '%Y%m%d'), date('20000101', '%Y%m%d'))", dataset.Int(146097)},
		{"date(Blank, '%Y%m%d')", dataset.Null()},
		{`"it\'s"`, dataset.String("it's")},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			f, err := Parse(tc.src)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got, err := f.Eval(row())
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v (%s), want %v (%s)", got.Any(), got.Kind(), tc.want.Any(), tc.want.Kind())
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want error
	}{
		{"First * 2", ErrType},
		{"Qty / 0", ErrDivisionByZero},
		{"Qty % (1 - 1)", ErrDivisionByZero},
		{"Missing + 1", ErrUnknownColumn},
		{"date(First, '%Y%m%d')", ErrType},
		{"add_days(Born, 1)", ErrType},
		{"days_between(Born, Born)", ErrType},
		{"substr(First, 1.5)", ErrType},
		{"round(Price, 4294967296)", ErrType},
		{"round(Price, 65)", ErrType},
		{"add_days(date(Born, '%Y%m%d'), 9223372036854775807)", ErrType},
		{"date(Born, '%Y%m%d') - 4000000", ErrType},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			f, err := Parse(tc.src)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if _, err := f.Eval(row()); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"",
		"   ",
		"1 +",
		"(1 + 2",
		"First Last",
		"__import__('os').system('ls')",
		"exec('x')",
		"First.upper()",
		"upper()",
		"substr(a)",
		"raw('x')",
		"[unterminated",
		"[]",
		"'open",
		"a ; b",
		"a == b",
	} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
		} else {
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("Parse(%q) error %T, want *SyntaxError", src, err)
			}
		}
	}
}

func TestColumns(t *testing.T) {
	t.Parallel()

	f := MustParse("concat(A, [B C], A, raw(D)) + upper(E)")
	want := []string{"A", "B C", "D", "E"}
	if got := f.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns = %v, want %v", got, want)
	}
	if f.Source() == "" {
		t.Fatal("Source is empty")
	}
}

func TestFunctionNamesCaseInsensitive(t *testing.T) {
	t.Parallel()

	got, err := MustParse("UPPER(First)").Eval(row())
	if err != nil {
		t.Fatal(err)
	}
	if got.Text() != "ADA" {
		t.Fatalf("got %q", got.Text())
	}
}
