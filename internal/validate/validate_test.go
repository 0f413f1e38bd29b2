package validate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"rulecheck/internal/dataset"
	"rulecheck/internal/derive"
	"rulecheck/internal/report"
	"rulecheck/internal/rules"
)

func col(name string, vals ...string) *dataset.Dataset {
	rows := make([][]string, len(vals))
	for i, v := range vals {
		rows[i] = []string{v}
	}
	return dataset.FromStrings([]string{name}, rows)
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ds   *dataset.Dataset
		rule rules.Rule
		want report.Errors
	}{
		{
			name: "float ok",
			ds:   col("Amount", "12.5"),
			rule: rules.Rule{Field: "Amount", Type: rules.Float, Mandatory: true},
		},
		{
			name: "mandatory supersedes type",
			ds:   col("Amount", ""),
			rule: rules.Rule{Field: "Amount", Type: rules.Float, Mandatory: true},
			want: report.Errors{MandatoryErrors: []report.Record{{Column: "Amount", Row: 1, Value: dataset.Null()}}},
		},
		{
			name: "whitespace is empty",
			ds:   col("Amount", "   "),
			rule: rules.Rule{Field: "Amount", Type: rules.Float, Mandatory: true},
			want: report.Errors{MandatoryErrors: []report.Record{{Column: "Amount", Row: 1, Value: dataset.String("   ")}}},
		},
		{
			name: "optional empty is clean",
			ds:   col("Amount", "", " "),
			rule: rules.Rule{Field: "Amount", Type: rules.Int},
		},
		{
			name: "bad date",
			ds:   col("Date", "2024-13-01"),
			rule: rules.Rule{Field: "Date", Type: rules.Date, DateFormat: "%Y%m%d"},
			want: report.Errors{DateFormatErrors: []report.Record{
				{Column: "Date", Row: 1, Value: dataset.String("2024-13-01"), ExpectedFormat: "%Y%m%d"},
			}},
		},
		{
			name: "default date format",
			ds:   col("Date", "20240131", "20241301"),
			rule: rules.Rule{Field: "Date", Type: rules.Date},
			want: report.Errors{DateFormatErrors: []report.Record{
				{Column: "Date", Row: 2, Value: dataset.String("20241301"), ExpectedFormat: "%Y%m%d"},
			}},
		},
		{
			name: "too long",
			ds:   col("Code", "ABC", "ABCD"),
			rule: rules.Rule{Field: "Code", Type: rules.String, MaxLength: 3},
			want: report.Errors{LengthErrors: []report.Record{
				{Column: "Code", Row: 2, Value: dataset.String("ABCD"), MaxLength: 3},
			}},
		},
		{
			name: "length counts runes of trimmed text",
			ds:   col("Code", " été "),
			rule: rules.Rule{Field: "Code", Type: rules.String, MaxLength: 3},
		},
		{
			name: "int forms",
			ds:   col("N", "12", "-3", "+4", "99999999999999999999999", "1.0", "x", "1e3"),
			rule: rules.Rule{Field: "N", Type: rules.Int},
			want: report.Errors{TypeErrors: []report.Record{
				{Column: "N", Row: 5, Value: dataset.String("1.0")},
				{Column: "N", Row: 6, Value: dataset.String("x")},
				{Column: "N", Row: 7, Value: dataset.String("1e3")},
			}},
		},
		{
			name: "float forms",
			ds:   col("F", "1", "1.5", "-2e3", "abc"),
			rule: rules.Rule{Field: "F", Type: rules.Float},
			want: report.Errors{TypeErrors: []report.Record{{Column: "F", Row: 4, Value: dataset.String("abc")}}},
		},
		{
			name: "missing column",
			ds:   col("Other", "x"),
			rule: rules.Rule{Field: "Email", Type: rules.String, Mandatory: true},
			want: report.Errors{MissingColumns: []string{"Email"}, ExtraColumns: []string{"Other"}},
		},
		{
			name: "normalized match records rule name",
			ds:   col(" Order Date", ""),
			rule: rules.Rule{Field: "orderdate", Type: rules.Date, Mandatory: true},
			want: report.Errors{MandatoryErrors: []report.Record{{Column: "orderdate", Row: 1, Value: dataset.Null()}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Run(tc.ds, rules.NewRuleSet(tc.rule))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got  %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestExtraColumnsOnly(t *testing.T) {
	t.Parallel()

	ds := dataset.FromStrings([]string{"Name", "Extra1"}, [][]string{{"x", "y"}})
	got := Run(ds, rules.NewRuleSet(rules.Rule{Field: "Name", Type: rules.String}))
	want := report.Errors{ExtraColumns: []string{"Extra1"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestTypedCells(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew(dataset.Column{Name: "N", Values: []dataset.Value{dataset.Int(5), dataset.Float(12), dataset.Float(2.5)}})
	got := Run(ds, rules.NewRuleSet(rules.Rule{Field: "N", Type: rules.Int}))
	if len(got.TypeErrors) != 1 || got.TypeErrors[0].Row != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestDerivedConcatenation(t *testing.T) {
	t.Parallel()

	ds := dataset.FromStrings([]string{"Qty", "Price"}, [][]string{{"2", "3"}})
	rs := rules.NewRuleSet(
		rules.Rule{Field: "Qty", Type: rules.Int},
		rules.Rule{Field: "Price", Type: rules.Int},
		rules.Rule{Field: "Total", Type: rules.String, DerivedFormula: "Qty+Price"},
	)
	out, err := derive.Apply(ds, rs)
	if err != nil {
		t.Fatal(err)
	}
	total, _ := out.Column("Total")
	if total.Values[0].Text() != "23" {
		t.Fatalf("Total = %q", total.Values[0].Text())
	}
	if errs := Run(out, rs); errs.Total() != 0 {
		t.Fatalf("unexpected findings %+v", errs)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	const n = 40
	header := make([]string, n)
	row1 := make([]string, n)
	row2 := make([]string, n)
	rs := rules.NewRuleSet()
	for i := 0; i < n; i++ {
		header[i] = fmt.Sprintf("c%02d", i)
		row1[i] = fmt.Sprintf("%d", i)
		row2[i] = ""
		typ := []rules.FieldType{rules.Int, rules.Float, rules.Date, rules.String}[i%4]
		rs.Add(rules.Rule{Field: header[i], Type: typ, Mandatory: i%3 == 0, MaxLength: 1})
	}
	rs.Add(rules.Rule{Field: "absent", Type: rules.String})
	ds := dataset.FromStrings(append(header, "zz"), [][]string{append(row1, "a"), append(row2, "b")})

	seq, err := json.Marshal(report.Build(Run(ds, rs)))
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []int{2, 4, 16} {
		par, err := json.Marshal(report.Build(New(Options{Workers: w}).Run(ds, rs)))
		if err != nil {
			t.Fatal(err)
		}
		if string(par) != string(seq) {
			t.Fatalf("workers=%d output differs:\n%s\n%s", w, par, seq)
		}
	}
}
