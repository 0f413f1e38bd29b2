package derive

import (
	"errors"
	"testing"

	"rulecheck/internal/dataset"
	"rulecheck/internal/formula"
	"rulecheck/internal/rules"
)

func sample() *dataset.Dataset {
	return dataset.FromStrings(
		[]string{"First", "Last", "Qty", "Unit Price"},
		[][]string{
			{"Ada", "Lovelace", "2", "1.25"},
			{"Alan", "Turing", "3", "2"},
		},
	)
}

func TestApply_AppendsAndChains(t *testing.T) {
	t.Parallel()

	rs := rules.NewRuleSet(
		rules.Rule{Field: "First", Type: rules.String},
		rules.Rule{Field: "Full", Type: rules.String, DerivedFormula: "First + ' ' + Last"},
		rules.Rule{Field: "Total", Type: rules.Float, DerivedFormula: "Qty * [Unit Price]"},
		rules.Rule{Field: "Shout", Type: rules.String, DerivedFormula: "upper(Full)"},
	)
	in := sample()
	out, err := Apply(in, rs)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if in.Width() != 4 {
		t.Fatalf("input mutated: width %d", in.Width())
	}

	full, ok := out.Column("Full")
	if !ok || full.Values[1].Text() != "Alan Turing" {
		t.Fatalf("Full = %+v", full)
	}
	total, _ := out.Column("Total")
	if total.Values[0].Text() != "2.5" || total.Values[1].Text() != "6" {
		t.Fatalf("Total = %q, %q", total.Values[0].Text(), total.Values[1].Text())
	}
	shout, _ := out.Column("Shout")
	if shout.Values[0].Text() != "ADA LOVELACE" {
		t.Fatalf("Shout = %q", shout.Values[0].Text())
	}
	want := []string{"First", "Last", "Qty", "Unit Price", "Full", "Total", "Shout"}
	for i, n := range out.Names() {
		if n != want[i] {
			t.Fatalf("Names = %v, want %v", out.Names(), want)
		}
	}
}

func TestApply_OverwritesNormalizedMatch(t *testing.T) {
	t.Parallel()

	rs := rules.NewRuleSet(rules.Rule{Field: "qty", Type: rules.Int, DerivedFormula: "Qty * 10"})
	out, err := Apply(sample(), rs)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 4 {
		t.Fatalf("width = %d, want 4", out.Width())
	}
	c, _ := out.Column("Qty")
	if c.Values[0].Text() != "20" || c.Values[0].Kind() != dataset.KindInt {
		t.Fatalf("Qty[0] = %v", c.Values[0].Any())
	}
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		formula string
		row     int
		target  error
	}{
		{"syntax", "First +", 0, nil},
		{"unknown column", "Nope + 1", 0, formula.ErrUnknownColumn},
		{"unknown function", "eval(First)", 0, nil},
		{"type error", "First * 2", 1, formula.ErrType},
		{"div zero", "Qty / (Qty - 3)", 2, formula.ErrDivisionByZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := rules.NewRuleSet(rules.Rule{Field: "X", DerivedFormula: tc.formula})
			out, err := Apply(sample(), rs)
			if out != nil {
				t.Fatal("partial dataset returned")
			}
			var de *DerivationError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want *DerivationError", err)
			}
			if de.Field != "X" || de.Row != tc.row {
				t.Fatalf("got field %q row %d, want X row %d", de.Field, de.Row, tc.row)
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("err = %v, want %v", err, tc.target)
			}
		})
	}
}

func TestApply_NoDerivedRulesIsCopy(t *testing.T) {
	t.Parallel()

	in := sample()
	out, err := Apply(in, rules.NewRuleSet(rules.DefaultRule("First")))
	if err != nil {
		t.Fatal(err)
	}
	if out == in || out.Width() != in.Width() || out.Len() != in.Len() {
		t.Fatal("expected an equal but distinct dataset")
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()

	rs := rules.NewRuleSet(
		rules.Rule{Field: "Full", DerivedFormula: "first + last"},
		rules.Rule{Field: "Initials", DerivedFormula: "substr(Full, 1, 1)"},
	)
	if err := Compile([]string{"First", "Last"}, rs); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := Compile([]string{"First"}, rs); !errors.Is(err, formula.ErrUnknownColumn) {
		t.Fatalf("err = %v, want unknown column", err)
	}
}

func TestApply_HugeIntegerArguments(t *testing.T) {
	t.Parallel()

	rs := rules.NewRuleSet(rules.Rule{Field: "Short", Type: rules.String, DerivedFormula: "substr(First, 2, 9223372036854775807)"})
	out, err := Apply(sample(), rs)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	c, _ := out.Column("Short")
	if c.Values[0].Text() != "da" || c.Values[1].Text() != "lan" {
		t.Fatalf("Short = %q, %q", c.Values[0].Text(), c.Values[1].Text())
	}

	rs = rules.NewRuleSet(rules.Rule{Field: "R", DerivedFormula: "round([Unit Price], 4294967296)"})
	if _, err := Apply(sample(), rs); !errors.Is(err, formula.ErrType) {
		t.Fatalf("err = %v, want type error", err)
	}
}
