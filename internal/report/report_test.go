package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"rulecheck/internal/compare"
	"rulecheck/internal/dataset"
)

func TestBuild_EmptyIsStandard(t *testing.T) {
	t.Parallel()

	r := Build(Errors{})
	if !r.IsStandard {
		t.Fatal("empty errors should be standard")
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"column_comparison":{},"is_standard":true}`; got != want {
		t.Fatalf("json = %s, want %s", got, want)
	}
}

func TestBuild_EachCategoryFailsVerdict(t *testing.T) {
	t.Parallel()

	rec := Record{Column: "a", Row: 1, Value: dataset.String("x")}
	for _, e := range []Errors{
		{MissingColumns: []string{"a"}},
		{ExtraColumns: []string{"a"}},
		{TypeErrors: []Record{rec}},
		{LengthErrors: []Record{rec}},
		{DateFormatErrors: []Record{rec}},
		{MandatoryErrors: []Record{rec}},
	} {
		if Build(e).IsStandard {
			t.Errorf("Build(%+v).IsStandard = true", e)
		}
	}
}

func TestMarshal_OrderAndOmission(t *testing.T) {
	t.Parallel()

	errs := Errors{
		MandatoryErrors: []Record{{Column: "Name", Row: 2, Value: dataset.Null()}},
		MissingColumns:  []string{"Email"},
		LengthErrors:    []Record{{Column: "Code", Row: 1, Value: dataset.String("ABCD"), MaxLength: 3}},
		DateFormatErrors: []Record{
			{Column: "DOB", Row: 3, Value: dataset.String("2024-13-01"), ExpectedFormat: "%Y%m%d"},
		},
	}
	b, err := json.Marshal(Build(errs))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"column_comparison":{` +
		`"missing_columns":["Email"],` +
		`"length_errors":[{"column":"Code","row":1,"value":"ABCD","max_length":3}],` +
		`"date_format_errors":[{"column":"DOB","row":3,"value":"2024-13-01","expected_format":"%Y%m%d"}],` +
		`"mandatory_errors":[{"column":"Name","row":2,"value":null}]` +
		`},"is_standard":false}`
	if string(b) != want {
		t.Fatalf("json =\n%s\nwant\n%s", b, want)
	}
}

func TestBuild_DoesNotAlias(t *testing.T) {
	t.Parallel()

	errs := Errors{MissingColumns: []string{"a"}}
	r := Build(errs)
	errs.MissingColumns[0] = "changed"
	if r.Errors.MissingColumns[0] != "a" {
		t.Fatal("report shares memory with input")
	}
}

func TestBuildComparison(t *testing.T) {
	t.Parallel()

	res := compare.Result{Matching: []string{"a"}, Missing: []string{}, Extra: []string{}}
	mm := []compare.Mismatch{{Column: "a", Expected: compare.Number, Found: compare.String}}
	r := BuildComparison(res, mm)
	if !r.IsStandard {
		t.Fatal("type mismatches must not affect the verdict")
	}
	b, _ := json.Marshal(r)
	want := `{"column_comparison":{"matching_columns":["a"],"type_mismatches":[{"column":"a","expected":"number","found":"string"}]},"is_standard":true}`
	if string(b) != want {
		t.Fatalf("json = %s", b)
	}

	res.Missing = []string{"b"}
	if BuildComparison(res, nil).IsStandard {
		t.Fatal("missing column should fail the verdict")
	}
}

func TestWriteJSONAndFingerprint(t *testing.T) {
	t.Parallel()

	errs := Errors{ExtraColumns: []string{"x"}}
	var a, b bytes.Buffer
	if err := Build(errs).WriteJSON(&a); err != nil {
		t.Fatal(err)
	}
	if err := Build(errs).WriteJSON(&b); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatal("output not deterministic")
	}
	if !strings.Contains(a.String(), "\n  \"column_comparison\": {\n    \"extra_columns\": [") {
		t.Fatalf("unexpected indentation:\n%s", a.String())
	}

	f1, err := Build(errs).Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	f2, _ := Build(errs).Fingerprint()
	f3, _ := Build(Errors{}).Fingerprint()
	if f1 != f2 || f1 == f3 || len(f1) != 16 {
		t.Fatalf("fingerprints %s %s %s", f1, f2, f3)
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	var e Errors
	e.Merge(Errors{MissingColumns: []string{"a"}})
	e.Merge(Errors{MissingColumns: []string{"b"}, TypeErrors: []Record{{Column: "c", Row: 1}}})
	if e.Count(MissingColumns) != 2 || e.Count(TypeErrors) != 1 || e.Total() != 3 {
		t.Fatalf("merged = %+v", e)
	}
}
