package rules

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func fieldNames(rs *RuleSet) []string {
	var out []string
	for _, r := range rs.Rules() {
		out = append(out, r.Field)
	}
	return out
}

func TestParseFieldType(t *testing.T) {
	t.Parallel()

	cases := map[string]FieldType{"": String, "string": String, "INT": Int, " float ": Float, "date": Date}
	for in, want := range cases {
		got, err := ParseFieldType(in)
		if err != nil || got != want {
			t.Errorf("ParseFieldType(%q)=%v,%v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFieldType("decimal"); !errors.Is(err, ErrConfig) {
		t.Fatalf("unknown type must wrap ErrConfig, got %v", err)
	}
}

func TestDecode_OrderAndDefaults(t *testing.T) {
	t.Parallel()

	in := `{
	  "Zeta":   {"type": "int", "mandatory": true},
	  "Alpha":  {"mandatory": false},
	  "Amount": {"type": "float"},
	  "Code":   {"type": "string", "max_length": "3"},
	  "Born":   {"type": "date", "format": "%Y-%m-%d"},
	  "Label":  {"type": "string", "derived": "Code + Zeta", "mapped_name": "LABEL"},
	  "Broken": {}
	}`
	rs, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []string{"Zeta", "Alpha", "Amount", "Code", "Born", "Label", "Broken"}
	if got := fieldNames(rs); !reflect.DeepEqual(got, want) {
		t.Fatalf("order=%v; want %v", got, want)
	}

	alpha, _ := rs.Get("alpha")
	if alpha.Type != String || alpha.Mandatory || alpha.MaxLength != DefaultMaxLength {
		t.Fatalf("malformed entry defaults wrong: %+v", alpha)
	}
	broken, _ := rs.Get("Broken")
	if !broken.Mandatory || broken.MaxLength != DefaultMaxLength {
		t.Fatalf("empty entry must default to mandatory string(50): %+v", broken)
	}
	amount, _ := rs.Get("Amount")
	if amount.Mandatory {
		t.Fatalf("typed entry without mandatory key must be optional")
	}
	code, _ := rs.Get("code")
	if code.MaxLength != 3 {
		t.Fatalf("max_length from string: %d", code.MaxLength)
	}
	born, _ := rs.Get("Born")
	if born.Layout() != "%Y-%m-%d" {
		t.Fatalf("legacy format key ignored: %q", born.Layout())
	}
	label, _ := rs.Get("Label")
	if !label.Derived() || label.DerivedFormula != "Code + Zeta" || label.MappedName != "LABEL" {
		t.Fatalf("derived/mapped wrong: %+v", label)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not object":   `["a"]`,
		"bad type":     `{"a": {"type": "decimal"}}`,
		"bad length":   `{"a": {"type": "string", "max_length": "ten"}}`,
		"neg length":   `{"a": {"type": "string", "max_length": -1}}`,
		"bad date fmt": `{"a": {"type": "date", "date_format": "%Q"}}`,
		"truncated":    `{"a": {"type": "int"}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrConfig) {
				t.Fatalf("err=%v; want ErrConfig", err)
			}
		})
	}
}

func TestDuplicateNormalizedNames_LastWins(t *testing.T) {
	t.Parallel()

	rs, err := Decode(strings.NewReader(`{"Order Date": {"type": "date"}, "orderdate": {"type": "string"}, "x": {"type": "int"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rs.Len() != 2 {
		t.Fatalf("len=%d; want 2", rs.Len())
	}
	r, _ := rs.Get("ORDER DATE")
	if r.Type != String || r.Field != "orderdate" {
		t.Fatalf("last write must win: %+v", r)
	}
	if fieldNames(rs)[0] != "orderdate" {
		t.Fatalf("replacement must keep first position: %v", fieldNames(rs))
	}
	if len(rs.Warnings()) != 1 {
		t.Fatalf("warnings=%v", rs.Warnings())
	}
}

func TestEncodeDecodeJSONAndYAML(t *testing.T) {
	t.Parallel()

	rs := NewRuleSet(
		Rule{Field: "b", Type: Int, Mandatory: true, MaxLength: 9},
		Rule{Field: "a", Type: Date},
		Rule{Field: "c", Type: String, MaxLength: 4, DerivedFormula: "a + b", MappedName: "C"},
	)

	var buf bytes.Buffer
	if err := Encode(&buf, rs); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(buf.String(), `"max_length": 9`) {
		t.Fatalf("max_length must be dropped for int rules:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `"date_format": "%Y%m%d"`) {
		t.Fatalf("default date format must be persisted:\n%s", buf.String())
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(fieldNames(back), []string{"b", "a", "c"}) {
		t.Fatalf("order lost: %v", fieldNames(back))
	}

	buf.Reset()
	if err := EncodeYAML(&buf, rs); err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	fromYAML, err := DecodeYAML(&buf)
	if err != nil {
		t.Fatalf("DecodeYAML: %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(fieldNames(fromYAML), []string{"b", "a", "c"}) {
		t.Fatalf("yaml order lost: %v", fieldNames(fromYAML))
	}
	c, _ := fromYAML.Get("c")
	if c.MaxLength != 4 || c.DerivedFormula != "a + b" || c.MappedName != "C" {
		t.Fatalf("yaml rule c=%+v", c)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	defaults := NewRuleSet(Rule{Field: "invoice date", Type: Date, Mandatory: true, DateFormat: "%d%m%Y"})
	rs := Init([]string{"Invoice Date", "Note"}, defaults)

	d, ok := rs.Get("InvoiceDate")
	if !ok || d.Field != "Invoice Date" || d.Type != Date || d.DateFormat != "%d%m%Y" {
		t.Fatalf("default not applied: %+v", d)
	}
	n, _ := rs.Get("Note")
	if n != DefaultRule("Note") {
		t.Fatalf("fallback rule=%+v", n)
	}
}

func TestStore(t *testing.T) {
	t.Parallel()

	s := Store{Dir: t.TempDir()}
	if _, err := s.Path("../evil"); !errors.Is(err, ErrConfig) {
		t.Fatalf("path traversal must be rejected")
	}
	if _, err := s.Load("acme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load before Save: err=%v, want ErrNotFound", err)
	}

	rs, fresh, err := s.LoadOrInit("acme", []string{"Id"})
	if err != nil || !fresh {
		t.Fatalf("LoadOrInit fresh=%v err=%v", fresh, err)
	}
	if err := s.Save("acme", rs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists("acme") {
		t.Fatalf("Exists=false after Save")
	}
	got, fresh, err := s.LoadOrInit("acme", nil)
	if err != nil || fresh || got.Len() != 1 {
		t.Fatalf("reload fresh=%v len=%d err=%v", fresh, got.Len(), err)
	}

	if err := SaveFile(filepath.Join(s.Dir, "nested", "x.yaml"), rs); err != nil {
		t.Fatalf("SaveFile yaml: %v", err)
	}
	if _, err := LoadFile(filepath.Join(s.Dir, "nested", "x.yaml")); err != nil {
		t.Fatalf("LoadFile yaml: %v", err)
	}
}
