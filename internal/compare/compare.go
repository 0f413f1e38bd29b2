// Package compare checks a dataset against an expected schema: which
// columns match, which are missing or extra, and whether each expected
// column's inferred coarse type agrees with what was declared.
package compare

import (
	"fmt"
	"sort"

	"rulecheck/internal/dataset"
	"rulecheck/internal/rules"
)

// Kind is a coarse column type.
type Kind string

const (
	Number Kind = "number"
	Date   Kind = "date"
	String Kind = "string"
)

// ParseKind accepts "number", "date" or "string". Errors wrap
// rules.ErrConfig.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Number, Date, String:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown schema type %q", rules.ErrConfig, s)
	}
}

// Field is one expected column.
type Field struct {
	Name string
	Type Kind
}

// Expected is an expected schema in declaration order.
type Expected []Field

// FromRules derives an expected schema from a rule set.
func FromRules(rs *rules.RuleSet) Expected {
	out := make(Expected, 0, rs.Len())
	for _, r := range rs.Rules() {
		out = append(out, Field{Name: r.Field, Type: kindOf(r.Type)})
	}
	return out
}

func kindOf(t rules.FieldType) Kind {
	switch t {
	case rules.Int, rules.Float:
		return Number
	case rules.Date:
		return Date
	case rules.String:
		return String
	default:
		panic(fmt.Sprintf("compare: unhandled field type %v", t))
	}
}

// Result partitions column names by normalized-name presence.
type Result struct {
	Matching []string `json:"matching_columns"`
	Missing  []string `json:"missing_columns"`
	Extra    []string `json:"extra_columns"`
}

// Mismatch records an expected column whose inferred type differs.
type Mismatch struct {
	Column   string `json:"column"`
	Expected Kind   `json:"expected"`
	Found    Kind   `json:"found"`
}

// Schema compares column presence. Matching and Missing list expected names,
// Extra lists dataset names; all three are sorted.
func Schema(ds *dataset.Dataset, expected Expected) Result {
	want := make(map[string]bool, len(expected))
	res := Result{Matching: []string{}, Missing: []string{}, Extra: []string{}}
	for _, f := range expected {
		want[dataset.NormalizeName(f.Name)] = true
		if _, ok := ds.Lookup(f.Name); ok {
			res.Matching = append(res.Matching, f.Name)
		} else {
			res.Missing = append(res.Missing, f.Name)
		}
	}
	for _, name := range ds.Names() {
		if !want[dataset.NormalizeName(name)] {
			res.Extra = append(res.Extra, name)
		}
	}
	sort.Strings(res.Matching)
	sort.Strings(res.Missing)
	sort.Strings(res.Extra)
	return res
}

// Types infers the kind of every expected column present in ds and reports
// disagreements, ordered by expected name.
func Types(ds *dataset.Dataset, expected Expected) []Mismatch {
	sorted := append(Expected(nil), expected...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var out []Mismatch
	for _, f := range sorted {
		c, ok := ds.Lookup(f.Name)
		if !ok {
			continue
		}
		if found := InferType(c.Values); found != f.Type {
			out = append(out, Mismatch{Column: f.Name, Expected: f.Type, Found: found})
		}
	}
	return out
}
