// Package derive computes derived fields. Every rule carrying a formula is
// evaluated row by row, in rule-set order, against a copy of the dataset; the
// result is written back as a column before validation runs.
package derive

import (
	"fmt"

	"rulecheck/internal/dataset"
	"rulecheck/internal/formula"
	"rulecheck/internal/rules"
)

// DerivationError aborts a run. Row is 1-based; 0 means the formula failed to
// compile or referenced an unknown column.
type DerivationError struct {
	Field string
	Row   int
	Err   error
}

func (e *DerivationError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("derive %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("derive %q: row %d: %v", e.Field, e.Row, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }

// Apply returns a copy of ds with every derived field computed. ds is never
// modified. On error no partial dataset is returned.
func Apply(ds *dataset.Dataset, rs *rules.RuleSet) (*dataset.Dataset, error) {
	out := ds.Clone()
	for _, r := range rs.Rules() {
		if !r.Derived() {
			continue
		}
		if err := applyRule(out, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Compile parses every derived formula in rs and checks that it references
// only columns that exist in cols or are produced by an earlier derived rule.
// It reports the first failure, matching what Apply would return.
func Compile(cols []string, rs *rules.RuleSet) error {
	known := map[string]bool{}
	for _, c := range cols {
		known[c] = true
		known[dataset.NormalizeName(c)] = true
	}
	for _, r := range rs.Rules() {
		if !r.Derived() {
			continue
		}
		f, err := formula.Parse(r.DerivedFormula)
		if err != nil {
			return &DerivationError{Field: r.Field, Err: err}
		}
		for _, ref := range f.Columns() {
			if !known[ref] && !known[dataset.NormalizeName(ref)] {
				return &DerivationError{Field: r.Field, Err: fmt.Errorf("%w %q", formula.ErrUnknownColumn, ref)}
			}
		}
		known[r.Field] = true
		known[r.Key()] = true
	}
	return nil
}

func applyRule(ds *dataset.Dataset, r rules.Rule) error {
	f, err := formula.Parse(r.DerivedFormula)
	if err != nil {
		return &DerivationError{Field: r.Field, Err: err}
	}

	env := rowEnv{cols: make(map[string][]dataset.Value, len(f.Columns()))}
	for _, ref := range f.Columns() {
		c, ok := resolve(ds, ref)
		if !ok {
			return &DerivationError{Field: r.Field, Err: fmt.Errorf("%w %q", formula.ErrUnknownColumn, ref)}
		}
		env.cols[ref] = c.Values
	}

	values := make([]dataset.Value, ds.Len())
	for i := range values {
		env.row = i
		v, err := f.Eval(env)
		if err != nil {
			return &DerivationError{Field: r.Field, Row: i + 1, Err: err}
		}
		values[i] = v
	}
	if err := ds.Set(r.Field, values); err != nil {
		return &DerivationError{Field: r.Field, Err: err}
	}
	return nil
}

// resolve finds a column by exact name first, then by normalized name.
func resolve(ds *dataset.Dataset, name string) (dataset.Column, bool) {
	if c, ok := ds.Column(name); ok {
		return c, true
	}
	return ds.Lookup(name)
}

type rowEnv struct {
	cols map[string][]dataset.Value
	row  int
}

func (e rowEnv) Lookup(name string) (dataset.Value, bool) {
	vals, ok := e.cols[name]
	if !ok {
		return dataset.Null(), false
	}
	return vals[e.row], true
}
