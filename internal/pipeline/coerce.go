package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"rulecheck/internal/dataset"
	"rulecheck/internal/datefmt"
	"rulecheck/internal/rules"
)

// coerce converts string cells to the Go type their rule declares so drivers
// receive int64, float64 and time.Time instead of text. colRules is aligned
// with ds columns. Cells that do not parse are left unchanged. In a standard
// dataset the only such cells are int values outside the int64 range, which
// the int check accepts; they reach the driver as text and a BIGINT column
// rejects the batch.
func coerce(ds *dataset.Dataset, colRules []rules.Rule) (*dataset.Dataset, error) {
	cols := ds.Columns()
	if len(colRules) != len(cols) {
		return nil, fmt.Errorf("coerce: %d rules for %d columns", len(colRules), len(cols))
	}
	out := make([]dataset.Column, len(cols))
	for i, c := range cols {
		vals := make([]dataset.Value, len(c.Values))
		for j, v := range c.Values {
			vals[j] = coerceValue(v, colRules[i])
		}
		out[i] = dataset.Column{Name: c.Name, Values: vals}
	}
	return dataset.New(out...)
}

func coerceValue(v dataset.Value, r rules.Rule) dataset.Value {
	if v.Kind() != dataset.KindString {
		return v
	}
	s := strings.TrimSpace(v.StringVal())
	if s == "" {
		return dataset.Null()
	}
	switch r.Type {
	case rules.Int:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return dataset.Int(i)
		}
	case rules.Float:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return dataset.Float(f)
		}
	case rules.Date:
		if t, err := datefmt.Parse(r.Layout(), s); err == nil {
			return dataset.Time(t)
		}
	case rules.String:
		// kept as authored
	}
	return v
}
