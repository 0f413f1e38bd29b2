// Package validate checks every dataset column against its rule and collects
// the findings into report.Errors. Validation never fails a run; problems are
// reported, not returned.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"rulecheck/internal/dataset"
	"rulecheck/internal/datefmt"
	"rulecheck/internal/report"
	"rulecheck/internal/rules"
)

// Options tunes a Validator.
type Options struct {
	// Workers bounds how many rules are checked concurrently. Values below 2
	// run sequentially. Output is identical either way.
	Workers int
}

// Validator checks datasets against rule sets.
type Validator struct {
	opts Options
}

// New returns a Validator.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Run validates ds sequentially.
func Run(ds *dataset.Dataset, rs *rules.RuleSet) report.Errors {
	return New(Options{}).Run(ds, rs)
}

// Run validates ds against rs. Findings follow rule-set order, rows
// ascending within a rule; extra columns follow dataset order.
func (v *Validator) Run(ds *dataset.Dataset, rs *rules.RuleSet) report.Errors {
	rl := rs.Rules()
	parts := make([]report.Errors, len(rl))

	if v.opts.Workers < 2 || len(rl) < 2 {
		for i, r := range rl {
			parts[i] = checkRule(ds, r)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(v.opts.Workers)
		for i, r := range rl {
			g.Go(func() error {
				parts[i] = checkRule(ds, r)
				return nil
			})
		}
		_ = g.Wait() // checkRule never fails
	}

	var out report.Errors
	for _, p := range parts {
		out.Merge(p)
	}
	out.ExtraColumns = extraColumns(ds, rs)
	return out
}

func extraColumns(ds *dataset.Dataset, rs *rules.RuleSet) []string {
	var extra []string
	for _, name := range ds.Names() {
		if !rs.Has(name) {
			extra = append(extra, name)
		}
	}
	return extra
}

func checkRule(ds *dataset.Dataset, r rules.Rule) report.Errors {
	var out report.Errors
	col, ok := ds.Lookup(r.Field)
	if !ok {
		out.MissingColumns = []string{r.Field}
		return out
	}
	for i, cell := range col.Values {
		row := i + 1
		text := strings.TrimSpace(cell.Text())
		if text == "" {
			if r.Mandatory {
				out.MandatoryErrors = append(out.MandatoryErrors, report.Record{Column: r.Field, Row: row, Value: cell})
			}
			continue
		}

		switch r.Type {
		case rules.Int:
			if !isInt(text) {
				out.TypeErrors = append(out.TypeErrors, report.Record{Column: r.Field, Row: row, Value: cell})
			}
		case rules.Float:
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				out.TypeErrors = append(out.TypeErrors, report.Record{Column: r.Field, Row: row, Value: cell})
			}
		case rules.Date:
			if !isDate(cell, r.Layout(), text) {
				out.DateFormatErrors = append(out.DateFormatErrors, report.Record{
					Column: r.Field, Row: row, Value: cell, ExpectedFormat: r.Layout(),
				})
			}
		case rules.String:
			if r.MaxLength > 0 && utf8.RuneCountInString(text) > r.MaxLength {
				out.LengthErrors = append(out.LengthErrors, report.Record{
					Column: r.Field, Row: row, Value: cell, MaxLength: r.MaxLength,
				})
			}
		default:
			panic(fmt.Sprintf("validate: unhandled field type %v", r.Type))
		}
	}
	return out
}

// isInt accepts an optional sign followed by one or more ASCII digits, with
// no size limit.
func isInt(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isDate(cell dataset.Value, layout, text string) bool {
	if cell.Kind() == dataset.KindTime {
		return true
	}
	_, err := datefmt.Parse(layout, text)
	return err == nil
}
