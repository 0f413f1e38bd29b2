// Package report turns validation findings into the structured report a run
// produces, and decides whether the data is standard.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"

	"rulecheck/internal/compare"
	"rulecheck/internal/dataset"
)

// Category names one bucket of the report.
type Category string

const (
	MissingColumns   Category = "missing_columns"
	ExtraColumns     Category = "extra_columns"
	TypeErrors       Category = "type_errors"
	LengthErrors     Category = "length_errors"
	DateFormatErrors Category = "date_format_errors"
	MandatoryErrors  Category = "mandatory_errors"

	// Informational categories filled by the schema comparator. They never
	// affect IsStandard.
	MatchingColumns Category = "matching_columns"
	TypeMismatches  Category = "type_mismatches"
)

// Categories lists the verdict categories in report order.
var Categories = []Category{
	MissingColumns,
	ExtraColumns,
	TypeErrors,
	LengthErrors,
	DateFormatErrors,
	MandatoryErrors,
}

// Record is one row-level finding. Row is 1-based.
type Record struct {
	Column         string        `json:"column"`
	Row            int           `json:"row"`
	Value          dataset.Value `json:"value"`
	MaxLength      int           `json:"max_length,omitempty"`
	ExpectedFormat string        `json:"expected_format,omitempty"`
}

// Errors accumulates findings per category.
type Errors struct {
	MissingColumns   []string
	ExtraColumns     []string
	TypeErrors       []Record
	LengthErrors     []Record
	DateFormatErrors []Record
	MandatoryErrors  []Record
}

// Merge appends o's findings after e's.
func (e *Errors) Merge(o Errors) {
	e.MissingColumns = append(e.MissingColumns, o.MissingColumns...)
	e.ExtraColumns = append(e.ExtraColumns, o.ExtraColumns...)
	e.TypeErrors = append(e.TypeErrors, o.TypeErrors...)
	e.LengthErrors = append(e.LengthErrors, o.LengthErrors...)
	e.DateFormatErrors = append(e.DateFormatErrors, o.DateFormatErrors...)
	e.MandatoryErrors = append(e.MandatoryErrors, o.MandatoryErrors...)
}

// Count returns the number of findings in c.
func (e Errors) Count(c Category) int {
	switch c {
	case MissingColumns:
		return len(e.MissingColumns)
	case ExtraColumns:
		return len(e.ExtraColumns)
	case TypeErrors:
		return len(e.TypeErrors)
	case LengthErrors:
		return len(e.LengthErrors)
	case DateFormatErrors:
		return len(e.DateFormatErrors)
	case MandatoryErrors:
		return len(e.MandatoryErrors)
	default:
		return 0
	}
}

// Total is the number of findings across the verdict categories.
func (e Errors) Total() int {
	n := 0
	for _, c := range Categories {
		n += e.Count(c)
	}
	return n
}

func (e Errors) clone() Errors {
	return Errors{
		MissingColumns:   append([]string(nil), e.MissingColumns...),
		ExtraColumns:     append([]string(nil), e.ExtraColumns...),
		TypeErrors:       append([]Record(nil), e.TypeErrors...),
		LengthErrors:     append([]Record(nil), e.LengthErrors...),
		DateFormatErrors: append([]Record(nil), e.DateFormatErrors...),
		MandatoryErrors:  append([]Record(nil), e.MandatoryErrors...),
	}
}

// Report is the outcome of a run.
type Report struct {
	Errors          Errors
	MatchingColumns []string
	TypeMismatches  []compare.Mismatch
	IsStandard      bool
}

// Build assembles a report. It copies errs and is a pure function of it.
func Build(errs Errors) Report {
	return Report{Errors: errs.clone(), IsStandard: errs.Total() == 0}
}

// BuildComparison assembles a report for a schema comparison. Missing and
// extra columns count against the verdict; matching columns and type
// mismatches are informational.
func BuildComparison(res compare.Result, mismatches []compare.Mismatch) Report {
	r := Build(Errors{MissingColumns: res.Missing, ExtraColumns: res.Extra})
	return r.WithSchema(res, mismatches)
}

// WithSchema attaches the informational comparator output to r.
func (r Report) WithSchema(res compare.Result, mismatches []compare.Mismatch) Report {
	r.MatchingColumns = append([]string(nil), res.Matching...)
	r.TypeMismatches = append([]compare.Mismatch(nil), mismatches...)
	return r
}

// MarshalJSON writes {"column_comparison": {...}, "is_standard": bool} with
// only non-empty categories, in fixed order.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"column_comparison":{`)
	first := true
	field := func(c Category, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("report: encode %s: %w", c, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:", string(c))
		buf.Write(b)
		return nil
	}

	e := r.Errors
	parts := []struct {
		c Category
		n int
		v any
	}{
		{MissingColumns, len(e.MissingColumns), e.MissingColumns},
		{ExtraColumns, len(e.ExtraColumns), e.ExtraColumns},
		{TypeErrors, len(e.TypeErrors), e.TypeErrors},
		{LengthErrors, len(e.LengthErrors), e.LengthErrors},
		{DateFormatErrors, len(e.DateFormatErrors), e.DateFormatErrors},
		{MandatoryErrors, len(e.MandatoryErrors), e.MandatoryErrors},
		{MatchingColumns, len(r.MatchingColumns), r.MatchingColumns},
		{TypeMismatches, len(r.TypeMismatches), r.TypeMismatches},
	}
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		if err := field(p.c, p.v); err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(&buf, `},"is_standard":%t}`, r.IsStandard)
	return buf.Bytes(), nil
}

// WriteJSON writes the report indented by two spaces, followed by a newline.
func (r Report) WriteJSON(w io.Writer) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Fingerprint is the hex xxh3 hash of the compact JSON encoding. Two runs
// over the same inputs produce the same fingerprint.
func (r Report) Fingerprint() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxh3.Hash(b)), nil
}
