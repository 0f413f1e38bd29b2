package compare

import (
	"math"
	"strconv"
	"strings"
	"time"

	"rulecheck/internal/dataset"
)

// InferType classifies a column: Number when every non-empty value is
// numeric, else Date when every non-empty value is a date, else String. An
// all-empty column is String.
func InferType(values []dataset.Value) Kind {
	nonEmpty := make([]dataset.Value, 0, len(values))
	for _, v := range values {
		if !v.IsEmpty() {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return String
	}
	if allMatch(nonEmpty, isNumber) {
		return Number
	}
	if allMatch(nonEmpty, isDate) {
		return Date
	}
	return String
}

func allMatch(vals []dataset.Value, fn func(dataset.Value) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isNumber(v dataset.Value) bool {
	switch v.Kind() {
	case dataset.KindInt, dataset.KindFloat:
		return true
	case dataset.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.StringVal()), 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

func isDate(v dataset.Value) bool {
	switch v.Kind() {
	case dataset.KindTime:
		return true
	case dataset.KindString:
		s := strings.TrimSpace(v.StringVal())
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// dateLayouts are the date and timestamp shapes recognised during inference.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2 Jan 2006",
	"02-Jan-2006",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}
