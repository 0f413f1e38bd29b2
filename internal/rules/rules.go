// Package rules defines the declarative, per-field rule set that drives a
// validation run. A rule set is plain data: it is loaded once per run (see
// file.go and store.go) and treated as immutable while the run executes.
//
// Field names are matched against dataset columns by their normalized form
// (dataset.NormalizeName). Two raw names that normalize identically collapse
// into one rule; the later definition wins and the collision is surfaced via
// RuleSet.Warnings.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"rulecheck/internal/dataset"
	"rulecheck/internal/datefmt"
)

// ErrConfig marks malformed rule sets and other configuration problems that
// must abort a run before any row is processed.
var ErrConfig = errors.New("invalid rule configuration")

const (
	// DefaultDateFormat is the strftime pattern used when a date rule has none.
	DefaultDateFormat = "%Y%m%d"
	// DefaultMaxLength applies to auto-generated and malformed string rules.
	DefaultMaxLength = 50
)

// FieldType is the closed set of declared field types.
type FieldType uint8

const (
	String FieldType = iota
	Int
	Float
	Date
)

// ParseFieldType maps the persisted type name onto a FieldType. An empty name
// is String.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return String, nil
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "date":
		return Date, nil
	default:
		return String, fmt.Errorf("%w: unknown field type %q", ErrConfig, s)
	}
}

func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FieldType) UnmarshalText(b []byte) error {
	v, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Rule is the constraint and derivation config for one logical field.
type Rule struct {
	// Field is the raw field name as authored.
	Field string

	Type      FieldType
	Mandatory bool

	// MaxLength limits the trimmed rune length of String fields. Zero means
	// no limit. Ignored for other types.
	MaxLength int

	// DateFormat is a strftime pattern for Date fields. Ignored otherwise.
	DateFormat string

	// DerivedFormula, when set, computes the field from other columns.
	DerivedFormula string

	// MappedName renames the field's column after validation.
	MappedName string
}

// Layout returns the effective date format for the rule.
func (r Rule) Layout() string {
	if r.DateFormat == "" {
		return DefaultDateFormat
	}
	return r.DateFormat
}

// Derived reports whether the rule computes its value from a formula.
func (r Rule) Derived() bool { return strings.TrimSpace(r.DerivedFormula) != "" }

// Key is the normalized field name.
func (r Rule) Key() string { return dataset.NormalizeName(r.Field) }

// DefaultRule is the rule given to columns with no configured default.
func DefaultRule(field string) Rule {
	return Rule{Field: field, Type: String, Mandatory: true, MaxLength: DefaultMaxLength}
}

// RuleSet is an ordered collection of rules keyed by normalized field name.
type RuleSet struct {
	rules    []Rule
	index    map[string]int
	warnings []string
}

// NewRuleSet builds a rule set in the given order.
func NewRuleSet(rs ...Rule) *RuleSet {
	s := &RuleSet{index: map[string]int{}}
	for _, r := range rs {
		s.Add(r)
	}
	return s
}

// Add inserts r, or replaces the rule with the same normalized name while
// keeping its position. It reports whether a rule was replaced.
func (s *RuleSet) Add(r Rule) bool {
	if s.index == nil {
		s.index = map[string]int{}
	}
	key := r.Key()
	if i, ok := s.index[key]; ok {
		prev := s.rules[i].Field
		s.rules[i] = r
		s.warnings = append(s.warnings,
			fmt.Sprintf("field %q redefines %q (same normalized name %q); last definition wins", r.Field, prev, key))
		return true
	}
	s.index[key] = len(s.rules)
	s.rules = append(s.rules, r)
	return false
}

// Rules returns the rules in rule-set order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	return s.rules
}

// Len returns the number of distinct fields.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Get looks up a rule by (normalized) field name.
func (s *RuleSet) Get(name string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	i, ok := s.index[dataset.NormalizeName(name)]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Has reports whether a rule exists for the normalized name.
func (s *RuleSet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Warnings returns non-fatal authoring problems found while building the set.
func (s *RuleSet) Warnings() []string {
	if s == nil {
		return nil
	}
	return s.warnings
}

// Clone returns an independent copy.
func (s *RuleSet) Clone() *RuleSet {
	out := NewRuleSet(s.Rules()...)
	out.warnings = append([]string(nil), s.Warnings()...)
	return out
}

// Check validates attribute values that cannot be expressed by the type
// system alone. Errors wrap ErrConfig.
func (s *RuleSet) Check() error {
	var errs []error
	for _, r := range s.Rules() {
		if strings.TrimSpace(r.Field) == "" {
			errs = append(errs, fmt.Errorf("%w: rule with empty field name", ErrConfig))
			continue
		}
		if r.MaxLength < 0 {
			errs = append(errs, fmt.Errorf("%w: field %q: max_length must be positive, got %d", ErrConfig, r.Field, r.MaxLength))
		}
		if r.Type == Date {
			if err := datefmt.Check(r.Layout()); err != nil {
				errs = append(errs, fmt.Errorf("%w: field %q: %v", ErrConfig, r.Field, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Init builds a rule set for a dataset header. Columns whose normalized name
// matches a rule in defaults get a copy of that rule (renamed to the column);
// all others get DefaultRule.
func Init(columns []string, defaults *RuleSet) *RuleSet {
	out := NewRuleSet()
	for _, col := range columns {
		if d, ok := defaults.Get(col); ok {
			d.Field = col
			out.Add(d)
			continue
		}
		out.Add(DefaultRule(col))
	}
	return out
}
