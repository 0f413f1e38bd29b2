package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store persists per-customer rule sets under a directory:
//
//	<dir>/default_rules.json      defaults used by Init
//	<dir>/rules_<customer>.json   one rule set per customer
type Store struct {
	Dir string
}

const defaultRulesFile = "default_rules.json"

// ErrNotFound is returned by Store.Load when the customer has no rule set.
var ErrNotFound = errors.New("rule set not found")

// Path returns the rule file path for a customer.
func (s Store) Path(customer string) (string, error) {
	c := strings.TrimSpace(customer)
	if c == "" || strings.ContainsAny(c, `/\`) || c == "." || c == ".." {
		return "", fmt.Errorf("%w: invalid customer name %q", ErrConfig, customer)
	}
	return filepath.Join(s.Dir, "rules_"+c+".json"), nil
}

// Exists reports whether a rule set is stored for the customer.
func (s Store) Exists(customer string) bool {
	p, err := s.Path(customer)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load returns the customer's rule set.
func (s Store) Load(customer string) (*RuleSet, error) {
	p, err := s.Path(customer)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: customer %q", ErrNotFound, customer)
	}
	return LoadFile(p)
}

// Save writes the customer's rule set.
func (s Store) Save(customer string, rs *RuleSet) error {
	p, err := s.Path(customer)
	if err != nil {
		return err
	}
	return SaveFile(p, rs)
}

// Defaults loads default_rules.json. A missing file yields an empty set.
func (s Store) Defaults() (*RuleSet, error) {
	p := filepath.Join(s.Dir, defaultRulesFile)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return NewRuleSet(), nil
	}
	return LoadFile(p)
}

// LoadOrInit returns the stored rule set for the customer, or builds one from
// the dataset header and the stored defaults when none exists yet. The
// boolean reports whether the set was freshly initialised.
func (s Store) LoadOrInit(customer string, columns []string) (*RuleSet, bool, error) {
	if s.Exists(customer) {
		rs, err := s.Load(customer)
		return rs, false, err
	}
	defs, err := s.Defaults()
	if err != nil {
		return nil, false, err
	}
	return Init(columns, defs), true, nil
}
