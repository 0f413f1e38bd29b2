package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileRule is the persisted shape of one rule. Pointers distinguish "absent"
// from zero values so defaults can be applied. Legacy key spellings are
// accepted on read (format, derived, derived_rule) and never written.
type fileRule struct {
	Type           *string  `json:"type,omitempty" yaml:"type,omitempty"`
	Mandatory      *bool    `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	MaxLength      *flexInt `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	DateFormat     *string  `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	Format         *string  `json:"format,omitempty" yaml:"format,omitempty"`
	DerivedFormula *string  `json:"derived_formula,omitempty" yaml:"derived_formula,omitempty"`
	Derived        *string  `json:"derived,omitempty" yaml:"derived,omitempty"`
	DerivedRule    *string  `json:"derived_rule,omitempty" yaml:"derived_rule,omitempty"`
	MappedName     *string  `json:"mapped_name,omitempty" yaml:"mapped_name,omitempty"`
}

// flexInt accepts 50 and "50".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("max_length %s is not an integer", b)
	}
	*f = flexInt(n)
	return nil
}

func (f *flexInt) UnmarshalYAML(n *yaml.Node) error {
	s := strings.TrimSpace(n.Value)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("line %d: max_length %q is not an integer", n.Line, n.Value)
	}
	*f = flexInt(v)
	return nil
}

func firstOf(ps ...*string) string {
	for _, p := range ps {
		if p != nil && strings.TrimSpace(*p) != "" {
			return strings.TrimSpace(*p)
		}
	}
	return ""
}

// toRule applies persistence defaults. An entry without a type is treated as
// malformed and becomes a mandatory string limited to DefaultMaxLength.
func (fr fileRule) toRule(field string) (Rule, error) {
	r := Rule{Field: strings.TrimSpace(field)}
	if fr.Type == nil || strings.TrimSpace(*fr.Type) == "" {
		r.Type = String
		r.Mandatory = true
		r.MaxLength = DefaultMaxLength
		if fr.Mandatory != nil {
			r.Mandatory = *fr.Mandatory
		}
		if fr.MaxLength != nil && *fr.MaxLength != 0 {
			r.MaxLength = int(*fr.MaxLength)
		}
	} else {
		t, err := ParseFieldType(*fr.Type)
		if err != nil {
			return Rule{}, fmt.Errorf("field %q: %w", field, err)
		}
		r.Type = t
		if fr.Mandatory != nil {
			r.Mandatory = *fr.Mandatory
		}
		if fr.MaxLength != nil {
			r.MaxLength = int(*fr.MaxLength)
		}
	}
	r.DateFormat = firstOf(fr.DateFormat, fr.Format)
	r.DerivedFormula = firstOf(fr.DerivedFormula, fr.Derived, fr.DerivedRule)
	r.MappedName = firstOf(fr.MappedName)
	return r, nil
}

// fromRule produces the canonical persisted form; attributes irrelevant to
// the type are dropped.
func fromRule(r Rule) fileRule {
	t := r.Type.String()
	m := r.Mandatory
	fr := fileRule{Type: &t, Mandatory: &m}
	switch r.Type {
	case String:
		if r.MaxLength > 0 {
			n := flexInt(r.MaxLength)
			fr.MaxLength = &n
		}
	case Date:
		f := r.Layout()
		fr.DateFormat = &f
	case Int, Float:
	}
	if r.DerivedFormula != "" {
		d := r.DerivedFormula
		fr.DerivedFormula = &d
	}
	if r.MappedName != "" {
		mn := r.MappedName
		fr.MappedName = &mn
	}
	return fr
}

// Decode reads a JSON object keyed by field name. Key order is preserved.
func Decode(r io.Reader) (*RuleSet, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: rule set must be a JSON object keyed by field name", ErrConfig)
	}
	rs := NewRuleSet()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		field, _ := tok.(string)
		var fr fileRule
		if err := dec.Decode(&fr); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrConfig, field, err)
		}
		rule, err := fr.toRule(field)
		if err != nil {
			return nil, err
		}
		rs.Add(rule)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := rs.Check(); err != nil {
		return nil, err
	}
	return rs, nil
}

// DecodeYAML reads a YAML mapping keyed by field name. Key order is preserved.
func DecodeYAML(r io.Reader) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return NewRuleSet(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: rule set must be a YAML mapping keyed by field name", ErrConfig)
	}
	rs := NewRuleSet()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var fr fileRule
		if err := val.Decode(&fr); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrConfig, key.Value, err)
		}
		rule, err := fr.toRule(key.Value)
		if err != nil {
			return nil, err
		}
		rs.Add(rule)
	}
	if err := rs.Check(); err != nil {
		return nil, err
	}
	return rs, nil
}

// MarshalJSON writes the rule set as an ordered JSON object.
func (s *RuleSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s.Rules() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(r.Field)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(fromRule(r))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON lets a RuleSet be embedded in other JSON documents.
func (s *RuleSet) UnmarshalJSON(b []byte) error {
	rs, err := Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*s = *rs
	return nil
}

// Encode writes indented JSON.
func Encode(w io.Writer, s *RuleSet) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// EncodeYAML writes an ordered YAML mapping.
func EncodeYAML(w io.Writer, s *RuleSet) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range s.Rules() {
		var val yaml.Node
		if err := val.Encode(fromRule(r)); err != nil {
			return err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: r.Field}, &val)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads a rule set from a .json, .yaml or .yml file.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open rules %s: %v", ErrConfig, path, err)
	}
	defer f.Close()
	var rs *RuleSet
	if isYAML(path) {
		rs, err = DecodeYAML(f)
	} else {
		rs, err = Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// SaveFile writes the rule set, creating parent directories as needed. The
// write goes through a temp file so a crash never leaves a truncated file.
func SaveFile(path string, s *RuleSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rules-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if isYAML(path) {
		err = EncodeYAML(tmp, s)
	} else {
		err = Encode(tmp, s)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write rules %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
