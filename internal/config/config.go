// Package config defines the run configuration for rulecheck: which customer
// file to validate, where rule sets and reports live, and where a standard
// dataset is loaded. Run files are JSON or YAML and mirror the struct below.
//
// Example (YAML):
//
//	job: nightly
//	customer: acme
//	input:   { path: in/acme.csv, encoding: windows-1250, delimiter: ";" }
//	rules:   { dir: rules }
//	header_skip: none
//	report:  { dir: reports }
//	storage:
//	  kind: postgres
//	  db: { dsn: "postgresql://...", auto_create_table: true }
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header-skip modes. Some customer exports carry a second header row; the
// mode decides whether it is dropped before validation (so row numbers refer
// to data rows) or only before loading.
const (
	HeaderSkipNone   = "none"
	HeaderSkipBefore = "before_validation"
	HeaderSkipAfter  = "after_validation"
)

// Run is the top-level object decoded from a run file.
type Run struct {
	// Job labels metrics and log lines. Defaults to "rulecheck".
	Job string `json:"job" yaml:"job"`

	// Customer selects the rule set and names the report and target table.
	Customer string `json:"customer" yaml:"customer"`

	Input Input `json:"input" yaml:"input"`
	Rules Rules `json:"rules" yaml:"rules"`

	// Schema optionally names an expected-schema file ({column: type}) for
	// the column comparison section of the report.
	Schema string `json:"schema" yaml:"schema"`

	// HeaderSkip is one of the HeaderSkip* modes; empty means none.
	HeaderSkip string `json:"header_skip" yaml:"header_skip"`

	Report  Report        `json:"report" yaml:"report"`
	Storage Storage       `json:"storage" yaml:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`

	// Options carries free-form settings for collaborators.
	Options Options `json:"options" yaml:"options"`
}

// Input describes the customer file. Path may be a local path or an
// http(s) URL.
type Input struct {
	Path string `json:"path" yaml:"path"`
	// Format overrides extension-based detection: csv, json or xml.
	Format    string `json:"format" yaml:"format"`
	Encoding  string `json:"encoding" yaml:"encoding"`
	Delimiter string `json:"delimiter" yaml:"delimiter"`
	RecordTag string `json:"record_tag" yaml:"record_tag"`

	// Retries and InsecureSkipVerify apply to URL inputs only.
	Retries            int  `json:"retries" yaml:"retries"`
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Rules locates rule sets. Path, when set, wins over the per-customer store
// in Dir.
type Rules struct {
	Dir  string `json:"dir" yaml:"dir"`
	Path string `json:"path" yaml:"path"`
	// Save persists freshly initialised rule sets back to Dir.
	Save bool `json:"save" yaml:"save"`
}

// Report configures the report sink.
type Report struct {
	// Dir receives <customer>_<run-id>.json. Empty disables the file sink.
	Dir string `json:"dir" yaml:"dir"`
}

// Storage selects the sink for standard datasets. An empty Kind disables
// loading.
type Storage struct {
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`

	// Table defaults to <CUSTOMER>_DATA.
	Table string `json:"table" yaml:"table"`

	// MappingFile is a JSON object {old: new} applied after mapped_name
	// renames and before loading.
	MappingFile string `json:"mapping_file" yaml:"mapping_file"`

	// AutoCreateTable creates the target table from the rule set if missing.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// RuntimeConfig controls concurrency and batching.
type RuntimeConfig struct {
	// ValidateWorkers > 1 checks rules in parallel.
	ValidateWorkers int `json:"validate_workers" yaml:"validate_workers"`
	// BatchSize is the number of rows per bulk insert; 0 means 500.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// JobName returns Job or the default job name.
func (r Run) JobName() string {
	if j := strings.TrimSpace(r.Job); j != "" {
		return j
	}
	return "rulecheck"
}

// TableName returns the configured table or <CUSTOMER>_DATA.
func (r Run) TableName() string {
	if t := strings.TrimSpace(r.Storage.DB.Table); t != "" {
		return t
	}
	return strings.ToUpper(strings.TrimSpace(r.Customer)) + "_DATA"
}

// Decode reads a JSON run file.
func Decode(rd io.Reader) (Run, error) {
	var r Run
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Run{}, fmt.Errorf("decode run config: %w", err)
	}
	return r, nil
}

// DecodeYAML reads a YAML run file.
func DecodeYAML(rd io.Reader) (Run, error) {
	var r Run
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return Run{}, fmt.Errorf("decode run config: %w", err)
	}
	return r, nil
}

// LoadFile reads a run file, choosing YAML for .yaml/.yml and JSON otherwise.
func LoadFile(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return Decode(f)
	}
}

// Options is a small helper to fetch typed values from free-form JSON or YAML
// maps. It performs only minimal type coercion and returns provided defaults
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// YAML integers as int; anything else yields def.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON: a null "options" node yields an empty
// map.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
