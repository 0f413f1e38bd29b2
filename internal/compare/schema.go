package compare

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rulecheck/internal/rules"
)

// LoadSchema reads an expected schema file: a JSON (or YAML, by extension)
// object mapping column name to "number", "date" or "string". Declaration
// order is kept for YAML; JSON keys are sorted since Schema sorts anyway.
func LoadSchema(path string) (Expected, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read schema %s: %v", rules.ErrConfig, path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(b)
	default:
		return decodeJSON(b)
	}
}

func decodeJSON(b []byte) (Expected, error) {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", rules.ErrConfig, err)
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make(Expected, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(m[n])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", n, err)
		}
		out = append(out, Field{Name: n, Type: k})
	}
	return out, nil
}

func decodeYAML(b []byte) (Expected, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", rules.ErrConfig, err)
	}
	if len(doc.Content) == 0 {
		return Expected{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: schema: expected a mapping", rules.ErrConfig)
	}
	out := make(Expected, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, val := root.Content[i].Value, root.Content[i+1].Value
		k, err := ParseKind(val)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out = append(out, Field{Name: name, Type: k})
	}
	return out, nil
}
