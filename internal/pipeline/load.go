package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"rulecheck/internal/config"
	"rulecheck/internal/dataset"
	"rulecheck/internal/ddl"
	"rulecheck/internal/rules"
	"rulecheck/internal/storage"
)

// newRepository is a test hook.
var newRepository = storage.New

// load renames, coerces and writes a standard dataset. It returns 0 without
// touching storage when no storage kind is configured.
func load(ctx context.Context, r config.Run, ds *dataset.Dataset, rs *rules.RuleSet) (int64, error) {
	if r.Storage.Kind == "" {
		log.Printf("load: disabled (no storage.kind)")
		return 0, nil
	}

	sources := ds.Names()
	if err := ds.Rename(mappedNames(ds, rs)); err != nil {
		return 0, fmt.Errorf("apply mapped names: %w", err)
	}
	if r.Storage.DB.MappingFile != "" {
		m, err := readMapping(r.Storage.DB.MappingFile)
		if err != nil {
			return 0, err
		}
		if err := ds.Rename(m); err != nil {
			return 0, fmt.Errorf("apply mapping file: %w", err)
		}
	}
	// Rename keeps column order, so sources[i] is the pre-rename name of
	// column i.
	colRules := make([]rules.Rule, ds.Width())
	fields := make([]ddl.Field, ds.Width())
	for i, name := range ds.Names() {
		rule, ok := rs.Get(sources[i])
		if !ok {
			rule = rules.DefaultRule(sources[i])
		}
		colRules[i] = rule
		fields[i] = ddl.Field{Name: name, Type: rule.Type, MaxLength: rule.MaxLength, Mandatory: rule.Mandatory}
	}
	ds, err := coerce(ds, colRules)
	if err != nil {
		return 0, err
	}

	table := r.TableName()
	repo, err := newRepository(ctx, storage.Config{
		Kind:    r.Storage.Kind,
		DSN:     r.Storage.DB.DSN,
		Table:   table,
		Columns: ds.Names(),
	})
	if err != nil {
		return 0, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	if r.Storage.DB.AutoCreateTable {
		log.Printf("load: auto-create table enabled for %s", table)
		def := ddl.FromFields(ddl.Dialect(r.Storage.Kind), table, fields)
		if err := storage.EnsureTable(ctx, r.Storage.Kind, repo, def); err != nil {
			return 0, err
		}
	}

	n, err := storage.Load(ctx, repo, r.JobName(), ds.Names(), ds, r.Runtime.BatchSize)
	if err != nil {
		return n, fmt.Errorf("load %s: %w", table, err)
	}
	log.Printf("load: table=%s rows=%d", table, n)
	return n, nil
}

// mappedNames maps current column names to the mapped_name of their rule.
func mappedNames(ds *dataset.Dataset, rs *rules.RuleSet) map[string]string {
	m := map[string]string{}
	for _, r := range rs.Rules() {
		if r.MappedName == "" {
			continue
		}
		if c, ok := ds.Lookup(r.Field); ok {
			m[c.Name] = r.MappedName
		}
	}
	return m
}

// readMapping reads a JSON object of old → new column names.
func readMapping(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: mapping %s: %v", rules.ErrConfig, path, err)
	}
	return m, nil
}
