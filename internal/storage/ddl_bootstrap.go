package storage

import (
	"context"
	"fmt"
	"sync"

	"rulecheck/internal/ddl"
)

// DDLBootstrapper renders def in a backend's dialect and applies it through
// repo.Exec (typically CREATE TABLE IF NOT EXISTS).
//
// Backends register their implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable creates the target table for kind if the backend supports it.
func EnsureTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, def)
}

// EnsureTableFunc returns the bootstrapper used by most backends: render def
// for dialect d and execute it.
func EnsureTableFunc(d ddl.Dialect) DDLBootstrapper {
	return func(ctx context.Context, repo Repository, def ddl.TableDef) error {
		stmt, err := ddl.BuildCreateTableSQL(d, def)
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
		return nil
	}
}
