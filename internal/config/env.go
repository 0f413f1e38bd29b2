package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override run-file settings. They keep secrets
// such as DSNs out of committed run files.
const (
	EnvDSN         = "RULECHECK_DSN"
	EnvStorageKind = "RULECHECK_STORAGE_KIND"
	EnvReportDir   = "RULECHECK_REPORT_DIR"
	EnvRulesDir    = "RULECHECK_RULES_DIR"
)

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays non-empty environment values onto r. getenv is usually
// os.Getenv.
func ApplyEnv(r *Run, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&r.Storage.DB.DSN, EnvDSN)
	set(&r.Storage.Kind, EnvStorageKind)
	set(&r.Report.Dir, EnvReportDir)
	set(&r.Rules.Dir, EnvRulesDir)
}
