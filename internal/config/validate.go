package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"rulecheck/internal/datasource"
	"rulecheck/internal/ingest"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "input.encoding"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateRun performs static validation of a Run. It does not mutate the
// run; callers decide whether warnings are fatal.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Customer) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "customer",
			Message:  "customer must not be empty; it selects the rule set and names the report",
		})
	} else if strings.ContainsAny(r.Customer, `/\`) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "customer",
			Message:  fmt.Sprintf("customer %q must not contain path separators", r.Customer),
		})
	}
	issues = append(issues, validateInput(r.Input)...)
	issues = append(issues, validateRules(r.Rules)...)
	issues = append(issues, validateHeaderSkip(r.HeaderSkip)...)
	if strings.TrimSpace(r.Report.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "report.dir",
			Message:  "report.dir is empty; reports are only logged",
		})
	}
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateRuntime(r.Runtime)...)

	return issues
}

func validateInput(in Input) []Issue {
	var issues []Issue

	if strings.TrimSpace(in.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.path",
			Message:  "input.path must not be empty",
		})
	}
	switch {
	case in.Format != "":
		if _, err := ingest.ParseFormat(in.Format); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "input.format",
				Message:  err.Error(),
			})
		}
	case in.Path != "":
		if _, err := ingest.FormatFromPath(datasource.Name(in.Path)); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "input.path",
				Message:  fmt.Sprintf("%v; set input.format explicitly", err),
			})
		}
	}
	if in.Retries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.retries",
			Message:  "input.retries must be >= 0",
		})
	}
	if in.InsecureSkipVerify && !datasource.IsURL(in.Path) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "input.insecure_skip_verify",
			Message:  "insecure_skip_verify has no effect for local files",
		})
	}
	if !ingest.SupportedEncoding(in.Encoding) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.encoding",
			Message:  fmt.Sprintf("unsupported encoding %q", in.Encoding),
		})
	}
	if n := utf8.RuneCountInString(in.Delimiter); n > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.delimiter",
			Message:  fmt.Sprintf("delimiter %q must be a single character", in.Delimiter),
		})
	}
	return issues
}

func validateRules(r Rules) []Issue {
	if strings.TrimSpace(r.Dir) == "" && strings.TrimSpace(r.Path) == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     "rules",
			Message:  "either rules.dir or rules.path is required",
		}}
	}
	if r.Save && strings.TrimSpace(r.Dir) == "" {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "rules.save",
			Message:  "rules.save has no effect without rules.dir",
		}}
	}
	return nil
}

func validateHeaderSkip(mode string) []Issue {
	switch mode {
	case "", HeaderSkipNone, HeaderSkipBefore, HeaderSkipAfter:
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     "header_skip",
		Message: fmt.Sprintf("unknown header_skip %q; want %s, %s or %s",
			mode, HeaderSkipNone, HeaderSkipBefore, HeaderSkipAfter),
	}}
}

// validateStorage validates storage configuration and DB settings. An empty
// kind disables loading.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  "storage.kind is empty; standard datasets will not be loaded",
		})
		return issues
	}

	known := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.BatchSize > 100_000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; very large batches may exceed driver parameter limits", r.BatchSize),
		})
	}
	if r.ValidateWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.validate_workers",
			Message:  "validate_workers must not be negative",
		})
	}
	return issues
}
