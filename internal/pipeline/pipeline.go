// Package pipeline executes one validation run end to end:
//
//	schema → fetch → ingest → rules → header skip → derive → validate (+ compare) → report
//	     → (standard only) rename → coerce → load
//
// Each stage is timed into the metrics backend under the run's job name. The
// loader is only reached when the report is standard; every earlier failure
// aborts the run before anything is written to storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"rulecheck/internal/compare"
	"rulecheck/internal/config"
	"rulecheck/internal/dataset"
	"rulecheck/internal/datasource"
	"rulecheck/internal/datasource/httpds"
	"rulecheck/internal/derive"
	"rulecheck/internal/ingest"
	"rulecheck/internal/metrics"
	"rulecheck/internal/report"
	"rulecheck/internal/rules"
	"rulecheck/internal/validate"
)

// ErrWarnings is returned when the "strict_warnings" option is set and the
// rule set produced authoring warnings.
var ErrWarnings = errors.New("rule set has warnings")

// Test hooks.
var (
	newRunID = uuid.NewString
	now      = time.Now
)

// Outcome summarises a finished run.
type Outcome struct {
	RunID  string
	Report report.Report

	// ReportPath is empty when no report directory is configured.
	ReportPath string

	Rules *rules.RuleSet
	// RulesInitialised is true when no stored rule set existed and one was
	// built from the dataset header.
	RulesInitialised bool

	// Warnings are non-fatal findings (rule collisions and the like).
	Warnings []config.Issue

	// Rows is the number of data rows validated.
	Rows int
	// Loaded is the number of rows written to storage.
	Loaded int64
}

// Execute performs run r. A non-standard report is not an error: the
// returned Outcome carries the verdict and the loader is skipped.
func Execute(ctx context.Context, r config.Run) (Outcome, error) {
	for _, iss := range config.ValidateRun(r) {
		if iss.Severity == config.SeverityError {
			return Outcome{}, fmt.Errorf("%w: %s", rules.ErrConfig, iss.Error())
		}
	}

	job := r.JobName()
	out := Outcome{RunID: newRunID()}
	started := now()

	expected, err := loadSchema(r.Schema)
	if err != nil {
		return out, err
	}

	var ds *dataset.Dataset
	if err := step(job, "ingest", func() error {
		var err error
		ds, err = readInput(ctx, r.Input)
		return err
	}); err != nil {
		return out, err
	}
	metrics.RecordRow(job, "ingested", int64(ds.Len()))

	if err := step(job, "rules", func() error {
		var err error
		out.Rules, out.RulesInitialised, err = loadRules(r, ds.Names())
		return err
	}); err != nil {
		return out, err
	}
	for _, w := range out.Rules.Warnings() {
		out.Warnings = append(out.Warnings, config.Issue{Severity: config.SeverityWarning, Path: "rules", Message: w})
		log.Printf("rules: warning: %s", w)
	}
	if len(out.Warnings) > 0 && r.Options.Bool("strict_warnings", false) {
		return out, fmt.Errorf("%w: %d warning(s)", ErrWarnings, len(out.Warnings))
	}

	if r.HeaderSkip == config.HeaderSkipBefore {
		skipHeader(job, ds)
	}

	var derived *dataset.Dataset
	if err := step(job, "derive", func() error {
		var err error
		derived, err = derive.Apply(ds, out.Rules)
		return err
	}); err != nil {
		return out, err
	}

	var errs report.Errors
	_ = step(job, "validate", func() error {
		errs = validate.New(validate.Options{Workers: r.Runtime.ValidateWorkers}).Run(derived, out.Rules)
		return nil
	})
	out.Rows = derived.Len()

	if err := step(job, "report", func() error {
		var err error
		out.Report = buildReport(expected, derived, errs)
		out.ReportPath, err = writeReport(r.Report.Dir, r.Customer, out.RunID, out.Report)
		return err
	}); err != nil {
		return out, err
	}
	recordReport(job, out.Report)

	log.Printf("run: id=%s customer=%s rows=%d findings=%d standard=%t",
		out.RunID, r.Customer, out.Rows, errs.Total(), out.Report.IsStandard)

	if !out.Report.IsStandard {
		log.Printf("load: skipped, dataset is not standard (run=%s)", out.RunID)
		return out, nil
	}

	if r.HeaderSkip == config.HeaderSkipAfter {
		skipHeader(job, derived)
	}

	if err := step(job, "load", func() error {
		var err error
		out.Loaded, err = load(ctx, r, derived, out.Rules)
		return err
	}); err != nil {
		return out, err
	}

	log.Printf("run: id=%s completed in %s loaded=%d",
		out.RunID, now().Sub(started).Truncate(time.Millisecond), out.Loaded)
	return out, nil
}

// step times fn under the given stage name.
func step(job, name string, fn func() error) error {
	start := now()
	err := fn()
	metrics.RecordStep(job, name, err, now().Sub(start))
	return err
}

func readInput(ctx context.Context, in config.Input) (*dataset.Dataset, error) {
	opts := ingest.Options{Encoding: in.Encoding, RecordTag: in.RecordTag}
	if in.Delimiter != "" {
		opts.Comma, _ = utf8.DecodeRuneInString(in.Delimiter)
	}

	var (
		format ingest.Format
		err    error
	)
	if in.Format != "" {
		format, err = ingest.ParseFormat(in.Format)
	} else {
		format, err = ingest.FormatFromPath(datasource.Name(in.Path))
	}
	if err != nil {
		return nil, &ingest.IngestionError{Reason: "format", Err: err}
	}

	src := datasource.New(in.Path, httpds.Config{
		MaxRetries:         in.Retries,
		InsecureSkipVerify: in.InsecureSkipVerify,
	})
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &ingest.IngestionError{Reason: "open", Err: err}
	}
	defer rc.Close()
	return ingest.Read(ctx, rc, format, opts).Unwrap()
}

// loadRules reads an explicit rule file, or the customer's stored rule set,
// initialising (and optionally saving) one from columns when none exists.
func loadRules(r config.Run, columns []string) (*rules.RuleSet, bool, error) {
	var (
		rs    *rules.RuleSet
		fresh bool
		err   error
	)
	store := rules.Store{Dir: r.Rules.Dir}
	if r.Rules.Path != "" {
		rs, err = rules.LoadFile(r.Rules.Path)
	} else {
		rs, fresh, err = store.LoadOrInit(r.Customer, columns)
	}
	if err != nil {
		return nil, false, err
	}
	if err := rs.Check(); err != nil {
		return nil, false, err
	}
	if fresh {
		log.Printf("rules: initialised %d rule(s) for customer=%s from header", rs.Len(), r.Customer)
		if r.Rules.Save && r.Rules.Dir != "" {
			if err := store.Save(r.Customer, rs); err != nil {
				return nil, false, fmt.Errorf("save rules: %w", err)
			}
		}
	}
	return rs, fresh, nil
}

func skipHeader(job string, ds *dataset.Dataset) {
	if ds.Len() == 0 {
		return
	}
	ds.DropRows(1)
	metrics.RecordRow(job, "skipped_header", 1)
}

// loadSchema reads the optional expected schema. No path yields nil.
func loadSchema(path string) (compare.Expected, error) {
	if path == "" {
		return nil, nil
	}
	return compare.LoadSchema(path)
}

// buildReport adds the column comparison section when a schema was loaded.
func buildReport(expected compare.Expected, ds *dataset.Dataset, errs report.Errors) report.Report {
	rep := report.Build(errs)
	if expected == nil {
		return rep
	}
	return rep.WithSchema(compare.Schema(ds, expected), compare.Types(ds, expected))
}

// writeReport stores rep as <dir>/<customer>_<runID>.json. An empty dir only
// logs the fingerprint.
func writeReport(dir, customer, runID string, rep report.Report) (string, error) {
	fp, err := rep.Fingerprint()
	if err != nil {
		return "", err
	}
	if dir == "" {
		log.Printf("report: run=%s fingerprint=%s (no report dir)", runID, fp)
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report dir: %w", err)
	}
	path := filepath.Join(dir, customer+"_"+runID+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := rep.WriteJSON(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	log.Printf("report: run=%s path=%s fingerprint=%s", runID, path, fp)
	return path, nil
}

func recordReport(job string, rep report.Report) {
	for _, c := range report.Categories {
		metrics.RecordFindings(job, string(c), rep.Errors.Count(c))
	}
	metrics.RecordVerdict(job, rep.IsStandard)
}
