// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from validation runs.
//
//   - Backend is a narrow interface focused on counters and timings.
//   - The package-level backend defaults to a no-op, so instrumentation is
//     always safe to call even when no real backend is configured.
//   - Concrete systems live in subpackages (see prompush) and are installed
//     by the wiring layer with SetBackend.
package metrics

import "time"

// Metric names emitted by this package.
const (
	StepTotal     = "rulecheck_step_total"
	StepDuration  = "rulecheck_step_duration_seconds"
	RecordsTotal  = "rulecheck_records_total"
	BatchesTotal  = "rulecheck_batches_total"
	FindingsTotal = "rulecheck_findings_total"
	RunsTotal     = "rulecheck_runs_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels) {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one run stage
// (ingest, derive, validate, report, load).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a row counter. Kinds used by the pipeline are
// "ingested", "skipped_header" and "loaded".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the flushed-batch counter for job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordFindings counts report entries for one category.
func RecordFindings(job, category string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(FindingsTotal, float64(delta), Labels{
		"job":      job,
		"category": category,
	})
}

// RecordVerdict counts a finished run as standard or non_standard.
func RecordVerdict(job string, standard bool) {
	verdict := "non_standard"
	if standard {
		verdict = "standard"
	}
	backend.IncCounter(RunsTotal, 1, Labels{
		"job":     job,
		"verdict": verdict,
	})
}
