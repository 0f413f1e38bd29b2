// Command rulecheck validates one customer data file against its rule set,
// writes the validation report and, when the data is standard, loads it into
// the configured store.
//
// Usage:
//
//	rulecheck -config runs/acme.yaml [-validate] [-metrics-backend none] [-v]
//
// Exit status is 0 for a standard dataset, 2 for a non-standard one and 1 for
// any error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"rulecheck/internal/config"
	"rulecheck/internal/metrics"
	"rulecheck/internal/metrics/datadog"
	"rulecheck/internal/metrics/prompush"
	"rulecheck/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "rulecheck/internal/storage/all"
)

const (
	exitOK          = 0
	exitError       = 1
	exitNonStandard = 2
)

// execute is a test hook.
var execute = pipeline.Execute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, loads and lints the run file, wires metrics and executes
// the run. Diagnostics go to stderr.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("rulecheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath           string
		envFile           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validateOnly      bool
		verbose           bool
	)
	fs.StringVar(&cfgPath, "config", "runs/sample.yaml", "run config path (JSON or YAML)")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file with RULECHECK_* overrides; missing files are ignored")
	fs.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides env METRICS_BACKEND)")
	fs.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&statsdAddrFlg, "statsd-addr", "", "DogStatsD address (overrides env DD_DOGSTATSD_ADDR)")
	fs.BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(stderr, "env: %v\n", err)
		return exitError
	}
	r, err := config.LoadFile(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}
	config.ApplyEnv(&r, os.Getenv)

	issues := config.ValidateRun(r)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		return exitError
	}
	if validateOnly {
		log.Printf("Configuration is valid: %v", cfgPath)
		return exitOK
	}

	flush := setupMetrics(r.JobName(), metricsBackendFlg, pushGatewayURLFlg, statsdAddrFlg, verbose)
	defer flush()

	start := time.Now()
	if verbose {
		log.Printf("run: customer=%s input=%s storage=%s table=%s",
			r.Customer, r.Input.Path, r.Storage.Kind, r.TableName())
	}

	out, err := execute(ctx, r)
	if err != nil {
		fmt.Fprintf(stderr, "run failed: %v\n", err)
		return exitError
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(stderr, "%s: %s: %s\n", w.Severity, w.Path, w.Message)
	}
	if verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	if !out.Report.IsStandard {
		fmt.Fprintf(stderr, "dataset is not standard: %d finding(s), report=%s\n",
			out.Report.Errors.Total(), out.ReportPath)
		return exitNonStandard
	}
	return exitOK
}

// setupMetrics installs the selected backend (flag → env → default) and
// returns the flush function to defer. Backend failures fall back to nop.
func setupMetrics(job, backendName, gwURL, statsdAddr string, verbose bool) func() {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	var (
		b   metrics.Backend
		err error
	)
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err = newPromBackend(job, gwURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		}

	case "datadog":
		if statsdAddr == "" {
			statsdAddr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if statsdAddr == "" {
			statsdAddr = "127.0.0.1:8125"
		}
		b, err = newDatadogBackend(datadog.Config{
			Addr:       statsdAddr,
			Namespace:  "rulecheck.",
			GlobalTags: []string{"job:" + job},
		})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v, job_name=%v", statsdAddr, backendName, job)
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return func() {}
	}

	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", backendName, err)
		return func() {}
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// Backend constructors, swappable in tests.
var (
	newPromBackend = func(job, url string) (metrics.Backend, error) {
		return prompush.NewBackend(job, url)
	}
	newDatadogBackend = func(cfg datadog.Config) (metrics.Backend, error) {
		return datadog.NewBackend(cfg)
	}
)
