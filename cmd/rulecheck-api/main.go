// Command rulecheck-api serves the validation HTTP API.
//
// Usage:
//
//	go run ./cmd/rulecheck-api -addr :8080 -rules-dir rules
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"rulecheck/internal/api"
	"rulecheck/internal/config"
)

// server is the part of *api.Server that run needs.
type server interface {
	ListenAndServe() error
}

// newServer is a test hook.
var newServer = func(cfg api.Config) server { return api.NewServer(cfg) }

func main() {
	if err := run(os.Args[1:], log.Default()); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("rulecheck-api", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", ":8080", "listen address")
	rulesDir := fs.String("rules-dir", "", "rule set directory (default env RULECHECK_RULES_DIR or ./rules)")
	workers := fs.Int("validate-workers", 4, "rules checked concurrently per request")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	dir := *rulesDir
	if dir == "" {
		dir = os.Getenv(config.EnvRulesDir)
	}
	if dir == "" {
		dir = "rules"
	}

	srv := newServer(api.Config{Addr: *addr, RulesDir: dir, ValidateWorkers: *workers})
	logger.Printf("listening on %s", *addr)
	return srv.ListenAndServe()
}
