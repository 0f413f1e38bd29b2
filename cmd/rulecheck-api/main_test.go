package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"rulecheck/internal/api"
)

// fakeServer is a tiny test double implementing the server interface.
type fakeServer struct {
	err error
}

func (f *fakeServer) ListenAndServe() error { return f.err }

// TestRun covers flag parsing, defaulting, logging, and error propagation.
// Cases share the newServer hook and run sequentially.
func TestRun(t *testing.T) {
	type tc struct {
		name       string
		args       []string
		listenErr  error
		wantCfg    api.Config
		wantLogHas string
		wantErr    bool
	}

	cases := []tc{
		{
			name:       "defaults",
			args:       []string{"-rules-dir", "r"},
			listenErr:  errors.New("boom"),
			wantCfg:    api.Config{Addr: ":8080", RulesDir: "r", ValidateWorkers: 4},
			wantLogHas: "listening on :8080",
			wantErr:    true,
		},
		{
			name:       "custom address and workers",
			args:       []string{"-addr", "127.0.0.1:9999", "-rules-dir", "r", "-validate-workers", "1"},
			wantCfg:    api.Config{Addr: "127.0.0.1:9999", RulesDir: "r", ValidateWorkers: 1},
			wantLogHas: "listening on 127.0.0.1:9999",
		},
		{
			name:    "unknown flag returns error",
			args:    []string{"-bogus"},
			wantErr: true,
		},
	}

	orig := newServer
	defer func() { newServer = orig }()

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var gotCfg api.Config
			newServer = func(cfg api.Config) server {
				gotCfg = cfg
				return &fakeServer{err: c.listenErr}
			}

			var buf bytes.Buffer
			err := run(c.args, log.New(&buf, "", 0))

			if c.wantCfg != (api.Config{}) && gotCfg != c.wantCfg {
				t.Fatalf("config mismatch: got %+v, want %+v", gotCfg, c.wantCfg)
			}
			if c.wantLogHas != "" && !strings.Contains(buf.String(), c.wantLogHas) {
				t.Fatalf("log output %q does not contain %q", buf.String(), c.wantLogHas)
			}
			if c.wantErr != (err != nil) {
				t.Fatalf("error presence mismatch: got %v, wantErr=%v", err, c.wantErr)
			}
		})
	}
}

// Example_run documents the happy path behavior.
func Example_run() {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	orig := newServer
	newServer = func(cfg api.Config) server { return &fakeServer{err: nil} }
	defer func() { newServer = orig }()

	_ = run([]string{"-addr", ":9090", "-rules-dir", "r"}, logger)

	fmt.Print(buf.String())

	// Output:
	// listening on :9090
}
