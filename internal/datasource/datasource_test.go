package datasource

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"rulecheck/internal/datasource/httpds"
)

func TestName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"in/acme.csv":                              "in/acme.csv",
		"https://files.example.com/x/acme.xml?t=1": "acme.xml",
		"HTTP://example.com/data.json#frag":        "data.json",
	}
	for in, want := range tests {
		if got := Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_OpensLocalAndHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "acme.csv")
	if err := os.WriteFile(p, []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	for loc, want := range map[string]string{p: "local", srv.URL + "/acme.csv": "remote"} {
		rc, err := New(loc, httpds.Config{}).Open(context.Background())
		if err != nil {
			t.Fatalf("Open(%s): %v", loc, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil || string(b) != want {
			t.Fatalf("Open(%s) read %q, %v; want %q", loc, b, err, want)
		}
	}
}
