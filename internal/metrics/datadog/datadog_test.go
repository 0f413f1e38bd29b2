package datadog

import (
	"reflect"
	"testing"

	"rulecheck/internal/metrics"
)

type fakeClient struct {
	counts     []string
	histograms []string
	tags       [][]string
	closed     bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.counts = append(f.counts, name)
	f.tags = append(f.tags, tags)
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.histograms = append(f.histograms, name)
	f.tags = append(f.tags, tags)
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("expected error for empty Addr")
	}
}

func TestBackendForwards(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RunsTotal, 1, metrics.Labels{"verdict": "standard", "job": "acme"})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "validate"})
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(fc.counts, []string{metrics.RunsTotal}) {
		t.Fatalf("counts = %v", fc.counts)
	}
	if !reflect.DeepEqual(fc.histograms, []string{metrics.StepDuration}) {
		t.Fatalf("histograms = %v", fc.histograms)
	}
	if want := []string{"job:acme", "verdict:standard"}; !reflect.DeepEqual(fc.tags[0], want) {
		t.Fatalf("tags = %v, want %v", fc.tags[0], want)
	}
	if !fc.closed {
		t.Fatal("Flush did not close the client")
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	var b Backend
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
}
