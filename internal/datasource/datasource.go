// Package datasource opens the byte stream behind a run's input location:
// a local path or an http(s) URL.
package datasource

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"rulecheck/internal/datasource/file"
	"rulecheck/internal/datasource/httpds"
)

// Source yields the raw bytes of one customer file.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// IsURL reports whether location is fetched over HTTP.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// New returns the Source for location. cfg only applies to URLs.
func New(location string, cfg httpds.Config) Source {
	if IsURL(location) {
		return httpds.NewSource(httpds.NewClient(cfg), location)
	}
	return file.NewLocal(location)
}

// Name returns the file name used for format detection: the last path
// segment of a URL (query and fragment dropped) or location unchanged.
func Name(location string) string {
	if !IsURL(location) {
		return location
	}
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return path.Base(u.Path)
}
