// Package ingest turns uploaded customer files into a *dataset.Dataset.
//
// Every entry point returns a Result: either a dataset or an *IngestionError
// explaining why the input could not be read. Nothing is swallowed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rulecheck/internal/dataset"
)

// Format names an input file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XML  Format = "xml"
)

// ErrUnsupportedFormat is wrapped when no reader exists for a format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat accepts a format name case-insensitively, with or without a
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case CSV, JSON, XML:
		return f, nil
	case "txt", "tsv":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath detects the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Options tune parsing. The zero value reads comma-separated UTF-8 CSV and
// XML records named "record".
type Options struct {
	// Encoding of the source bytes: "" or "utf-8", "windows-1250",
	// "windows-1252", "iso-8859-1", "iso-8859-2".
	Encoding string

	// Comma is the CSV delimiter. Zero means ','.
	Comma rune

	// RecordTag is the XML element holding one row. Empty means "record".
	RecordTag string
}

// IngestionError reports why an input could not become a dataset.
type IngestionError struct {
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Err == nil {
		return "ingest: " + e.Reason
	}
	return fmt.Sprintf("ingest: %s: %v", e.Reason, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// Result is the outcome of an ingestion. Exactly one of Dataset and Err is set.
type Result struct {
	Dataset *dataset.Dataset
	Err     *IngestionError
}

// OK reports whether a dataset was produced.
func (r Result) OK() bool { return r.Err == nil }

// Unwrap returns the dataset or the ingestion error as a plain error.
func (r Result) Unwrap() (*dataset.Dataset, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Dataset, nil
}

func fail(reason string, err error) Result {
	return Result{Err: &IngestionError{Reason: reason, Err: err}}
}

// Read parses r as format. ctx is checked between rows.
func Read(ctx context.Context, r io.Reader, format Format, opts Options) Result {
	src, err := decoder(r, opts.Encoding)
	if err != nil {
		return fail("decode", err)
	}
	switch format {
	case CSV:
		return readCSV(ctx, src, opts)
	case JSON:
		return readJSON(ctx, src)
	case XML:
		return readXML(ctx, src, opts)
	default:
		return fail("format", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}
}

// ReadFile opens path and reads it with the format implied by its extension.
func ReadFile(ctx context.Context, path string, opts Options) Result {
	format, err := FormatFromPath(path)
	if err != nil {
		return fail("format", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fail("open", err)
	}
	defer f.Close()
	return Read(ctx, f, format, opts)
}

// builder collects columns in first-appearance order for the record-oriented
// formats (JSON, XML). Missing cells are Null.
type builder struct {
	names []string
	index map[string]int
	cols  [][]dataset.Value
	rows  int
}

func newBuilder() *builder { return &builder{index: map[string]int{}} }

// startRow appends a Null cell to every known column.
func (b *builder) startRow() {
	for i := range b.cols {
		b.cols[i] = append(b.cols[i], dataset.Null())
	}
	b.rows++
}

// set stores v in the current row under name, creating the column if needed.
func (b *builder) set(name string, v dataset.Value) {
	name = cleanHeader(name)
	i, ok := b.index[name]
	if !ok {
		i = len(b.names)
		b.index[name] = i
		b.names = append(b.names, name)
		b.cols = append(b.cols, make([]dataset.Value, b.rows))
	}
	b.cols[i][b.rows-1] = v
}

func (b *builder) build() (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(b.names))
	for i, n := range b.names {
		cols[i] = dataset.Column{Name: n, Values: b.cols[i]}
	}
	return dataset.New(cols...)
}
