package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"rulecheck/internal/dataset"
)

// readCSV reads a header row and data rows. Cells are Strings, empty cells
// Null. Short rows are padded; rows wider than the header are rejected.
func readCSV(ctx context.Context, r io.Reader, opts Options) Result {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fail("empty input", nil)
	}
	if err != nil {
		return fail("read header", err)
	}
	for i, h := range header {
		header[i] = cleanHeader(h)
		if header[i] == "" {
			header[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	var rows [][]string
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return fail("canceled", err)
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail("read row", err)
		}
		if len(rec) > len(header) {
			return fail("row width", fmt.Errorf("line %d has %d fields, header has %d", line, len(rec), len(header)))
		}
		rows = append(rows, rec)
	}

	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return fail("header", fmt.Errorf("duplicate column %q", h))
		}
		seen[h] = struct{}{}
	}
	return Result{Dataset: dataset.FromStrings(header, rows)}
}
