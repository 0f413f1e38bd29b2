package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"rulecheck/internal/metrics"
)

// DefaultBatchSize is the number of rows sent per CopyFrom call.
const DefaultBatchSize = 500

// RowSource is a positional row store such as *dataset.Dataset.
type RowSource interface {
	Len() int
	Row(i int) []any
}

// CopyFn is one bulk insert of rows aligned to columns. It returns the rows
// written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches hands src to copyFn in consecutive slices of batchSize rows and
// returns the rows copyFn reported. It stops at the first failing batch or
// when ctx is done; earlier batches stay written. The batch buffer is reused,
// so copyFn must not keep rows after returning.
func LoadBatches(ctx context.Context, columns []string, src RowSource, batchSize int, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		started = time.Now()
		batch   = make([][]any, 0, min(batchSize, src.Len()))
	)
	for lo, n := 0, 1; lo < src.Len(); lo, n = lo+batchSize, n+1 {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, src.Len())
		batch = batch[:0]
		for i := lo; i < hi; i++ {
			batch = append(batch, src.Row(i))
		}

		written, err := copyFn(ctx, columns, batch)
		total += written
		if err != nil {
			log.Printf("loader: batch=%d rows=%d-%d failed total=%d err=%v", n, lo+1, hi, total, err)
			return total, fmt.Errorf("batch %d (rows %d-%d): %w", n, lo+1, hi, err)
		}
		log.Printf("loader: batch=%d rows=%d-%d total=%d elapsed=%s",
			n, lo+1, hi, total, time.Since(started).Truncate(time.Millisecond))
	}
	return total, nil
}

// Load writes every row of src into repo in batches of batchSize (<= 0 means
// DefaultBatchSize). Written batches are counted under job.
func Load(ctx context.Context, repo Repository, job string, columns []string, src RowSource, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return LoadBatches(ctx, columns, src, batchSize, func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		n, err := repo.CopyFrom(ctx, columns, rows)
		if err == nil {
			metrics.RecordBatches(job, 1)
		}
		return n, err
	})
}
