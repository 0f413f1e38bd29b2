// Package file opens customer files from the local disk.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem Source bound to one path.
type Local struct{ path string }

// NewLocal returns a Local for path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the file. A canceled ctx returns ctx.Err() without touching the
// filesystem; open errors keep os.ErrNotExist and friends reachable through
// errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
