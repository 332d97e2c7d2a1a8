package testutil

import (
	"bytes"
	"os"
	"testing"
)

// WriteCloserBuffer is a bytes.Buffer that satisfies io.WriteCloser.
type WriteCloserBuffer struct {
	bytes.Buffer
	Closed bool
}

func (w *WriteCloserBuffer) Close() error {
	w.Closed = true
	return nil
}

// SetupTempDir creates a scratch directory for export files and tables.
// The returned func removes it.
func SetupTempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "certtab-test-")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}
