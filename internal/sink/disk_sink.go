package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chtzvt/certtab/internal/compression"
	"github.com/chtzvt/certtab/internal/secrets"
)

// ErrTableExists is returned by a DiskSink with overwrite disabled when the
// target file is already present.
var ErrTableExists = errors.New("table already exists")

// DiskSink writes each object as a file under Root.
type DiskSink struct {
	Root        string
	Compression string
	Overwrite   bool
}

// NewDiskSink reads the options path (required), compression and overwrite
// (default true).
func NewDiskSink(opts map[string]interface{}, _ *secrets.Store) (Sink, error) {
	root := stringOpt(opts, "path", "")
	if root == "" {
		return nil, fmt.Errorf("disk sink requires 'path' option")
	}
	overwrite := true
	if v, ok := opts["overwrite"]; ok {
		overwrite = toBool(v)
	}
	return &DiskSink{
		Root:        root,
		Compression: stringOpt(opts, "compression", "none"),
		Overwrite:   overwrite,
	}, nil
}

// Open stages the table in a hidden file next to its destination. Close
// renames it into place, so a reader never sees a half-written table.
func (d *DiskSink) Open(ctx context.Context, name string) (SinkWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dest := filepath.Join(d.Root, name)
	if !d.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			return nil, fmt.Errorf("%s: %w", dest, ErrTableExists)
		}
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	staged, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return nil, err
	}
	enc, err := compression.NewWriter(staged, d.Compression)
	if err != nil {
		staged.Close()
		os.Remove(staged.Name())
		return nil, err
	}
	return &stagedFile{enc: enc, staged: staged, dest: dest}, nil
}

type stagedFile struct {
	enc    io.WriteCloser
	staged *os.File
	dest   string
	done   bool
}

func (s *stagedFile) Write(p []byte) (int, error) {
	if s.done {
		return 0, errors.New("sinkwriter closed")
	}
	return s.enc.Write(p)
}

func (s *stagedFile) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	err := errors.Join(s.enc.Close(), s.staged.Close())
	if err != nil {
		os.Remove(s.staged.Name())
		return err
	}
	return os.Rename(s.staged.Name(), s.dest)
}

func init() {
	Register("disk", NewDiskSink)
}
