package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chtzvt/certtab/internal/compression"
	"github.com/chtzvt/certtab/internal/secrets"
)

// Helper to support bool/int/bool-string conversion
func toBool(val interface{}) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v == "1" || v == "true" || v == "on"
	default:
		return false
	}
}

func stringOpt(opts map[string]interface{}, key, def string) string {
	if s, ok := opts[key].(string); ok && s != "" {
		return s
	}
	return def
}

// joinKey joins an object prefix and name with exactly one slash.
func joinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimLeft(name, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func secret(ctx context.Context, store *secrets.Store, key string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("missing %s: no secrets store", key)
	}
	v, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("missing %s: %w", key, err)
	}
	return string(v), nil
}

// spoolBuffer holds an object until it is uploaded, in memory or in a
// temporary file.
type spoolBuffer interface {
	io.Writer
	// Reader rewinds the buffer for upload.
	Reader() (io.Reader, error)
	Size() int64
	Discard() error
}

func newSpoolBuffer(bufferType string) (spoolBuffer, error) {
	switch bufferType {
	case "", "memory":
		return &memorySpool{}, nil
	case "disk":
		f, err := os.CreateTemp("", "certtab-upload-*")
		if err != nil {
			return nil, err
		}
		return &fileSpool{f: f}, nil
	default:
		return nil, fmt.Errorf("unknown buffer_type %q", bufferType)
	}
}

type memorySpool struct {
	bytes.Buffer
}

func (m *memorySpool) Reader() (io.Reader, error) { return bytes.NewReader(m.Bytes()), nil }
func (m *memorySpool) Size() int64                { return int64(m.Len()) }
func (m *memorySpool) Discard() error             { m.Reset(); return nil }

type fileSpool struct {
	f *os.File
	n int64
}

func (s *fileSpool) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.n += int64(n)
	return n, err
}

func (s *fileSpool) Reader() (io.Reader, error) {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.f, nil
}

func (s *fileSpool) Size() int64 { return s.n }

func (s *fileSpool) Discard() error {
	err1 := s.f.Close()
	err2 := os.Remove(s.f.Name())
	if err1 != nil {
		return err1
	}
	return err2
}

// uploadWriter compresses into a spool buffer and hands the result to
// upload on Close.
type uploadWriter struct {
	ctx    context.Context
	w      io.WriteCloser
	spool  spoolBuffer
	upload func(ctx context.Context, body io.Reader, size int64) error
	closed bool
}

func newUploadWriter(ctx context.Context, comp, bufferType string, upload func(context.Context, io.Reader, int64) error) (*uploadWriter, error) {
	spool, err := newSpoolBuffer(bufferType)
	if err != nil {
		return nil, err
	}
	w, err := compression.NewWriter(spool, comp)
	if err != nil {
		_ = spool.Discard()
		return nil, err
	}
	return &uploadWriter{ctx: ctx, w: w, spool: spool, upload: upload}, nil
}

func (u *uploadWriter) Write(p []byte) (int, error) {
	if u.closed {
		return 0, errors.New("sinkwriter closed")
	}
	return u.w.Write(p)
}

func (u *uploadWriter) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	defer u.spool.Discard()

	if err := u.w.Close(); err != nil {
		return err
	}
	body, err := u.spool.Reader()
	if err != nil {
		return err
	}
	return u.upload(u.ctx, body, u.spool.Size())
}
