package sink

import (
	"context"
	"sync/atomic"

	"github.com/chtzvt/certtab/internal/secrets"
)

// NullSink discards every object, keeping only counts. Useful for dry runs
// that only want the manifest numbers.
type NullSink struct {
	objects atomic.Int64
	bytes   atomic.Int64
}

func NewNullSink(_ map[string]interface{}, _ *secrets.Store) (Sink, error) {
	return &NullSink{}, nil
}

func (s *NullSink) Open(ctx context.Context, name string) (SinkWriter, error) {
	return &nullWriter{sink: s}, nil
}

// Objects returns the number of objects closed so far.
func (s *NullSink) Objects() int64 { return s.objects.Load() }

// Bytes returns the number of bytes discarded so far.
func (s *NullSink) Bytes() int64 { return s.bytes.Load() }

type nullWriter struct {
	sink   *NullSink
	closed bool
}

func (w *nullWriter) Write(p []byte) (int, error) {
	w.sink.bytes.Add(int64(len(p)))
	return len(p), nil
}

func (w *nullWriter) Close() error {
	if !w.closed {
		w.closed = true
		w.sink.objects.Add(1)
	}
	return nil
}

func init() {
	Register("null", NewNullSink)
}
