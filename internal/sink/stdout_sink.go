package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chtzvt/certtab/internal/secrets"
)

// StdoutSink writes every object to one stream, os.Stdout by default. With
// the "banner" option set each object is preceded by a "==> name <==" line
// so the tables of a run can be told apart.
type StdoutSink struct {
	Out    io.Writer
	banner bool

	mu sync.Mutex
}

func NewStdoutSink(opts map[string]interface{}, _ *secrets.Store) (Sink, error) {
	return &StdoutSink{Out: os.Stdout, banner: toBool(opts["banner"])}, nil
}

// Open holds the stream until the returned writer is closed, so objects
// written concurrently do not interleave.
func (s *StdoutSink) Open(ctx context.Context, name string) (SinkWriter, error) {
	s.mu.Lock()
	if s.banner {
		if _, err := fmt.Fprintf(s.Out, "==> %s <==\n", name); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	return &stdoutWriter{Writer: s.Out, unlock: s.mu.Unlock}, nil
}

type stdoutWriter struct {
	io.Writer
	unlock func()
	once   sync.Once
}

func (w *stdoutWriter) Close() error {
	// Don't close os.Stdout!
	w.once.Do(w.unlock)
	return nil
}

func init() {
	Register("stdout", NewStdoutSink)
}
