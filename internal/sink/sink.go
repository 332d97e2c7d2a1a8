// Package sink provides the destinations tables are written to: local disk,
// object storage, HTTP endpoints and stdout.
package sink

import (
	"context"
	"io"
	"sort"

	"github.com/chtzvt/certtab/internal/secrets"
)

// Sink opens named objects for writing.
type Sink interface {
	Open(ctx context.Context, name string) (SinkWriter, error)
}

// SinkWriter receives the bytes of one object. The object is complete only
// once Close returns nil.
type SinkWriter interface {
	io.WriteCloser
}

// Factory builds a sink from its options. store may be nil for sinks that
// need no credentials.
type Factory func(opts map[string]interface{}, store *secrets.Store) (Sink, error)

var registry = make(map[string]Factory)

func Register(name string, f Factory) {
	registry[name] = f
}

func ForName(name string) (Factory, bool) {
	f, ok := registry[name]
	return f, ok
}

// Names lists the registered sinks.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
