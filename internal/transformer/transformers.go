// Package transformer encodes table rows for a sink and reads written tables
// back for combining.
package transformer

import (
	"fmt"
	"io"
	"sort"

	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
)

type Transformer interface {
	// Transform encodes one row. data is keyed by column name and holds a
	// value for every column of ctx.Columns.
	Transform(ctx *etl_core.Context, data map[string]interface{}) ([]byte, error)

	// Header returns any leading bytes (e.g., header row, opening bracket, etc).
	// Should return nil/empty if not needed.
	Header(ctx *etl_core.Context) ([]byte, error)

	// Footer returns any trailing bytes (e.g., closing bracket, sentinel value, etc).
	// Should return nil/empty if not needed.
	Footer(ctx *etl_core.Context) ([]byte, error)

	// Extension is the file name suffix of the encoding, including the dot.
	Extension() string
}

// ReadFunc decodes a whole table written by the transformer of the same name.
type ReadFunc func(r io.Reader) (*table.Table, error)

var (
	registry = make(map[string]Transformer)
	readers  = make(map[string]ReadFunc)
)

func Register(name string, t Transformer) {
	registry[name] = t
}

func RegisterReader(name string, fn ReadFunc) {
	readers[name] = fn
}

func ForName(name string) (Transformer, error) {
	tr, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("transformer not found: %s", name)
	}
	return tr, nil
}

// ReadTable decodes a table in the named format.
func ReadTable(name string, r io.Reader) (*table.Table, error) {
	fn, ok := readers[name]
	if !ok {
		return nil, fmt.Errorf("no table reader for format: %s", name)
	}
	return fn(r)
}

// ForExtension finds the transformer whose Extension matches ext.
func ForExtension(ext string) (string, bool) {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if registry[name].Extension() == ext {
			return name, true
		}
	}
	return "", false
}

// columns returns the schema to write: ctx.Columns, or the "fields"
// transformer option when no schema is set.
func columns(ctx *etl_core.Context) []string {
	if ctx == nil {
		return nil
	}
	if len(ctx.Columns) > 0 {
		return ctx.Columns
	}
	if ctx.Spec == nil {
		return nil
	}
	fields, _ := ctx.Spec.Options.Output.TransformerOptions["fields"].([]interface{})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
