// Package extractor maps raw export entries to table records. The
// cert_fields extractor decodes a certificate, its issuer and subject names
// and every recognized extension into a flat, ordered record.
package extractor

import (
	"fmt"
	"sort"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
)

type Extractor interface {
	// Extract maps one entry. A non-nil error means the entry could not be
	// mapped; callers record it as an all-null row.
	Extract(ctx *etl_core.Context, entry *ctexport.Entry) (table.Record, error)

	// Columns is the canonical order of every field Extract can emit.
	Columns() []string
}

// Configurable is implemented by extractors that accept job options.
type Configurable interface {
	WithOptions(opts map[string]interface{}) (Extractor, error)
}

var extractors = make(map[string]Extractor)

func Register(name string, extractor Extractor) {
	extractors[name] = extractor
}

func ForName(name string) (Extractor, error) {
	ex, ok := extractors[name]
	if !ok {
		return nil, fmt.Errorf("extractor not found: %s", name)
	}
	return ex, nil
}

// Configure looks up an extractor and applies opts when it supports them.
func Configure(name string, opts map[string]interface{}) (Extractor, error) {
	ex, err := ForName(name)
	if err != nil {
		return nil, err
	}
	if c, ok := ex.(Configurable); ok && len(opts) > 0 {
		return c.WithOptions(opts)
	}
	return ex, nil
}

// Names lists the registered extractors.
func Names() []string {
	out := make([]string, 0, len(extractors))
	for k := range extractors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
