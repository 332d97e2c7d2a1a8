package etl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chtzvt/certtab/internal/compression"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/chtzvt/certtab/internal/transformer"
)

var chunkSuffix = regexp.MustCompile(`\.\d{4}$`)

// TablePath splits a written table path into its stem (without chunk
// number), format extension and compression extension.
func TablePath(path string) (stem, formatExt, compExt string) {
	stem = path
	if comp := compression.FromPath(stem); comp != "none" {
		compExt = filepath.Ext(stem)
		stem = strings.TrimSuffix(stem, compExt)
	}
	formatExt = filepath.Ext(stem)
	stem = strings.TrimSuffix(stem, formatExt)
	stem = chunkSuffix.ReplaceAllString(stem, "")
	return stem, formatExt, compExt
}

// SingleValuedPath returns the side table path belonging to a main table
// path, e.g. out.0002.csv.gz -> out-single-valued.csv.gz.
func SingleValuedPath(path string) string {
	stem, formatExt, compExt := TablePath(path)
	return stem + SingleValuedSuffix + formatExt + compExt
}

// ReadTableFile reads a table written by one of the transformers, picking
// the decoder by extension.
func ReadTableFile(path string) (*table.Table, error) {
	_, formatExt, _ := TablePath(path)
	name, ok := transformer.ForExtension(formatExt)
	if !ok {
		return nil, fmt.Errorf("%s: no transformer for extension %q", path, formatExt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := compression.NewReader(f, compression.FromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()
	t, err := transformer.ReadTable(name, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadMainTable reads a main table and its single-valued sibling back into
// one wide table ordered by canonical. A missing sibling means no constants.
func ReadMainTable(path string, canonical []string) (*table.Table, error) {
	main, err := ReadTableFile(path)
	if err != nil {
		return nil, err
	}
	consts := &table.Constants{}
	side, err := ReadTableFile(SingleValuedPath(path))
	switch {
	case err == nil:
		consts = table.ConstantsFromTable(side)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	return table.Broadcast(main, consts, canonical), nil
}

// Combine stacks wide tables and compacts the result again.
func Combine(tables []*table.Table, canonical []string) (*table.Table, *table.Constants, error) {
	all := table.Concat(tables...)
	if canonical != nil {
		all = table.Reorder(all, canonical)
	}
	return table.Compact(all)
}
