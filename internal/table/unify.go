package table

import "sort"

// Unify builds a table from records with differing field sets. The columns
// are every field name that holds a non-null value in at least one record,
// ordered by canonical; names canonical does not know follow in sorted
// order. Missing fields are null. An empty record becomes an all-null row.
func Unify(records []Record, canonical []string) *Table {
	observed := make(map[string]bool)
	for _, r := range records {
		for _, f := range r {
			if f.Value != nil {
				observed[f.Name] = true
			}
		}
	}

	cols := make([]string, 0, len(observed))
	known := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		known[c] = true
		if observed[c] {
			cols = append(cols, c)
		}
	}
	var extra []string
	for c := range observed {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	cols = append(cols, extra...)

	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c] = i
	}
	t := &Table{Columns: cols, Rows: make([][]interface{}, len(records))}
	for i, r := range records {
		row := make([]interface{}, len(cols))
		for _, f := range r {
			if j, ok := pos[f.Name]; ok {
				row[j] = f.Value
			}
		}
		t.Rows[i] = row
	}
	return t
}
