// Package table holds the row and table model shared by the extraction
// pipeline, plus the batch-level reductions over it: schema unification,
// invalid record segregation and single-valued column compaction.
package table

import "sort"

// Field is one named value of a record. Value is one of bool, int64,
// float64, string, []string or nil.
type Field struct {
	Name  string
	Value interface{}
}

// Record is the ordered output of mapping one certificate.
type Record []Field

// Get returns the value of the first field called name.
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Table is an ordered list of rows sharing Columns. Each row has exactly
// len(Columns) values.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns row i keyed by column name.
func (t *Table) Row(i int) map[string]interface{} {
	m := make(map[string]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		m[c] = t.Rows[i][j]
	}
	return m
}

// Constants is the one-row side table holding the value of every column
// that was the same across a whole table.
type Constants struct {
	Columns []string
	Values  []interface{}
}

// Get returns the constant value for a column.
func (c *Constants) Get(name string) (interface{}, bool) {
	for i, col := range c.Columns {
		if col == name {
			return c.Values[i], true
		}
	}
	return nil, false
}

// Table returns the constants as a one-row table. A Constants with no
// columns still yields one (empty) row.
func (c *Constants) Table() *Table {
	row := make([]interface{}, len(c.Values))
	copy(row, c.Values)
	return &Table{Columns: append([]string(nil), c.Columns...), Rows: [][]interface{}{row}}
}

// ConstantsFromTable reads the first row of a side table back into Constants.
func ConstantsFromTable(t *Table) *Constants {
	c := &Constants{Columns: append([]string(nil), t.Columns...)}
	if len(t.Rows) > 0 {
		c.Values = append([]interface{}(nil), t.Rows[0]...)
	} else {
		c.Values = make([]interface{}, len(t.Columns))
	}
	return c
}

// IsList reports whether v is a collection value.
func IsList(v interface{}) bool {
	switch v.(type) {
	case []string, []interface{}:
		return true
	}
	return false
}

// Equal compares two scalar cell values. Lists are never equal, not even to
// themselves. nil equals nil.
func Equal(a, b interface{}) bool {
	if IsList(a) || IsList(b) {
		return false
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return av == bv
		case int64:
			return av == float64(bv)
		}
	}
	return false
}

// Reorder returns t with its columns sorted by their position in order.
// Columns missing from order keep their relative order at the end.
func Reorder(t *Table, order []string) *Table {
	pos := make(map[string]int, len(order))
	for i, c := range order {
		pos[c] = i
	}
	idx := make([]int, len(t.Columns))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, oka := pos[t.Columns[idx[a]]]
		pb, okb := pos[t.Columns[idx[b]]]
		switch {
		case oka && okb:
			return pa < pb
		case oka:
			return true
		default:
			return false
		}
	})
	return project(t, idx)
}

func project(t *Table, idx []int) *Table {
	out := &Table{Columns: make([]string, len(idx)), Rows: make([][]interface{}, len(t.Rows))}
	for i, j := range idx {
		out.Columns[i] = t.Columns[j]
	}
	for r, row := range t.Rows {
		nr := make([]interface{}, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		out.Rows[r] = nr
	}
	return out
}
