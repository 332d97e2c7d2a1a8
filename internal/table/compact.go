package table

import "errors"

// ErrEmptyBatch is returned when a table with no rows is compacted.
var ErrEmptyBatch = errors.New("empty batch: no rows to classify")

// Compact splits t into the columns that vary between rows and the columns
// that hold the same value in every row. List-valued columns always vary.
func Compact(t *Table) (*Table, *Constants, error) {
	if t.Len() == 0 {
		return nil, nil, ErrEmptyBatch
	}

	var varying []int
	consts := &Constants{}
	for j, col := range t.Columns {
		if constantColumn(t, j) {
			consts.Columns = append(consts.Columns, col)
			consts.Values = append(consts.Values, t.Rows[0][j])
		} else {
			varying = append(varying, j)
		}
	}
	return project(t, varying), consts, nil
}

func constantColumn(t *Table, j int) bool {
	first := t.Rows[0][j]
	if IsList(first) {
		return false
	}
	for _, row := range t.Rows[1:] {
		if !Equal(first, row[j]) {
			return false
		}
	}
	return true
}

// Broadcast is the inverse of Compact: it adds every constant column back
// to narrow, repeating its value on each row, and orders the result by
// canonical. A constant column already present in narrow is overwritten.
func Broadcast(narrow *Table, c *Constants, canonical []string) *Table {
	out := &Table{Columns: append([]string(nil), narrow.Columns...), Rows: make([][]interface{}, len(narrow.Rows))}
	for i, row := range narrow.Rows {
		out.Rows[i] = append([]interface{}(nil), row...)
	}
	for k, col := range c.Columns {
		j := out.ColumnIndex(col)
		if j < 0 {
			out.Columns = append(out.Columns, col)
			for i := range out.Rows {
				out.Rows[i] = append(out.Rows[i], c.Values[k])
			}
			continue
		}
		for i := range out.Rows {
			out.Rows[i][j] = c.Values[k]
		}
	}
	if canonical == nil {
		return out
	}
	return Reorder(out, canonical)
}

// Concat stacks tables. The result has the union of their columns in
// first-seen order; cells a table did not have are null.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			nr := make([]interface{}, len(out.Columns))
			for j, c := range t.Columns {
				nr[pos[c]] = row[j]
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}
