package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rec(kv ...interface{}) Record {
	var r Record
	for i := 0; i < len(kv); i += 2 {
		r = append(r, Field{Name: kv[i].(string), Value: kv[i+1]})
	}
	return r
}

func TestUnify_UnionAndCanonicalOrder(t *testing.T) {
	canonical := []string{"version", "issuer_COMMON_NAME", "EXTENSION_BASIC_CONSTRAINTS_CA", "EXTENSION_TLS_FEATURE"}
	records := []Record{
		rec("EXTENSION_TLS_FEATURE", true, "version", "v3"),
		rec("version", "v3", "issuer_COMMON_NAME", "ca", "zz_extra", int64(1), "aa_extra", "x"),
		nil,
	}

	tbl := Unify(records, canonical)
	require.Equal(t, []string{"version", "issuer_COMMON_NAME", "EXTENSION_TLS_FEATURE", "aa_extra", "zz_extra"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	require.Equal(t, []interface{}{"v3", nil, true, nil, nil}, tbl.Rows[0])
	require.Equal(t, []interface{}{"v3", "ca", nil, "x", int64(1)}, tbl.Rows[1])
	require.Equal(t, []interface{}{nil, nil, nil, nil, nil}, tbl.Rows[2])
}

func TestUnify_DropsAllNullColumns(t *testing.T) {
	records := []Record{
		rec("a", nil, "b", int64(1)),
		rec("a", nil, "b", nil),
	}
	tbl := Unify(records, []string{"a", "b"})
	require.Equal(t, []string{"b"}, tbl.Columns)
	for j := range tbl.Columns {
		nonNull := false
		for _, row := range tbl.Rows {
			nonNull = nonNull || row[j] != nil
		}
		require.True(t, nonNull, "column %s is null in every row", tbl.Columns[j])
	}
}

func TestUnify_AbsentVersusFalseKeepsColumn(t *testing.T) {
	records := []Record{
		rec("version", "v3"),
		rec("version", "v3", "EXTENSION_BASIC_CONSTRAINTS_CA", false),
	}
	tbl := Unify(records, []string{"version", "EXTENSION_BASIC_CONSTRAINTS_CA"})
	j := tbl.ColumnIndex("EXTENSION_BASIC_CONSTRAINTS_CA")
	require.GreaterOrEqual(t, j, 0)
	require.Nil(t, tbl.Rows[0][j])
	require.Equal(t, false, tbl.Rows[1][j])
}

func TestUnify_Deterministic(t *testing.T) {
	records := []Record{
		rec("x3", int64(1), "x1", "a", "x2", true),
		rec("x2", false, "y", "b"),
	}
	first := Unify(records, []string{"x1", "x2"})
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Unify(records, []string{"x1", "x2"}))
	}
}

func TestCompact_SplitsConstantColumns(t *testing.T) {
	tbl := &Table{
		Columns: []string{"issuer", "cn", "san", "ca", "path"},
		Rows: [][]interface{}{
			{"R3", "a.example", []string{"a.example"}, false, nil},
			{"R3", "b.example", []string{"a.example"}, false, nil},
			{"R3", "c.example", []string{"a.example"}, false, nil},
		},
	}
	narrow, consts, err := Compact(tbl)
	require.NoError(t, err)
	require.Equal(t, []string{"cn", "san"}, narrow.Columns)
	require.Equal(t, []string{"issuer", "ca", "path"}, consts.Columns)
	require.Equal(t, []interface{}{"R3", false, nil}, consts.Values)

	for j, col := range consts.Columns {
		i := tbl.ColumnIndex(col)
		for _, row := range tbl.Rows {
			require.True(t, Equal(row[i], consts.Values[j]))
		}
	}

	wide := Broadcast(narrow, consts, tbl.Columns)
	require.Equal(t, tbl, wide)
}

func TestCompact_EmptyBatch(t *testing.T) {
	_, _, err := Compact(&Table{Columns: []string{"a"}})
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestCompact_SingleRowEverythingConstantButLists(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a", "b"},
		Rows:    [][]interface{}{{"x", []string{"y"}}},
	}
	narrow, consts, err := Compact(tbl)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, narrow.Columns)
	require.Equal(t, []string{"a"}, consts.Columns)
}

func TestSegregate_Lossless(t *testing.T) {
	tbl := &Table{
		Columns: []string{"version", "cn"},
		Rows: [][]interface{}{
			{"v3", "a"},
			{nil, nil},
			{"v3", nil},
		},
	}
	raws := []RawCertificate{{"AAA", "c1"}, {"BAD", "c2;c3"}, {"CCC", "c4"}}

	main, invalid, err := Segregate(tbl, raws)
	require.NoError(t, err)
	require.Equal(t, tbl.Len(), main.Len()+invalid.Len())
	require.Equal(t, 2, main.Len())
	require.Equal(t, InvalidColumns, invalid.Columns)
	require.Equal(t, [][]interface{}{{"BAD", "c2;c3"}}, invalid.Rows)
}

func TestSegregate_MismatchedRaws(t *testing.T) {
	_, _, err := Segregate(&Table{Rows: [][]interface{}{{}}}, nil)
	require.Error(t, err)
}

func TestSegregate_NoColumnsMeansEverythingInvalid(t *testing.T) {
	tbl := Unify([]Record{nil, nil}, nil)
	main, invalid, err := Segregate(tbl, []RawCertificate{{"a", ""}, {"b", ""}})
	require.NoError(t, err)
	require.Equal(t, 0, main.Len())
	require.Equal(t, 2, invalid.Len())

	_, _, err = Compact(main)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(nil, nil))
	require.True(t, Equal(int64(3), float64(3)))
	require.False(t, Equal("3", int64(3)))
	require.False(t, Equal([]string{"a"}, []string{"a"}))
	require.False(t, Equal(nil, false))
}

func TestConcatAndReorder(t *testing.T) {
	a := &Table{Columns: []string{"x", "y"}, Rows: [][]interface{}{{1, 2}}}
	b := &Table{Columns: []string{"z", "x"}, Rows: [][]interface{}{{3, 4}}}
	c := Concat(a, b)
	require.Equal(t, []string{"x", "y", "z"}, c.Columns)
	require.Equal(t, [][]interface{}{{1, 2, nil}, {4, nil, 3}}, c.Rows)

	r := Reorder(c, []string{"z", "x"})
	require.Equal(t, []string{"z", "x", "y"}, r.Columns)
	require.Equal(t, []interface{}{nil, 1, 2}, r.Rows[0])
}

func TestConstantsTableRoundTrip(t *testing.T) {
	c := &Constants{Columns: []string{"a", "b"}, Values: []interface{}{"x", int64(2)}}
	back := ConstantsFromTable(c.Table())
	require.Equal(t, c, back)
	v, ok := back.Get("b")
	require.True(t, ok)
	require.Equal(t, int64(2), v)
}
