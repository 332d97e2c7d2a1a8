package transformer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONLTransformer(t *testing.T) {
	tr, err := ForName("jsonl")
	if err != nil {
		t.Fatal(err)
	}
	ctx := makeCtx("num", "foo", "none")
	out, err := tr.Transform(ctx, map[string]interface{}{"foo": "<b>", "num": int64(42)})
	if err != nil {
		t.Fatal("jsonl.Transform error:", err)
	}
	require.Equal(t, `{"num":42,"foo":"<b>","none":null}`+"\n", string(out))
}

func TestJSONLTransformer_NoSchema(t *testing.T) {
	tr, _ := ForName("jsonl")
	out, err := tr.Transform(makeCtx(), map[string]interface{}{"b": 1, "a": "x"})
	require.NoError(t, err)
	require.Equal(t, `{"a":"x","b":1}`+"\n", string(out))
}

func TestReadJSONL_MissingKeys(t *testing.T) {
	in := `{"a":1}` + "\n\n" + `{"b":"x","a":2.5}` + "\n"
	got, err := ReadJSONL(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got.Columns)
	require.Equal(t, [][]interface{}{{int64(1), nil}, {2.5, "x"}}, got.Rows)

	_, err = ReadJSONL(strings.NewReader("[1,2]\n"))
	require.Error(t, err)
}
