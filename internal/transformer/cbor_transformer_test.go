package transformer

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestCBORTransformer(t *testing.T) {
	tr, err := ForName("cbor")
	if err != nil {
		t.Fatal(err)
	}
	ctx := makeCtx()
	input := map[string]interface{}{"foo": "bar", "num": 42}
	out, err := tr.Transform(ctx, input)
	if err != nil {
		t.Fatal("cbor.Transform error:", err)
	}
	// Just check it's nonempty for now (fxamacker/cbor tests cover correctness)
	if len(out) == 0 {
		t.Fatal("cbor.Transform returned empty")
	}

	// deterministic map encoding
	again, err := tr.Transform(ctx, input)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestCBORTransformer_Rows(t *testing.T) {
	tr, _ := ForName("cbor")
	ctx := makeCtx("a", "b")
	out, err := tr.Transform(ctx, map[string]interface{}{"b": "x"})
	require.NoError(t, err)

	var row []interface{}
	require.NoError(t, cbor.Unmarshal(out, &row))
	require.Equal(t, []interface{}{nil, "x"}, row)
}
