package extractor

import (
	"testing"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/stretchr/testify/require"
)

func TestForName(t *testing.T) {
	_, err := ForName("cert_fields")
	if err != nil {
		t.Errorf("expected to find registered cert_fields extractor, got: %v", err)
	}
	_, err = ForName("nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent extractor, got none")
	}
}

type testExtractor struct{}

func (t *testExtractor) Extract(ctx *etl_core.Context, entry *ctexport.Entry) (table.Record, error) {
	return table.Record{{Name: "foo", Value: "bar"}}, nil
}

func (t *testExtractor) Columns() []string { return []string{"foo"} }

func TestRegisterAndRetrieve(t *testing.T) {
	Register("test", &testExtractor{})
	defer delete(extractors, "test")

	ex, err := ForName("test")
	require.NoError(t, err)
	rec, err := ex.Extract(&etl_core.Context{}, &ctexport.Entry{})
	require.NoError(t, err)
	v, ok := rec.Get("foo")
	require.True(t, ok)
	require.Equal(t, "bar", v)
	require.Contains(t, Names(), "test")
}

func TestConfigure(t *testing.T) {
	ex, err := Configure("cert_fields", map[string]interface{}{"extensions": "*,!key_usage"})
	require.NoError(t, err)
	cf, ok := ex.(*CertFieldsExtractor)
	require.True(t, ok)
	require.False(t, cf.enabled["key_usage"])
	require.True(t, cf.enabled["basic_constraints"])

	_, err = Configure("cert_fields", map[string]interface{}{"bogus": 1})
	require.Error(t, err)

	_, err = Configure("cert_fields", map[string]interface{}{"extensions": 3})
	require.Error(t, err)

	// Extractors without options are returned as registered.
	Register("test", &testExtractor{})
	defer delete(extractors, "test")
	ex, err = Configure("test", map[string]interface{}{"anything": true})
	require.NoError(t, err)
	require.IsType(t, &testExtractor{}, ex)
}

func TestParseFieldSpec(t *testing.T) {
	all := []string{"A", "B", "C"}
	require.Equal(t, map[string]bool{"a": true, "b": false, "c": true}, parseFieldSpec(all, "*,!b"))
	require.Equal(t, map[string]bool{"c": true}, parseFieldSpec(all, " C "))
	require.Empty(t, parseFieldSpec(all, ""))
}
