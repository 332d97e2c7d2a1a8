package transformer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVTransformer(t *testing.T) {
	tr, err := ForName("csv")
	require.NoError(t, err)
	require.Equal(t, ".csv", tr.Extension())

	ctx := makeCtx("subject_COMMON_NAME", "validity_not_before", "subject_alt_name_dns", "EXTENSION_BASIC_CONSTRAINTS_CA")

	header, err := tr.Header(ctx)
	require.NoError(t, err)
	require.Equal(t, "subject_COMMON_NAME,validity_not_before,subject_alt_name_dns,EXTENSION_BASIC_CONSTRAINTS_CA\n", string(header))

	row, err := tr.Transform(ctx, map[string]interface{}{
		"subject_COMMON_NAME":  "Example, Inc.",
		"validity_not_before":  int64(1700000000),
		"subject_alt_name_dns": []string{"a.example", "b.example"},
	})
	require.NoError(t, err)
	require.Equal(t, `"Example, Inc.",1700000000,"[""a.example"",""b.example""]",`+"\n", string(row))

	footer, err := tr.Footer(ctx)
	require.NoError(t, err)
	require.Empty(t, footer)

	got, err := ReadCSV(bytes.NewReader(append(header, row...)))
	require.NoError(t, err)
	require.Equal(t, [][]interface{}{{"Example, Inc.", int64(1700000000), []string{"a.example", "b.example"}, nil}}, got.Rows)
}

func TestCSVTransformer_NoColumns(t *testing.T) {
	tr, _ := ForName("csv")
	ctx := makeCtx()

	_, err := tr.Header(ctx)
	require.ErrorContains(t, err, "fields")
	_, err = tr.Transform(ctx, map[string]interface{}{"version": "v3"})
	require.ErrorContains(t, err, "fields")
}

func TestReadCSV_ColumnTypes(t *testing.T) {
	in := "serial,not_valid_before,ca,dns,ratio,name\n" +
		"1,1700000000,true,\"[\"\"a\"\"]\",1.5,Inf\n" +
		"2,-3,,[],2,sha256WithRSAEncryption\n" +
		",,false,,,\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, [][]interface{}{
		{int64(1), int64(1700000000), true, []string{"a"}, 1.5, "Inf"},
		{int64(2), int64(-3), nil, []string{}, 2.0, "sha256WithRSAEncryption"},
		{nil, nil, false, nil, nil, nil},
	}, got.Rows)
}

func TestReadCSV_MixedColumnsStayStrings(t *testing.T) {
	in := "subject_POSTAL_CODE,subject_COMMON_NAME,subject_ORGANIZATION_NAME,serial_number\n" +
		"01234,true,[not json,007\n" +
		"SW1A 1AA,b.example,Example Ltd,7\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, [][]interface{}{
		{"01234", "true", "[not json", "007"},
		{"SW1A 1AA", "b.example", "Example Ltd", "7"},
	}, got.Rows)
}
