package compression

import (
	"io"
	"testing"

	"github.com/chtzvt/certtab/internal/testutil"
	"github.com/stretchr/testify/require"
)

const sampleTable = "serial_number,subject_COMMON_NAME,EXTENSION_BASIC_CONSTRAINTS_CA\n" +
	"1,a.example,false\n" +
	"2,b.example,\n"

func TestWriterReader(t *testing.T) {
	for _, kind := range []string{"gzip", "bzip2", "zstd", "none"} {
		t.Run(kind, func(t *testing.T) {
			var buf testutil.WriteCloserBuffer
			w, err := NewWriter(&buf, kind)
			require.NoError(t, err)
			_, err = io.WriteString(w, sampleTable)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if kind == "none" {
				require.Equal(t, sampleTable, buf.String())
			} else {
				require.NotEqual(t, sampleTable, buf.String())
			}

			r, err := NewReader(&buf, kind)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, sampleTable, string(got))
		})
	}
}

func TestUnsupported(t *testing.T) {
	var buf testutil.WriteCloserBuffer
	_, err := NewWriter(&buf, "lzma")
	require.Error(t, err)
	_, err = NewReader(&buf, "lzma")
	require.Error(t, err)
}

func TestFromPath(t *testing.T) {
	cases := map[string]string{
		"out/certificates.0001.csv.gz":        "gzip",
		"certificates-invalid.CSV.BZ2":        "bzip2",
		"certificates-single-valued.cbor.zst": "zstd",
		"export.csv":                          "none",
		"noext":                               "none",
	}
	for in, want := range cases {
		require.Equal(t, want, FromPath(in), in)
		if want != "none" {
			require.Equal(t, want, FromPath("certificates"+Extension(want)))
		}
	}
}
