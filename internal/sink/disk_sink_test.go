package sink

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const csvChunk = "serial_number,subject_COMMON_NAME\n1,a.example\n2,b.example\n"

func writeObject(t *testing.T, s Sink, name, body string) {
	t.Helper()
	w, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	n, err := io.WriteString(w, body)
	require.NoError(t, err)
	require.Equal(t, len(body), n)
	require.NoError(t, w.Close())
}

func TestDiskSink_WritesTable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskSink(map[string]interface{}{"path": dir}, nil)
	require.NoError(t, err)

	writeObject(t, s, "certificates.0001.csv", csvChunk)
	writeObject(t, s, "run-2/certificates-invalid.csv", "certificate,chain\n")

	b, err := os.ReadFile(filepath.Join(dir, "certificates.0001.csv"))
	require.NoError(t, err)
	require.Equal(t, csvChunk, string(b))
	_, err = os.Stat(filepath.Join(dir, "run-2", "certificates-invalid.csv"))
	require.NoError(t, err)
}

func TestDiskSink_StagedUntilClose(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskSink(map[string]interface{}{"path": dir, "compression": "gzip"}, nil)
	require.NoError(t, err)

	w, err := s.Open(context.Background(), "certificates.csv.gz")
	require.NoError(t, err)
	_, err = io.WriteString(w, csvChunk)
	require.NoError(t, err)

	dest := filepath.Join(dir, "certificates.csv.gz")
	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	require.Error(t, err)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, csvChunk, string(plain))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging file left behind")
}

func TestDiskSink_NoOverwrite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskSink(map[string]interface{}{"path": dir, "overwrite": "false"}, nil)
	require.NoError(t, err)

	writeObject(t, s, "certificates.csv", csvChunk)
	_, err = s.Open(context.Background(), "certificates.csv")
	require.ErrorIs(t, err, ErrTableExists)

	s, err = NewDiskSink(map[string]interface{}{"path": dir}, nil)
	require.NoError(t, err)
	writeObject(t, s, "certificates.csv", "version\nv3\n")
	b, err := os.ReadFile(filepath.Join(dir, "certificates.csv"))
	require.NoError(t, err)
	require.Equal(t, "version\nv3\n", string(b))
}

func TestDiskSink_Errors(t *testing.T) {
	_, err := NewDiskSink(map[string]interface{}{}, nil)
	require.ErrorContains(t, err, "path")

	s, err := NewDiskSink(map[string]interface{}{"path": t.TempDir(), "compression": "lzma"}, nil)
	require.NoError(t, err)
	_, err = s.Open(context.Background(), "x.csv")
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Open(ctx, "x.csv")
	require.ErrorIs(t, err, context.Canceled)
}
