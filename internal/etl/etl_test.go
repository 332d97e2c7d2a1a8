package etl

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/extractor"
	"github.com/chtzvt/certtab/internal/job"
	"github.com/chtzvt/certtab/internal/logger"
	"github.com/chtzvt/certtab/internal/output"
	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/chtzvt/certtab/internal/sink"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/chtzvt/certtab/internal/transformer"
	"github.com/stretchr/testify/require"
)

// --- Fake implementations for test ---

type fakeExtractor struct{}

func (f *fakeExtractor) Extract(ctx *etl_core.Context, e *ctexport.Entry) (table.Record, error) {
	if e.CertificateBase64 == "bad" {
		return nil, fmt.Errorf("extract fail")
	}
	return table.Record{{Name: "val", Value: e.CertificateBase64}}, nil
}

func (f *fakeExtractor) Columns() []string { return []string{"val"} }

type fakeTransformer struct{}

func (f *fakeTransformer) Transform(ctx *etl_core.Context, data map[string]interface{}) ([]byte, error) {
	return []byte(fmt.Sprintf("%s", data["val"])), nil
}
func (f *fakeTransformer) Header(ctx *etl_core.Context) ([]byte, error) { return nil, nil }
func (f *fakeTransformer) Footer(ctx *etl_core.Context) ([]byte, error) { return nil, nil }
func (f *fakeTransformer) Extension() string                            { return "" }

type record struct {
	Name string
	Data []byte
}
type mockSink struct {
	mu     sync.Mutex
	Chunks []record
}
type mockWriter struct {
	name   string
	sink   *mockSink
	buf    bytes.Buffer
	closed bool
}

func (m *mockSink) Open(ctx context.Context, name string) (sink.SinkWriter, error) {
	return &mockWriter{name: name, sink: m}, nil
}

func (m *mockSink) Object(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Chunks {
		if c.Name == name {
			return c.Data, true
		}
	}
	return nil, false
}

func (m *mockSink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Chunks))
	for i, c := range m.Chunks {
		out[i] = c.Name
	}
	return out
}

func (w *mockWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *mockWriter) Close() error {
	if !w.closed {
		w.sink.mu.Lock()
		w.sink.Chunks = append(w.sink.Chunks, record{Name: w.name, Data: w.buf.Bytes()})
		w.sink.mu.Unlock()
		w.closed = true
	}
	return nil
}

type errorWriter struct{}

func (e *errorWriter) Write(p []byte) (int, error) { return 0, fmt.Errorf("write fail") }
func (e *errorWriter) Close() error                { return nil }

type errorSink struct{}

func (e *errorSink) Open(ctx context.Context, name string) (sink.SinkWriter, error) {
	return &errorWriter{}, nil
}

func fakePipeline(s sink.Sink, chunkRecs, chunkBytes int) *Pipeline {
	return &Pipeline{
		Extractor:     &fakeExtractor{},
		Transformer:   &fakeTransformer{},
		Sink:          s,
		Ctx:           &etl_core.Context{Spec: &job.JobSpec{}},
		Workers:       2,
		MaxChunkRecs:  chunkRecs,
		MaxChunkBytes: chunkBytes,
		Metrics:       &Metrics{},
	}
}

func valTable(n int) *table.Table {
	t := &table.Table{Columns: []string{"val"}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, []interface{}{strconv.Itoa(i)})
	}
	return t
}

// --- Actual tests ---

func TestNewPipeline(t *testing.T) {
	extractor.Register("fake", &fakeExtractor{})
	transformer.Register("fake", &fakeTransformer{})
	ms := &mockSink{}
	sink.Register("mock", func(opts map[string]interface{}, secrets *secrets.Store) (sink.Sink, error) {
		return ms, nil
	})

	spec := &job.JobSpec{
		Version: "1",
		Options: job.JobOptions{
			Extract: job.ExtractConfig{Extractor: "fake"},
			Output: job.OutputOptions{
				BaseName:     "out",
				Transformer:  "fake",
				Sink:         "mock",
				Target:       "null",
				ChunkRecords: 3,
			},
		},
	}
	p, err := NewPipeline(context.Background(), spec, nil, logger.Nop())
	require.NoError(t, err)
	require.Equal(t, ms, p.Sink)
	require.Equal(t, 3, p.MaxChunkRecs)
	require.Greater(t, p.Workers, 0)
	require.Equal(t, "null", p.Target.Name())
	require.NoError(t, p.Close())

	spec.Options.Output.Sink = "nope"
	_, err = NewPipeline(context.Background(), spec, nil, nil)
	require.ErrorContains(t, err, "sink: not found")

	spec.Options.Output.Sink = "mock"
	spec.Options.Output.Transformer = "nope"
	_, err = NewPipeline(context.Background(), spec, nil, nil)
	require.ErrorContains(t, err, "transformer")
}

func TestPipeline_ChunkingByRecordsAndBytes(t *testing.T) {
	ms := &mockSink{}
	p := fakePipeline(ms, 3, 6)

	objs, err := p.WriteTable(context.Background(), "testfile", valTable(7), true)
	require.NoError(t, err)
	require.Equal(t, []string{"testfile.0001", "testfile.0002", "testfile.0003"}, objs)

	require.Len(t, ms.Chunks, 3)
	require.Equal(t, "012", string(ms.Chunks[0].Data))
	require.Equal(t, "345", string(ms.Chunks[1].Data))
	require.Equal(t, "6", string(ms.Chunks[2].Data))
	require.Equal(t, int64(3), p.Metrics.Snapshot().Objects)
}

func TestPipeline_EmptyTable(t *testing.T) {
	ms := &mockSink{}
	p := fakePipeline(ms, 0, 0)

	objs, err := p.WriteTable(context.Background(), "empty", &table.Table{Columns: []string{"val"}}, true)
	require.NoError(t, err)
	require.Equal(t, []string{"empty"}, objs)
	require.Len(t, ms.Chunks, 1)
	require.Empty(t, ms.Chunks[0].Data)
}

func TestPipeline_ChunkByBytesOnly(t *testing.T) {
	ms := &mockSink{}
	p := fakePipeline(ms, 0, 2)

	_, err := p.WriteTable(context.Background(), "bytes", valTable(4), true)
	require.NoError(t, err)
	require.Len(t, ms.Chunks, 2)
	require.Equal(t, "01", string(ms.Chunks[0].Data))
	require.Equal(t, "23", string(ms.Chunks[1].Data))
}

func TestPipeline_ChunkByRecordsOnly(t *testing.T) {
	ms := &mockSink{}
	p := fakePipeline(ms, 2, 0)

	_, err := p.WriteTable(context.Background(), "recs", valTable(5), true)
	require.NoError(t, err)
	require.Len(t, ms.Chunks, 3)
	require.Equal(t, "01", string(ms.Chunks[0].Data))
	require.Equal(t, "23", string(ms.Chunks[1].Data))
	require.Equal(t, "4", string(ms.Chunks[2].Data))
}

func TestPipeline_UnchunkedIgnoresLimits(t *testing.T) {
	ms := &mockSink{}
	p := fakePipeline(ms, 2, 0)

	objs, err := p.WriteTable(context.Background(), "side", valTable(5), false)
	require.NoError(t, err)
	require.Equal(t, []string{"side"}, objs)
	require.Equal(t, "01234", string(ms.Chunks[0].Data))
}

func TestPipeline_SinkWriterError(t *testing.T) {
	p := fakePipeline(&errorSink{}, 0, 0)
	_, err := p.WriteTable(context.Background(), "fail", valTable(1), true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "write fail")
}

func TestProcessBatch_FailedRecordsAreInvalid(t *testing.T) {
	p := fakePipeline(&mockSink{}, 0, 0)
	entries := []*ctexport.Entry{
		{ID: "1", CertificateBase64: "a"},
		{ID: "2", CertificateBase64: "bad", ChainBase64: "c1;c2"},
		{ID: "3", CertificateBase64: "b"},
	}
	res, err := p.ProcessBatch(context.Background(), entries)
	require.NoError(t, err)
	require.Equal(t, 3, res.Entries)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 2, res.Main.Len())
	require.Equal(t, [][]interface{}{{"bad", "c1;c2"}}, res.Invalid.Rows)

	snap := p.Metrics.Snapshot()
	require.Equal(t, int64(2), snap.Mapped)
	require.Equal(t, int64(1), snap.Failed)
	require.Equal(t, int64(1), snap.Invalid)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	p := fakePipeline(&mockSink{}, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ProcessBatch(ctx, []*ctexport.Entry{{CertificateBase64: "a"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessBatch_Empty(t *testing.T) {
	p := fakePipeline(&mockSink{}, 0, 0)
	res, err := p.ProcessBatch(context.Background(), nil)
	require.ErrorIs(t, err, table.ErrEmptyBatch)
	require.NotNil(t, res)
	require.Equal(t, 0, res.Invalid.Len())
}

func TestWriteResult_LoadsTarget(t *testing.T) {
	ms := &mockSink{}
	p := fakePipeline(ms, 0, 0)
	tgt := &output.NullTarget{}
	p.Target = tgt

	res, err := p.ProcessBatch(context.Background(), []*ctexport.Entry{
		{CertificateBase64: "a"}, {CertificateBase64: "b"}, {CertificateBase64: "bad"},
	})
	require.NoError(t, err)
	objs, err := p.WriteResult(context.Background(), "out", res)
	require.NoError(t, err)
	require.Equal(t, []string{"out", "out-single-valued", "out-invalid"}, objs)
	require.Equal(t, int64(2), tgt.Rows())
}
