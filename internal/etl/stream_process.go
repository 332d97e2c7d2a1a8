package etl

import (
	"context"
	"fmt"

	"github.com/chtzvt/certtab/internal/sink"
	"github.com/chtzvt/certtab/internal/table"
)

// WriteTable streams t through the transformer into the sink. The object is
// called name plus the transformer extension. With chunked set and a chunk
// limit configured, rows rotate into numbered objects (name.0001.csv, ...).
// A table with no rows still produces one object holding only the header.
// It returns the names of the objects written.
func (p *Pipeline) WriteTable(ctx context.Context, name string, t *table.Table, chunked bool) ([]string, error) {
	var (
		writer   sink.SinkWriter
		objects  []string
		curBytes int
		curRecs  int
		chunkNum = 1
	)
	tctx := p.Ctx.WithColumns(t.Columns)
	numbered := chunked && (p.MaxChunkBytes > 0 || p.MaxChunkRecs > 0)

	openChunk := func() error {
		objName := name
		if numbered {
			objName = fmt.Sprintf("%s.%04d", name, chunkNum)
		}
		objName += p.Transformer.Extension()
		w, err := p.Sink.Open(ctx, objName)
		if err != nil {
			return fmt.Errorf("open sink: %w", err)
		}
		writer = w
		objects = append(objects, objName)
		curBytes = 0
		curRecs = 0
		chunkNum++

		if header, _ := p.Transformer.Header(tctx); len(header) > 0 {
			if _, err := writer.Write(header); err != nil {
				return fmt.Errorf("header write: %w", err)
			}
			p.Metrics.AddBytes(len(header))
		}
		return nil
	}
	closeChunk := func() error {
		if writer == nil {
			return nil
		}
		if footer, _ := p.Transformer.Footer(tctx); len(footer) > 0 {
			if _, err := writer.Write(footer); err != nil {
				return fmt.Errorf("footer write: %w", err)
			}
			p.Metrics.AddBytes(len(footer))
		}
		err := writer.Close()
		writer = nil
		if err != nil {
			return fmt.Errorf("close sink: %w", err)
		}
		p.Metrics.IncObjects()
		return nil
	}

	for i := range t.Rows {
		if err := ctx.Err(); err != nil {
			return objects, err
		}
		if writer == nil {
			if err := openChunk(); err != nil {
				return objects, err
			}
		}

		data, err := p.Transformer.Transform(tctx, t.Row(i))
		if err != nil {
			return objects, fmt.Errorf("transform: %w", err)
		}
		n, err := writer.Write(data)
		if err != nil {
			return objects, fmt.Errorf("write: %w", err)
		}
		p.Metrics.AddBytes(n)
		curBytes += n
		curRecs++

		rotate := false
		if numbered && p.MaxChunkBytes > 0 && curBytes >= p.MaxChunkBytes {
			rotate = true
		}
		if numbered && p.MaxChunkRecs > 0 && curRecs >= p.MaxChunkRecs {
			rotate = true
		}
		if rotate {
			if err := closeChunk(); err != nil {
				return objects, err
			}
		}
	}

	if len(objects) == 0 {
		if err := openChunk(); err != nil {
			return objects, err
		}
	}
	if err := closeChunk(); err != nil {
		return objects, err
	}
	return objects, nil
}
