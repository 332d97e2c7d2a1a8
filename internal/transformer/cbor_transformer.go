package transformer

import (
	"errors"
	"fmt"
	"io"

	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/fxamacker/cbor/v2"
)

// CBORTransformer writes a CBOR sequence: the column names as one array,
// then one array of values per row.
type CBORTransformer struct{}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func (c *CBORTransformer) Transform(ctx *etl_core.Context, data map[string]interface{}) ([]byte, error) {
	fields := columns(ctx)
	if len(fields) == 0 {
		return cborEnc.Marshal(data)
	}
	row := make([]interface{}, len(fields))
	for i, key := range fields {
		row[i] = data[key]
	}
	return cborEnc.Marshal(row)
}

func (c *CBORTransformer) Header(ctx *etl_core.Context) ([]byte, error) {
	fields := columns(ctx)
	if len(fields) == 0 {
		return []byte{}, nil
	}
	return cborEnc.Marshal(fields)
}

func (c *CBORTransformer) Footer(ctx *etl_core.Context) ([]byte, error) {
	return []byte{}, nil
}

func (c *CBORTransformer) Extension() string { return ".cbor" }

// ReadCBOR reads a table written by CBORTransformer with a column header.
func ReadCBOR(r io.Reader) (*table.Table, error) {
	dec := cborDec.NewDecoder(r)
	var header []string
	if err := dec.Decode(&header); err != nil {
		if errors.Is(err, io.EOF) {
			return &table.Table{}, nil
		}
		return nil, fmt.Errorf("read cbor header: %w", err)
	}
	t := &table.Table{Columns: header}
	for {
		var row []interface{}
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cbor row %d: %w", len(t.Rows)+1, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("cbor row %d has %d values, want %d", len(t.Rows)+1, len(row), len(header))
		}
		for i, v := range row {
			if list, ok := v.([]interface{}); ok {
				row[i] = stringList(list)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func init() {
	var err error
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if cborDec, err = (cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}).DecMode(); err != nil {
		panic(err)
	}
	Register("cbor", &CBORTransformer{})
	RegisterReader("cbor", ReadCBOR)
}
