package transformer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
)

// JSONLTransformer writes one JSON object per line. Keys follow the column
// order of ctx when one is set.
type JSONLTransformer struct{}

func (j *JSONLTransformer) Transform(ctx *etl_core.Context, data map[string]interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	fields := columns(ctx)
	if len(fields) == 0 {
		if err := enc.Encode(data); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	buf.WriteByte('{')
	for i, key := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		trimNewline(buf)
		buf.WriteByte(':')
		if err := enc.Encode(data[key]); err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}
		trimNewline(buf)
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// trimNewline drops the newline json.Encoder appends to every value.
func trimNewline(buf *bytes.Buffer) {
	if b := buf.Bytes(); len(b) > 0 && b[len(b)-1] == '\n' {
		buf.Truncate(len(b) - 1)
	}
}

func (c *JSONLTransformer) Header(ctx *etl_core.Context) ([]byte, error) {
	return []byte{}, nil
}

func (c *JSONLTransformer) Footer(ctx *etl_core.Context) ([]byte, error) {
	return []byte{}, nil
}

func (c *JSONLTransformer) Extension() string { return ".jsonl" }

// ReadJSONL reads a table written by JSONLTransformer. Columns are ordered by
// first appearance; keys missing from a line read as null.
func ReadJSONL(r io.Reader) (*table.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	t := &table.Table{}
	index := map[string]int{}
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		keys, values, err := decodeOrderedObject(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(t.Columns)
				t.Columns = append(t.Columns, k)
				for i := range t.Rows {
					t.Rows[i] = append(t.Rows[i], nil)
				}
			}
		}
		row := make([]interface{}, len(t.Columns))
		for i, k := range keys {
			row[index[k]] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeOrderedObject(b []byte) ([]string, []interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected JSON object")
	}
	var keys []string
	var values []interface{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key")
		}
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("key %s: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, normalizeJSON(raw))
	}
	return keys, values, nil
}

func normalizeJSON(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case []interface{}:
		return stringList(val)
	default:
		return val
	}
}

func stringList(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if s, ok := v.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func init() {
	Register("jsonl", &JSONLTransformer{})
	RegisterReader("jsonl", ReadJSONL)
}
