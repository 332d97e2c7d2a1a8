package transformer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
)

// CSVTransformer writes one header row and one row per record. Nulls are
// empty cells and list values are JSON arrays.
type CSVTransformer struct{}

func (c *CSVTransformer) Transform(ctx *etl_core.Context, data map[string]interface{}) ([]byte, error) {
	fields := columns(ctx)
	if len(fields) == 0 {
		return nil, fmt.Errorf("CSV transformer requires fields option")
	}
	row := make([]string, len(fields))
	for i, key := range fields {
		cell, err := formatCell(data[key])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}
		row[i] = cell
	}
	return writeCSVRecord(row)
}

func (c *CSVTransformer) Header(ctx *etl_core.Context) ([]byte, error) {
	fields := columns(ctx)
	if len(fields) == 0 {
		return nil, fmt.Errorf("CSV transformer requires fields option for header")
	}
	return writeCSVRecord(fields)
}

func (c *CSVTransformer) Footer(ctx *etl_core.Context) ([]byte, error) {
	return []byte{}, nil
}

func (c *CSVTransformer) Extension() string { return ".csv" }

func writeCSVRecord(row []string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCell(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case []string:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

// ReadCSV reads a table written by CSVTransformer. Each column gets one
// type chosen from all of its cells: int64, float64, bool or a list when
// every non-empty cell reads back as that type unchanged, string otherwise.
// Empty cells are nulls.
func ReadCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return &table.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	var cells [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(cells)+1, err)
		}
		cells = append(cells, rec)
	}

	t := &table.Table{Columns: header, Rows: make([][]interface{}, len(cells))}
	for i := range cells {
		t.Rows[i] = make([]interface{}, len(header))
	}
	for j := range header {
		parse := columnParser(cells, j)
		for i, rec := range cells {
			if rec[j] != "" {
				t.Rows[i][j] = parse(rec[j])
			}
		}
	}
	return t, nil
}

type cellKind int

const (
	kindInt cellKind = iota
	kindFloat
	kindBool
	kindList
	kindString
)

// cellKinds reports every kind s reads back as without loss.
func cellKinds(s string) map[cellKind]bool {
	kinds := map[cellKind]bool{kindString: true}
	if s == "true" || s == "false" {
		kinds[kindBool] = true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		kinds[kindInt] = true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		strconv.FormatFloat(f, 'g', -1, 64) == s {
		kinds[kindFloat] = true
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			kinds[kindList] = true
		}
	}
	return kinds
}

// columnParser picks the narrowest kind shared by every non-empty cell of
// column j.
func columnParser(cells [][]string, j int) func(string) interface{} {
	shared := map[cellKind]bool{kindInt: true, kindFloat: true, kindBool: true, kindList: true}
	for _, rec := range cells {
		if rec[j] == "" {
			continue
		}
		kinds := cellKinds(rec[j])
		for k := range shared {
			if !kinds[k] {
				delete(shared, k)
			}
		}
	}
	for _, k := range []cellKind{kindInt, kindFloat, kindBool, kindList} {
		if shared[k] {
			return func(s string) interface{} { return parseCell(s, k) }
		}
	}
	return func(s string) interface{} { return s }
}

func parseCell(s string, kind cellKind) interface{} {
	switch kind {
	case kindInt:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case kindFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case kindBool:
		return s == "true"
	case kindList:
		var list []string
		_ = json.Unmarshal([]byte(s), &list)
		return list
	default:
		return s
	}
}

func init() {
	Register("csv", &CSVTransformer{})
	RegisterReader("csv", ReadCSV)
}
