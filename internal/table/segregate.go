package table

import "fmt"

// RawCertificate is the input a row was mapped from, carried alongside the
// table so unparsable rows can be reported with their original bytes.
type RawCertificate struct {
	CertificateBase64 string
	ChainBase64       string
}

// InvalidColumns is the schema of the invalid-records table.
var InvalidColumns = []string{"certificate_base64", "certificate_chain_base64"}

// Segregate moves every all-null row of t into a separate table holding the
// raw certificate and chain of that row. raws[i] belongs to t.Rows[i].
func Segregate(t *Table, raws []RawCertificate) (*Table, *Table, error) {
	if len(raws) != t.Len() {
		return nil, nil, fmt.Errorf("segregate: %d rows but %d raw certificates", t.Len(), len(raws))
	}

	main := &Table{Columns: t.Columns, Rows: make([][]interface{}, 0, len(t.Rows))}
	invalid := &Table{Columns: append([]string(nil), InvalidColumns...)}
	for i, row := range t.Rows {
		if allNull(row) {
			invalid.Rows = append(invalid.Rows, []interface{}{raws[i].CertificateBase64, raws[i].ChainBase64})
			continue
		}
		main.Rows = append(main.Rows, row)
	}
	return main, invalid, nil
}

func allNull(row []interface{}) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}
