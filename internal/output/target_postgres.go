package output

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgConn is the subset of *pgx.Conn the postgres target needs.
type PgConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close(ctx context.Context) error
}

// PostgresTarget COPYs tables into a postgres table, creating it from the
// table's columns when it does not exist.
//
// Options:
//
//	"table":         "certificates"   (required; "schema.table" accepted)
//	"dsn":           "postgres://..." (or read from the secret named by dsn_secret)
//	"dsn_secret":    "postgres_dsn"
//	"drop_existing": false
type PostgresTarget struct {
	// Conn may be set before Init to bypass connecting.
	Conn PgConn

	table        pgx.Identifier
	dropExisting bool
	created      bool
	loaded       int64
}

const defaultDSNSecret = "postgres_dsn"

func (p *PostgresTarget) Name() string { return "postgres" }

func (p *PostgresTarget) Init(ctx context.Context, options map[string]interface{}, store *secrets.Store) error {
	name, _ := options["table"].(string)
	if name == "" {
		return errors.New("postgres target: table is required")
	}
	p.table = pgx.Identifier(strings.Split(name, "."))
	p.dropExisting = optBool(options["drop_existing"])

	if p.Conn != nil {
		return nil
	}

	dsn, _ := options["dsn"].(string)
	if dsn == "" {
		key, _ := options["dsn_secret"].(string)
		if key == "" {
			key = defaultDSNSecret
		}
		if store == nil {
			return fmt.Errorf("postgres target: no dsn and no secrets store for %s", key)
		}
		v, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("postgres target: dsn secret %s: %w", key, err)
		}
		dsn = string(v)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	p.Conn = conn
	return nil
}

// Load creates the destination table on first use and copies every row of t.
func (p *PostgresTarget) Load(ctx context.Context, t *table.Table) error {
	if p.Conn == nil {
		return errors.New("postgres target: not initialized")
	}
	if t == nil || len(t.Columns) == 0 {
		return nil
	}

	types := make([]string, len(t.Columns))
	for j := range t.Columns {
		types[j] = InferColumnType(columnValues(t, j))
	}

	if !p.created {
		if p.dropExisting {
			if _, err := p.Conn.Exec(ctx, "DROP TABLE IF EXISTS "+p.table.Sanitize()); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
		if _, err := p.Conn.Exec(ctx, CreateTableSQL(p.table, t.Columns, types)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		p.created = true
	}

	if t.Len() == 0 {
		return nil
	}
	n, err := p.Conn.CopyFrom(ctx, p.table, t.Columns, pgx.CopyFromRows(ConvertRows(t.Rows, types)))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", p.table.Sanitize(), err)
	}
	p.loaded += n
	return nil
}

func (p *PostgresTarget) Close() error {
	if p.Conn == nil {
		return nil
	}
	return p.Conn.Close(context.Background())
}

// Loaded returns the number of rows copied so far.
func (p *PostgresTarget) Loaded() int64 { return p.loaded }

const (
	pgBoolean = "BOOLEAN"
	pgBigint  = "BIGINT"
	pgDouble  = "DOUBLE PRECISION"
	pgText    = "TEXT"
	pgTextArr = "TEXT[]"
)

// InferColumnType picks the narrowest postgres type holding every non-nil
// value. Mixed columns fall back to TEXT; all-null columns are TEXT.
func InferColumnType(values []interface{}) string {
	typ := ""
	for _, v := range values {
		var vt string
		switch v.(type) {
		case nil:
			continue
		case bool:
			vt = pgBoolean
		case int, int64:
			vt = pgBigint
		case float64:
			vt = pgDouble
		case []string:
			vt = pgTextArr
		default:
			vt = pgText
		}
		switch {
		case typ == "":
			typ = vt
		case typ == vt:
		case (typ == pgBigint && vt == pgDouble) || (typ == pgDouble && vt == pgBigint):
			typ = pgDouble
		default:
			return pgText
		}
	}
	if typ == "" {
		return pgText
	}
	return typ
}

// CreateTableSQL renders the DDL for a table with the given column types.
func CreateTableSQL(name pgx.Identifier, columns, types []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(name.Sanitize())
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(types[i])
	}
	b.WriteString(")")
	return b.String()
}

// ConvertRows coerces values to the inferred column types. TEXT columns
// holding non-string values get their text form.
func ConvertRows(rows [][]interface{}, types []string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		r := make([]any, len(row))
		for j, v := range row {
			r[j] = convertValue(v, types[j])
		}
		out[i] = r
	}
	return out
}

func convertValue(v interface{}, typ string) any {
	if v == nil {
		return nil
	}
	switch typ {
	case pgDouble:
		switch n := v.(type) {
		case int64:
			return float64(n)
		case int:
			return float64(n)
		}
	case pgText:
		switch x := v.(type) {
		case string:
			return x
		case bool:
			return strconv.FormatBool(x)
		case int64:
			return strconv.FormatInt(x, 10)
		case int:
			return strconv.Itoa(x)
		case float64:
			return strconv.FormatFloat(x, 'g', -1, 64)
		case []string:
			return strings.Join(x, ",")
		default:
			return fmt.Sprint(x)
		}
	}
	return v
}

func columnValues(t *table.Table, j int) []interface{} {
	vals := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		vals[i] = row[j]
	}
	return vals
}

func optBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	case float64:
		return b != 0
	}
	return false
}

func init() {
	RegisterTarget("postgres", func() Target { return &PostgresTarget{} })
}
