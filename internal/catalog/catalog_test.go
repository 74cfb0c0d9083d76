package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatLas/internal/database"
)

// fakeDB serves canned rows and records the last query for argument
// plumbing assertions.
type fakeDB struct {
	rows      [][]any
	lastQuery string
	lastArgs  []any
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) Query(_ context.Context, q string, args ...any) (database.Rows, error) {
	f.lastQuery = q
	f.lastArgs = args
	return &fakeRows{rows: f.rows}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, q string, args ...any) (database.Row, error) {
	f.lastQuery = q
	f.lastArgs = args
	return &fakeRows{rows: f.rows}, nil
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(row), len(dest))
	}
	for i, src := range row {
		if err := assign(dest[i], src); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return nil, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

func assign(dest, src any) error {
	switch d := dest.(type) {
	case *string:
		*d = src.(string)
	case *int64:
		*d = src.(int64)
	case *int:
		*d = src.(int)
	case *bool:
		*d = src.(bool)
	case *sql.NullInt64:
		if src == nil {
			*d = sql.NullInt64{}
		} else {
			*d = sql.NullInt64{Int64: src.(int64), Valid: true}
		}
	case *sql.NullString:
		if src == nil {
			*d = sql.NullString{}
		} else {
			*d = sql.NullString{String: src.(string), Valid: true}
		}
	default:
		return fmt.Errorf("assign: unsupported destination %T", dest)
	}
	return nil
}

func namedArg(t *testing.T, args []any, name string) sql.NamedArg {
	t.Helper()
	for _, a := range args {
		if n, ok := a.(sql.NamedArg); ok && n.Name == name {
			return n
		}
	}
	t.Fatalf("named argument %q not passed", name)
	return sql.NamedArg{}
}

func TestOracleReader_ListTables(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"SALES", "CUSTOMERS", int64(1200), "customer master"},
		{"SALES", "AUDIT_LOG", nil, nil},
	}}
	r := NewOracle(db)

	tables, err := r.ListTables(context.Background(), "sales")
	require.NoError(t, err)

	// Owner filter is uppercased and bound by name.
	assert.Contains(t, db.lastQuery, "ALL_TABLES")
	assert.Contains(t, db.lastQuery, ":schema_name")
	assert.Equal(t, "SALES", namedArg(t, db.lastArgs, "schema_name").Value)

	require.Len(t, tables, 2)
	assert.Equal(t, TableRow{Owner: "SALES", Name: "CUSTOMERS", NumRows: 1200, Comment: "customer master"}, tables[0])
	// NULL num_rows and comment fall back to zero values.
	assert.Equal(t, int64(0), tables[1].NumRows)
	assert.Equal(t, "", tables[1].Comment)
}

func TestOracleReader_ListTables_NoFilter(t *testing.T) {
	db := &fakeDB{}
	r := NewOracle(db)

	_, err := r.ListTables(context.Background(), "")
	require.NoError(t, err)
	assert.NotContains(t, db.lastQuery, ":schema_name")
	assert.Empty(t, db.lastArgs)
	for _, sys := range []string{"'SYS'", "'SYSTEM'", "'CTXSYS'"} {
		assert.Contains(t, db.lastQuery, sys)
	}
}

func TestOracleReader_ListColumns(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"ID", "NUMBER", int64(22), int64(10), int64(0), "N", nil, int64(1), "surrogate key"},
		{"NAME", "VARCHAR2", int64(200), nil, nil, "Y", "'unknown'", int64(2), nil},
	}}
	r := NewOracle(db)

	cols, err := r.ListColumns(context.Background(), "customers", "sales")
	require.NoError(t, err)

	assert.Equal(t, "CUSTOMERS", namedArg(t, db.lastArgs, "table_name").Value)
	assert.Equal(t, "SALES", namedArg(t, db.lastArgs, "schema_name").Value)

	require.Len(t, cols, 2)

	id := cols[0]
	assert.Equal(t, "ID", id.Name)
	assert.False(t, id.Nullable)
	require.NotNil(t, id.Precision)
	assert.Equal(t, int64(10), *id.Precision)
	require.NotNil(t, id.Scale)
	assert.Equal(t, int64(0), *id.Scale)
	assert.Nil(t, id.Default)
	assert.Equal(t, 1, id.Position)

	name := cols[1]
	assert.True(t, name.Nullable)
	assert.Nil(t, name.Precision)
	require.NotNil(t, name.Default)
	assert.Equal(t, "'unknown'", *name.Default)
}

func TestPostgresReader_ListTables(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"public", "customers", int64(1200), ""},
	}}
	r := NewPostgres(db)

	tables, err := r.ListTables(context.Background(), "public")
	require.NoError(t, err)

	assert.Contains(t, db.lastQuery, "information_schema.tables")
	// sql_identifier needs the text hop before regnamespace on older servers.
	assert.Contains(t, db.lastQuery, "::text::regnamespace")
	assert.Contains(t, db.lastQuery, "$1")
	require.Len(t, db.lastArgs, 1)
	assert.Equal(t, "public", db.lastArgs[0])

	require.Len(t, tables, 1)
	assert.Equal(t, "customers", tables[0].Name)
}

func TestPostgresReader_ListForeignKeys(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"fk_orders_customer", "orders", "customer_id", "pk_customers", "customers", "id"},
	}}
	r := NewPostgres(db)

	fks, err := r.ListForeignKeys(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, fks, 1)
	assert.Equal(t, ForeignKeyRow{
		Constraint: "fk_orders_customer", Table: "orders", Column: "customer_id",
		RefConstraint: "pk_customers", RefTable: "customers", RefColumn: "id",
	}, fks[0])
}

func TestMySQLReader_ListForeignKeys(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"fk_orders_customer", "orders", "customer_id", "pk", "customers", "id"},
	}}
	r := NewMySQL(db)

	fks, err := r.ListForeignKeys(context.Background(), "app")
	require.NoError(t, err)

	assert.Contains(t, db.lastQuery, "referenced_table_name IS NOT NULL")
	require.Len(t, db.lastArgs, 1)
	assert.Equal(t, "app", db.lastArgs[0])
	require.Len(t, fks, 1)
	assert.Equal(t, "customers", fks[0].RefTable)
}

func TestQuoteList(t *testing.T) {
	got := quoteList([]string{"SYS", "SYSTEM"})
	assert.Equal(t, "'SYS', 'SYSTEM'", got)
	assert.False(t, strings.Contains(got, `"`))
}
