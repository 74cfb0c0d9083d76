// Package catalog reads relational catalog metadata (tables, columns,
// primary keys, declared foreign keys) as plain typed rows, independent of
// any graph concerns.
//
// Each dialect implements Reader with its own metadata queries; every
// operation is a read-only, parameterized query. A catalog connectivity
// error is fatal for the whole introspection pass; there are no retries at
// this layer.
package catalog

import "context"

// TableRow describes one table as reported by the catalog.
type TableRow struct {
	Owner   string // owning schema, catalog case
	Name    string // table name, catalog case
	NumRows int64  // approximate row count, 0 if the catalog has none
	Comment string
}

// ColumnRow describes one column of a table, in ordinal order.
type ColumnRow struct {
	Name      string
	DataType  string
	Length    int64  // character length, 0 for non-char types
	Precision *int64 // nil when not a numeric type
	Scale     *int64
	Nullable  bool
	Default   *string // nil when the column has no default expression
	Comment   string
	Position  int // ordinal position, 1-based
}

// PrimaryKeyRow is one column of a primary-key constraint.
type PrimaryKeyRow struct {
	Constraint string
	Table      string
	Column     string
	Position   int // position of the column within the key
}

// ForeignKeyRow is one column of a declared foreign-key constraint, carrying
// both the referencing column and the referenced table/column.
type ForeignKeyRow struct {
	Constraint    string
	Table         string
	Column        string
	RefConstraint string
	RefTable      string
	RefColumn     string
}

// Reader extracts catalog metadata for one source database.
// schemaFilter restricts results to a single owning schema; the empty string
// means every non-system schema.
type Reader interface {
	ListTables(ctx context.Context, schemaFilter string) ([]TableRow, error)
	ListColumns(ctx context.Context, table, schemaFilter string) ([]ColumnRow, error)
	ListPrimaryKeys(ctx context.Context, schemaFilter string) ([]PrimaryKeyRow, error)
	ListForeignKeys(ctx context.Context, schemaFilter string) ([]ForeignKeyRow, error)
}
