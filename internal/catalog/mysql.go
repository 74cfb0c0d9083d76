package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/koustreak/DatLas/internal/database"
)

// mysqlSystemSchemas are schemas excluded from introspection.
var mysqlSystemSchemas = []string{"mysql", "information_schema", "performance_schema", "sys"}

// MySQLReader implements Reader against MySQL's information_schema.
type MySQLReader struct {
	db database.DB
}

// NewMySQL creates a catalog reader for a MySQL connection.
func NewMySQL(db database.DB) *MySQLReader {
	return &MySQLReader{db: db}
}

// ListTables returns every user table, optionally restricted to one schema.
func (r *MySQLReader) ListTables(ctx context.Context, schemaFilter string) ([]TableRow, error) {
	q := fmt.Sprintf(`
		SELECT table_schema,
		       table_name,
		       COALESCE(table_rows, 0),
		       table_comment
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN (%s)`, quoteList(mysqlSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND table_schema = ?"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY table_schema, table_name"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		var t TableRow
		if err := rows.Scan(&t.Owner, &t.Name, &t.NumRows, &t.Comment); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListColumns returns the columns of one table ordered by ordinal position.
func (r *MySQLReader) ListColumns(ctx context.Context, table, schemaFilter string) ([]ColumnRow, error) {
	q := fmt.Sprintf(`
		SELECT column_name,
		       data_type,
		       COALESCE(character_maximum_length, 0),
		       numeric_precision,
		       numeric_scale,
		       is_nullable = 'YES',
		       column_default,
		       column_comment,
		       ordinal_position
		FROM information_schema.columns
		WHERE table_name = ?
		  AND table_schema NOT IN (%s)`, quoteList(mysqlSystemSchemas))

	args := []any{table}
	if schemaFilter != "" {
		q += " AND table_schema = ?"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY ordinal_position"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnRow
	for rows.Next() {
		var c ColumnRow
		var precision, scale sql.NullInt64
		var def sql.NullString
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &precision, &scale,
			&c.Nullable, &def, &c.Comment, &c.Position); err != nil {
			return nil, err
		}
		if precision.Valid {
			c.Precision = &precision.Int64
		}
		if scale.Valid {
			c.Scale = &scale.Int64
		}
		if def.Valid {
			s := def.String
			c.Default = &s
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ListPrimaryKeys returns all primary-key constraint columns. MySQL names
// every primary key constraint PRIMARY.
func (r *MySQLReader) ListPrimaryKeys(ctx context.Context, schemaFilter string) ([]PrimaryKeyRow, error) {
	q := fmt.Sprintf(`
		SELECT constraint_name,
		       table_name,
		       column_name,
		       ordinal_position
		FROM information_schema.key_column_usage
		WHERE constraint_name = 'PRIMARY'
		  AND table_schema NOT IN (%s)`, quoteList(mysqlSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND table_schema = ?"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY table_name, ordinal_position"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []PrimaryKeyRow
	for rows.Next() {
		var pk PrimaryKeyRow
		if err := rows.Scan(&pk.Constraint, &pk.Table, &pk.Column, &pk.Position); err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}
	return pks, rows.Err()
}

// ListForeignKeys returns all declared foreign-key constraint columns.
func (r *MySQLReader) ListForeignKeys(ctx context.Context, schemaFilter string) ([]ForeignKeyRow, error) {
	q := fmt.Sprintf(`
		SELECT kcu.constraint_name,
		       kcu.table_name,
		       kcu.column_name,
		       COALESCE(rc.unique_constraint_name, ''),
		       kcu.referenced_table_name,
		       kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		LEFT JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name = kcu.constraint_name
		 AND rc.constraint_schema = kcu.table_schema
		WHERE kcu.referenced_table_name IS NOT NULL
		  AND kcu.table_schema NOT IN (%s)`, quoteList(mysqlSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND kcu.table_schema = ?"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY kcu.table_name, kcu.column_name"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var fk ForeignKeyRow
		if err := rows.Scan(&fk.Constraint, &fk.Table, &fk.Column,
			&fk.RefConstraint, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
