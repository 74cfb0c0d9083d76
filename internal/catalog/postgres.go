package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/koustreak/DatLas/internal/database"
)

// pgSystemSchemas are schemas excluded from introspection.
var pgSystemSchemas = []string{"pg_catalog", "information_schema"}

// PostgresReader implements Reader against information_schema plus the
// pg_catalog views needed for row estimates and comments.
type PostgresReader struct {
	db database.DB
}

// NewPostgres creates a catalog reader for a PostgreSQL connection.
func NewPostgres(db database.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

// ListTables returns every user table, optionally restricted to one schema.
// Row counts are the planner's reltuples estimate, clamped at zero.
func (r *PostgresReader) ListTables(ctx context.Context, schemaFilter string) ([]TableRow, error) {
	q := fmt.Sprintf(`
		SELECT t.table_schema,
		       t.table_name,
		       GREATEST(COALESCE(c.reltuples::bigint, 0), 0),
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM information_schema.tables t
		LEFT JOIN pg_catalog.pg_class c
		  ON c.relname = t.table_name
		 AND c.relnamespace = t.table_schema::text::regnamespace
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN (%s)`, quoteList(pgSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND t.table_schema = $1"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY t.table_schema, t.table_name"

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
func (r *PostgresReader) ListColumns(ctx context.Context, table, schemaFilter string) ([]ColumnRow, error) {
	q := fmt.Sprintf(`
		SELECT c.column_name,
		       c.data_type,
		       COALESCE(c.character_maximum_length, 0),
		       c.numeric_precision,
		       c.numeric_scale,
		       c.is_nullable = 'YES',
		       c.column_default,
		       COALESCE(col_description(pc.oid, c.ordinal_position), ''),
		       c.ordinal_position
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_class pc
		  ON pc.relname = c.table_name
		 AND pc.relnamespace = c.table_schema::text::regnamespace
		WHERE c.table_name = $1
		  AND c.table_schema NOT IN (%s)`, quoteList(pgSystemSchemas))

	args := []any{table}
	if schemaFilter != "" {
		q += " AND c.table_schema = $2"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY c.ordinal_position"

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

// ListPrimaryKeys returns all primary-key constraint columns ordered by
// table, then key position.
func (r *PostgresReader) ListPrimaryKeys(ctx context.Context, schemaFilter string) ([]PrimaryKeyRow, error) {
	q := fmt.Sprintf(`
		SELECT tc.constraint_name,
		       tc.table_name,
		       kcu.column_name,
		       kcu.ordinal_position
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema NOT IN (%s)`, quoteList(pgSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND tc.table_schema = $1"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY tc.table_name, kcu.ordinal_position"

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
func (r *PostgresReader) ListForeignKeys(ctx context.Context, schemaFilter string) ([]ForeignKeyRow, error) {
	q := fmt.Sprintf(`
		SELECT tc.constraint_name,
		       kcu.table_name,
		       kcu.column_name,
		       COALESCE(rc.unique_constraint_name, ''),
		       ccu.table_name  AS ref_table,
		       ccu.column_name AS ref_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema = tc.table_schema
		LEFT JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name = tc.constraint_name
		 AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema NOT IN (%s)`, quoteList(pgSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND tc.table_schema = $1"
		args = append(args, schemaFilter)
	}
	q += " ORDER BY tc.table_name, kcu.column_name"

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
