package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/koustreak/DatLas/internal/database"
)

// oracleSystemSchemas are owners excluded from introspection.
var oracleSystemSchemas = []string{"SYS", "SYSTEM", "CTXSYS", "DBSNMP", "OUTLN", "WMSYS"}

// OracleReader implements Reader against the Oracle data dictionary
// (ALL_TABLES, ALL_TAB_COLUMNS, ALL_CONSTRAINTS and friends).
type OracleReader struct {
	db database.DB
}

// NewOracle creates a catalog reader for an Oracle connection.
func NewOracle(db database.DB) *OracleReader {
	return &OracleReader{db: db}
}

// ListTables returns every non-system table, optionally restricted to one owner.
func (r *OracleReader) ListTables(ctx context.Context, schemaFilter string) ([]TableRow, error) {
	q := fmt.Sprintf(`
		SELECT t.OWNER,
		       t.TABLE_NAME,
		       t.NUM_ROWS,
		       tc.COMMENTS
		FROM ALL_TABLES t
		LEFT JOIN ALL_TAB_COMMENTS tc
		  ON t.OWNER = tc.OWNER AND t.TABLE_NAME = tc.TABLE_NAME
		WHERE t.OWNER NOT IN (%s)`, quoteList(oracleSystemSchemas))

	var args []any
	if schemaFilter != "" {
		q += " AND t.OWNER = :schema_name"
		args = append(args, sql.Named("schema_name", strings.ToUpper(schemaFilter)))
	}
	q += " ORDER BY t.OWNER, t.TABLE_NAME"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		var t TableRow
		var numRows sql.NullInt64
		var comment sql.NullString
		if err := rows.Scan(&t.Owner, &t.Name, &numRows, &comment); err != nil {
			return nil, err
		}
		t.NumRows = numRows.Int64
		t.Comment = comment.String
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListColumns returns the columns of one table ordered by COLUMN_ID.
func (r *OracleReader) ListColumns(ctx context.Context, table, schemaFilter string) ([]ColumnRow, error) {
	q := `
		SELECT c.COLUMN_NAME,
		       c.DATA_TYPE,
		       c.DATA_LENGTH,
		       c.DATA_PRECISION,
		       c.DATA_SCALE,
		       c.NULLABLE,
		       c.DATA_DEFAULT,
		       c.COLUMN_ID,
		       cc.COMMENTS
		FROM ALL_TAB_COLUMNS c
		LEFT JOIN ALL_COL_COMMENTS cc
		  ON c.OWNER = cc.OWNER
		 AND c.TABLE_NAME = cc.TABLE_NAME
		 AND c.COLUMN_NAME = cc.COLUMN_NAME
		WHERE c.TABLE_NAME = :table_name`

	args := []any{sql.Named("table_name", strings.ToUpper(table))}
	if schemaFilter != "" {
		q += " AND c.OWNER = :schema_name"
		args = append(args, sql.Named("schema_name", strings.ToUpper(schemaFilter)))
	}
	q += " ORDER BY c.COLUMN_ID"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnRow
	for rows.Next() {
		var c ColumnRow
		var length sql.NullInt64
		var precision, scale sql.NullInt64
		var nullable string
		var def, comment sql.NullString
		var position sql.NullInt64
		if err := rows.Scan(&c.Name, &c.DataType, &length, &precision, &scale,
			&nullable, &def, &position, &comment); err != nil {
			return nil, err
		}
		c.Length = length.Int64
		if precision.Valid {
			c.Precision = &precision.Int64
		}
		if scale.Valid {
			c.Scale = &scale.Int64
		}
		c.Nullable = nullable == "Y"
		if def.Valid {
			s := def.String
			c.Default = &s
		}
		c.Comment = comment.String
		c.Position = int(position.Int64)
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ListPrimaryKeys returns all primary-key constraint columns ordered by
// table, then key position.
func (r *OracleReader) ListPrimaryKeys(ctx context.Context, schemaFilter string) ([]PrimaryKeyRow, error) {
	q := `
		SELECT c.CONSTRAINT_NAME,
		       c.TABLE_NAME,
		       cc.COLUMN_NAME,
		       cc.POSITION
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc
		  ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
		 AND c.OWNER = cc.OWNER
		WHERE c.CONSTRAINT_TYPE = 'P'`

	var args []any
	if schemaFilter != "" {
		q += " AND c.OWNER = :schema_name"
		args = append(args, sql.Named("schema_name", strings.ToUpper(schemaFilter)))
	}
	q += " ORDER BY c.TABLE_NAME, cc.POSITION"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []PrimaryKeyRow
	for rows.Next() {
		var pk PrimaryKeyRow
		var position sql.NullInt64
		if err := rows.Scan(&pk.Constraint, &pk.Table, &pk.Column, &position); err != nil {
			return nil, err
		}
		pk.Position = int(position.Int64)
		pks = append(pks, pk)
	}
	return pks, rows.Err()
}

// ListForeignKeys returns all declared foreign-key constraint columns, each
// row carrying both the referencing column and the referenced table/column.
func (r *OracleReader) ListForeignKeys(ctx context.Context, schemaFilter string) ([]ForeignKeyRow, error) {
	q := `
		SELECT c.CONSTRAINT_NAME,
		       c.TABLE_NAME,
		       cc.COLUMN_NAME,
		       c.R_CONSTRAINT_NAME,
		       rc.TABLE_NAME AS R_TABLE_NAME,
		       rcc.COLUMN_NAME AS R_COLUMN_NAME
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc
		  ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
		 AND c.OWNER = cc.OWNER
		JOIN ALL_CONSTRAINTS rc
		  ON c.R_CONSTRAINT_NAME = rc.CONSTRAINT_NAME
		JOIN ALL_CONS_COLUMNS rcc
		  ON rc.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME
		 AND rc.OWNER = rcc.OWNER
		WHERE c.CONSTRAINT_TYPE = 'R'`

	var args []any
	if schemaFilter != "" {
		q += " AND c.OWNER = :schema_name"
		args = append(args, sql.Named("schema_name", strings.ToUpper(schemaFilter)))
	}
	q += " ORDER BY c.TABLE_NAME, cc.COLUMN_NAME"

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

// quoteList renders a fixed identifier list as 'A', 'B', … for an IN clause.
// Only ever called with the compile-time system schema sets.
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
