package kg

// SchemaContext is the assembled schema slice handed to an SQL-generating
// caller: full column detail for the requested tables plus the join paths
// between them.
type SchemaContext struct {
	Tables        []TableDetail `json:"tables"`
	Relationships []JoinEdge    `json:"relationships"`
}

// TableDetail is one table in a schema context.
type TableDetail struct {
	Name    string         `json:"name"`
	Columns []ColumnDetail `json:"columns"`
}

// ColumnDetail is one column with its properties and outgoing foreign keys.
type ColumnDetail struct {
	Name        string     `json:"name"`
	Properties  Properties `json:"properties"`
	ForeignKeys []JoinEdge `json:"foreign_keys,omitempty"`
}

// JoinEdge is one foreign-key join path, declared or inferred. Inferred
// edges carry their confidence and pattern in Properties.
type JoinEdge struct {
	FromTable  string     `json:"from_table"`
	FromColumn string     `json:"from_column"`
	ToTable    string     `json:"to_table"`
	ToColumn   string     `json:"to_column"`
	Properties Properties `json:"properties,omitempty"`
}

// assembleContext builds a SchemaContext from the store's per-table detail.
// The top-level relationships list carries only joins whose both endpoints
// are among the requested tables, so the caller sees exactly the join paths
// usable within the slice it asked for.
func assembleContext(tables []TableContext) *SchemaContext {
	requested := make(map[string]bool, len(tables))
	for _, t := range tables {
		requested[t.Table] = true
	}

	out := &SchemaContext{}
	for _, t := range tables {
		detail := TableDetail{Name: t.Table}
		for _, c := range t.Columns {
			col := ColumnDetail{Name: c.Name, Properties: c.Properties}
			for _, fk := range c.ForeignKeys {
				edge := JoinEdge{
					FromTable:  t.Table,
					FromColumn: c.Name,
					ToTable:    fk.RefTable,
					ToColumn:   fk.RefColumn,
					Properties: fk.Properties,
				}
				col.ForeignKeys = append(col.ForeignKeys, edge)
				if requested[fk.RefTable] {
					out.Relationships = append(out.Relationships, edge)
				}
			}
			detail.Columns = append(detail.Columns, col)
		}
		out.Tables = append(out.Tables, detail)
	}
	return out
}
