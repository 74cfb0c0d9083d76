package kg

import "context"

// Store is the graph persistence backend. The Neo4j implementation lives in
// internal/graph/neo4j; internal/graph/memory backs tests and single-process
// deployments.
//
// Writes are not transactional: a full replace is delete-then-recreate, and
// a failure mid-write leaves a partial graph. Re-running the pass converges,
// since node ids are deterministic and the delete phase clears the
// namespace.
type Store interface {
	// DeleteDatabase removes every node (and attached relationship) whose
	// namespace matches the given source database.
	DeleteDatabase(ctx context.Context, database string) error

	// DeleteAll clears the entire graph. Used in single-database mode.
	DeleteAll(ctx context.Context) error

	CreateNode(ctx context.Context, n Node) error

	// CreateRelationship fails when either endpoint node does not exist.
	CreateRelationship(ctx context.Context, r Relationship) error

	// TableColumns returns every table with its column names and properties
	// for one source database, in stored order.
	TableColumns(ctx context.Context, database string) ([]TableColumns, error)

	// TableContext returns the named tables with columns and outgoing
	// foreign-key edges. Unknown table names yield no entry.
	TableContext(ctx context.Context, database string, tables []string) ([]TableContext, error)

	// InferredRelationships returns every inferred foreign-key edge for one
	// source database.
	InferredRelationships(ctx context.Context, database string) ([]InferredRelationship, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// TableColumns is one table's column listing, as read back from the store.
type TableColumns struct {
	Table   string
	Columns []ColumnData
}

// ColumnData is a column name with its stored properties.
type ColumnData struct {
	Name       string
	Properties Properties
}

// TableContext is one table with full column detail and outgoing
// foreign-key edges, the unit the schema-context assembler works from.
type TableContext struct {
	Table   string
	Columns []ColumnContext
}

// ColumnContext is one column with its outgoing foreign-key edges.
type ColumnContext struct {
	Name        string
	Properties  Properties
	ForeignKeys []ForeignKeyEdge
}

// ForeignKeyEdge is one outgoing HAS_FOREIGN_KEY edge, declared or inferred,
// resolved to the referenced table and column names.
type ForeignKeyEdge struct {
	RefTable   string
	RefColumn  string
	Properties Properties
}

// InferredRelationship is one inferred foreign-key edge resolved to table
// and column names, for the inference report.
type InferredRelationship struct {
	SourceTable    string  `json:"source_table"`
	SourceColumn   string  `json:"source_column"`
	TargetTable    string  `json:"target_table"`
	TargetColumn   string  `json:"target_column"`
	Confidence     float64 `json:"confidence"`
	PatternUsed    string  `json:"pattern_used"`
	ConstraintName string  `json:"constraint_name"`
}

// SnapshotArchive persists graph snapshots outside the graph store, as a
// recovery trail for the non-transactional replace. Archiving is best
// effort; a failed Put is logged, never fatal.
type SnapshotArchive interface {
	Put(ctx context.Context, database string, g *Graph) error
}
