// Package kg builds, stores, and queries the schema knowledge graph: a typed
// node/relationship mirror of a relational catalog used to ground
// natural-language-to-SQL generation.
//
// The graph lives in a shared graph store. Multiple source databases share
// one store; every node id is prefixed with its database name and carries a
// "database" property, so identical table/column names in different source
// databases never collide.
package kg

// NodeType is the closed set of vertex types in the schema graph.
type NodeType string

const (
	NodeDatabase NodeType = "database"
	NodeTable    NodeType = "table"
	NodeColumn   NodeType = "column"
)

// RelType is the closed set of edge types in the schema graph.
type RelType string

const (
	RelHasTable      RelType = "HAS_TABLE"
	RelHasColumn     RelType = "HAS_COLUMN"
	RelHasForeignKey RelType = "HAS_FOREIGN_KEY"
)

// Known property keys. Properties is an open bag, since catalog metadata varies by
// source dialect, but everything DatLas itself reads or writes goes through
// these constants.
const (
	PropDatabase               = "database"
	PropSchema                 = "schema"
	PropTableType              = "table_type"
	PropComments               = "comments"
	PropNumRows                = "num_rows"
	PropTable                  = "table"
	PropDataType               = "data_type"
	PropDataLength             = "data_length"
	PropDataPrecision          = "data_precision"
	PropDataScale              = "data_scale"
	PropNullable               = "nullable"
	PropPosition               = "position"
	PropDefaultValue           = "default_value"
	PropIsPrimaryKey           = "is_primary_key"
	PropIsForeignKey           = "is_foreign_key"
	PropConstraintName         = "constraint_name"
	PropRefConstraintName      = "r_constraint_name"
	PropInferred               = "inferred"
	PropInferenceMethod        = "inference_method"
	PropPatternUsed            = "pattern_used"
	PropConfidence             = "confidence"
	PropDescription            = "description"
	PropDatabaseType           = "database_type"
	PropSchemaFilter           = "schema_filter"
	PropIntrospectionTimestamp = "introspection_timestamp"
)

// Properties is the open key-value bag attached to nodes and relationships.
type Properties map[string]any

// Clone returns a shallow copy. Values are primitives in practice, so a
// shallow copy is enough to decouple an overlay merge from the base node.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Node is a vertex in the schema knowledge graph. ID is globally unique
// across all databases sharing the graph store; see the ID derivation
// helpers below.
type Node struct {
	ID         string     `json:"id"`
	Type       NodeType   `json:"type"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties"`
}

// Relationship is a directed, typed edge between two existing nodes.
// Creating a relationship whose endpoint is absent is a store-level error.
//
// A HAS_FOREIGN_KEY edge is either declared (from catalog constraint
// metadata, inferred property false) or inferred (from naming heuristics,
// always carrying a confidence score). The two are never conflated.
type Relationship struct {
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Type       RelType    `json:"type"`
	Properties Properties `json:"properties,omitempty"`
}

// Graph is an in-memory snapshot produced by one full introspection pass and
// handed atomically to the store writer. Node and relationship order follows
// catalog listing order.
type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// --- Deterministic node id derivation ---

// DatabaseID returns the node id for a source database.
func DatabaseID(database string) string {
	return "database_" + database
}

// TableID returns the node id for a table, namespaced by database.
func TableID(database, table string) string {
	return database + "_table_" + table
}

// ColumnID returns the node id for a column, namespaced by database and table.
func ColumnID(database, table, column string) string {
	return database + "_column_" + table + "_" + column
}
