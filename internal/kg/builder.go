package kg

import (
	"github.com/koustreak/DatLas/internal/catalog"
	"github.com/koustreak/DatLas/internal/logger"
)

// Snapshot is the raw catalog metadata for one source database, as returned
// by a catalog.Reader pass. Columns is keyed by table name; slice order is
// catalog listing order throughout.
type Snapshot struct {
	Database     string
	DatabaseType string
	SchemaFilter string
	Tables       []catalog.TableRow
	Columns      map[string][]catalog.ColumnRow
	PrimaryKeys  []catalog.PrimaryKeyRow
	ForeignKeys  []catalog.ForeignKeyRow
}

// Builder turns a catalog snapshot into a schema graph. Building is pure
// in-memory transformation; nothing touches the graph store until the
// writer takes over.
type Builder struct {
	inferenceEnabled   bool
	inferenceThreshold float64
	log                *logger.Logger
}

// NewBuilder returns a Builder. A non-positive threshold falls back to
// DefaultInferenceThreshold.
func NewBuilder(inferenceEnabled bool, inferenceThreshold float64, log *logger.Logger) *Builder {
	if inferenceThreshold <= 0 {
		inferenceThreshold = DefaultInferenceThreshold
	}
	return &Builder{
		inferenceEnabled:   inferenceEnabled,
		inferenceThreshold: inferenceThreshold,
		log:                log,
	}
}

// Build assembles the full graph for one snapshot: the database node, table
// and column nodes, containment edges, declared foreign keys from constraint
// metadata, and (when enabled) inferred foreign keys from naming
// conventions.
//
// Base nodes are built once and never mutated; key flags discovered later
// (primary/foreign key membership) accumulate in an overlay that is merged
// into cloned properties at the end. Pattern matching during inference
// therefore always sees the unmutated catalog state.
func (b *Builder) Build(snap Snapshot) *Graph {
	dbNode := Node{
		ID:   DatabaseID(snap.Database),
		Type: NodeDatabase,
		Name: snap.Database,
		Properties: Properties{
			PropDatabase:     snap.Database,
			PropDatabaseType: snap.DatabaseType,
			PropSchemaFilter: snap.SchemaFilter,
			PropDescription:  snap.DatabaseType + " database " + snap.Database,
		},
	}

	tableNames := make([]string, 0, len(snap.Tables))
	tableNodes := make([]Node, 0, len(snap.Tables))
	columnsByTable := make(map[string][]Node, len(snap.Tables))
	nodeIDs := make(map[string]bool, len(snap.Tables)*8)
	nodeIDs[dbNode.ID] = true

	var rels []Relationship

	for _, t := range snap.Tables {
		tableNames = append(tableNames, t.Name)
		tn := Node{
			ID:   TableID(snap.Database, t.Name),
			Type: NodeTable,
			Name: t.Name,
			Properties: Properties{
				PropDatabase: snap.Database,
				PropSchema:   t.Owner,
				PropNumRows:  t.NumRows,
				PropComments: t.Comment,
			},
		}
		tableNodes = append(tableNodes, tn)
		nodeIDs[tn.ID] = true
		rels = append(rels, Relationship{
			SourceID: dbNode.ID,
			TargetID: tn.ID,
			Type:     RelHasTable,
		})

		for _, c := range snap.Columns[t.Name] {
			props := Properties{
				PropDatabase:     snap.Database,
				PropTable:        t.Name,
				PropDataType:     c.DataType,
				PropDataLength:   c.Length,
				PropNullable:     c.Nullable,
				PropPosition:     c.Position,
				PropComments:     c.Comment,
				PropIsPrimaryKey: false,
				PropIsForeignKey: false,
			}
			if c.Precision != nil {
				props[PropDataPrecision] = *c.Precision
			}
			if c.Scale != nil {
				props[PropDataScale] = *c.Scale
			}
			if c.Default != nil {
				props[PropDefaultValue] = *c.Default
			}
			cn := Node{
				ID:         ColumnID(snap.Database, t.Name, c.Name),
				Type:       NodeColumn,
				Name:       c.Name,
				Properties: props,
			}
			columnsByTable[t.Name] = append(columnsByTable[t.Name], cn)
			nodeIDs[cn.ID] = true
			rels = append(rels, Relationship{
				SourceID: tn.ID,
				TargetID: cn.ID,
				Type:     RelHasColumn,
			})
		}
	}

	// Key flags collected here, merged into cloned properties at the end.
	overlay := make(map[string]Properties)
	flag := func(nodeID, key string) {
		p, ok := overlay[nodeID]
		if !ok {
			p = Properties{}
			overlay[nodeID] = p
		}
		p[key] = true
	}

	for _, pk := range snap.PrimaryKeys {
		id := ColumnID(snap.Database, pk.Table, pk.Column)
		if !nodeIDs[id] {
			b.log.With().
				Str("table", pk.Table).
				Str("column", pk.Column).
				Str("constraint", pk.Constraint).
				Logger().
				Warn("primary key references unknown column, skipping flag")
			continue
		}
		flag(id, PropIsPrimaryKey)
	}

	declared := make(map[edgeKey]bool, len(snap.ForeignKeys))
	for _, fk := range snap.ForeignKeys {
		sourceID := ColumnID(snap.Database, fk.Table, fk.Column)
		targetID := ColumnID(snap.Database, fk.RefTable, fk.RefColumn)
		if !nodeIDs[sourceID] || !nodeIDs[targetID] {
			b.log.With().
				Str("constraint", fk.Constraint).
				Str("source", fk.Table+"."+fk.Column).
				Str("target", fk.RefTable+"."+fk.RefColumn).
				Logger().
				Warn("declared foreign key references column outside snapshot, skipping")
			continue
		}
		rels = append(rels, Relationship{
			SourceID: sourceID,
			TargetID: targetID,
			Type:     RelHasForeignKey,
			Properties: Properties{
				PropConstraintName:    fk.Constraint,
				PropRefConstraintName: fk.RefConstraint,
				PropInferred:          false,
			},
		})
		declared[edgeKey{source: sourceID, target: targetID}] = true
		flag(sourceID, PropIsForeignKey)
	}

	if b.inferenceEnabled {
		in := &inferrer{threshold: b.inferenceThreshold, log: b.log}
		isPK := func(columnID string) bool {
			p, ok := overlay[columnID]
			return ok && p[PropIsPrimaryKey] == true
		}
		inferred := in.infer(tableNames, columnsByTable, isPK, declared)
		for _, r := range inferred {
			flag(r.SourceID, PropIsForeignKey)
		}
		rels = append(rels, inferred...)
		b.log.With().
			Str("database", snap.Database).
			Int("inferred", len(inferred)).
			Logger().
			Info("foreign key inference complete")
	}

	merge := func(n Node) Node {
		extra, ok := overlay[n.ID]
		if !ok {
			return n
		}
		props := n.Properties.Clone()
		for k, v := range extra {
			props[k] = v
		}
		n.Properties = props
		return n
	}

	nodes := make([]Node, 0, len(nodeIDs))
	nodes = append(nodes, dbNode)
	nodes = append(nodes, tableNodes...)
	for _, table := range tableNames {
		for _, cn := range columnsByTable[table] {
			nodes = append(nodes, merge(cn))
		}
	}

	return &Graph{Nodes: nodes, Relationships: rels}
}
