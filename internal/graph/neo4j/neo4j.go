// Package neo4j implements kg.Store on a Neo4j server.
//
// Every vertex carries the SchemaNode label; typing lives in the node's
// "type" property. Edges all use the RELATIONSHIP label with the edge type
// in a "type" property, which keeps Cypher uniform across HAS_TABLE,
// HAS_COLUMN, and HAS_FOREIGN_KEY.
package neo4j

import (
	"context"
	"errors"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/koustreak/DatLas/internal/errs"
	"github.com/koustreak/DatLas/internal/kg"
	"github.com/koustreak/DatLas/internal/logger"
)

// Config carries Neo4j connection settings.
type Config struct {
	URI      string // e.g. bolt://localhost:7687
	Username string
	Password string
	Database string // server-side database name, empty for the default
}

// Store implements kg.Store on a Neo4j driver. Sessions are opened per
// call, so a Store is safe for concurrent use.
type Store struct {
	driver neo4j.DriverWithContext
	db     string
	log    *logger.Logger
}

var _ kg.Store = (*Store)(nil)

// New connects to Neo4j and verifies connectivity before returning.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, errs.Wrap(errs.SubsystemGraph, errs.ErrKindConnectionFailed, "create neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errs.Wrap(errs.SubsystemGraph, errs.ErrKindConnectionFailed, "connect to neo4j", err)
	}

	log.With().Str("uri", cfg.URI).Logger().Info("connected to neo4j")
	return &Store{driver: driver, db: cfg.Database, log: log}, nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	cfg := neo4j.SessionConfig{AccessMode: mode}
	if s.db != "" {
		cfg.DatabaseName = s.db
	}
	return s.driver.NewSession(ctx, cfg)
}

func (s *Store) DeleteDatabase(ctx context.Context, database string) error {
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `
		MATCH (n:SchemaNode)
		WHERE n.database = $database
		   OR n.id = $db_id
		   OR n.id STARTS WITH $table_prefix
		   OR n.id STARTS WITH $column_prefix
		DETACH DELETE n`,
		map[string]any{
			"database":      database,
			"db_id":         kg.DatabaseID(database),
			"table_prefix":  database + "_table_",
			"column_prefix": database + "_column_",
		})
	if err != nil {
		return mapError("delete database namespace", err)
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	if _, err := sess.Run(ctx, `MATCH (n:SchemaNode) DETACH DELETE n`, nil); err != nil {
		return mapError("delete all schema nodes", err)
	}
	return nil
}

func (s *Store) CreateNode(ctx context.Context, n kg.Node) error {
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `
		MERGE (n:SchemaNode {id: $id})
		SET n.type = $type, n.name = $name, n += $props`,
		map[string]any{
			"id":    n.ID,
			"type":  string(n.Type),
			"name":  n.Name,
			"props": map[string]any(n.Properties),
		})
	if err != nil {
		return mapError("create node "+n.ID, err)
	}
	return nil
}

func (s *Store) CreateRelationship(ctx context.Context, r kg.Relationship) error {
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	props := map[string]any(r.Properties)
	if props == nil {
		props = map[string]any{}
	}
	result, err := sess.Run(ctx, `
		MATCH (a:SchemaNode {id: $source}), (b:SchemaNode {id: $target})
		CREATE (a)-[rel:RELATIONSHIP {type: $type}]->(b)
		SET rel += $props
		RETURN count(rel) AS created`,
		map[string]any{
			"source": r.SourceID,
			"target": r.TargetID,
			"type":   string(r.Type),
			"props":  props,
		})
	if err != nil {
		return mapError("create relationship", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return mapError("create relationship", err)
	}
	if created, _ := record.Get("created"); asInt(created) == 0 {
		return errs.New(errs.SubsystemGraph, errs.ErrKindNotFound,
			"relationship endpoint missing: "+r.SourceID+" -> "+r.TargetID)
	}
	return nil
}

func (s *Store) TableColumns(ctx context.Context, database string) ([]kg.TableColumns, error) {
	sess := s.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `
		MATCH (t:SchemaNode {type: 'table', database: $database})
		      -[:RELATIONSHIP {type: 'HAS_COLUMN'}]->(c:SchemaNode)
		RETURN t.name AS table_name, c.name AS column_name, properties(c) AS props
		ORDER BY t.name, c.position`,
		map[string]any{"database": database})
	if err != nil {
		return nil, mapError("list table columns", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, mapError("list table columns", err)
	}

	var out []kg.TableColumns
	index := make(map[string]int)
	for _, rec := range records {
		table := asString(get(rec, "table_name"))
		i, ok := index[table]
		if !ok {
			i = len(out)
			index[table] = i
			out = append(out, kg.TableColumns{Table: table})
		}
		out[i].Columns = append(out[i].Columns, kg.ColumnData{
			Name:       asString(get(rec, "column_name")),
			Properties: asProps(get(rec, "props")),
		})
	}
	return out, nil
}

func (s *Store) TableContext(ctx context.Context, database string, tables []string) ([]kg.TableContext, error) {
	sess := s.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `
		MATCH (t:SchemaNode {type: 'table', database: $database})
		      -[:RELATIONSHIP {type: 'HAS_COLUMN'}]->(c:SchemaNode)
		WHERE t.name IN $tables
		OPTIONAL MATCH (c)-[fk:RELATIONSHIP {type: 'HAS_FOREIGN_KEY'}]->(rc:SchemaNode)
		RETURN t.name AS table_name,
		       c.name AS column_name,
		       properties(c) AS column_props,
		       rc.table AS ref_table,
		       rc.name AS ref_column,
		       properties(fk) AS fk_props
		ORDER BY t.name, c.position`,
		map[string]any{"database": database, "tables": tables})
	if err != nil {
		return nil, mapError("fetch table context", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, mapError("fetch table context", err)
	}

	var out []kg.TableContext
	tableIndex := make(map[string]int)
	columnIndex := make(map[string]map[string]int)
	for _, rec := range records {
		table := asString(get(rec, "table_name"))
		column := asString(get(rec, "column_name"))

		ti, ok := tableIndex[table]
		if !ok {
			ti = len(out)
			tableIndex[table] = ti
			columnIndex[table] = make(map[string]int)
			out = append(out, kg.TableContext{Table: table})
		}
		ci, ok := columnIndex[table][column]
		if !ok {
			ci = len(out[ti].Columns)
			columnIndex[table][column] = ci
			out[ti].Columns = append(out[ti].Columns, kg.ColumnContext{
				Name:       column,
				Properties: asProps(get(rec, "column_props")),
			})
		}
		if refColumn := asString(get(rec, "ref_column")); refColumn != "" {
			out[ti].Columns[ci].ForeignKeys = append(out[ti].Columns[ci].ForeignKeys, kg.ForeignKeyEdge{
				RefTable:   asString(get(rec, "ref_table")),
				RefColumn:  refColumn,
				Properties: asProps(get(rec, "fk_props")),
			})
		}
	}
	return out, nil
}

func (s *Store) InferredRelationships(ctx context.Context, database string) ([]kg.InferredRelationship, error) {
	sess := s.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `
		MATCH (c:SchemaNode {database: $database})
		      -[r:RELATIONSHIP {type: 'HAS_FOREIGN_KEY'}]->(rc:SchemaNode)
		WHERE r.inferred = true
		RETURN c.table AS source_table,
		       c.name AS source_column,
		       rc.table AS target_table,
		       rc.name AS target_column,
		       r.confidence AS confidence,
		       r.pattern_used AS pattern_used,
		       r.constraint_name AS constraint_name`,
		map[string]any{"database": database})
	if err != nil {
		return nil, mapError("list inferred relationships", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, mapError("list inferred relationships", err)
	}

	out := make([]kg.InferredRelationship, 0, len(records))
	for _, rec := range records {
		out = append(out, kg.InferredRelationship{
			SourceTable:    asString(get(rec, "source_table")),
			SourceColumn:   asString(get(rec, "source_column")),
			TargetTable:    asString(get(rec, "target_table")),
			TargetColumn:   asString(get(rec, "target_column")),
			Confidence:     asFloat(get(rec, "confidence")),
			PatternUsed:    asString(get(rec, "pattern_used")),
			ConstraintName: asString(get(rec, "constraint_name")),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return errs.Wrap(errs.SubsystemGraph, errs.ErrKindConnectionFailed, "neo4j unreachable", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// --- record helpers ---

func get(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asInt(v any) int64 {
	n, _ := v.(int64)
	return n
}

func asProps(v any) kg.Properties {
	m, _ := v.(map[string]any)
	if m == nil {
		return nil
	}
	return kg.Properties(m)
}

// mapError converts driver errors into the unified error type.
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errs.Wrap(errs.SubsystemGraph, errs.ErrKindTimeout, op, err)
	case neo4j.IsConnectivityError(err):
		return errs.Wrap(errs.SubsystemGraph, errs.ErrKindConnectionFailed, op, err)
	default:
		return errs.Wrap(errs.SubsystemGraph, errs.ErrKindQueryFailed, op, err)
	}
}
