package kg

import (
	"context"

	"github.com/koustreak/DatLas/internal/catalog"
	"github.com/koustreak/DatLas/internal/errs"
	"github.com/koustreak/DatLas/internal/logger"
)

// Config carries the engine's behaviour knobs.
type Config struct {
	// DefaultDatabase is used whenever an operation's database argument is
	// empty.
	DefaultDatabase string

	// DatabaseType labels the source dialect on the database node
	// (oracle, postgres, mysql).
	DatabaseType string

	// MultiDatabase keeps other databases' namespaces intact on replace.
	// When false a replace clears the whole graph.
	MultiDatabase bool

	// InferenceEnabled turns foreign-key inference on.
	InferenceEnabled bool

	// InferenceThreshold is the minimum similarity for an inferred match;
	// non-positive falls back to DefaultInferenceThreshold.
	InferenceThreshold float64
}

// Engine orchestrates the full pipeline: catalog introspection, graph
// construction, store replacement, and the read-side query operations.
//
// Engine holds no locks. Concurrent replaces of the same database are the
// caller's problem; reads during a replace may see a partial graph.
type Engine struct {
	reader  catalog.Reader
	store   Store
	archive SnapshotArchive // nil disables snapshot archiving
	builder *Builder
	writer  *Writer
	cfg     Config
	log     *logger.Logger
}

// NewEngine wires an engine. archive may be nil.
func NewEngine(reader catalog.Reader, store Store, archive SnapshotArchive, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		reader:  reader,
		store:   store,
		archive: archive,
		builder: NewBuilder(cfg.InferenceEnabled, cfg.InferenceThreshold, log),
		writer:  NewWriter(store, cfg.MultiDatabase, log),
		cfg:     cfg,
		log:     log,
	}
}

// Introspect reads the catalog and builds the graph in memory, without
// touching the store. schemaFilter restricts the pass to one owning schema;
// empty means every non-system schema.
func (e *Engine) Introspect(ctx context.Context, database, schemaFilter string) (*Graph, error) {
	database = e.resolveDatabase(database)

	tables, err := e.reader.ListTables(ctx, schemaFilter)
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]catalog.ColumnRow, len(tables))
	for _, t := range tables {
		cols, err := e.reader.ListColumns(ctx, t.Name, schemaFilter)
		if err != nil {
			return nil, err
		}
		columns[t.Name] = cols
	}

	pks, err := e.reader.ListPrimaryKeys(ctx, schemaFilter)
	if err != nil {
		return nil, err
	}
	fks, err := e.reader.ListForeignKeys(ctx, schemaFilter)
	if err != nil {
		return nil, err
	}

	e.log.With().
		Str("database", database).
		Int("tables", len(tables)).
		Int("primary_keys", len(pks)).
		Int("foreign_keys", len(fks)).
		Logger().
		Info("catalog introspection complete")

	return e.builder.Build(Snapshot{
		Database:     database,
		DatabaseType: e.cfg.DatabaseType,
		SchemaFilter: schemaFilter,
		Tables:       tables,
		Columns:      columns,
		PrimaryKeys:  pks,
		ForeignKeys:  fks,
	}), nil
}

// Store replaces the database's subgraph with g and archives the snapshot.
// Archiving failures are logged and swallowed; the store write is the
// operation that matters.
func (e *Engine) Store(ctx context.Context, g *Graph, database string) error {
	database = e.resolveDatabase(database)

	if err := e.writer.Replace(ctx, g, database); err != nil {
		return err
	}

	if e.archive != nil {
		if err := e.archive.Put(ctx, database, g); err != nil {
			e.log.ErrorWith("snapshot archive put failed", err, map[string]interface{}{
				"database": database,
			})
		}
	}
	return nil
}

// IntrospectAndStore runs the full pipeline for one database.
func (e *Engine) IntrospectAndStore(ctx context.Context, database, schemaFilter string) (*Graph, error) {
	database = e.resolveDatabase(database)

	g, err := e.Introspect(ctx, database, schemaFilter)
	if err != nil {
		return nil, err
	}
	if err := e.Store(ctx, g, database); err != nil {
		return nil, err
	}
	return g, nil
}

// Search returns the tables relevant to a natural-language query, scored by
// fuzzy similarity. A non-positive threshold falls back to
// DefaultSearchThreshold.
func (e *Engine) Search(ctx context.Context, database, query string, threshold float64) ([]SearchResult, error) {
	database = e.resolveDatabase(database)
	if query == "" {
		return nil, errs.New(errs.SubsystemGraph, errs.ErrKindInvalidInput, "empty search query")
	}
	if threshold <= 0 {
		threshold = DefaultSearchThreshold
	}

	tables, err := e.store.TableColumns(ctx, database)
	if err != nil {
		return nil, err
	}
	return searchTables(tables, query, threshold), nil
}

// Context assembles the schema context for the named tables. Tables absent
// from the graph are omitted from the result rather than failing the whole
// request; absences are logged.
func (e *Engine) Context(ctx context.Context, database string, tables []string) (*SchemaContext, error) {
	database = e.resolveDatabase(database)
	if len(tables) == 0 {
		return nil, errs.New(errs.SubsystemGraph, errs.ErrKindInvalidInput, "no tables requested")
	}

	found, err := e.store.TableContext(ctx, database, tables)
	if err != nil {
		return nil, err
	}

	if len(found) < len(tables) {
		present := make(map[string]bool, len(found))
		for _, t := range found {
			present[t.Table] = true
		}
		for _, name := range tables {
			if !present[name] {
				e.log.With().
					Str("database", database).
					Str("table", name).
					Logger().
					Warn("requested table not in graph, omitting from context")
			}
		}
	}

	return assembleContext(found), nil
}

// InferredReport summarises the inferred foreign keys stored for a database.
func (e *Engine) InferredReport(ctx context.Context, database string) (*InferredReport, error) {
	database = e.resolveDatabase(database)

	rels, err := e.store.InferredRelationships(ctx, database)
	if err != nil {
		return nil, err
	}
	return buildReport(rels), nil
}

func (e *Engine) resolveDatabase(database string) string {
	if database == "" {
		return e.cfg.DefaultDatabase
	}
	return database
}
