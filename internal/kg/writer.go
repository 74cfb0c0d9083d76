package kg

import (
	"context"
	"time"

	"github.com/koustreak/DatLas/internal/errs"
	"github.com/koustreak/DatLas/internal/logger"
)

// Writer replaces a database's subgraph in the store with a fresh snapshot.
// The graph store is the derived artifact and the relational catalog the
// source of truth, so every write is a full replace, never a merge.
type Writer struct {
	store         Store
	log           *logger.Logger
	multiDatabase bool
	now           func() time.Time
}

// NewWriter returns a Writer. In multi-database mode the replace clears only
// the target database's namespace; otherwise it clears the whole graph.
func NewWriter(store Store, multiDatabase bool, log *logger.Logger) *Writer {
	return &Writer{
		store:         store,
		log:           log,
		multiDatabase: multiDatabase,
		now:           time.Now,
	}
}

// Replace writes the graph for one source database: delete the old
// namespace, create all nodes, then all relationships. The database node is
// stamped with the write time so staleness is observable.
//
// There is no transaction; a mid-write failure leaves a partial graph, and
// the remedy is to re-run the pass. Replace does not mutate g.
func (w *Writer) Replace(ctx context.Context, g *Graph, database string) error {
	if g == nil {
		return errs.New(errs.SubsystemGraph, errs.ErrKindInvalidInput, "nil graph")
	}

	start := w.now()
	stamp := start.UTC().Format(time.RFC3339)

	if w.multiDatabase {
		if err := w.store.DeleteDatabase(ctx, database); err != nil {
			return err
		}
	} else {
		if err := w.store.DeleteAll(ctx); err != nil {
			return err
		}
	}

	dbID := DatabaseID(database)
	for _, n := range g.Nodes {
		if n.ID == dbID {
			stamped := n
			stamped.Properties = n.Properties.Clone()
			stamped.Properties[PropIntrospectionTimestamp] = stamp
			n = stamped
		}
		if err := w.store.CreateNode(ctx, n); err != nil {
			return err
		}
	}

	for _, r := range g.Relationships {
		if err := w.store.CreateRelationship(ctx, r); err != nil {
			return err
		}
	}

	w.log.With().
		Str("database", database).
		Int("nodes", len(g.Nodes)).
		Int("relationships", len(g.Relationships)).
		Float64("elapsed_s", w.now().Sub(start).Seconds()).
		Logger().
		Info("graph replaced")
	return nil
}
