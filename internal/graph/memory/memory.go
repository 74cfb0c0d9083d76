// Package memory provides a map-backed kg.Store for tests and
// single-process deployments. It enforces the same semantics as the Neo4j
// backend: relationship endpoints must exist, and namespace deletion goes by
// the database property or the node id prefix.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/koustreak/DatLas/internal/errs"
	"github.com/koustreak/DatLas/internal/kg"
)

// Store holds the graph in process memory. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]kg.Node
	order []string // node ids in insertion order
	rels  []kg.Relationship
}

// New returns an empty Store.
func New() *Store {
	return &Store{nodes: make(map[string]kg.Node)}
}

var _ kg.Store = (*Store)(nil)

func (s *Store) DeleteDatabase(_ context.Context, database string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]bool)
	for id, n := range s.nodes {
		if inNamespace(n, database) {
			doomed[id] = true
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if doomed[id] {
			delete(s.nodes, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept

	keptRels := s.rels[:0]
	for _, r := range s.rels {
		if doomed[r.SourceID] || doomed[r.TargetID] {
			continue
		}
		keptRels = append(keptRels, r)
	}
	s.rels = keptRels
	return nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]kg.Node)
	s.order = nil
	s.rels = nil
	return nil
}

func (s *Store) CreateNode(_ context.Context, n kg.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n
	return nil
}

func (s *Store) CreateRelationship(_ context.Context, r kg.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[r.SourceID]; !ok {
		return errs.New(errs.SubsystemGraph, errs.ErrKindNotFound, "relationship source node not found: "+r.SourceID)
	}
	if _, ok := s.nodes[r.TargetID]; !ok {
		return errs.New(errs.SubsystemGraph, errs.ErrKindNotFound, "relationship target node not found: "+r.TargetID)
	}
	s.rels = append(s.rels, r)
	return nil
}

func (s *Store) TableColumns(_ context.Context, database string) ([]kg.TableColumns, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []kg.TableColumns
	for _, id := range s.order {
		n := s.nodes[id]
		if n.Type != kg.NodeTable || !inNamespace(n, database) {
			continue
		}
		tc := kg.TableColumns{Table: n.Name}
		for _, c := range s.columnsOf(n.ID) {
			tc.Columns = append(tc.Columns, kg.ColumnData{Name: c.Name, Properties: c.Properties})
		}
		out = append(out, tc)
	}
	return out, nil
}

func (s *Store) TableContext(_ context.Context, database string, tables []string) ([]kg.TableContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requested := make(map[string]bool, len(tables))
	for _, t := range tables {
		requested[t] = true
	}

	var out []kg.TableContext
	for _, id := range s.order {
		n := s.nodes[id]
		if n.Type != kg.NodeTable || !inNamespace(n, database) || !requested[n.Name] {
			continue
		}
		tc := kg.TableContext{Table: n.Name}
		for _, c := range s.columnsOf(n.ID) {
			cc := kg.ColumnContext{Name: c.Name, Properties: c.Properties}
			for _, r := range s.rels {
				if r.Type != kg.RelHasForeignKey || r.SourceID != c.ID {
					continue
				}
				target := s.nodes[r.TargetID]
				refTable, _ := target.Properties[kg.PropTable].(string)
				cc.ForeignKeys = append(cc.ForeignKeys, kg.ForeignKeyEdge{
					RefTable:   refTable,
					RefColumn:  target.Name,
					Properties: r.Properties,
				})
			}
			tc.Columns = append(tc.Columns, cc)
		}
		out = append(out, tc)
	}
	return out, nil
}

func (s *Store) InferredRelationships(_ context.Context, database string) ([]kg.InferredRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []kg.InferredRelationship
	for _, r := range s.rels {
		if r.Type != kg.RelHasForeignKey || r.Properties[kg.PropInferred] != true {
			continue
		}
		source, ok := s.nodes[r.SourceID]
		if !ok || !inNamespace(source, database) {
			continue
		}
		target := s.nodes[r.TargetID]

		sourceTable, _ := source.Properties[kg.PropTable].(string)
		targetTable, _ := target.Properties[kg.PropTable].(string)
		confidence, _ := r.Properties[kg.PropConfidence].(float64)
		pattern, _ := r.Properties[kg.PropPatternUsed].(string)
		constraint, _ := r.Properties[kg.PropConstraintName].(string)

		out = append(out, kg.InferredRelationship{
			SourceTable:    sourceTable,
			SourceColumn:   source.Name,
			TargetTable:    targetTable,
			TargetColumn:   target.Name,
			Confidence:     confidence,
			PatternUsed:    pattern,
			ConstraintName: constraint,
		})
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

// columnsOf returns the column nodes attached to a table node via
// HAS_COLUMN, in relationship insertion order.
func (s *Store) columnsOf(tableID string) []kg.Node {
	var cols []kg.Node
	for _, r := range s.rels {
		if r.Type == kg.RelHasColumn && r.SourceID == tableID {
			if c, ok := s.nodes[r.TargetID]; ok {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// inNamespace matches a node to a source database by its database property,
// falling back to the id prefix for nodes written without one.
func inNamespace(n kg.Node, database string) bool {
	if db, ok := n.Properties[kg.PropDatabase].(string); ok {
		return db == database
	}
	return n.ID == kg.DatabaseID(database) ||
		strings.HasPrefix(n.ID, database+"_table_") ||
		strings.HasPrefix(n.ID, database+"_column_")
}
