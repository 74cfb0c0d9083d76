package kg

import (
	"sort"
	"strings"
)

// DefaultSearchThreshold is the minimum similarity for a table or column to
// count as relevant to a search term.
const DefaultSearchThreshold = 0.6

// SearchResult is one table deemed relevant to a natural-language query,
// with its matching columns.
type SearchResult struct {
	TableName  string        `json:"table_name"`
	TableScore float64       `json:"table_score"`
	Columns    []ColumnMatch `json:"columns"`
}

// ColumnMatch is one relevant column within a search result.
type ColumnMatch struct {
	Name       string     `json:"name"`
	Score      float64    `json:"score"`
	Properties Properties `json:"properties,omitempty"`
}

// searchTables scores every table and column against the query terms and
// returns the relevant tables sorted by descending table score.
//
// The query is split on whitespace and lowercased; a name's score is its
// best similarity across all terms, so adding terms can only widen the
// result set. A table is included when its own name clears the threshold or
// when any of its columns does, and a structural match lists the matching
// columns even if the table name itself scored low.
func searchTables(tables []TableColumns, query string, threshold float64) []SearchResult {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var results []SearchResult
	for _, t := range tables {
		tableScore := bestScore(t.Table, terms)

		var cols []ColumnMatch
		for _, c := range t.Columns {
			if score := bestScore(c.Name, terms); score >= threshold {
				cols = append(cols, ColumnMatch{
					Name:       c.Name,
					Score:      score,
					Properties: c.Properties,
				})
			}
		}

		if tableScore >= threshold || len(cols) > 0 {
			results = append(results, SearchResult{
				TableName:  t.Table,
				TableScore: tableScore,
				Columns:    cols,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TableScore > results[j].TableScore
	})
	return results
}

// bestScore is the maximum similarity between a name and any query term.
func bestScore(name string, terms []string) float64 {
	lower := strings.ToLower(name)
	best := 0.0
	for _, term := range terms {
		if s := ratio(term, lower); s > best {
			best = s
		}
	}
	return best
}
