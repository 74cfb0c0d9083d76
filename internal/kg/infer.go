package kg

import (
	"math"
	"strings"

	"github.com/koustreak/DatLas/internal/logger"
)

// DefaultInferenceThreshold is the minimum similarity for accepting an
// inferred foreign-key match.
const DefaultInferenceThreshold = 0.7

// inferenceMethod is recorded on every inferred edge.
const inferenceMethod = "naming_convention"

// fkPattern is one naming convention with a {table} placeholder. Matching is
// uniform across patterns: a column name matches when it carries the
// (case-insensitive) prefix and suffix with a non-empty reference between
// them.
type fkPattern struct {
	template string // recorded on the edge, e.g. "{table}_ID"
	prefix   string
	suffix   string
}

// fkPatterns are the naming conventions checked against every column, in
// priority order.
var fkPatterns = []fkPattern{
	{template: "{table}_ID", suffix: "_ID"},
	{template: "ID_{table}", prefix: "ID_"},
	{template: "{table}_KEY", suffix: "_KEY"},
	{template: "{table}_FK", suffix: "_FK"},
	{template: "{table}ID", suffix: "ID"},
	{template: "ID{table}", prefix: "ID"},
}

// matches reports whether the column name fits this pattern, and if so
// returns the extracted table reference in the column's original case.
func (p fkPattern) matches(column string) (string, bool) {
	upper := strings.ToUpper(column)
	if len(upper) <= len(p.prefix)+len(p.suffix) {
		return "", false
	}
	if !strings.HasPrefix(upper, p.prefix) || !strings.HasSuffix(upper, p.suffix) {
		return "", false
	}
	ref := column[len(p.prefix) : len(column)-len(p.suffix)]
	if ref == "" {
		return "", false
	}
	return ref, true
}

// inferrer finds undeclared foreign-key relationships by naming convention.
// Production schemas frequently omit formal constraints; a column named
// CUSTOMER_ID in ORDERS almost certainly references CUSTOMERS.
type inferrer struct {
	threshold float64
	log       *logger.Logger
}

// edgeKey identifies a foreign-key edge by its endpoints, for deduplication
// against declared constraints and earlier inferences.
type edgeKey struct {
	source, target string
}

// infer walks every column of every table against the pattern table and
// emits one inferred HAS_FOREIGN_KEY relationship per accepted match.
//
// tables is the catalog listing order; iteration order matters because ties
// above the threshold are broken by first-seen table. A column may emit more
// than one relationship (one per pattern/candidate), but never two edges for
// the same source/target pair, and never a self-loop onto its own table.
func (in *inferrer) infer(
	tables []string,
	columnsByTable map[string][]Node,
	isPrimaryKey func(columnID string) bool,
	existing map[edgeKey]bool,
) []Relationship {
	seen := make(map[edgeKey]bool, len(existing))
	for k := range existing {
		seen[k] = true
	}

	var inferred []Relationship
	for _, table := range tables {
		for _, column := range columnsByTable[table] {
			for _, pattern := range fkPatterns {
				ref, ok := pattern.matches(column.Name)
				if !ok {
					continue
				}

				matched, _ := in.findMatchingTable(ref, tables)
				if matched == "" || matched == table {
					continue
				}

				pk := findPrimaryKeyColumn(matched, columnsByTable[matched], isPrimaryKey)
				if pk == nil {
					continue
				}

				key := edgeKey{source: column.ID, target: pk.ID}
				if seen[key] {
					continue
				}
				seen[key] = true

				confidence := in.confidence(ref, matched)
				inferred = append(inferred, Relationship{
					SourceID: column.ID,
					TargetID: pk.ID,
					Type:     RelHasForeignKey,
					Properties: Properties{
						PropConstraintName:  "INFERRED_" + table + "_" + column.Name,
						PropInferred:        true,
						PropInferenceMethod: inferenceMethod,
						PropPatternUsed:     pattern.template,
						PropConfidence:      confidence,
					},
				})
				in.log.With().
					Str("table", table).
					Str("column", column.Name).
					Str("ref_table", matched).
					Float64("confidence", confidence).
					Logger().
					Debug("inferred foreign key")
			}
		}
	}
	return inferred
}

// findMatchingTable resolves a table reference extracted from a column name
// to an actual table. An exact case-insensitive match wins outright;
// otherwise the best fuzzy score at or above the threshold is taken, with a
// ×1.2 boost when the reference is a substring covering at least 30% of the
// candidate's length (abbreviations like CUST → CUSTOMERS). The boosted
// score is compared against the threshold unclamped. Ties keep the
// first-seen table.
func (in *inferrer) findMatchingTable(ref string, tables []string) (string, float64) {
	refUpper := strings.ToUpper(ref)

	best := ""
	bestScore := 0.0
	for _, table := range tables {
		tableUpper := strings.ToUpper(table)
		if refUpper == tableUpper {
			return table, 1.0
		}

		score := ratio(refUpper, tableUpper)
		if score > bestScore && score >= in.threshold {
			bestScore = score
			best = table
		}

		if strings.Contains(tableUpper, refUpper) && len(ref) >= 3 {
			coverage := float64(len(ref)) / float64(len(table))
			if coverage > 0.3 {
				adjusted := score * 1.2
				if adjusted > bestScore && adjusted >= in.threshold {
					bestScore = adjusted
					best = table
				}
			}
		}
	}
	return best, bestScore
}

// confidence scores an accepted match. Exact case-insensitive matches are
// 1.0; substring matches get a ×1.1 boost. The result is always clamped to
// [0, 1] and rounded to two decimals.
func (in *inferrer) confidence(ref, matched string) float64 {
	refUpper := strings.ToUpper(ref)
	matchedUpper := strings.ToUpper(matched)

	if refUpper == matchedUpper {
		return 1.0
	}

	c := ratio(refUpper, matchedUpper)
	if strings.Contains(matchedUpper, refUpper) {
		c *= 1.1
	}
	if c > 1.0 {
		c = 1.0
	}
	return round2(c)
}

// findPrimaryKeyColumn picks the column an inferred edge should point at:
// an explicitly flagged primary key, else a PK-style name, else the table's
// first column in catalog order.
func findPrimaryKeyColumn(table string, columns []Node, isPrimaryKey func(string) bool) *Node {
	if len(columns) == 0 {
		return nil
	}

	for i := range columns {
		if isPrimaryKey(columns[i].ID) {
			return &columns[i]
		}
	}

	pkNames := []string{"ID", table + "_ID", "ID_" + table, table + "ID"}
	for _, name := range pkNames {
		for i := range columns {
			if strings.EqualFold(columns[i].Name, name) {
				return &columns[i]
			}
		}
	}

	return &columns[0]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
