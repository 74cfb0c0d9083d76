package kg

import "sort"

// InferredReport summarises every inferred foreign key in one database, for
// a human reviewing what the naming heuristics produced.
type InferredReport struct {
	Statistics    InferredStats          `json:"statistics"`
	Relationships []InferredRelationship `json:"relationships"`
}

// InferredStats buckets inferred edges by confidence and pattern. High is
// confidence at or above 0.9, medium is 0.7 up to 0.9, low is below 0.7.
type InferredStats struct {
	TotalInferred    int            `json:"total_inferred"`
	HighConfidence   int            `json:"high_confidence"`
	MediumConfidence int            `json:"medium_confidence"`
	LowConfidence    int            `json:"low_confidence"`
	ByPattern        map[string]int `json:"by_pattern"`
}

// buildReport sorts the edges by descending confidence and computes the
// summary buckets. rels is not mutated.
func buildReport(rels []InferredRelationship) *InferredReport {
	sorted := make([]InferredRelationship, len(rels))
	copy(sorted, rels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	stats := InferredStats{
		TotalInferred: len(sorted),
		ByPattern:     make(map[string]int),
	}
	for _, r := range sorted {
		switch {
		case r.Confidence >= 0.9:
			stats.HighConfidence++
		case r.Confidence >= 0.7:
			stats.MediumConfidence++
		default:
			stats.LowConfidence++
		}
		stats.ByPattern[r.PatternUsed]++
	}

	return &InferredReport{Statistics: stats, Relationships: sorted}
}
