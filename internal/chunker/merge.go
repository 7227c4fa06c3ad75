package chunker

import (
	"sort"

	"recommender/internal/domain"
)

// MergeResults collapses hits that reference chunks of the same item into one
// hit per item. The best-scoring chunk represents the item, its id is resolved
// to the source id, chunk fields are cleared, and the result is re-sorted by
// descending similarity with ranks renumbered from 1.
func MergeResults(hits []domain.SearchHit) []domain.SearchHit {
	if len(hits) == 0 {
		return nil
	}

	best := make(map[string]int, len(hits))
	var merged []domain.SearchHit
	for _, h := range hits {
		id := h.Record.SourceID()
		if i, ok := best[id]; ok {
			if h.Similarity > merged[i].Similarity {
				merged[i] = resolve(h, id)
			}
			continue
		}
		best[id] = len(merged)
		merged = append(merged, resolve(h, id))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}

func resolve(h domain.SearchHit, id string) domain.SearchHit {
	h.Record = domain.NewIndexRecord(h.Record.CatalogueItem)
	h.Record.ID = id
	return h
}
