package domain

// SearchHit is a single nearest-neighbour match returned by a vector index.
type SearchHit struct {
	Rank       int         `json:"rank"`
	Slot       int         `json:"slot"`
	Distance   float64     `json:"distance"`
	Similarity float64     `json:"similarity_score"`
	Record     IndexRecord `json:"metadata"`
}

// RetrievedDocument is a catalogue item matched for one query.
type RetrievedDocument struct {
	Rank            int           `json:"rank"`
	SimilarityScore float64       `json:"similarity_score"`
	Distance        float64       `json:"distance"`
	Item            CatalogueItem `json:"item"`
}

// RetrievalFilter narrows retrieved documents after the vector search.
type RetrievalFilter struct {
	Category string
	MinScore float64
}

// Active reports whether the filter removes anything.
func (f RetrievalFilter) Active() bool {
	return f.Category != "" || f.MinScore > 0
}
