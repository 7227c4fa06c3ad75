package domain

import "strings"

// ChunkMarker separates an item id from a chunk index in derived record ids.
const ChunkMarker = "_chunk_"

// CatalogueItem is one assessment product as supplied by the catalogue parser.
type CatalogueItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	TestType       string   `json:"test_type,omitempty"`
	TargetRoles    []string `json:"target_roles,omitempty"`
	SkillsAssessed []string `json:"skills_assessed,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// IndexRecord is the metadata stored alongside one index slot. Items whose
// description was split carry the chunk fields; whole items leave them zero.
type IndexRecord struct {
	CatalogueItem
	OriginalID string `json:"original_id,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

// NewIndexRecord wraps an unchunked item.
func NewIndexRecord(item CatalogueItem) IndexRecord {
	return IndexRecord{CatalogueItem: item}
}

// IsChunk reports whether the record was derived from a longer item.
func (r IndexRecord) IsChunk() bool {
	return r.OriginalID != "" || strings.Contains(r.ID, ChunkMarker)
}

// SourceID returns the id of the catalogue item this record belongs to.
func (r IndexRecord) SourceID() string {
	if r.OriginalID != "" {
		return r.OriginalID
	}
	if i := strings.Index(r.ID, ChunkMarker); i >= 0 {
		return r.ID[:i]
	}
	return r.ID
}

// Item returns the record with chunk-only fields stripped and the id
// resolved back to the source item.
func (r IndexRecord) Item() CatalogueItem {
	item := r.CatalogueItem
	item.ID = r.SourceID()
	return item
}
