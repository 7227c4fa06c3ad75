package vectorstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"recommender/internal/domain"
)

// Snapshot file names inside an index directory.
const (
	IndexFile    = "index.bin"
	MetadataFile = "metadata.json"
	InfoFile     = "embedding_info.json"
)

// Index is an append-only exact nearest-neighbour index over L2 distance.
// Slot numbers follow insertion order.
type Index interface {
	Dimension() int
	Len() int
	Add(vectors [][]float32, records []domain.IndexRecord) error
	Search(query []float32, k int) ([]domain.SearchHit, error)
	Stats() Stats
	Save(dir, model string) error
}

// Stats describes the contents of an index.
type Stats struct {
	TotalVectors  int `json:"total_vectors"`
	Dimension     int `json:"dimension"`
	MetadataCount int `json:"metadata_count"`
}

// Info is the record written next to a snapshot.
type Info struct {
	NumEmbeddings      int    `json:"num_embeddings"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	Model              string `json:"model"`
}

// Similarity maps a distance onto (0, 1]; zero distance is 1.
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}

// ReadInfo loads the info record of the snapshot in dir.
func ReadInfo(dir string) (Info, error) {
	var info Info
	path := filepath.Join(dir, InfoFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return info, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return info, fmt.Errorf("%w: read %s: %w", domain.ErrSnapshot, path, err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("%w: decode %s: %w", domain.ErrSnapshot, path, err)
	}
	return info, nil
}
