package memory

import (
	"fmt"
	"sync"

	"recommender/internal/domain"
	"recommender/internal/vectorstore"
)

const defaultTopK = 5

// Index is an in-memory exact L2 index. Distances are squared Euclidean.
// Searches may run concurrently; Add must not overlap with serving.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	records   []domain.IndexRecord
}

var _ vectorstore.Index = (*Index)(nil)

// New creates an empty index of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimension)
	}
	return &Index{dimension: dimension}, nil
}

func (s *Index) Dimension() int { return s.dimension }

func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Add appends vectors with their metadata. The whole call is rejected if
// the counts differ or any vector has the wrong width.
func (s *Index) Add(vectors [][]float32, records []domain.IndexRecord) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: %d vectors, %d records", domain.ErrLengthMismatch, len(vectors), len(records))
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("%w: vector %d has %d values, index has %d", domain.ErrDimensionMismatch, i, len(v), s.dimension)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		s.vectors = append(s.vectors, append([]float32(nil), v...))
	}
	s.records = append(s.records, records...)
	return nil
}

// Search returns the min(k, n) nearest slots ordered by ascending distance.
// Equal distances keep insertion order.
func (s *Index) Search(query []float32, k int) ([]domain.SearchHit, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(query), s.dimension)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = defaultTopK
	}
	dists := make([]float64, len(s.vectors))
	for i := range s.vectors {
		dists[i] = squaredL2(s.vectors[i], query)
	}
	idxs := argsortAsc(dists)
	if k > len(idxs) {
		k = len(idxs)
	}
	hits := make([]domain.SearchHit, 0, k)
	for i := 0; i < k; i++ {
		j := idxs[i]
		hits = append(hits, domain.SearchHit{
			Rank:       i + 1,
			Slot:       j,
			Distance:   dists[j],
			Similarity: vectorstore.Similarity(dists[j]),
			Record:     s.records[j],
		})
	}
	return hits, nil
}

// Stats reports the index size.
func (s *Index) Stats() vectorstore.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Stats{
		TotalVectors:  len(s.vectors),
		Dimension:     s.dimension,
		MetadataCount: len(s.records),
	}
}

func squaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func argsortAsc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

// less orders by value, then by slot.
func less(vals []float64, a, b int) bool {
	if vals[a] != vals[b] {
		return vals[a] < vals[b]
	}
	return a < b
}

func quicksort(idxs []int, vals []float64, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := idxs[(lo+hi)/2]
	for i <= j {
		for less(vals, idxs[i], pivot) {
			i++
		}
		for less(vals, pivot, idxs[j]) {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}
