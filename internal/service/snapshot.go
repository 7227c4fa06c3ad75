package service

import (
	"fmt"
	"log/slog"

	"recommender/internal/domain"
	"recommender/internal/embedding"
	"recommender/internal/query"
	"recommender/internal/vectorstore"
	"recommender/internal/vectorstore/memory"
)

// MemoryLoader loads snapshots into the in-memory index.
func MemoryLoader(logger *slog.Logger) Loader {
	return func(dir string) (vectorstore.Index, error) {
		idx, err := memory.Load(dir, logger)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
}

// QueryEmbedderFactory builds the query-side embedding path for an index
// loaded from dir. Fitted embedder state is read from dir and the
// embedder's dimension must match the index.
func QueryEmbedderFactory(build func() (domain.Embedder, error), opts embedding.Options) QueryFactory {
	return func(idx vectorstore.Index, dir string) (query.Embedder, error) {
		e, err := build()
		if err != nil {
			return nil, err
		}
		if st, ok := e.(domain.StatefulEmbedder); ok && dir != "" {
			if err := st.LoadState(dir); err != nil {
				return nil, fmt.Errorf("load %s state: %w", e.Name(), err)
			}
		}
		if e.Dimension() != idx.Dimension() {
			return nil, fmt.Errorf("%w: embedder %s produces %d values, index has %d",
				domain.ErrDimensionMismatch, e.Name(), e.Dimension(), idx.Dimension())
		}
		return embedding.NewProvider(e, opts), nil
	}
}
