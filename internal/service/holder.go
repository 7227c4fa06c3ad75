package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"recommender/internal/domain"
	"recommender/internal/query"
	"recommender/internal/vectorstore"
)

// Loader reads an index snapshot from a directory.
type Loader func(dir string) (vectorstore.Index, error)

// QueryFactory builds the query embedder matching a freshly loaded index.
type QueryFactory func(idx vectorstore.Index, dir string) (query.Embedder, error)

// loaded pairs an index with the query embedder built for it so both are
// swapped in one step.
type loaded struct {
	index    vectorstore.Index
	embedder query.Embedder
}

// Holder serves searches from the current snapshot and swaps in a freshly
// loaded one on Reload. The live index is never mutated.
type Holder struct {
	dir     string
	load    Loader
	queries QueryFactory
	current atomic.Pointer[loaded]
	logger  *slog.Logger

	mu    sync.Mutex
	hooks []func()
}

// NewHolder creates a holder for the snapshot in dir. Nothing is loaded
// until Reload is called.
func NewHolder(dir string, load Loader, logger *slog.Logger) *Holder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Holder{dir: dir, load: load, logger: logger}
}

// NewStaticHolder serves a fixed in-memory index.
func NewStaticHolder(idx vectorstore.Index) *Holder {
	h := &Holder{logger: slog.Default()}
	h.current.Store(&loaded{index: idx})
	return h
}

// SetQueryFactory makes Reload build a query embedder for every index it
// loads. Call it before the first Reload.
func (h *Holder) SetQueryFactory(f QueryFactory) { h.queries = f }

// Dir returns the snapshot directory.
func (h *Holder) Dir() string { return h.dir }

// OnReload registers fn to run after every successful reload.
func (h *Holder) OnReload(fn func()) {
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// Reload loads the snapshot and makes it current. On failure the previous
// index, if any, stays in service.
func (h *Holder) Reload() error {
	if h.load == nil {
		return fmt.Errorf("%w: holder has no snapshot loader", domain.ErrSnapshot)
	}
	idx, err := h.load(h.dir)
	if err != nil {
		return err
	}
	next := &loaded{index: idx}
	if h.queries != nil {
		e, err := h.queries(idx, h.dir)
		if err != nil {
			return fmt.Errorf("query embedder for %s: %w", h.dir, err)
		}
		next.embedder = e
	}
	h.current.Store(next)
	h.logger.Info("loaded index snapshot", "dir", h.dir, "vectors", idx.Len(), "dimension", idx.Dimension())

	h.mu.Lock()
	hooks := append([]func(){}, h.hooks...)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Index returns the current index.
func (h *Holder) Index() (vectorstore.Index, error) {
	cur := h.current.Load()
	if cur == nil {
		return nil, fmt.Errorf("%w: no index loaded from %s", domain.ErrNotFound, h.dir)
	}
	return cur.index, nil
}

// Search runs against the current index.
func (h *Holder) Search(query []float32, k int) ([]domain.SearchHit, error) {
	idx, err := h.Index()
	if err != nil {
		return nil, err
	}
	return idx.Search(query, k)
}

// Embed embeds text with the query embedder of the current index.
func (h *Holder) Embed(ctx context.Context, text string) ([]float32, error) {
	cur := h.current.Load()
	if cur == nil {
		return nil, fmt.Errorf("%w: no index loaded from %s", domain.ErrNotFound, h.dir)
	}
	if cur.embedder == nil {
		return nil, fmt.Errorf("%w: holder has no query embedder", domain.ErrInvalidInput)
	}
	return cur.embedder.Embed(ctx, text)
}

// QueryBackend adapts the holder to query.Factory. The processor keeps the
// holder, which always embeds with the embedder of the index it serves.
func (h *Holder) QueryBackend() query.Factory {
	return func() (query.Embedder, error) {
		if _, err := h.Index(); err != nil {
			return nil, err
		}
		return h, nil
	}
}
