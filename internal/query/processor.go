package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"recommender/internal/domain"
	"recommender/internal/textnorm"
)

// Embedder is the part of the embedding provider the processor needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Factory builds the query embedding backend. It is called on first use.
type Factory func() (Embedder, error)

// Processor turns user queries into vectors using the same normalization
// that was applied to indexed text.
type Processor struct {
	mu       sync.Mutex
	factory  Factory
	embedder Embedder
	logger   *slog.Logger
}

// NewProcessor returns a processor that defers building its embedder.
func NewProcessor(factory Factory, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{factory: factory, logger: logger}
}

// Process normalizes a query for embedding.
func (p *Processor) Process(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: query text cannot be empty", domain.ErrInvalidInput)
	}
	processed := textnorm.ForEmbedding(query)
	if processed == "" {
		return "", fmt.Errorf("%w: query %q has no searchable text", domain.ErrInvalidInput, query)
	}
	p.logger.Debug("processed query", "query", processed)
	return processed, nil
}

// EmbedQuery normalizes and embeds a query.
func (p *Processor) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	processed, err := p.Process(query)
	if err != nil {
		return nil, err
	}
	e, err := p.backend()
	if err != nil {
		return nil, err
	}
	vec, err := e.Embed(ctx, processed)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

func (p *Processor) backend() (Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.embedder != nil {
		return p.embedder, nil
	}
	e, err := p.factory()
	if err != nil {
		return nil, fmt.Errorf("initialize query embedder: %w", err)
	}
	p.embedder = e
	p.logger.Info("initialized query embedder")
	return e, nil
}
