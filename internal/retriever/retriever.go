package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"recommender/internal/chunker"
	"recommender/internal/domain"
)

const (
	// DefaultTopK is used when callers pass k <= 0.
	DefaultTopK = 5
	// chunkOverfetch widens the raw search so merged chunks still fill k slots.
	chunkOverfetch = 3
	// filterOverfetch widens the candidate pool when a filter is active.
	filterOverfetch = 2
)

// NoResultsContext is the context block rendered for an empty result set.
const NoResultsContext = "No relevant assessments found."

// QueryEmbedder converts a raw query into a vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Searcher is a nearest-neighbour index.
type Searcher interface {
	Search(query []float32, k int) ([]domain.SearchHit, error)
}

// Retriever embeds queries and maps index hits to retrieved documents.
type Retriever struct {
	queries     QueryEmbedder
	index       Searcher
	defaultTopK int
	logger      *slog.Logger
}

// New constructs a Retriever. defaultTopK <= 0 selects DefaultTopK.
func New(queries QueryEmbedder, index Searcher, defaultTopK int, logger *slog.Logger) (*Retriever, error) {
	if queries == nil {
		return nil, errors.New("retriever: query embedder must not be nil")
	}
	if index == nil {
		return nil, errors.New("retriever: index must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{queries: queries, index: index, defaultTopK: defaultTopK, logger: logger}, nil
}

// DefaultTopK returns the k used when callers pass zero.
func (r *Retriever) DefaultTopK() int { return r.defaultTopK }

// Retrieve returns up to k documents, one per catalogue item, best first.
// An index without matches yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		k = r.defaultTopK
	}
	r.logger.Info("retrieving", "k", k, "query", query)

	vec, err := r.queries.EmbedQuery(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		r.logger.Error("query embedding failed", "error", err)
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}

	hits, err := r.index.Search(vec, k*chunkOverfetch)
	if err != nil {
		r.logger.Error("index search failed", "error", err)
		return nil, fmt.Errorf("%w: search index: %w", domain.ErrRetrieval, err)
	}

	merged := chunker.MergeResults(hits)
	if len(merged) > k {
		merged = merged[:k]
	}
	docs := make([]domain.RetrievedDocument, 0, len(merged))
	for _, h := range merged {
		docs = append(docs, domain.RetrievedDocument{
			Rank:            h.Rank,
			SimilarityScore: h.Similarity,
			Distance:        h.Distance,
			Item:            h.Record.Item(),
		})
	}
	if len(docs) == 0 {
		r.logger.Warn("no results found for query")
	}
	return docs, nil
}

// RetrieveWithFilter over-fetches when the filter is active, drops documents
// whose category differs (case-insensitively) or whose similarity is below
// MinScore, and truncates to k. Fewer than k documents may survive.
func (r *Retriever) RetrieveWithFilter(ctx context.Context, query string, k int, filter domain.RetrievalFilter) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		k = r.defaultTopK
	}
	fetch := k
	if filter.Active() {
		fetch = k * filterOverfetch
	}
	docs, err := r.Retrieve(ctx, query, fetch)
	if err != nil {
		return nil, err
	}

	filtered := docs[:0]
	for _, d := range docs {
		if filter.Category != "" && !strings.EqualFold(d.Item.Category, filter.Category) {
			continue
		}
		if d.SimilarityScore < filter.MinScore {
			continue
		}
		filtered = append(filtered, d)
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	r.logger.Info("filtered results", "count", len(filtered))
	return filtered, nil
}

// FormatContext renders documents as the numbered evidence block of a
// ranking prompt.
func FormatContext(docs []domain.RetrievedDocument) string {
	if len(docs) == 0 {
		return NoResultsContext
	}
	parts := make([]string, 0, len(docs))
	for i, d := range docs {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Item.Name)
		fmt.Fprintf(&b, "   Category: %s\n", d.Item.Category)
		fmt.Fprintf(&b, "   Description: %s\n", d.Item.Description)
		if len(d.Item.TargetRoles) > 0 {
			fmt.Fprintf(&b, "   Target Roles: %s\n", strings.Join(d.Item.TargetRoles, ", "))
		}
		if len(d.Item.SkillsAssessed) > 0 {
			fmt.Fprintf(&b, "   Skills Assessed: %s\n", strings.Join(d.Item.SkillsAssessed, ", "))
		}
		if d.Item.Duration != "" {
			fmt.Fprintf(&b, "   Duration: %s\n", d.Item.Duration)
		}
		fmt.Fprintf(&b, "   Similarity Score: %.3f\n", d.SimilarityScore)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}
