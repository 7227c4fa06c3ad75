package service

import (
	"context"
	"fmt"
	"log/slog"

	"recommender/internal/catalogue"
	"recommender/internal/chunker"
	"recommender/internal/domain"
	"recommender/internal/embedding"
	"recommender/internal/summarizer"
	"recommender/internal/textnorm"
	"recommender/internal/vectorstore"
	"recommender/internal/vectorstore/memory"
)

// BuildReport summarizes an index build.
type BuildReport struct {
	Chunks   chunker.Stats
	Batches  embedding.BatchReport
	Index    vectorstore.Stats
	Model    string
	Overview *summarizer.Overview
}

// IndexerOptions configures an Indexer.
type IndexerOptions struct {
	// Dir receives the snapshot; empty keeps the index in memory only.
	Dir        string
	Summarizer *summarizer.FrequencySummarizer
	// OverviewSentences and OverviewTerms size the catalogue overview.
	OverviewSentences int
	OverviewTerms     int
	Logger            *slog.Logger
}

// Indexer turns a catalogue into a searchable index snapshot.
type Indexer struct {
	chunker    *chunker.Chunker
	provider   *embedding.Provider
	dir        string
	summarizer *summarizer.FrequencySummarizer
	sentences  int
	terms      int
	logger     *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(c *chunker.Chunker, p *embedding.Provider, opts IndexerOptions) *Indexer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Indexer{
		chunker:    c,
		provider:   p,
		dir:        opts.Dir,
		summarizer: opts.Summarizer,
		sentences:  opts.OverviewSentences,
		terms:      opts.OverviewTerms,
		logger:     opts.Logger,
	}
}

// Build validates, cleans and chunks items, embeds every record and loads the vectors
// into a new index. When a directory is configured the snapshot and any
// embedder state are written there, the info record last.
func (x *Indexer) Build(ctx context.Context, items []domain.CatalogueItem) (*memory.Index, BuildReport, error) {
	report := BuildReport{Model: x.provider.Name()}
	if len(items) == 0 {
		return nil, report, fmt.Errorf("%w: empty catalogue", domain.ErrInvalidInput)
	}
	items, err := catalogue.Validate(items)
	if err != nil {
		return nil, report, err
	}

	cleaned := make([]domain.CatalogueItem, len(items))
	for i, it := range items {
		cleaned[i] = textnorm.CleanItem(it)
	}
	if x.summarizer != nil {
		ov := x.summarizer.Overview(cleaned, x.sentences, x.terms)
		report.Overview = &ov
	}

	records, cstats := x.chunker.ChunkCatalogue(cleaned)
	report.Chunks = cstats
	x.logger.Info("chunked catalogue",
		"items", cstats.Items, "records", cstats.Records, "chunked_items", cstats.ChunkedItems)

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = textnorm.ItemText(r.CatalogueItem)
	}

	embedder := x.provider.Embedder()
	if err := embedder.Prepare(texts); err != nil {
		return nil, report, fmt.Errorf("prepare %s: %w", embedder.Name(), err)
	}

	vectors, breport, err := x.provider.EmbedBatch(ctx, texts, 0)
	report.Batches = breport
	if err != nil {
		return nil, report, err
	}
	if breport.FailedBatches > 0 {
		x.logger.Warn("some embedding batches failed",
			"failed", breport.FailedBatches, "zero_vectors", breport.ZeroFilled)
	}

	idx, err := memory.New(x.provider.Dimension())
	if err != nil {
		return nil, report, err
	}
	if err := idx.Add(vectors, records); err != nil {
		return nil, report, err
	}
	report.Index = idx.Stats()

	if x.dir != "" {
		if st, ok := embedder.(domain.StatefulEmbedder); ok {
			if err := st.SaveState(x.dir); err != nil {
				return nil, report, fmt.Errorf("%w: save %s state: %w", domain.ErrSnapshot, embedder.Name(), err)
			}
		}
		if err := idx.Save(x.dir, x.provider.Name()); err != nil {
			return nil, report, err
		}
		x.logger.Info("saved index snapshot", "dir", x.dir, "vectors", report.Index.TotalVectors)
	}
	return idx, report, nil
}
