package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"recommender/internal/config"
	"recommender/internal/domain"
	"recommender/internal/embedding"
	"recommender/internal/embedding/openai"
	"recommender/internal/embedding/tfidf"
	"recommender/internal/query"
	"recommender/internal/ranking"
	"recommender/internal/retriever"
	"recommender/internal/service"
)

// app carries the loaded configuration shared by all subcommands.
type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger
}

func (a *app) init(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	var cfg *config.AppConfig
	var err error
	if path == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dir, _ := cmd.Flags().GetString("index"); dir != "" {
		cfg.Index.Path = dir
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(a.logger)
	return nil
}

// newEmbedder builds the configured embedder. Each call returns a fresh
// instance so fitted state never leaks between build and query paths.
func (a *app) newEmbedder() (domain.Embedder, error) {
	return a.buildEmbedder(0)
}

// newQueryEmbedder is newEmbedder without HTTP retries: a failed query
// embedding is reported to the caller at once.
func (a *app) newQueryEmbedder() (domain.Embedder, error) {
	return a.buildEmbedder(openai.NoRetries)
}

func (a *app) buildEmbedder(maxRetries int) (domain.Embedder, error) {
	switch a.cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		oc := a.cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("%w: openai embedder config missing", domain.ErrInvalidInput)
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			Dimension:  oc.Dimension,
			MaxRetries: maxRetries,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidInput, a.cfg.Embedder.Type)
	}
}

func (a *app) embeddingOptions() embedding.Options {
	opts := embedding.Options{Logger: a.logger}
	if oc := a.cfg.Embedder.OpenAI; oc != nil {
		opts.BatchSize = oc.BatchSize
		opts.BatchDelay = time.Duration(oc.BatchDelayMS) * time.Millisecond
	}
	return opts
}

// newRanker returns nil when ranking is disabled or the provider cannot be
// created; the recommender then answers from similarity alone.
func (a *app) newRanker(ctx context.Context) domain.Ranker {
	rc := a.cfg.Ranker
	if rc.Provider == "none" {
		return nil
	}
	r, err := ranking.NewFantasyRanker(ctx, ranking.FantasyConfig{
		Provider:  rc.Provider,
		APIKeyEnv: rc.APIKeyEnv,
		BaseURL:   rc.BaseURL,
		Model:     rc.Model,
	})
	if err != nil {
		a.logger.Warn("ranking service unavailable, using similarity only", "provider", rc.Provider, "error", err)
		return nil
	}
	return r
}

// pipeline is the query side of the system over one snapshot directory.
type pipeline struct {
	holder      *service.Holder
	processor   *query.Processor
	retriever   *retriever.Retriever
	recommender *service.Recommender
}

func (a *app) openPipeline(ctx context.Context, template string) (*pipeline, error) {
	h := service.NewHolder(a.cfg.Index.Path, service.MemoryLoader(a.logger), a.logger)
	h.SetQueryFactory(service.QueryEmbedderFactory(a.newQueryEmbedder, a.embeddingOptions()))
	if err := h.Reload(); err != nil {
		return nil, fmt.Errorf("load index from %s (run build first): %w", a.cfg.Index.Path, err)
	}

	proc := query.NewProcessor(h.QueryBackend(), a.logger)

	ret, err := retriever.New(proc, h, a.cfg.Retrieval.TopK, a.logger)
	if err != nil {
		return nil, err
	}

	if template == "" {
		template = a.cfg.Ranker.Template
	}
	rec := service.NewRecommender(ret, a.newRanker(ctx), service.RecommenderOptions{
		Template:           template,
		MaxRecommendations: a.cfg.Retrieval.MaxRecommendations,
		Logger:             a.logger,
	})
	return &pipeline{holder: h, processor: proc, retriever: ret, recommender: rec}, nil
}
