package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recommender/internal/domain"
	"recommender/internal/ranking"
	"recommender/internal/retriever"
)

const (
	// FallbackLimit caps recommendations produced without the ranking service.
	FallbackLimit = 5

	MessageNoResults = "No suitable assessments found for this query"
	MessageFallback  = "Recommendations based on similarity search (LLM unavailable)"
)

// DocumentRetriever finds catalogue items for a query.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error)
}

// RecommenderOptions configures a Recommender.
type RecommenderOptions struct {
	// Template selects the ranking prompt; see ranking.Templates.
	Template string
	// MaxRecommendations truncates ranked output when the caller passes no count.
	MaxRecommendations int
	Parser             ranking.ResponseParser
	Logger             *slog.Logger
}

// Recommender retrieves candidates and asks the ranking service to order
// and explain them, falling back to similarity order when it cannot.
type Recommender struct {
	retriever DocumentRetriever
	ranker    domain.Ranker
	parser    ranking.ResponseParser
	template  string
	maxRecs   int
	logger    *slog.Logger
}

// NewRecommender creates a Recommender. A nil ranker always yields
// similarity-only recommendations.
func NewRecommender(r DocumentRetriever, ranker domain.Ranker, opts RecommenderOptions) *Recommender {
	if opts.Parser == nil {
		opts.Parser = ranking.LineParser{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Recommender{
		retriever: r,
		ranker:    ranker,
		parser:    opts.Parser,
		template:  opts.Template,
		maxRecs:   opts.MaxRecommendations,
		logger:    opts.Logger,
	}
}

// Recommend answers one query. topK bounds both retrieval and the number of
// ranked recommendations; zero uses the configured defaults.
//
// Only an unusable query is returned as an error. Every other outcome,
// including retrieval failure, is reported through the result's State.
func (s *Recommender) Recommend(ctx context.Context, query string, topK int) (*domain.RecommendationResult, error) {
	start := time.Now()
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query text cannot be empty", domain.ErrInvalidInput)
	}
	s.logger.Info("generating recommendations", "query", query)

	result := &domain.RecommendationResult{Query: query}
	finish := func(state domain.RecommendState) (*domain.RecommendationResult, error) {
		result.State = state
		result.ProcessingTime = time.Since(start).Seconds()
		if result.Recommendations == nil {
			result.Recommendations = []domain.Recommendation{}
		}
		return result, nil
	}

	docs, err := s.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		s.logger.Error("retrieval failed", "error", err)
		result.Error = fmt.Sprintf("Retrieval failed: %v", err)
		return finish(domain.StateRetrievalFailed)
	}
	result.RetrievedCount = len(docs)

	if len(docs) == 0 {
		s.logger.Warn("no relevant documents found")
		result.Message = MessageNoResults
		return finish(domain.StateNoResults)
	}

	if s.ranker == nil {
		s.logger.Warn("no ranking service configured, using similarity order")
		result.Recommendations = Fallback(docs)
		result.Message = MessageFallback
		return finish(domain.StateFallback)
	}

	prompt := ranking.BuildPrompt(query, retriever.FormatContext(docs), s.template)
	response, err := s.ranker.Rank(ctx, prompt)
	if err != nil {
		s.logger.Warn("ranking service failed, using similarity order", "error", err)
		result.Recommendations = Fallback(docs)
		result.Message = MessageFallback
		return finish(domain.StateFallback)
	}

	recs, report := s.parser.Parse(response)
	if report.Anomaly {
		s.logger.Warn("ranking response did not match the expected format",
			"length", len(response), "headers", report.Headers, "parsed", report.Parsed, "dropped", report.Dropped)
	}
	Enrich(recs, docs)

	limit := topK
	if limit <= 0 {
		limit = s.maxRecs
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	result.Recommendations = recs
	result.RawResponse = response
	result.ParseAnomaly = report.Anomaly
	out, _ := finish(domain.StateRanked)
	s.logger.Info("generated recommendations", "count", len(recs), "seconds", out.ProcessingTime)
	return out, nil
}

// Enrich attaches item metadata to each recommendation whose name contains,
// or is contained in, a retrieved document name. The first match wins.
func Enrich(recs []domain.Recommendation, docs []domain.RetrievedDocument) {
	for i := range recs {
		name := strings.ToLower(strings.TrimSpace(recs[i].AssessmentName))
		if name == "" {
			continue
		}
		for _, d := range docs {
			docName := strings.ToLower(strings.TrimSpace(d.Item.Name))
			if docName == "" {
				continue
			}
			if strings.Contains(name, docName) || strings.Contains(docName, name) {
				recs[i].Enrich(d)
				break
			}
		}
	}
}

// Fallback builds recommendations from the top retrieved documents in
// similarity order, scaling similarity onto the 0..10 relevance scale.
func Fallback(docs []domain.RetrievedDocument) []domain.Recommendation {
	n := min(len(docs), FallbackLimit)
	recs := make([]domain.Recommendation, 0, n)
	for _, d := range docs[:n] {
		rec := domain.Recommendation{
			AssessmentName: d.Item.Name,
			RelevanceScore: d.SimilarityScore * ranking.MaxScore,
			Reasoning: fmt.Sprintf(
				"This assessment matches your requirements based on semantic similarity. Category: %s. Suitable for: %s.",
				d.Item.Category, strings.Join(d.Item.TargetRoles, ", ")),
		}
		rec.Enrich(d)
		recs = append(recs, rec)
	}
	return recs
}
