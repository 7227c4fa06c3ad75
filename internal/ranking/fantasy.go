package ranking

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"

	"recommender/internal/domain"
)

// FantasyConfig selects the language model used for ranking.
type FantasyConfig struct {
	Provider  string
	APIKeyEnv string
	BaseURL   string
	Model     string
}

var _ domain.Ranker = (*FantasyRanker)(nil)

// FantasyRanker sends ranking prompts to a language model.
type FantasyRanker struct {
	model fantasy.LanguageModel
	name  string
}

// NewFantasyRanker resolves the provider and model named in cfg.
func NewFantasyRanker(ctx context.Context, cfg FantasyConfig) (*FantasyRanker, error) {
	var provider fantasy.Provider
	var err error

	apiKey := os.Getenv(cfg.APIKeyEnv)

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(apiKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(apiKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		provider, err = openrouter.New(openrouter.WithAPIKey(apiKey))

	default:
		return nil, fmt.Errorf("%w: unsupported ranking provider %q", domain.ErrInvalidInput, cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	return &FantasyRanker{model: model, name: cfg.Provider + "/" + cfg.Model}, nil
}

// Name identifies the provider and model.
func (r *FantasyRanker) Name() string { return r.name }

// Rank returns the model's free-text answer to prompt.
func (r *FantasyRanker) Rank(ctx context.Context, prompt string) (string, error) {
	agent := fantasy.NewAgent(r.model)

	result, err := agent.Generate(ctx, fantasy.AgentCall{
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate: %w", domain.ErrRankingService, err)
	}

	return result.Response.Content.Text(), nil
}
