package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	// Dimension is required for models the client does not know.
	Dimension    int `yaml:"dimension,omitempty"`
	BatchDelayMS int `yaml:"batch_delay_ms"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how long descriptions are split.
type ChunkerConfig struct {
	MaxTokens int `yaml:"max_tokens"`
	// OverlapTokens is a pointer so an explicit 0 disables overlap.
	OverlapTokens *int `yaml:"overlap_tokens,omitempty"`
}

// Overlap returns the configured overlap in tokens.
func (c ChunkerConfig) Overlap() int {
	if c.OverlapTokens == nil {
		return defaultOverlapTokens
	}
	return *c.OverlapTokens
}

// CatalogueConfig locates the catalogue file used by build.
type CatalogueConfig struct {
	Path string `yaml:"path"`
}

// IndexConfig locates the index snapshot directory.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// RetrievalConfig sets result counts.
type RetrievalConfig struct {
	TopK               int `yaml:"top_k"`
	MaxRecommendations int `yaml:"max_recommendations"`
}

// RankerConfig selects the language model used to rank candidates.
// Provider "none" disables ranking and always uses similarity order.
type RankerConfig struct {
	Provider  string `yaml:"provider"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model"`
	Template  string `yaml:"template"`
}

// SummarizerConfig sizes the catalogue overview printed by build.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
	MaxTerms     int `yaml:"max_terms"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Catalogue  CatalogueConfig  `yaml:"catalogue"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Ranker     RankerConfig     `yaml:"ranker"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	LogLevel   string           `yaml:"log_level"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, ApplyEnv(cfg, os.Getenv)
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, ApplyEnv(&cfg, os.Getenv)
}

// LoadDefault tries ./config.yaml first, then ~/.config/recommender/config.yaml.
// If neither exists, it writes defaults to ~/.config/recommender/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, ApplyEnv(cfg, os.Getenv)
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides config values from environment variables.
func ApplyEnv(cfg *AppConfig, getenv func(string) string) error {
	if v := getenv("EMBEDDING_MODEL"); v != "" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		cfg.Embedder.OpenAI.Model = v
		applyConfigDefaults(cfg)
	}
	if v := getenv("LLM_MODEL"); v != "" {
		cfg.Ranker.Model = v
	}
	if v := getenv("VECTOR_STORE_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := getenv("TOP_K_RESULTS"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k <= 0 {
			return fmt.Errorf("TOP_K_RESULTS must be a positive integer, got %q", v)
		}
		cfg.Retrieval.TopK = k
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level; unknown values mean info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "recommender", "config.yaml"), nil
}

const defaultOverlapTokens = 50

func intPtr(v int) *int { return &v }

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:   EmbedderConfig{Type: "tfidf"},
		Chunker:    ChunkerConfig{MaxTokens: 512, OverlapTokens: intPtr(defaultOverlapTokens)},
		Catalogue:  CatalogueConfig{Path: "data/products.json"},
		Index:      IndexConfig{Path: "data/index"},
		Retrieval:  RetrievalConfig{TopK: 5, MaxRecommendations: 10},
		Ranker:     RankerConfig{Provider: "openai", APIKeyEnv: "OPENAI_API_KEY", Model: "gpt-3.5-turbo", Template: "default"},
		Summarizer: SummarizerConfig{MaxSentences: 3, MaxTerms: 10},
		LogLevel:   "info",
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Chunker.MaxTokens == 0 {
		cfg.Chunker.MaxTokens = def.Chunker.MaxTokens
	}
	if cfg.Chunker.OverlapTokens == nil {
		cfg.Chunker.OverlapTokens = def.Chunker.OverlapTokens
	}
	if cfg.Catalogue.Path == "" {
		cfg.Catalogue.Path = def.Catalogue.Path
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = def.Index.Path
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Retrieval.MaxRecommendations == 0 {
		cfg.Retrieval.MaxRecommendations = def.Retrieval.MaxRecommendations
	}
	if cfg.Ranker.Provider == "" {
		cfg.Ranker.Provider = def.Ranker.Provider
	}
	if cfg.Ranker.APIKeyEnv == "" {
		switch cfg.Ranker.Provider {
		case "anthropic":
			cfg.Ranker.APIKeyEnv = "ANTHROPIC_API_KEY"
		case "openrouter":
			cfg.Ranker.APIKeyEnv = "OPENROUTER_API_KEY"
		default:
			cfg.Ranker.APIKeyEnv = def.Ranker.APIKeyEnv
		}
	}
	if cfg.Ranker.Model == "" {
		cfg.Ranker.Model = def.Ranker.Model
	}
	if cfg.Ranker.Template == "" {
		cfg.Ranker.Template = def.Ranker.Template
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = def.Summarizer.MaxSentences
	}
	if cfg.Summarizer.MaxTerms == 0 {
		cfg.Summarizer.MaxTerms = def.Summarizer.MaxTerms
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 100
		}
		if cfg.Embedder.OpenAI.BatchDelayMS == 0 {
			cfg.Embedder.OpenAI.BatchDelayMS = 500
		}
	}
}
