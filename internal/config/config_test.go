package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"EMBEDDING_MODEL", "LLM_MODEL", "VECTOR_STORE_PATH", "TOP_K_RESULTS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, 512, cfg.Chunker.MaxTokens)
	assert.Equal(t, 50, cfg.Chunker.Overlap())
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Ranker.Model)
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
ranker:
  provider: anthropic
  model: claude-sonnet
retrieval:
  top_k: 8
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 100, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, 500, cfg.Embedder.OpenAI.BatchDelayMS)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Ranker.APIKeyEnv)
	assert.Equal(t, "claude-sonnet", cfg.Ranker.Model)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, "data/index", cfg.Index.Path)
}

func TestLoadChunkerOverlap(t *testing.T) {
	clearEnv(t)
	cases := map[string]int{
		"chunker:\n  max_tokens: 256\n  overlap_tokens: 0\n":  0,
		"chunker:\n  max_tokens: 256\n  overlap_tokens: 20\n": 20,
		"chunker:\n  max_tokens: 256\n":                       50,
	}
	for body, want := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 256, cfg.Chunker.MaxTokens)
		assert.Equal(t, want, cfg.Chunker.Overlap(), body)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EMBEDDING_MODEL":   "text-embedding-ada-002",
		"LLM_MODEL":         "gpt-4o-mini",
		"VECTOR_STORE_PATH": "/srv/index",
		"TOP_K_RESULTS":     "12",
		"LOG_LEVEL":         "DEBUG",
	}
	cfg := defaultConfig()
	require.NoError(t, ApplyEnv(cfg, func(k string) string { return env[k] }))

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-ada-002", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.Ranker.Model)
	assert.Equal(t, "/srv/index", cfg.Index.Path)
	assert.Equal(t, 12, cfg.Retrieval.TopK)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	env["TOP_K_RESULTS"] = "many"
	assert.Error(t, ApplyEnv(defaultConfig(), func(k string) string { return env[k] }))
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Ranker.Template = "structured"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "warn": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "loud": slog.LevelInfo,
	} {
		assert.Equal(t, want, (&AppConfig{LogLevel: in}).SlogLevel(), in)
	}
}
