package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd("1.0.0")
	require.NotNil(t, cmd)
	assert.Equal(t, "recommender", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)
}

func TestRootCmdHasFlags(t *testing.T) {
	cmd := NewRootCmd("dev")
	for _, name := range []string{"config", "index", "timeout", "json"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %q", name)
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	cmd := NewRootCmd("dev")
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "recommend", "search", "info", "tui"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

const testCatalogue = `[
  {"id": "java-1", "name": "Java Coding Test", "category": "Technical Skills",
   "description": "Assesses Java programming ability with coding exercises.",
   "target_roles": ["Software Engineer"], "skills_assessed": ["Java"]},
  {"id": "sales-1", "name": "Sales Personality Profile", "category": "Personality",
   "description": "Measures persuasion and resilience for sales roles.",
   "target_roles": ["Sales Representative"], "skills_assessed": ["Persuasion"]},
  {"id": "num-1", "name": "Numerical Reasoning", "category": "Cognitive Ability",
   "description": "Evaluates interpretation of numerical data and charts.",
   "target_roles": ["Analyst"], "skills_assessed": ["Numeracy"]}
]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("dev")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildThenRecommendWithoutRanker(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(catPath, []byte(testCatalogue), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "embedder:\n  type: tfidf\nranker:\n  provider: none\nlog_level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	indexDir := filepath.Join(dir, "index")

	out, err := run(t, "--config", cfgPath, "--index", indexDir, "build", "--catalogue", catPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Index built")
	assert.FileExists(t, filepath.Join(indexDir, "embedding_info.json"))

	out, err = run(t, "--config", cfgPath, "--index", indexDir, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "tfidf")

	out, err = run(t, "--config", cfgPath, "--index", indexDir, "recommend", "java", "programming")
	require.NoError(t, err)
	assert.Contains(t, out, "Java Coding Test")
	assert.Contains(t, out, "LLM unavailable")

	out, err = run(t, "--config", cfgPath, "--index", indexDir, "search", "--category", "personality", "sales", "persuasion")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales Personality Profile")
	assert.NotContains(t, out, "Java Coding Test")
}

func TestRecommendWithoutIndexFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ranker:\n  provider: none\nlog_level: error\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "--index", filepath.Join(dir, "missing"), "recommend", "java")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run build first")
}
