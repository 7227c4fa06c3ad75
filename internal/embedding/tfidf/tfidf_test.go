package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommender/internal/domain"
)

var corpus = []string{
	"numerical reasoning test for analysts",
	"verbal reasoning test for graduates",
	"java programming skills for developers",
}

func norm(v []float32) float64 {
	s := 0.0
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestPrepareBuildsSortedVocabulary(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	// stopword "for" is excluded
	assert.Equal(t, 10, e.Dimension())
	_, ok := e.vocabulary["for"]
	assert.False(t, ok)
	assert.Equal(t, "analysts", e.terms[0])
}

func TestPrepareRejectsEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.ErrorIs(t, e.Prepare(nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, e.Prepare([]string{"the and of"}), domain.ErrInvalidInput)
}

func TestEmbedIsNormalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	v, err := e.Embed(context.Background(), "Java developers")
	require.NoError(t, err)
	assert.Len(t, v, e.Dimension())
	assert.InDelta(t, 1.0, norm(v), 1e-6)

	zero, err := e.Embed(context.Background(), "unrelated words only")
	require.NoError(t, err)
	assert.Zero(t, norm(zero))
}

func TestEmbedRequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestEmbedBatchMatchesEmbed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	batch, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, batch, len(corpus))
	for i, text := range corpus {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	require.NoError(t, e.SaveState(dir))

	loaded := NewEmbedder()
	require.NoError(t, loaded.LoadState(dir))
	assert.Equal(t, e.Dimension(), loaded.Dimension())

	want, _ := e.Embed(context.Background(), "verbal reasoning")
	got, err := loaded.Embed(context.Background(), "verbal reasoning")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadStateMissing(t *testing.T) {
	err := NewEmbedder().LoadState(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
