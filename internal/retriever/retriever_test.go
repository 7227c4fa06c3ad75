package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommender/internal/domain"
	"recommender/internal/vectorstore/memory"
)

// stubQueries maps query strings straight to vectors.
type stubQueries map[string][]float32

func (s stubQueries) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	if q == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidInput)
	}
	v, ok := s[q]
	if !ok {
		return nil, errors.New("embedding service down")
	}
	return v, nil
}

func item(id, name, category string) domain.CatalogueItem {
	return domain.CatalogueItem{ID: id, Name: name, Category: category, Description: name + " description"}
}

func chunk(id string, i, n int, it domain.CatalogueItem) domain.IndexRecord {
	it.ID = fmt.Sprintf("%s%s%d", id, domain.ChunkMarker, i)
	return domain.IndexRecord{CatalogueItem: it, OriginalID: id, ChunkIndex: i, ChunkCount: n}
}

func buildIndex(t *testing.T) *memory.Index {
	t.Helper()
	idx, err := memory.New(2)
	require.NoError(t, err)

	java := item("java", "Java Coding Test", "Technical")
	require.NoError(t, idx.Add(
		[][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0, 1}, {0.5, 0.5}},
		[]domain.IndexRecord{
			chunk("java", 0, 2, java),
			chunk("java", 1, 2, java),
			domain.NewIndexRecord(item("python", "Python Coding Test", "technical")),
			domain.NewIndexRecord(item("verbal", "Verbal Reasoning", "Cognitive")),
			domain.NewIndexRecord(item("sjt", "Situational Judgement", "Behavioral")),
		},
	))
	return idx
}

func newRetriever(t *testing.T, idx Searcher) *Retriever {
	t.Helper()
	r, err := New(stubQueries{"java": {1, 0}, "verbal": {0, 1}, "bad": {1, 2, 3}}, idx, 3, nil)
	require.NoError(t, err)
	return r
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, buildIndex(t), 0, nil)
	assert.Error(t, err)
	_, err = New(stubQueries{}, nil, 0, nil)
	assert.Error(t, err)

	r, err := New(stubQueries{}, buildIndex(t), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, r.DefaultTopK())
}

func TestRetrieveMergesChunks(t *testing.T) {
	r := newRetriever(t, buildIndex(t))

	docs, err := r.Retrieve(context.Background(), "java", 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "java", docs[0].Item.ID)
	assert.Equal(t, 1, docs[0].Rank)
	assert.Equal(t, 1.0, docs[0].SimilarityScore)
	assert.Equal(t, 0.0, docs[0].Distance)

	assert.Equal(t, "python", docs[1].Item.ID)
	assert.Equal(t, 2, docs[1].Rank)
	assert.Equal(t, "sjt", docs[2].Item.ID)

	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].SimilarityScore, docs[i].SimilarityScore)
	}
}

func TestRetrieveCarriesBestChunkDescription(t *testing.T) {
	idx, err := memory.New(2)
	require.NoError(t, err)
	java := item("java", "Java Coding Test", "Technical")
	first, second := chunk("java", 0, 2, java), chunk("java", 1, 2, java)
	first.Description = "Covers syntax and collections."
	second.Description = "and finishes with debugging tasks."
	require.NoError(t, idx.Add([][]float32{{0, 1}, {1, 0}}, []domain.IndexRecord{first, second}))

	docs, err := newRetriever(t, idx).Retrieve(context.Background(), "java", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "java", docs[0].Item.ID)
	assert.Equal(t, "and finishes with debugging tasks.", docs[0].Item.Description)
	assert.Contains(t, FormatContext(docs), "Description: and finishes with debugging tasks.")
}

func TestRetrieveEmptyIndex(t *testing.T) {
	idx, err := memory.New(2)
	require.NoError(t, err)
	docs, err := newRetriever(t, idx).Retrieve(context.Background(), "java", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRetrieveErrors(t *testing.T) {
	r := newRetriever(t, buildIndex(t))

	_, err := r.Retrieve(context.Background(), "", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrRetrieval)

	_, err = r.Retrieve(context.Background(), "unknown", 3)
	assert.ErrorIs(t, err, domain.ErrRetrieval)

	_, err = r.Retrieve(context.Background(), "bad", 3)
	assert.ErrorIs(t, err, domain.ErrRetrieval)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestRetrieveWithFilter(t *testing.T) {
	r := newRetriever(t, buildIndex(t))
	ctx := context.Background()

	docs, err := r.RetrieveWithFilter(ctx, "java", 2, domain.RetrievalFilter{Category: "TECHNICAL"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "java", docs[0].Item.ID)
	assert.Equal(t, "python", docs[1].Item.ID)

	docs, err = r.RetrieveWithFilter(ctx, "java", 4, domain.RetrievalFilter{MinScore: 0.9})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.GreaterOrEqual(t, d.SimilarityScore, 0.9)
	}

	docs, err = r.RetrieveWithFilter(ctx, "java", 2, domain.RetrievalFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFormatContext(t *testing.T) {
	assert.Equal(t, NoResultsContext, FormatContext(nil))

	docs := []domain.RetrievedDocument{
		{
			Rank:            1,
			SimilarityScore: 0.87654,
			Item: domain.CatalogueItem{
				Name:           "Java Coding Test",
				Category:       "Technical",
				Description:    "Measures Java skills.",
				TargetRoles:    []string{"Developer", "Engineer"},
				SkillsAssessed: []string{"Java"},
				Duration:       "30 minutes",
			},
		},
		{
			Rank:            2,
			SimilarityScore: 0.5,
			Item:            domain.CatalogueItem{Name: "Verbal", Category: "Cognitive", Description: "Reading."},
		},
	}
	want := "1. Java Coding Test\n" +
		"   Category: Technical\n" +
		"   Description: Measures Java skills.\n" +
		"   Target Roles: Developer, Engineer\n" +
		"   Skills Assessed: Java\n" +
		"   Duration: 30 minutes\n" +
		"   Similarity Score: 0.877\n" +
		"\n" +
		"2. Verbal\n" +
		"   Category: Cognitive\n" +
		"   Description: Reading.\n" +
		"   Similarity Score: 0.500\n"
	assert.Equal(t, want, FormatContext(docs))
}
