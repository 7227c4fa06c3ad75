package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"recommender/internal/domain"
)

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	text := "Reasoning tests measure reasoning. Cats sleep. Numerical reasoning tests measure numbers."
	out := NewFrequencySummarizer().Summarize(text, 2)
	assert.Equal(t, "Reasoning tests measure reasoning. Numerical reasoning tests measure numbers.", out)
}

func TestSummarizeWithoutSentences(t *testing.T) {
	out := NewFrequencySummarizer().Summarize("  no terminal punctuation  ", 3)
	assert.Equal(t, "no terminal punctuation", out)
}

func TestOverview(t *testing.T) {
	items := []domain.CatalogueItem{
		{Name: "A", Category: "Cognitive", Description: "Measures numerical reasoning."},
		{Name: "B", Category: "Cognitive", Description: "Measures verbal reasoning."},
		{Name: "C", Category: "Personality", Description: "Describes work style."},
		{Name: "D", Description: "Simulates a call centre."},
	}
	ov := NewFrequencySummarizer().Overview(items, 1, 2)

	assert.Equal(t, 4, ov.Items)
	assert.Equal(t, []CategoryCount{
		{Category: "Cognitive", Items: 2},
		{Category: "Personality", Items: 1},
		{Category: "Uncategorized", Items: 1},
	}, ov.Categories)
	assert.Equal(t, []string{"measures", "reasoning"}, ov.TopTerms)
	assert.NotEmpty(t, ov.Summary)
}
