package chunker

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommender/internal/domain"
)

const paragraph = "The assessment measures cognitive abilities including problem-solving and analytical thinking. " +
	"It is suitable for roles that require strong analytical capabilities! " +
	"Candidates analyse scenarios and draw conclusions? " +
	"The test takes approximately 45 minutes to complete.\n"

func longText(repeat int) string {
	return strings.Repeat(paragraph, repeat)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 0, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("ééééééééé"))
}

func TestNewDefaults(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, DefaultMaxTokens, c.maxTokens)
	assert.Equal(t, 0, c.overlapTokens)

	c = New(100, 100)
	assert.Equal(t, 25, c.overlapTokens)
}

func TestSplitShortTextUnchanged(t *testing.T) {
	c := New(100, 20)
	for _, text := range []string{"short", "  padded text  ", strings.Repeat("x", 403)} {
		require.LessOrEqual(t, EstimateTokens(text), 100)
		assert.Equal(t, []string{text}, c.Split(text))
	}
	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   "))
}

func TestSplitCoversTextWithOverlap(t *testing.T) {
	c := New(100, 20)
	text := longText(8)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), chunks[len(chunks)-1]))

	pos := 0
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100*CharsPerToken+2, "chunk %d too long", i)
		idx := strings.Index(text[pos:], chunk)
		require.GreaterOrEqual(t, idx, 0, "chunk %d not found in order", i)
		pos += idx + 1
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.Contains(t, chunks[i], prev[len(prev)-40:], "chunk %d should repeat the end of chunk %d", i, i-1)
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	c := New(100, 0)
	chunks := c.Split(longText(8))
	for _, chunk := range chunks[:len(chunks)-1] {
		last := chunk[len(chunk)-1]
		assert.Contains(t, ".!?", string(last), "chunk should end at a sentence: %q", chunk[len(chunk)-30:])
	}
}

func TestSplitProgressWithoutBoundaries(t *testing.T) {
	c := New(10, 9)
	text := strings.Repeat("abcdefghij", 50)
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, "")
	assert.GreaterOrEqual(t, len(joined), len(text))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
	}
}

func TestChunkItem(t *testing.T) {
	c := New(100, 20)

	short := domain.CatalogueItem{ID: "a", Name: "Short", Description: "Fits."}
	recs := c.ChunkItem(short)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].IsChunk())
	assert.Equal(t, "a", recs[0].ID)

	long := domain.CatalogueItem{ID: "b", Name: "Long", Category: "Cognitive", Description: longText(8)}
	recs = c.ChunkItem(long)
	require.Greater(t, len(recs), 1)
	for i, r := range recs {
		assert.Equal(t, "b", r.OriginalID)
		assert.Equal(t, i, r.ChunkIndex)
		assert.Equal(t, len(recs), r.ChunkCount)
		assert.Equal(t, "b_chunk_"+strconv.Itoa(i), r.ID)
		assert.Equal(t, "Long", r.Name)
		assert.Equal(t, "Cognitive", r.Category)
		assert.Equal(t, "b", r.SourceID())
	}
}

func TestChunkCatalogue(t *testing.T) {
	c := New(100, 20)
	items := []domain.CatalogueItem{
		{ID: "1", Description: "tiny"},
		{ID: "2", Description: longText(8)},
		{ID: "3", Description: "also tiny"},
	}

	records, stats := c.ChunkCatalogue(items)
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 1, stats.ChunkedItems)
	assert.Equal(t, len(records), stats.Records)
	assert.Equal(t, len(records)-2, stats.ChunksCreated)

	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "3", records[len(records)-1].ID)
	for _, r := range records[1 : len(records)-1] {
		assert.Equal(t, "2", r.OriginalID)
	}
}
