package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"recommender/internal/domain"
)

const (
	// CharsPerToken is the fixed ratio used by EstimateTokens. It approximates
	// a tokenizer; it is not one.
	CharsPerToken = 4

	// DefaultMaxTokens is the token budget per chunk.
	DefaultMaxTokens = 512

	// DefaultOverlapTokens is the number of tokens repeated between chunks.
	DefaultOverlapTokens = 50

	// boundarySearch is how far back from a window end to look for a sentence end.
	boundarySearch = 200
)

var sentenceEnds = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// EstimateTokens approximates the token count of text at CharsPerToken
// characters per token.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}

// Chunker splits long descriptions into overlapping, token-bounded segments
// that prefer to break at sentence ends.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Stats summarises a ChunkCatalogue run.
type Stats struct {
	Items         int
	Records       int
	ChunkedItems  int
	ChunksCreated int
}

// New creates a chunker. Non-positive maxTokens selects DefaultMaxTokens; an
// overlap that would stall the window is reduced to a quarter of the budget.
func New(maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens / 4
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}
}

// MaxTokens returns the per-chunk token budget.
func (c *Chunker) MaxTokens() int { return c.maxTokens }

// Split returns text unchanged as a single chunk when it fits the budget,
// otherwise an ordered sequence of overlapping windows.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if EstimateTokens(text) <= c.maxTokens {
		return []string{text}
	}

	runes := []rune(text)
	n := len(runes)
	maxChars := c.maxTokens * CharsPerToken
	overlapChars := c.overlapTokens * CharsPerToken

	var chunks []string
	start := 0
	for start < n {
		end := start + maxChars
		if end < n {
			end = sentenceBreak(runes, start, end)
		} else {
			end = n
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}

		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// sentenceBreak searches backwards from end for a sentence end and returns
// the position just after it, or end when none is within boundarySearch.
func sentenceBreak(runes []rune, start, end int) int {
	floor := end - boundarySearch
	if floor < start {
		floor = start
	}
	for i := end; i > floor; i-- {
		for _, ending := range sentenceEnds {
			if hasPrefixAt(runes, i, ending) {
				brk := i + utf8.RuneCountInString(ending)
				if brk > len(runes) {
					brk = len(runes)
				}
				return brk
			}
		}
	}
	return end
}

func hasPrefixAt(runes []rune, i int, s string) bool {
	for _, r := range s {
		if i >= len(runes) || runes[i] != r {
			return false
		}
		i++
	}
	return true
}

// ChunkItem returns the index records for one item: the item itself when its
// description fits the budget, otherwise one record per chunk.
func (c *Chunker) ChunkItem(item domain.CatalogueItem) []domain.IndexRecord {
	if EstimateTokens(item.Description) <= c.maxTokens {
		return []domain.IndexRecord{domain.NewIndexRecord(item)}
	}

	parts := c.Split(item.Description)
	if len(parts) < 2 {
		return []domain.IndexRecord{domain.NewIndexRecord(item)}
	}
	records := make([]domain.IndexRecord, len(parts))
	for i, part := range parts {
		chunk := item
		chunk.ID = fmt.Sprintf("%s%s%d", item.ID, domain.ChunkMarker, i)
		chunk.Description = part
		records[i] = domain.IndexRecord{
			CatalogueItem: chunk,
			OriginalID:    item.ID,
			ChunkIndex:    i,
			ChunkCount:    len(parts),
		}
	}
	return records
}

// ChunkCatalogue chunks every item whose description exceeds the budget and
// keeps the rest whole, preserving catalogue order.
func (c *Chunker) ChunkCatalogue(items []domain.CatalogueItem) ([]domain.IndexRecord, Stats) {
	stats := Stats{Items: len(items)}
	records := make([]domain.IndexRecord, 0, len(items))
	for _, item := range items {
		recs := c.ChunkItem(item)
		if len(recs) > 1 {
			stats.ChunkedItems++
			stats.ChunksCreated += len(recs)
		}
		records = append(records, recs...)
	}
	stats.Records = len(records)
	return records, stats
}
