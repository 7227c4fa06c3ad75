// Package textnorm cleans catalogue and query text before it is embedded.
// Indexed text and query text must go through the same ForEmbedding path.
package textnorm

import (
	"html"
	"regexp"
	"strings"

	"recommender/internal/domain"
)

// Pre-compiled regular expressions for cleaning.
var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	urlRe        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	emailRe      = regexp.MustCompile(`\S+@\S+`)
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-'/]`)
	embedDropRe  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,]`)
)

// maxPasses bounds the fixpoint loop in Clean.
const maxPasses = 4

// Clean decodes entities, strips markup, URLs and email-like tokens, collapses
// whitespace, drops characters outside the allow-list and collapses repeated
// punctuation. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	// Removing a character can expose a new match (a symbol splitting a URL,
	// a space left between two dots), so repeat until nothing changes.
	for i := 0; i < maxPasses; i++ {
		next := cleanOnce(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func cleanOnce(text string) string {
	if text == "" {
		return ""
	}
	text = html.UnescapeString(text)
	text = tagRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	text = collapseSpaces(text)
	text = disallowedRe.ReplaceAllString(text, "")
	text = collapsePunctuation(text, ".,!?;:")
	return collapseSpaces(text)
}

// ForEmbedding is Clean followed by lowercasing and dropping punctuation other
// than commas and periods.
func ForEmbedding(text string) string {
	text = strings.ToLower(Clean(text))
	text = embedDropRe.ReplaceAllString(text, "")
	text = collapsePunctuation(text, ".,")
	return collapseSpaces(text)
}

// CleanItem applies Clean to every free-text field of an item.
func CleanItem(item domain.CatalogueItem) domain.CatalogueItem {
	item.Name = Clean(item.Name)
	item.Description = Clean(item.Description)
	item.Category = Clean(item.Category)
	item.TargetRoles = cleanList(item.TargetRoles)
	item.SkillsAssessed = cleanList(item.SkillsAssessed)
	return item
}

// ItemText builds the text embedded for an item: labelled name and category,
// the description, roles and skills, normalised with ForEmbedding.
func ItemText(item domain.CatalogueItem) string {
	var parts []string
	if item.Name != "" {
		parts = append(parts, "Assessment: "+item.Name)
	}
	if item.Category != "" {
		parts = append(parts, "Category: "+item.Category)
	}
	if item.Description != "" {
		parts = append(parts, item.Description)
	}
	if len(item.TargetRoles) > 0 {
		parts = append(parts, "Suitable for: "+strings.Join(item.TargetRoles, ", "))
	}
	if len(item.SkillsAssessed) > 0 {
		parts = append(parts, "Assesses: "+strings.Join(item.SkillsAssessed, ", "))
	}
	return ForEmbedding(strings.Join(parts, " "))
}

func cleanList(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if c := Clean(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapsePunctuation keeps one rune out of each run of the same mark.
func collapsePunctuation(s, marks string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && strings.ContainsRune(marks, r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
