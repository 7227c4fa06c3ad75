// Package catalogue reads assessment catalogue files produced by the
// scraping tools and validates them before indexing.
package catalogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"recommender/internal/domain"
)

// record mirrors one catalogue entry on disk. Older exports carry the link
// as assessment_url.
type record struct {
	domain.CatalogueItem
	AssessmentURL string `json:"assessment_url,omitempty"`
}

// Load reads and validates the catalogue file at path.
func Load(path string) ([]domain.CatalogueItem, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: catalogue %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()

	items, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Decode reads a JSON array of catalogue entries and validates it.
func Decode(r io.Reader) ([]domain.CatalogueItem, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode catalogue: %w", domain.ErrInvalidInput, err)
	}
	items := make([]domain.CatalogueItem, len(records))
	for i, rec := range records {
		items[i] = rec.CatalogueItem
		if items[i].URL == "" {
			items[i].URL = rec.AssessmentURL
		}
	}
	return Validate(items)
}

// Validate trims every field, assigns ids to entries without one and
// rejects unnamed entries and duplicate ids.
func Validate(items []domain.CatalogueItem) ([]domain.CatalogueItem, error) {
	out := make([]domain.CatalogueItem, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		it.Name = strings.TrimSpace(it.Name)
		it.Description = strings.TrimSpace(it.Description)
		it.Category = strings.TrimSpace(it.Category)
		it.TestType = strings.TrimSpace(it.TestType)
		it.Duration = strings.TrimSpace(it.Duration)
		it.URL = strings.TrimSpace(it.URL)
		it.TargetRoles = trimList(it.TargetRoles)
		it.SkillsAssessed = trimList(it.SkillsAssessed)

		if it.Name == "" {
			return nil, fmt.Errorf("%w: catalogue entry %d has no name", domain.ErrInvalidInput, i)
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if strings.Contains(it.ID, domain.ChunkMarker) {
			return nil, fmt.Errorf("%w: catalogue entry %d id %q contains %q", domain.ErrInvalidInput, i, it.ID, domain.ChunkMarker)
		}
		if j, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: catalogue entries %d and %d share id %q", domain.ErrInvalidInput, j, i, it.ID)
		}
		seen[it.ID] = i
		out = append(out, it)
	}
	return out, nil
}

func trimList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
