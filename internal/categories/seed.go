package categories

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Seed is the on-disk definition of the category table.
type Seed struct {
	Categories []SeedCategory `yaml:"categories"`
}

// SeedCategory defines one category. Synonyms become its reference set;
// a category without synonyms is scored against its embedded label.
type SeedCategory struct {
	ID       int      `yaml:"id"`
	Label    string   `yaml:"label"`
	Color    string   `yaml:"color"`
	Synonyms []string `yaml:"synonyms"`
}

// DefaultSeed returns the ten-level emotion scale, ordered from most
// negative (0) to most positive (9).
func DefaultSeed() *Seed {
	return &Seed{Categories: []SeedCategory{
		{ID: 0, Label: "Very Upset", Color: "#FF0000"},
		{ID: 1, Label: "Upset", Color: "#FF4500"},
		{ID: 2, Label: "Frustrated", Color: "#FF8C00"},
		{ID: 3, Label: "Uncomfortable", Color: "#FFA500"},
		{ID: 4, Label: "Neutral", Color: "#D3D3D3"},
		{ID: 5, Label: "Comfortable", Color: "#90EE90"},
		{ID: 6, Label: "Content", Color: "#00FA9A"},
		{ID: 7, Label: "Happy", Color: "#00CED1"},
		{ID: 8, Label: "Very Happy", Color: "#1E90FF"},
		{ID: 9, Label: "Ecstatic", Color: "#FF69B4"},
	}}
}

// LoadSeed reads and validates a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates YAML seed content.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ids are unique and non-negative, labels are present,
// and colors are #RRGGBB when set.
func (s *Seed) Validate() error {
	if len(s.Categories) == 0 {
		return fmt.Errorf("%w: no categories defined", ErrInvalidSeed)
	}

	ids := make(map[int]bool, len(s.Categories))
	labels := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		if c.ID < 0 {
			return fmt.Errorf("%w: category id %d is negative", ErrInvalidSeed, c.ID)
		}
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate category id %d", ErrInvalidSeed, c.ID)
		}
		ids[c.ID] = true

		label := strings.TrimSpace(c.Label)
		if label == "" {
			return fmt.Errorf("%w: category %d has no label", ErrInvalidSeed, c.ID)
		}
		if labels[label] {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidSeed, label)
		}
		labels[label] = true

		if c.Color != "" && !colorPattern.MatchString(c.Color) {
			return fmt.Errorf("%w: category %d color %q is not #RRGGBB", ErrInvalidSeed, c.ID, c.Color)
		}
	}
	return nil
}

// Embed computes the label and synonym embeddings for every seed category.
// prefix is prepended to each text before embedding. Blank and repeated
// synonyms are dropped.
func (s *Seed) Embed(ctx context.Context, embedder Embedder, prefix string) ([]Category, error) {
	cats := make([]Category, 0, len(s.Categories))

	for _, sc := range s.Categories {
		label := strings.TrimSpace(sc.Label)
		emb, err := embedder.Embed(ctx, prefix+label)
		if err != nil {
			return nil, fmt.Errorf("embed label %q: %w", label, err)
		}

		cat := Category{
			ID:        sc.ID,
			Label:     label,
			Color:     sc.Color,
			Embedding: emb,
		}

		seen := make(map[string]bool, len(sc.Synonyms))
		for _, syn := range sc.Synonyms {
			term := strings.TrimSpace(syn)
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true

			v, err := embedder.Embed(ctx, prefix+term)
			if err != nil {
				return nil, fmt.Errorf("embed synonym %q for %q: %w", term, label, err)
			}
			cat.References = append(cat.References, Reference{Term: term, Embedding: v})
		}

		cat.Dimensions = dimensions(cat)
		cats = append(cats, cat)
	}

	return cats, nil
}
