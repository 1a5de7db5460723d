package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// File is the on-disk seed document.
type File struct {
	Categories []CategoryEntry `yaml:"categories"`
}

// CategoryEntry is one catalogue row. Group defaults to General.
type CategoryEntry struct {
	Name  string `yaml:"name"`
	Group string `yaml:"group,omitempty"`
}

// LoadCategoriesFile reads categories from a YAML file.
func LoadCategoriesFile(path string) ([]domain.Category, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return LoadCategories(bytes.NewReader(raw))
}

// LoadCategories decodes a seed document. Unknown keys are rejected so a
// typo does not silently drop a category.
func LoadCategories(r io.Reader) ([]domain.Category, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Categories))
	out := make([]domain.Category, 0, len(file.Categories))
	for i, entry := range file.Categories {
		if entry.Name == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("category %q listed twice", entry.Name)
		}
		seen[entry.Name] = struct{}{}

		group := domain.CategoryGroup(entry.Group)
		if group == "" {
			group = domain.CategoryGroupGeneral
		}
		if !group.Valid() {
			return nil, fmt.Errorf("category %q: unknown group %q", entry.Name, entry.Group)
		}
		out = append(out, domain.Category{Name: entry.Name, Group: group})
	}
	return out, nil
}
