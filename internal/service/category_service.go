package service

import (
	"context"
	"strings"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/repository"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// DefaultCategories is the catalogue seeded when no seed file is given.
var DefaultCategories = []domain.Category{
	{Name: "Electrical Work", Group: domain.CategoryGroupWorksAndEstate},
	{Name: "Civil Work", Group: domain.CategoryGroupWorksAndEstate},
	{Name: "Plumbing", Group: domain.CategoryGroupWorksAndEstate},
	{Name: "Hardware Issues", Group: domain.CategoryGroupITHelpdesk},
	{Name: "Software Issues", Group: domain.CategoryGroupITHelpdesk},
	{Name: "Network/Internet", Group: domain.CategoryGroupITHelpdesk},
	{Name: "Infrastructure", Group: domain.CategoryGroupGeneral},
	{Name: "Academics", Group: domain.CategoryGroupGeneral},
	{Name: "Hostel", Group: domain.CategoryGroupGeneral},
	{Name: "Dining Hall", Group: domain.CategoryGroupGeneral},
	{Name: "IT Support", Group: domain.CategoryGroupGeneral},
	{Name: "Security", Group: domain.CategoryGroupGeneral},
	{Name: "Maintenance", Group: domain.CategoryGroupGeneral},
	{Name: "Library", Group: domain.CategoryGroupGeneral},
	{Name: "Sports", Group: domain.CategoryGroupGeneral},
	{Name: "Others", Group: domain.CategoryGroupGeneral},
}

// CategoryService serves the read-only category catalogue.
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService wires the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// List returns all categories grouped then ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// Seed upserts every category. It returns how many entries were written.
func (s *CategoryService) Seed(ctx context.Context, categories []domain.Category) (int, error) {
	written := 0
	for _, c := range categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return written, apperrors.NewValidationError("category name is required", nil)
		}
		if c.Group == "" {
			c.Group = domain.CategoryGroupGeneral
		}
		if !c.Group.Valid() {
			return written, apperrors.NewValidationError("unknown category group", map[string]any{"group": string(c.Group)})
		}
		if err := s.categories.Upsert(ctx, &c); err != nil {
			return written, apperrors.MapError(err)
		}
		written++
	}
	return written, nil
}
