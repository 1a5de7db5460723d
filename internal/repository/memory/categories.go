package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

type categoryRepo struct{ s *Store }

func (r categoryRepo) Upsert(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.categories[category.Name]; ok {
		existing.Group = category.Group
		category.ID = existing.ID
		category.CreatedAt = existing.CreatedAt
		return nil
	}
	category.ID = newID()
	category.CreatedAt = r.s.now()
	stored := *category
	r.s.categories[category.Name] = &stored
	return nil
}

func (r categoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, category := range r.s.categories {
		if strings.EqualFold(category.Name, name) {
			out := *category
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Category, 0, len(r.s.categories))
	for _, category := range r.s.categories {
		out = append(out, *category)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
