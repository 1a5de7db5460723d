package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// CategoryRepository manages the ticket category catalogue.
type CategoryRepository interface {
	// Upsert inserts the category or refreshes its group when the name exists.
	Upsert(ctx context.Context, category *domain.Category) error
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Upsert(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, category_group)
        VALUES ($1,$2)
        ON CONFLICT (name) DO UPDATE SET category_group=EXCLUDED.category_group
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, category.Name, category.Group).
		Scan(&category.ID, &category.CreatedAt)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	const query = `
        SELECT id, name, category_group, created_at
        FROM categories WHERE LOWER(name)=LOWER($1)`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&category.Group,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT id, name, category_group, created_at
        FROM categories ORDER BY category_group, name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Group, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
