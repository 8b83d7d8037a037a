package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const findCategoriesByTitles = `
SELECT id, title, created_at, updated_at
FROM categories
WHERE title = ANY($1)
ORDER BY created_at, id`

// FindByTitles retrieves the categories whose title is in titles
func (r *CategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	if len(titles) == 0 {
		return []*domain.Category{}, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, findCategoriesByTitles, titles)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

const getAllCategories = `
SELECT id, title, created_at, updated_at
FROM categories
ORDER BY title, created_at`

// GetAll retrieves every category
func (r *CategoryRepository) GetAll(ctx context.Context) ([]*domain.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getAllCategories)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// A concurrent import may commit the same title first; the stored row wins
const createCategory = `
INSERT INTO categories (id, title, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
RETURNING id, title, created_at, updated_at`

// CreateBatch inserts all categories in a single round trip
func (r *CategoryRepository) CreateBatch(ctx context.Context, categories []*domain.Category) ([]*domain.Category, error) {
	if len(categories) == 0 {
		return []*domain.Category{}, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, c := range categories {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(createCategory, id, c.Title, now)
	}

	results := conn(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	created := make([]*domain.Category, 0, len(categories))
	for i := range categories {
		var c domain.Category
		if err := results.QueryRow().Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("insert category %d: %w", i, err)
		}
		created = append(created, &c)
	}

	if err := results.Close(); err != nil {
		return nil, err
	}
	return created, nil
}

func collectCategories(rows pgx.Rows) ([]*domain.Category, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
		return &c, err
	})
}
