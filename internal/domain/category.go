package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CategoryRepository interface {
	// FindByTitles returns the categories whose title is one of titles.
	FindByTitles(ctx context.Context, titles []string) ([]*Category, error)
	// CreateBatch persists all categories in one write and assigns their identity.
	CreateBatch(ctx context.Context, categories []*Category) ([]*Category, error)
	GetAll(ctx context.Context) ([]*Category, error)
}
