package store

import (
	"context"
	"errors"

	"tinyblog/pageviews/models"
)

var ErrNotFound = errors.New("page view not found")

// PageViewStore persists page views. Implementations assign ID and CreatedAt
// and must be safe for concurrent use.
//
// SelectAll returns every record in the store's natural order; there is no
// pagination and callers must not depend on ordering.
type PageViewStore interface {
	Migrate(ctx context.Context) error
	Insert(ctx context.Context, view *models.PageView) error
	SelectAll(ctx context.Context) ([]models.PageView, error)
	FindByID(ctx context.Context, id string) (*models.PageView, error)
}
