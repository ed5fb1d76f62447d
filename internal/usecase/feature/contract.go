package feature

import (
	"context"

	domcategory "github.com/sibyl-dev/sibyl/internal/domain/category"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
)

// Repository defines the storage contract for features.
type Repository interface {
	Put(ctx context.Context, f domfeature.Feature) error
	Get(ctx context.Context, name string) (domfeature.Feature, error)
	List(ctx context.Context) ([]domfeature.Feature, error)
	Delete(ctx context.Context, name string) error
}

// CategoryRepository defines the storage contract for categories.
type CategoryRepository interface {
	Put(ctx context.Context, c domcategory.Category) error
	Get(ctx context.Context, name string) (domcategory.Category, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domcategory.Category, error)
	Delete(ctx context.Context, name string) error
}
