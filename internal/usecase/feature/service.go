// Package feature implements feature and category management. The two
// travel together: features reference categories by name, and writing a
// feature with an unknown category creates that category on the fly.
package feature

import (
	"context"
	"fmt"

	domcategory "github.com/sibyl-dev/sibyl/internal/domain/category"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
)

// Service handles feature and category lifecycle.
type Service struct {
	features   Repository
	categories CategoryRepository
}

// New creates a feature service.
func New(features Repository, categories CategoryRepository) *Service {
	return &Service{features: features, categories: categories}
}

// Get returns one feature by name.
func (s *Service) Get(ctx context.Context, name string) (domfeature.Feature, error) {
	f, err := s.features.Get(ctx, name)
	if err != nil {
		return domfeature.Feature{}, fmt.Errorf("get feature: %w", err)
	}
	return f, nil
}

// List returns all features.
func (s *Service) List(ctx context.Context) ([]domfeature.Feature, error) {
	features, err := s.features.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	return features, nil
}

// Put creates or replaces a feature. An unknown category reference is
// registered as a bare category rather than rejected.
func (s *Service) Put(ctx context.Context, f domfeature.Feature) error {
	if f.Category() != "" {
		if err := s.ensureCategory(ctx, f.Category()); err != nil {
			return err
		}
	}
	if err := s.features.Put(ctx, f); err != nil {
		return fmt.Errorf("put feature: %w", err)
	}
	return nil
}

// BulkPut upserts a batch of features.
func (s *Service) BulkPut(ctx context.Context, features []domfeature.Feature) error {
	for i := range features {
		if err := s.Put(ctx, features[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a feature.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.features.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete feature: %w", err)
	}
	return nil
}

// Categories returns all categories.
func (s *Service) Categories(ctx context.Context) ([]domcategory.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// PutCategories upserts a batch of categories.
func (s *Service) PutCategories(ctx context.Context, categories []domcategory.Category) error {
	for _, c := range categories {
		if err := s.categories.Put(ctx, c); err != nil {
			return fmt.Errorf("put category %s: %w", c.Name(), err)
		}
	}
	return nil
}

// DeleteCategory removes a category and clears the reference on every
// feature that pointed at it. Features survive with a null category.
func (s *Service) DeleteCategory(ctx context.Context, name string) error {
	if err := s.categories.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	features, err := s.features.List(ctx)
	if err != nil {
		return fmt.Errorf("list features: %w", err)
	}
	for _, f := range features {
		if f.Category() != name {
			continue
		}
		if err := s.features.Put(ctx, f.WithoutCategory()); err != nil {
			return fmt.Errorf("clear category on feature %s: %w", f.Name(), err)
		}
	}
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, name string) error {
	exists, err := s.categories.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check category %s: %w", name, err)
	}
	if exists {
		return nil
	}
	c, err := domcategory.New(name, "", "")
	if err != nil {
		return fmt.Errorf("new category %s: %w", name, err)
	}
	if err := s.categories.Put(ctx, c); err != nil {
		return fmt.Errorf("put category %s: %w", name, err)
	}
	return nil
}
