// Package appcontext implements UI configuration management.
package appcontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domctx "github.com/sibyl-dev/sibyl/internal/domain/appcontext"
)

// Repository defines the storage contract for contexts.
type Repository interface {
	Put(ctx context.Context, c domctx.Context) error
	Get(ctx context.Context, id string) (domctx.Context, error)
	List(ctx context.Context) ([]domctx.Context, error)
	Delete(ctx context.Context, id string) error
}

// Service handles context lifecycle.
type Service struct {
	repo Repository
}

// New creates a context service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one context by id.
func (s *Service) Get(ctx context.Context, id string) (domctx.Context, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domctx.Context{}, fmt.Errorf("get context: %w", err)
	}
	return c, nil
}

// List returns all contexts.
func (s *Service) List(ctx context.Context) ([]domctx.Context, error) {
	contexts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	return contexts, nil
}

// Put merges the given config into an existing context, or creates the
// context when absent. Updates are partial: config keys not present in
// the request keep their stored values.
func (s *Service) Put(ctx context.Context, id string, config map[string]any) (domctx.Context, error) {
	current, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		current = current.MergedWith(config)
	case errors.Is(err, domain.ErrContextNotFound):
		current, err = domctx.New(id, config)
		if err != nil {
			return domctx.Context{}, err
		}
	default:
		return domctx.Context{}, fmt.Errorf("get context: %w", err)
	}

	if err := s.repo.Put(ctx, current); err != nil {
		return domctx.Context{}, fmt.Errorf("put context: %w", err)
	}
	return current, nil
}
