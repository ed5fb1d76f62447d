// Package group implements entity group management.
package group

import (
	"context"
	"fmt"

	domgroup "github.com/sibyl-dev/sibyl/internal/domain/group"
)

// Repository defines the storage contract for groups.
type Repository interface {
	Put(ctx context.Context, g domgroup.Group) error
	Get(ctx context.Context, id string) (domgroup.Group, error)
	List(ctx context.Context) ([]domgroup.Group, error)
	Delete(ctx context.Context, id string) error
}

// Service handles group lifecycle.
type Service struct {
	repo Repository
}

// New creates a group service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one group by id.
func (s *Service) Get(ctx context.Context, id string) (domgroup.Group, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return domgroup.Group{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// List returns all groups.
func (s *Service) List(ctx context.Context) ([]domgroup.Group, error) {
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Put creates or replaces a group.
func (s *Service) Put(ctx context.Context, g domgroup.Group) error {
	if err := s.repo.Put(ctx, g); err != nil {
		return fmt.Errorf("put group: %w", err)
	}
	return nil
}

// Delete removes a group.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
