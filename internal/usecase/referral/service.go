// Package referral implements case-file management.
package referral

import (
	"context"
	"fmt"

	domreferral "github.com/sibyl-dev/sibyl/internal/domain/referral"
)

// Repository defines the storage contract for referrals.
type Repository interface {
	Put(ctx context.Context, r domreferral.Referral) error
	Get(ctx context.Context, id string) (domreferral.Referral, error)
	IDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Service handles referral lifecycle.
type Service struct {
	repo Repository
}

// New creates a referral service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one referral by id.
func (s *Service) Get(ctx context.Context, id string) (domreferral.Referral, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domreferral.Referral{}, fmt.Errorf("get referral: %w", err)
	}
	return r, nil
}

// IDs returns all referral ids.
func (s *Service) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return ids, nil
}

// Put creates or replaces a referral.
func (s *Service) Put(ctx context.Context, r domreferral.Referral) error {
	if err := s.repo.Put(ctx, r); err != nil {
		return fmt.Errorf("put referral: %w", err)
	}
	return nil
}

// Delete removes a referral.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete referral: %w", err)
	}
	return nil
}
