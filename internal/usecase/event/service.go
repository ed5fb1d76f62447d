// Package event implements event lifecycle. Events live independently of
// entities, which reference them weakly by id.
package event

import (
	"context"
	"fmt"
	"slices"

	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
)

// Repository defines the storage contract for events.
type Repository interface {
	Insert(ctx context.Context, e domevent.Event) error
	Get(ctx context.Context, id string) (domevent.Event, error)
	Delete(ctx context.Context, id string) error
}

// EntityRepository is consumed to maintain entity → event references.
type EntityRepository interface {
	Get(ctx context.Context, eid string) (domentity.Entity, error)
	Put(ctx context.Context, e domentity.Entity) error
	List(ctx context.Context) ([]domentity.Entity, error)
}

// Service handles event lifecycle.
type Service struct {
	repo     Repository
	entities EntityRepository
}

// New creates an event service.
func New(repo Repository, entities EntityRepository) *Service {
	return &Service{repo: repo, entities: entities}
}

// Add stores an event and attaches it to the given entity.
func (s *Service) Add(ctx context.Context, eid string, ev domevent.Event) error {
	e, err := s.entities.Get(ctx, eid)
	if err != nil {
		return fmt.Errorf("get entity: %w", err)
	}
	if err := s.repo.Insert(ctx, ev); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err := s.entities.Put(ctx, e.WithEvents(append(e.Events(), ev.ID()))); err != nil {
		return fmt.Errorf("attach event to entity %s: %w", eid, err)
	}
	return nil
}

// Delete removes an event and pulls its id out of every entity that
// references it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	entities, err := s.entities.List(ctx)
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}
	for i := range entities {
		e := entities[i]
		if !slices.Contains(e.Events(), id) {
			continue
		}
		kept := make([]string, 0, len(e.Events())-1)
		for _, ref := range e.Events() {
			if ref != id {
				kept = append(kept, ref)
			}
		}
		if err := s.entities.Put(ctx, e.WithEvents(kept)); err != nil {
			return fmt.Errorf("detach event from entity %s: %w", e.EID(), err)
		}
	}
	return nil
}
