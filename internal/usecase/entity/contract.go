package entity

import (
	"context"

	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
)

// Repository defines the storage contract for entities.
type Repository interface {
	InsertMany(ctx context.Context, entities []domentity.Entity) error
	Put(ctx context.Context, e domentity.Entity) error
	Get(ctx context.Context, eid string) (domentity.Entity, error)
	List(ctx context.Context) ([]domentity.Entity, error)
	Delete(ctx context.Context, eid string) error
}

// TrainingSetRepository is consumed to pull deleted entities out of
// training set references.
type TrainingSetRepository interface {
	List(ctx context.Context) ([]domts.TrainingSet, error)
	Put(ctx context.Context, ts domts.TrainingSet) error
}

// EventReader resolves the event ids an entity references.
type EventReader interface {
	Get(ctx context.Context, id string) (domevent.Event, error)
}
