package model

import (
	"context"

	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	dommodel "github.com/sibyl-dev/sibyl/internal/domain/model"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
)

// Repository defines the storage contract for models.
type Repository interface {
	Put(ctx context.Context, m dommodel.Model) error
	Get(ctx context.Context, id string) (dommodel.Model, error)
	List(ctx context.Context) ([]dommodel.Model, error)
	Delete(ctx context.Context, id string) error
}

// TrainingSetRepository defines the storage contract for training sets.
type TrainingSetRepository interface {
	Put(ctx context.Context, ts domts.TrainingSet) error
	Get(ctx context.Context, id string) (domts.TrainingSet, error)
	Delete(ctx context.Context, id string) error
}

// EntityReader resolves training set members.
type EntityReader interface {
	Get(ctx context.Context, eid string) (domentity.Entity, error)
}
