// Package trainingset persists TrainingSet documents.
package trainingset

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// trainingSetDTO is the stored JSON form of a TrainingSet. The neighbors
// blob is opaque binary and rides along base64-encoded.
type trainingSetDTO struct {
	ID        string   `json:"id"`
	EntityIDs []string `json:"entity_ids"`
	Neighbors []byte   `json:"neighbors,omitempty"`
}

// Repo implements the training set repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[trainingSetDTO]
}

// New creates a training set repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[trainingSetDTO]{
		Marshal: func(dto trainingSetDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (trainingSetDTO, error) {
			var dto trainingSetDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "training_set", codec, domain.ErrTrainingSetNotFound)}
}

// Insert stores a new training set, failing on a duplicate id.
func (r *Repo) Insert(ctx context.Context, ts domts.TrainingSet) error {
	return r.col.Insert(ctx, ts.ID(), toDTO(ts))
}

// Put stores a training set, creating or replacing it.
func (r *Repo) Put(ctx context.Context, ts domts.TrainingSet) error {
	return r.col.Put(ctx, ts.ID(), toDTO(ts))
}

// Get returns a training set by id.
func (r *Repo) Get(ctx context.Context, id string) (domts.TrainingSet, error) {
	dto, err := r.col.Get(ctx, id)
	if err != nil {
		return domts.TrainingSet{}, err
	}
	return fromDTO(dto), nil
}

// List returns all training sets, ordered by id.
func (r *Repo) List(ctx context.Context) ([]domts.TrainingSet, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domts.TrainingSet, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes a training set.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func toDTO(ts domts.TrainingSet) trainingSetDTO {
	return trainingSetDTO{ID: ts.ID(), EntityIDs: ts.EntityIDs(), Neighbors: ts.Neighbors()}
}

func fromDTO(dto trainingSetDTO) domts.TrainingSet {
	return domts.Reconstruct(dto.ID, dto.EntityIDs, dto.Neighbors)
}
