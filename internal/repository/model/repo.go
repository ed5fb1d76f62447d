// Package model persists Model documents.
package model

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	dommodel "github.com/sibyl-dev/sibyl/internal/domain/model"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// modelDTO is the stored JSON form of a Model. Predictor and explainer
// blobs are themselves JSON envelopes, so they embed as raw messages and
// stay inspectable in the database.
type modelDTO struct {
	ModelID       string             `json:"model_id"`
	Description   string             `json:"description,omitempty"`
	Performance   string             `json:"performance,omitempty"`
	Importances   map[string]float64 `json:"importances,omitempty"`
	Predictor     json.RawMessage    `json:"predictor"`
	Explainer     json.RawMessage    `json:"explainer,omitempty"`
	TrainingSetID string             `json:"training_set_id,omitempty"`
}

// Repo implements the model repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[modelDTO]
}

// New creates a model repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[modelDTO]{
		Marshal: func(dto modelDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (modelDTO, error) {
			var dto modelDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "model", codec, domain.ErrModelNotFound)}
}

// Insert stores a new model, failing on a duplicate id.
func (r *Repo) Insert(ctx context.Context, m dommodel.Model) error {
	return r.col.Insert(ctx, m.ID(), toDTO(&m))
}

// Put stores a model, creating or replacing it.
func (r *Repo) Put(ctx context.Context, m dommodel.Model) error {
	return r.col.Put(ctx, m.ID(), toDTO(&m))
}

// Get returns a model by id.
func (r *Repo) Get(ctx context.Context, id string) (dommodel.Model, error) {
	dto, err := r.col.Get(ctx, id)
	if err != nil {
		return dommodel.Model{}, err
	}
	return fromDTO(dto), nil
}

// IDs returns all model ids, sorted.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	return r.col.IDs(ctx)
}

// List returns all models, ordered by id.
func (r *Repo) List(ctx context.Context) ([]dommodel.Model, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dommodel.Model, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes a model.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func toDTO(m *dommodel.Model) modelDTO {
	return modelDTO{
		ModelID:       m.ID(),
		Description:   m.Description(),
		Performance:   m.Performance(),
		Importances:   m.Importances(),
		Predictor:     json.RawMessage(m.Predictor()),
		Explainer:     json.RawMessage(m.Explainer()),
		TrainingSetID: m.TrainingSetID(),
	}
}

func fromDTO(dto modelDTO) dommodel.Model {
	return dommodel.Reconstruct(
		dto.ModelID, dto.Description, dto.Performance, dto.Importances,
		[]byte(dto.Predictor), []byte(dto.Explainer), dto.TrainingSetID,
	)
}
