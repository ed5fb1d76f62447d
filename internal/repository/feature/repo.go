// Package feature persists Feature documents.
package feature

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// featureDTO is the stored JSON form of a Feature.
type featureDTO struct {
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	NegatedDescription string             `json:"negated_description,omitempty"`
	Category           string             `json:"category,omitempty"`
	Type               domfeature.Type    `json:"type"`
	Values             []string           `json:"values,omitempty"`
}

// Repo implements the feature repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[featureDTO]
}

// New creates a feature repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[featureDTO]{
		Marshal: func(dto featureDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (featureDTO, error) {
			var dto featureDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "feature", codec, domain.ErrFeatureNotFound)}
}

// Insert stores a new feature, failing on a duplicate name.
func (r *Repo) Insert(ctx context.Context, f domfeature.Feature) error {
	return r.col.Insert(ctx, f.Name(), toDTO(f))
}

// Put stores a feature, creating or replacing it.
func (r *Repo) Put(ctx context.Context, f domfeature.Feature) error {
	return r.col.Put(ctx, f.Name(), toDTO(f))
}

// Get returns a feature by name.
func (r *Repo) Get(ctx context.Context, name string) (domfeature.Feature, error) {
	dto, err := r.col.Get(ctx, name)
	if err != nil {
		return domfeature.Feature{}, err
	}
	return fromDTO(dto), nil
}

// List returns all features, ordered by name.
func (r *Repo) List(ctx context.Context) ([]domfeature.Feature, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domfeature.Feature, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes a feature.
func (r *Repo) Delete(ctx context.Context, name string) error {
	return r.col.Delete(ctx, name)
}

func toDTO(f domfeature.Feature) featureDTO {
	return featureDTO{
		Name:               f.Name(),
		Description:        f.Description(),
		NegatedDescription: f.NegatedDescription(),
		Category:           f.Category(),
		Type:               f.FeatureType(),
		Values:             f.Values(),
	}
}

func fromDTO(dto featureDTO) domfeature.Feature {
	return domfeature.Reconstruct(
		dto.Name, dto.Description, dto.NegatedDescription, dto.Category, dto.Type, dto.Values,
	)
}
