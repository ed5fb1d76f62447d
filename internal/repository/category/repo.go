// Package category persists Category documents.
package category

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domcategory "github.com/sibyl-dev/sibyl/internal/domain/category"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// categoryDTO is the stored JSON form of a Category.
type categoryDTO struct {
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// Repo implements the category repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[categoryDTO]
}

// New creates a category repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[categoryDTO]{
		Marshal: func(dto categoryDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (categoryDTO, error) {
			var dto categoryDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "category", codec, domain.ErrCategoryNotFound)}
}

// Insert stores a new category, failing on a duplicate name.
func (r *Repo) Insert(ctx context.Context, c domcategory.Category) error {
	return r.col.Insert(ctx, c.Name(), toDTO(c))
}

// Put stores a category, creating or replacing it.
func (r *Repo) Put(ctx context.Context, c domcategory.Category) error {
	return r.col.Put(ctx, c.Name(), toDTO(c))
}

// Get returns a category by name.
func (r *Repo) Get(ctx context.Context, name string) (domcategory.Category, error) {
	dto, err := r.col.Get(ctx, name)
	if err != nil {
		return domcategory.Category{}, err
	}
	return fromDTO(dto), nil
}

// Exists reports whether a category is present.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	return r.col.Exists(ctx, name)
}

// List returns all categories, ordered by name.
func (r *Repo) List(ctx context.Context) ([]domcategory.Category, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domcategory.Category, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes a category.
func (r *Repo) Delete(ctx context.Context, name string) error {
	return r.col.Delete(ctx, name)
}

func toDTO(c domcategory.Category) categoryDTO {
	return categoryDTO{Name: c.Name(), Color: c.Color(), Abbreviation: c.Abbreviation()}
}

func fromDTO(dto categoryDTO) domcategory.Category {
	return domcategory.Reconstruct(dto.Name, dto.Color, dto.Abbreviation)
}
