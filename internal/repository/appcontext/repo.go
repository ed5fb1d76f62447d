// Package appcontext persists Context documents.
package appcontext

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domctx "github.com/sibyl-dev/sibyl/internal/domain/appcontext"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// contextDTO is the stored JSON form of a Context.
type contextDTO struct {
	ContextID string         `json:"context_id"`
	Config    map[string]any `json:"config,omitempty"`
}

// Repo implements the context repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[contextDTO]
}

// New creates a context repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[contextDTO]{
		Marshal: func(dto contextDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (contextDTO, error) {
			var dto contextDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "context", codec, domain.ErrContextNotFound)}
}

// Insert stores a new context, failing on a duplicate id.
func (r *Repo) Insert(ctx context.Context, c domctx.Context) error {
	return r.col.Insert(ctx, c.ID(), toDTO(c))
}

// Put stores a context, creating or replacing it.
func (r *Repo) Put(ctx context.Context, c domctx.Context) error {
	return r.col.Put(ctx, c.ID(), toDTO(c))
}

// Get returns a context by id.
func (r *Repo) Get(ctx context.Context, id string) (domctx.Context, error) {
	dto, err := r.col.Get(ctx, id)
	if err != nil {
		return domctx.Context{}, err
	}
	return fromDTO(dto), nil
}

// List returns all contexts, ordered by id.
func (r *Repo) List(ctx context.Context) ([]domctx.Context, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domctx.Context, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes a context.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func toDTO(c domctx.Context) contextDTO {
	return contextDTO{ContextID: c.ID(), Config: c.Config()}
}

func fromDTO(dto contextDTO) domctx.Context {
	return domctx.Reconstruct(dto.ContextID, dto.Config)
}
