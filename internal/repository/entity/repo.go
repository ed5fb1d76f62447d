// Package entity persists Entity documents.
package entity

import (
	"context"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// Repo implements the entity repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[entityDTO]
}

// New creates an entity repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[entityDTO]{Marshal: marshalEntity, Unmarshal: unmarshalEntity}
	return &Repo{col: docstore.New(s, prefix, "entity", codec, domain.ErrEntityNotFound)}
}

// Insert stores a new entity, failing on a duplicate eid.
func (r *Repo) Insert(ctx context.Context, e domentity.Entity) error {
	return r.col.Insert(ctx, e.EID(), toDTO(e))
}

// InsertMany stores a batch of new entities. A duplicate eid anywhere
// rejects the whole batch before anything is written.
func (r *Repo) InsertMany(ctx context.Context, entities []domentity.Entity) error {
	ids := make([]string, len(entities))
	dtos := make([]entityDTO, len(entities))
	for i := range entities {
		ids[i] = entities[i].EID()
		dtos[i] = toDTO(entities[i])
	}
	return r.col.InsertMany(ctx, ids, dtos)
}

// Put stores an entity, creating or replacing it.
func (r *Repo) Put(ctx context.Context, e domentity.Entity) error {
	return r.col.Put(ctx, e.EID(), toDTO(e))
}

// Get returns an entity by eid.
func (r *Repo) Get(ctx context.Context, eid string) (domentity.Entity, error) {
	dto, err := r.col.Get(ctx, eid)
	if err != nil {
		return domentity.Entity{}, err
	}
	return fromDTO(dto), nil
}

// Exists reports whether an entity is present.
func (r *Repo) Exists(ctx context.Context, eid string) (bool, error) {
	return r.col.Exists(ctx, eid)
}

// IDs returns all entity ids, sorted.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	return r.col.IDs(ctx)
}

// List returns all entities, ordered by eid.
func (r *Repo) List(ctx context.Context) ([]domentity.Entity, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domentity.Entity, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes an entity.
func (r *Repo) Delete(ctx context.Context, eid string) error {
	return r.col.Delete(ctx, eid)
}
