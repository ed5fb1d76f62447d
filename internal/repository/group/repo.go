// Package group persists EntityGroup documents.
package group

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domgroup "github.com/sibyl-dev/sibyl/internal/domain/group"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// groupDTO is the stored JSON form of a Group.
type groupDTO struct {
	GroupID  string         `json:"group_id"`
	Property map[string]any `json:"property,omitempty"`
}

// Repo implements the group repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[groupDTO]
}

// New creates a group repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[groupDTO]{
		Marshal: func(dto groupDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (groupDTO, error) {
			var dto groupDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "group", codec, domain.ErrGroupNotFound)}
}

// Insert stores a new group, failing on a duplicate id.
func (r *Repo) Insert(ctx context.Context, g domgroup.Group) error {
	return r.col.Insert(ctx, g.ID(), toDTO(g))
}

// Put stores a group, creating or replacing it.
func (r *Repo) Put(ctx context.Context, g domgroup.Group) error {
	return r.col.Put(ctx, g.ID(), toDTO(g))
}

// Get returns a group by id.
func (r *Repo) Get(ctx context.Context, id string) (domgroup.Group, error) {
	dto, err := r.col.Get(ctx, id)
	if err != nil {
		return domgroup.Group{}, err
	}
	return fromDTO(dto), nil
}

// List returns all groups, ordered by id.
func (r *Repo) List(ctx context.Context) ([]domgroup.Group, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domgroup.Group, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes a group.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func toDTO(g domgroup.Group) groupDTO {
	return groupDTO{GroupID: g.ID(), Property: g.Property()}
}

func fromDTO(dto groupDTO) domgroup.Group {
	return domgroup.Reconstruct(dto.GroupID, dto.Property)
}
