// Package event persists Event documents.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// eventDTO is the stored JSON form of an Event.
type eventDTO struct {
	EventID  string         `json:"event_id"`
	Datetime time.Time      `json:"datetime"`
	Type     string         `json:"type"`
	Property map[string]any `json:"property,omitempty"`
}

// Repo implements the event repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[eventDTO]
}

// New creates an event repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[eventDTO]{
		Marshal: func(dto eventDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (eventDTO, error) {
			var dto eventDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "event", codec, domain.ErrEventNotFound)}
}

// Insert stores a new event, failing on a duplicate id.
func (r *Repo) Insert(ctx context.Context, e domevent.Event) error {
	return r.col.Insert(ctx, e.ID(), toDTO(e))
}

// Get returns an event by id.
func (r *Repo) Get(ctx context.Context, id string) (domevent.Event, error) {
	dto, err := r.col.Get(ctx, id)
	if err != nil {
		return domevent.Event{}, err
	}
	return fromDTO(dto), nil
}

// List returns all events, ordered by id.
func (r *Repo) List(ctx context.Context) ([]domevent.Event, error) {
	dtos, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domevent.Event, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromDTO(dto))
	}
	return out, nil
}

// Delete removes an event.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func toDTO(e domevent.Event) eventDTO {
	return eventDTO{EventID: e.ID(), Datetime: e.Datetime(), Type: e.Type(), Property: e.Property()}
}

func fromDTO(dto eventDTO) domevent.Event {
	return domevent.Reconstruct(dto.EventID, dto.Datetime, dto.Type, dto.Property)
}
