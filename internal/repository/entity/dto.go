package entity

import (
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
)

// entityDTO is the stored JSON form of an Entity.
type entityDTO struct {
	EID      string                             `json:"eid"`
	RowIDs   []string                           `json:"row_ids"`
	Features map[string]map[string]domain.Value `json:"features"`
	Labels   map[string]domain.Value            `json:"labels,omitempty"`
	Property map[string]any                     `json:"property,omitempty"`
	Events   []string                           `json:"events,omitempty"`
}

func toDTO(e domentity.Entity) entityDTO {
	return entityDTO{
		EID:      e.EID(),
		RowIDs:   e.RowIDs(),
		Features: e.Features(),
		Labels:   e.Labels(),
		Property: e.Property(),
		Events:   e.Events(),
	}
}

func fromDTO(dto entityDTO) domentity.Entity {
	return domentity.Reconstruct(dto.EID, dto.RowIDs, dto.Features, dto.Labels, dto.Property, dto.Events)
}

func marshalEntity(dto entityDTO) ([]byte, error) { return json.Marshal(dto) }

func unmarshalEntity(raw []byte) (entityDTO, error) {
	var dto entityDTO
	err := json.Unmarshal(raw, &dto)
	return dto, err
}
