package entity

import (
	"fmt"
	"sort"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Entity holds the feature values and details for one model input.
// Multi-row entities (e.g. one observation per timestep) keep their row
// order in rowIDs; "first row" always means rowIDs[0], never map order.
type Entity struct {
	eid      string
	rowIDs   []string
	features map[string]map[string]domain.Value // row id → feature → value
	labels   map[string]domain.Value            // row id → ground truth
	property map[string]any
	events   []string // weak references to Event documents
}

// New validates and creates an Entity.
// When rowIDs is nil the row order is derived from the feature mapping's
// keys, sorted for determinism.
func New(
	eid string,
	rowIDs []string,
	features map[string]map[string]domain.Value,
	labels map[string]domain.Value,
	property map[string]any,
) (Entity, error) {
	if eid == "" {
		return Entity{}, fmt.Errorf("eid is required: %w", domain.ErrValidation)
	}
	if len(features) == 0 {
		return Entity{}, fmt.Errorf("entity %s: features are required: %w", eid, domain.ErrValidation)
	}

	if rowIDs == nil {
		rowIDs = make([]string, 0, len(features))
		for rowID := range features {
			rowIDs = append(rowIDs, rowID)
		}
		sort.Strings(rowIDs)
	}

	seen := make(map[string]bool, len(rowIDs))
	for _, rowID := range rowIDs {
		if seen[rowID] {
			return Entity{}, fmt.Errorf("entity %s: duplicate row id %q: %w", eid, rowID, domain.ErrValidation)
		}
		seen[rowID] = true
		if _, ok := features[rowID]; !ok {
			return Entity{}, fmt.Errorf("entity %s: row id %q has no features: %w", eid, rowID, domain.ErrValidation)
		}
	}
	for rowID := range labels {
		if !seen[rowID] {
			return Entity{}, fmt.Errorf("entity %s: label row id %q unknown: %w", eid, rowID, domain.ErrValidation)
		}
	}

	return Entity{
		eid:      eid,
		rowIDs:   rowIDs,
		features: features,
		labels:   labels,
		property: property,
	}, nil
}

// Reconstruct creates an Entity without validation (storage hydration).
func Reconstruct(
	eid string,
	rowIDs []string,
	features map[string]map[string]domain.Value,
	labels map[string]domain.Value,
	property map[string]any,
	events []string,
) Entity {
	return Entity{
		eid: eid, rowIDs: rowIDs, features: features,
		labels: labels, property: property, events: events,
	}
}

// EID returns the unique entity id.
func (e *Entity) EID() string { return e.eid }

// RowIDs returns the persisted row order.
func (e *Entity) RowIDs() []string { return e.rowIDs }

// FirstRowID returns the canonical first row.
func (e *Entity) FirstRowID() string {
	if len(e.rowIDs) == 0 {
		return ""
	}
	return e.rowIDs[0]
}

// Row returns the feature values of one row.
func (e *Entity) Row(rowID string) (map[string]domain.Value, bool) {
	row, ok := e.features[rowID]
	return row, ok
}

// Features returns the full row → feature → value mapping.
func (e *Entity) Features() map[string]map[string]domain.Value { return e.features }

// Labels returns the row → ground-truth mapping.
func (e *Entity) Labels() map[string]domain.Value { return e.labels }

// Label returns the ground-truth value of one row.
func (e *Entity) Label(rowID string) (domain.Value, bool) {
	v, ok := e.labels[rowID]
	return v, ok
}

// Property returns the free-form domain metadata.
func (e *Entity) Property() map[string]any { return e.property }

// Events returns the weakly referenced event ids.
func (e *Entity) Events() []string { return e.events }

// WithEvents returns a copy with the event reference list replaced.
func (e *Entity) WithEvents(events []string) Entity {
	c := *e
	c.events = events
	return c
}

// InGroup reports whether the entity's property marks it a member of the
// given group (property.group_ids).
func (e *Entity) InGroup(groupID string) bool {
	raw, ok := e.property["group_ids"]
	if !ok {
		return false
	}
	ids, ok := raw.([]any)
	if !ok {
		return false
	}
	for _, id := range ids {
		if s, ok := id.(string); ok && s == groupID {
			return true
		}
	}
	return false
}
