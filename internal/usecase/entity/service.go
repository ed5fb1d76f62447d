// Package entity implements entity CRUD and the lookup layer that
// resolves eid/row_id selections into prediction-ready tables.
package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
)

// Service handles entity lifecycle and table resolution.
type Service struct {
	repo         Repository
	trainingSets TrainingSetRepository
	events       EventReader
}

// New creates an entity service.
func New(repo Repository, trainingSets TrainingSetRepository, events EventReader) *Service {
	return &Service{repo: repo, trainingSets: trainingSets, events: events}
}

// Get returns one entity by eid.
func (s *Service) Get(ctx context.Context, eid string) (domentity.Entity, error) {
	e, err := s.repo.Get(ctx, eid)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

// Put creates or replaces an entity.
func (s *Service) Put(ctx context.Context, e domentity.Entity) error {
	if err := s.repo.Put(ctx, e); err != nil {
		return fmt.Errorf("put entity: %w", err)
	}
	return nil
}

// Patch carries the entity fields supplied in an update request. A nil
// field means the request did not mention it.
type Patch struct {
	RowIDs   []string
	Features map[string]map[string]domain.Value
	Labels   map[string]domain.Value
	Property map[string]any
}

// Upsert merges the patch into an existing entity, or creates the entity
// when absent. Updates are partial: each field the request omits keeps
// its stored value, and event references always survive.
func (s *Service) Upsert(ctx context.Context, eid string, p Patch) (domentity.Entity, error) {
	current, err := s.repo.Get(ctx, eid)
	switch {
	case err == nil:
		if p.RowIDs == nil {
			p.RowIDs = current.RowIDs()
		}
		if p.Features == nil {
			p.Features = current.Features()
		}
		if p.Labels == nil {
			p.Labels = current.Labels()
		}
		if p.Property == nil {
			p.Property = current.Property()
		}
	case errors.Is(err, domain.ErrEntityNotFound):
		// Creation path, the patch must stand on its own.
	default:
		return domentity.Entity{}, fmt.Errorf("get entity: %w", err)
	}

	merged, err := domentity.New(eid, p.RowIDs, p.Features, p.Labels, p.Property)
	if err != nil {
		return domentity.Entity{}, err
	}
	merged = merged.WithEvents(current.Events())

	if err := s.repo.Put(ctx, merged); err != nil {
		return domentity.Entity{}, fmt.Errorf("put entity: %w", err)
	}
	return merged, nil
}

// BulkInsert stores a batch of new entities, rejecting the whole batch
// when any eid already exists.
func (s *Service) BulkInsert(ctx context.Context, entities []domentity.Entity) error {
	if err := s.repo.InsertMany(ctx, entities); err != nil {
		return fmt.Errorf("insert entities: %w", err)
	}
	return nil
}

// List returns entities, filtered to one group when groupID is non-empty.
func (s *Service) List(ctx context.Context, groupID string) ([]domentity.Entity, error) {
	entities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	if groupID == "" {
		return entities, nil
	}
	filtered := make([]domentity.Entity, 0, len(entities))
	for i := range entities {
		if entities[i].InGroup(groupID) {
			filtered = append(filtered, entities[i])
		}
	}
	return filtered, nil
}

// Delete removes an entity and pulls its eid out of every training set
// that references it. Training sets themselves survive.
func (s *Service) Delete(ctx context.Context, eid string) error {
	if err := s.repo.Delete(ctx, eid); err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}

	sets, err := s.trainingSets.List(ctx)
	if err != nil {
		return fmt.Errorf("list training sets: %w", err)
	}
	for _, ts := range sets {
		kept := make([]string, 0, len(ts.EntityIDs()))
		pulled := false
		for _, id := range ts.EntityIDs() {
			if id == eid {
				pulled = true
				continue
			}
			kept = append(kept, id)
		}
		if !pulled {
			continue
		}
		if err := s.trainingSets.Put(ctx, ts.WithEntityIDs(kept)); err != nil {
			return fmt.Errorf("update training set %s: %w", ts.ID(), err)
		}
	}
	return nil
}

// Events resolves the events an entity references. Dangling references
// are skipped, they only mean the event was deleted independently.
func (s *Service) Events(ctx context.Context, eid string) ([]domevent.Event, error) {
	e, err := s.repo.Get(ctx, eid)
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}

	events := make([]domevent.Event, 0, len(e.Events()))
	for _, id := range e.Events() {
		ev, err := s.events.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrEventNotFound) {
				continue
			}
			return nil, fmt.Errorf("get event %s: %w", id, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// EntityTable resolves one entity row. An empty rowID selects the
// persisted first row.
func (s *Service) EntityTable(ctx context.Context, eid, rowID string) (table.Row, error) {
	e, err := s.repo.Get(ctx, eid)
	if err != nil {
		return table.Row{}, fmt.Errorf("get entity: %w", err)
	}
	return rowOf(&e, rowID)
}

// EntitiesTable resolves a batch selection into a table. At most one of
// eids and rowIDs may carry more than one element: fan out over entities
// or over rows within one entity, never both. allRows selects every row
// of the first eid, keyed by row id.
func (s *Service) EntitiesTable(ctx context.Context, eids, rowIDs []string, allRows bool) (*table.Table, error) {
	if len(eids) == 0 {
		return nil, fmt.Errorf("at least one eid is required: %w", domain.ErrValidation)
	}
	if len(eids) > 1 && len(rowIDs) > 1 {
		return nil, fmt.Errorf(
			"cannot select multiple eids and multiple row_ids at once: %w", domain.ErrAmbiguousSelection,
		)
	}

	if allRows || len(rowIDs) > 1 {
		return s.entityRowsTable(ctx, eids[0], rowIDs, allRows)
	}

	rowID := ""
	if len(rowIDs) == 1 {
		rowID = rowIDs[0]
	}

	t := table.New(len(eids))
	for _, eid := range eids {
		e, err := s.repo.Get(ctx, eid)
		if err != nil {
			return nil, fmt.Errorf("get entity: %w", err)
		}
		row, err := rowOf(&e, rowID)
		if err != nil {
			return nil, err
		}
		t.Append(table.NewRow(eid, row.Cells()))
	}
	return t, nil
}

// entityRowsTable fans out within one entity, keyed by row id.
func (s *Service) entityRowsTable(ctx context.Context, eid string, rowIDs []string, allRows bool) (*table.Table, error) {
	e, err := s.repo.Get(ctx, eid)
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}

	selected := rowIDs
	if allRows {
		selected = e.RowIDs()
	}

	t := table.New(len(selected))
	for _, rowID := range selected {
		cells, ok := e.Row(rowID)
		if !ok {
			return nil, fmt.Errorf("row_id %s does not exist for entity %s: %w", rowID, eid, domain.ErrRowNotFound)
		}
		t.Append(table.NewRow(rowID, cells))
	}
	return t, nil
}

func rowOf(e *domentity.Entity, rowID string) (table.Row, error) {
	if rowID == "" {
		rowID = e.FirstRowID()
	}
	cells, ok := e.Row(rowID)
	if !ok {
		return table.Row{}, fmt.Errorf(
			"row_id %s does not exist for entity %s: %w", rowID, e.EID(), domain.ErrRowNotFound,
		)
	}
	return table.NewRow(e.EID(), cells), nil
}
