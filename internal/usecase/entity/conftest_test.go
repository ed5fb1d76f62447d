package entity

import (
	"context"
	"fmt"
	"testing"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
)

// mockEntityRepo implements Repository backed by a map.
type mockEntityRepo struct {
	entities map[string]domentity.Entity
	putErr   error
}

func newMockEntityRepo(entities ...domentity.Entity) *mockEntityRepo {
	m := &mockEntityRepo{entities: map[string]domentity.Entity{}}
	for _, e := range entities {
		m.entities[e.EID()] = e
	}
	return m
}

func (m *mockEntityRepo) InsertMany(_ context.Context, entities []domentity.Entity) error {
	for i := range entities {
		if _, ok := m.entities[entities[i].EID()]; ok {
			return fmt.Errorf("entity %q: %w", entities[i].EID(), domain.ErrDuplicateKey)
		}
	}
	for i := range entities {
		m.entities[entities[i].EID()] = entities[i]
	}
	return nil
}

func (m *mockEntityRepo) Put(_ context.Context, e domentity.Entity) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.entities[e.EID()] = e
	return nil
}

func (m *mockEntityRepo) Get(_ context.Context, eid string) (domentity.Entity, error) {
	e, ok := m.entities[eid]
	if !ok {
		return domentity.Entity{}, fmt.Errorf("entity %q: %w", eid, domain.ErrEntityNotFound)
	}
	return e, nil
}

func (m *mockEntityRepo) List(_ context.Context) ([]domentity.Entity, error) {
	out := make([]domentity.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEntityRepo) Delete(_ context.Context, eid string) error {
	if _, ok := m.entities[eid]; !ok {
		return fmt.Errorf("entity %q: %w", eid, domain.ErrEntityNotFound)
	}
	delete(m.entities, eid)
	return nil
}

// mockTrainingSetRepo implements TrainingSetRepository backed by a map.
type mockTrainingSetRepo struct {
	sets map[string]domts.TrainingSet
}

func newMockTrainingSetRepo(sets ...domts.TrainingSet) *mockTrainingSetRepo {
	m := &mockTrainingSetRepo{sets: map[string]domts.TrainingSet{}}
	for _, ts := range sets {
		m.sets[ts.ID()] = ts
	}
	return m
}

func (m *mockTrainingSetRepo) List(_ context.Context) ([]domts.TrainingSet, error) {
	out := make([]domts.TrainingSet, 0, len(m.sets))
	for _, ts := range m.sets {
		out = append(out, ts)
	}
	return out, nil
}

func (m *mockTrainingSetRepo) Put(_ context.Context, ts domts.TrainingSet) error {
	m.sets[ts.ID()] = ts
	return nil
}

// mockEventReader implements EventReader backed by a map.
type mockEventReader struct {
	events map[string]domevent.Event
}

func (m *mockEventReader) Get(_ context.Context, id string) (domevent.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return domevent.Event{}, fmt.Errorf("event %q: %w", id, domain.ErrEventNotFound)
	}
	return ev, nil
}

func newTestService(t *testing.T, entities ...domentity.Entity) (*Service, *mockEntityRepo, *mockTrainingSetRepo) {
	t.Helper()
	repo := newMockEntityRepo(entities...)
	tsRepo := newMockTrainingSetRepo()
	return New(repo, tsRepo, &mockEventReader{events: map[string]domevent.Event{}}), repo, tsRepo
}

func singleRowEntity(t *testing.T, eid string, a, b float64) domentity.Entity {
	t.Helper()
	e, err := domentity.New(
		eid, nil,
		map[string]map[string]domain.Value{
			"r1": {"A": domain.Num(a), "B": domain.Num(b)},
		},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("new entity: %v", err)
	}
	return e
}

func domainEntityInGroup(t *testing.T, eid, groupID string) (domentity.Entity, error) {
	t.Helper()
	return domentity.New(
		eid, nil,
		map[string]map[string]domain.Value{
			"r1": {"A": domain.Num(1)},
		},
		nil,
		map[string]any{"group_ids": []any{groupID}},
	)
}

func multiRowEntity(t *testing.T, eid string) domentity.Entity {
	t.Helper()
	e, err := domentity.New(
		eid,
		[]string{"r2", "r1"},
		map[string]map[string]domain.Value{
			"r1": {"A": domain.Num(1)},
			"r2": {"A": domain.Num(2)},
		},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("new entity: %v", err)
	}
	return e
}
