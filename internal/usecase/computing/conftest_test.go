package computing

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
	dommodel "github.com/sibyl-dev/sibyl/internal/domain/model"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
	"github.com/sibyl-dev/sibyl/internal/explain"
	entityuc "github.com/sibyl-dev/sibyl/internal/usecase/entity"
	modeluc "github.com/sibyl-dev/sibyl/internal/usecase/model"
)

// The computing tests run against real entity/model services backed by
// map repositories, so the whole pipeline is exercised.

type mapEntityRepo struct {
	entities map[string]domentity.Entity
}

func (m *mapEntityRepo) InsertMany(_ context.Context, entities []domentity.Entity) error {
	for i := range entities {
		m.entities[entities[i].EID()] = entities[i]
	}
	return nil
}

func (m *mapEntityRepo) Put(_ context.Context, e domentity.Entity) error {
	m.entities[e.EID()] = e
	return nil
}

func (m *mapEntityRepo) Get(_ context.Context, eid string) (domentity.Entity, error) {
	e, ok := m.entities[eid]
	if !ok {
		return domentity.Entity{}, fmt.Errorf("entity %q: %w", eid, domain.ErrEntityNotFound)
	}
	return e, nil
}

func (m *mapEntityRepo) List(_ context.Context) ([]domentity.Entity, error) {
	out := make([]domentity.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out, nil
}

func (m *mapEntityRepo) Delete(_ context.Context, eid string) error {
	delete(m.entities, eid)
	return nil
}

type mapTrainingSetRepo struct {
	sets map[string]domts.TrainingSet
}

func (m *mapTrainingSetRepo) Put(_ context.Context, ts domts.TrainingSet) error {
	m.sets[ts.ID()] = ts
	return nil
}

func (m *mapTrainingSetRepo) Get(_ context.Context, id string) (domts.TrainingSet, error) {
	ts, ok := m.sets[id]
	if !ok {
		return domts.TrainingSet{}, fmt.Errorf("training set %q: %w", id, domain.ErrTrainingSetNotFound)
	}
	return ts, nil
}

func (m *mapTrainingSetRepo) List(_ context.Context) ([]domts.TrainingSet, error) {
	out := make([]domts.TrainingSet, 0, len(m.sets))
	for _, ts := range m.sets {
		out = append(out, ts)
	}
	return out, nil
}

func (m *mapTrainingSetRepo) Delete(_ context.Context, id string) error {
	delete(m.sets, id)
	return nil
}

type mapModelRepo struct {
	models map[string]dommodel.Model
}

func (m *mapModelRepo) Put(_ context.Context, doc dommodel.Model) error {
	m.models[doc.ID()] = doc
	return nil
}

func (m *mapModelRepo) Get(_ context.Context, id string) (dommodel.Model, error) {
	doc, ok := m.models[id]
	if !ok {
		return dommodel.Model{}, fmt.Errorf("model %q: %w", id, domain.ErrModelNotFound)
	}
	return doc, nil
}

func (m *mapModelRepo) List(_ context.Context) ([]dommodel.Model, error) {
	out := make([]dommodel.Model, 0, len(m.models))
	for _, doc := range m.models {
		out = append(out, doc)
	}
	return out, nil
}

func (m *mapModelRepo) Delete(_ context.Context, id string) error {
	delete(m.models, id)
	return nil
}

type mapFeatureRepo struct {
	features map[string]domfeature.Feature
}

func (m *mapFeatureRepo) Get(_ context.Context, name string) (domfeature.Feature, error) {
	f, ok := m.features[name]
	if !ok {
		return domfeature.Feature{}, fmt.Errorf("feature %q: %w", name, domain.ErrFeatureNotFound)
	}
	return f, nil
}

func (m *mapFeatureRepo) List(_ context.Context) ([]domfeature.Feature, error) {
	names := make([]string, 0, len(m.features))
	for name := range m.features {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domfeature.Feature, 0, len(names))
	for _, name := range names {
		out = append(out, m.features[name])
	}
	return out, nil
}

type nullEventReader struct{}

func (nullEventReader) Get(_ context.Context, id string) (domevent.Event, error) {
	return domevent.Event{}, fmt.Errorf("event %q: %w", id, domain.ErrEventNotFound)
}

// fixture wires the full pipeline with map-backed storage.
type fixture struct {
	svc      *Service
	entities *mapEntityRepo
	models   *mapModelRepo
	sets     *mapTrainingSetRepo
	features *mapFeatureRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	er := &mapEntityRepo{entities: map[string]domentity.Entity{}}
	tr := &mapTrainingSetRepo{sets: map[string]domts.TrainingSet{}}
	mr := &mapModelRepo{models: map[string]dommodel.Model{}}
	fr := &mapFeatureRepo{features: map[string]domfeature.Feature{}}

	entitySvc := entityuc.New(er, tr, nullEventReader{})
	modelSvc := modeluc.New(mr, tr, er, 0)

	return &fixture{
		svc:      New(entitySvc, modelSvc, fr),
		entities: er,
		models:   mr,
		sets:     tr,
		features: fr,
	}
}

// addEntity registers a single-row entity {A, B} with an optional label.
func (f *fixture) addEntity(t *testing.T, eid string, a, b float64, label *float64) {
	t.Helper()
	var labels map[string]domain.Value
	if label != nil {
		labels = map[string]domain.Value{"r1": domain.Num(*label)}
	}
	e, err := domentity.New(
		eid, nil,
		map[string]map[string]domain.Value{
			"r1": {"A": domain.Num(a), "B": domain.Num(b)},
		},
		labels, nil,
	)
	if err != nil {
		t.Fatalf("new entity %s: %v", eid, err)
	}
	f.entities.entities[eid] = e
}

// addDiffModel registers model "m1" computing A - B, optionally with a
// matching linear explainer and training set "ts1".
func (f *fixture) addDiffModel(t *testing.T, withExplainer bool, trainingSetID string) {
	t.Helper()
	params := explain.LinearParams{
		Coefficients: map[string]float64{"A": 1, "B": -1},
		Baselines:    map[string]float64{"A": 8, "B": 5},
	}
	predictor, err := explain.Encode(explain.KindLinear, params)
	if err != nil {
		t.Fatalf("encode predictor: %v", err)
	}
	var explainerBlob []byte
	if withExplainer {
		explainerBlob, err = explain.Encode(explain.KindLinear, params)
		if err != nil {
			t.Fatalf("encode explainer: %v", err)
		}
	}
	m, err := dommodel.New("m1", "", "", nil, predictor, explainerBlob, trainingSetID)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	f.models.models["m1"] = m
}

func (f *fixture) addFeature(t *testing.T, name string, ftype domfeature.Type) {
	t.Helper()
	feat, err := domfeature.New(name, "", "", "", ftype, nil)
	if err != nil {
		t.Fatalf("new feature %s: %v", name, err)
	}
	f.features.features[name] = feat
}

func ptr(v float64) *float64 { return &v }
