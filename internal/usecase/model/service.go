// Package model implements the serialized-object vault: model metadata
// CRUD plus the load path that turns stored predictor/explainer blobs
// into live capabilities, with a read-through cache keyed by model id.
package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	dommodel "github.com/sibyl-dev/sibyl/internal/domain/model"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
	"github.com/sibyl-dev/sibyl/internal/explain"
	"github.com/sibyl-dev/sibyl/internal/metrics"
)

// cacheEntry holds decoded capabilities for one model.
type cacheEntry struct {
	predictor explain.Predictor
	explainer explain.Explainer
	expires   time.Time
}

// Service handles model lifecycle and capability loading.
type Service struct {
	repo         Repository
	trainingSets TrainingSetRepository
	entities     EntityReader

	cacheTTL time.Duration
	mu       sync.Mutex
	cache    map[string]*cacheEntry
}

// New creates a model service. A non-positive ttl disables caching.
func New(repo Repository, trainingSets TrainingSetRepository, entities EntityReader, ttl time.Duration) *Service {
	return &Service{
		repo:         repo,
		trainingSets: trainingSets,
		entities:     entities,
		cacheTTL:     ttl,
		cache:        map[string]*cacheEntry{},
	}
}

// Get returns one model by id.
func (s *Service) Get(ctx context.Context, id string) (dommodel.Model, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("get model: %w", err)
	}
	return m, nil
}

// List returns all models.
func (s *Service) List(ctx context.Context) ([]dommodel.Model, error) {
	models, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// Put creates or replaces a model and drops any cached capabilities for
// it, so the next load decodes the new blobs.
func (s *Service) Put(ctx context.Context, m dommodel.Model) error {
	if m.TrainingSetID() != "" {
		if _, err := s.trainingSets.Get(ctx, m.TrainingSetID()); err != nil {
			return fmt.Errorf("resolve training set: %w", err)
		}
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return fmt.Errorf("put model: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, m.ID())
	s.mu.Unlock()
	return nil
}

// Importance returns the stored feature importances of a model.
func (s *Service) Importance(ctx context.Context, id string) (map[string]float64, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model: %w", err)
	}
	return m.Importances(), nil
}

// LoadPredictor returns the decoded predictor of a model.
func (s *Service) LoadPredictor(ctx context.Context, id string) (explain.Predictor, error) {
	if entry, ok := s.cached(id); ok && entry.predictor != nil {
		metrics.ModelCacheTotal.WithLabelValues("hit").Inc()
		return entry.predictor, nil
	}
	metrics.ModelCacheTotal.WithLabelValues("miss").Inc()

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model: %w", err)
	}
	p, err := explain.DecodePredictor(m.Predictor())
	if err != nil {
		metrics.ModelDecodeErrorsTotal.WithLabelValues("predictor").Inc()
		return nil, fmt.Errorf("model %s: %w", id, err)
	}
	s.storeCached(id, func(e *cacheEntry) { e.predictor = p })
	return p, nil
}

// LoadExplainer returns the decoded explainer of a model. Models without
// a trained explainer fail with ErrMissingComponent.
func (s *Service) LoadExplainer(ctx context.Context, id string) (explain.Explainer, error) {
	if entry, ok := s.cached(id); ok && entry.explainer != nil {
		metrics.ModelCacheTotal.WithLabelValues("hit").Inc()
		return entry.explainer, nil
	}
	metrics.ModelCacheTotal.WithLabelValues("miss").Inc()

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model: %w", err)
	}
	if len(m.Explainer()) == 0 {
		return nil, fmt.Errorf("explainer not trained for model %s: %w", id, domain.ErrMissingComponent)
	}
	e, err := explain.DecodeExplainer(m.Explainer())
	if err != nil {
		metrics.ModelDecodeErrorsTotal.WithLabelValues("explainer").Inc()
		return nil, fmt.Errorf("model %s: %w", id, err)
	}
	s.storeCached(id, func(entry *cacheEntry) { entry.explainer = e })
	return e, nil
}

// TrainingTable materializes the labeled training table behind a model.
// Entities deleted since the set was registered are skipped, mirroring
// the weak entity references.
func (s *Service) TrainingTable(ctx context.Context, id string) (*table.Table, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model: %w", err)
	}
	if m.TrainingSetID() == "" {
		return nil, fmt.Errorf("no training set for model %s: %w", id, domain.ErrMissingComponent)
	}

	ts, err := s.trainingSets.Get(ctx, m.TrainingSetID())
	if err != nil {
		return nil, fmt.Errorf("get training set: %w", err)
	}

	members := make([]domentity.Entity, 0, len(ts.EntityIDs()))
	for _, eid := range ts.EntityIDs() {
		e, err := s.entities.Get(ctx, eid)
		if err != nil {
			if errors.Is(err, domain.ErrEntityNotFound) {
				continue
			}
			return nil, fmt.Errorf("get entity %s: %w", eid, err)
		}
		members = append(members, e)
	}

	tbl, err := domts.Materialize(members)
	if err != nil {
		return nil, fmt.Errorf("materialize training set %s: %w", ts.ID(), err)
	}
	return tbl, nil
}

// PutTrainingSet creates or replaces a training set after checking the
// one-label-per-row invariant on its members.
func (s *Service) PutTrainingSet(ctx context.Context, ts domts.TrainingSet) error {
	members := make([]domentity.Entity, 0, len(ts.EntityIDs()))
	for _, eid := range ts.EntityIDs() {
		e, err := s.entities.Get(ctx, eid)
		if err != nil {
			return fmt.Errorf("get entity %s: %w", eid, err)
		}
		members = append(members, e)
	}
	if err := domts.ValidateMembers(members); err != nil {
		return err
	}
	if err := s.trainingSets.Put(ctx, ts); err != nil {
		return fmt.Errorf("put training set: %w", err)
	}
	return nil
}

// DeleteTrainingSet removes a training set unless a model still owns it.
func (s *Service) DeleteTrainingSet(ctx context.Context, id string) error {
	models, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for i := range models {
		if models[i].TrainingSetID() == id {
			return fmt.Errorf(
				"training set %s is referenced by model %s: %w", id, models[i].ID(), domain.ErrTrainingSetInUse,
			)
		}
	}
	if err := s.trainingSets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete training set: %w", err)
	}
	return nil
}

// cached returns the live cache entry for a model, dropping it when
// expired.
func (s *Service) cached(id string) (*cacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(s.cache, id)
		return nil, false
	}
	return entry, true
}

func (s *Service) storeCached(id string, fill func(*cacheEntry)) {
	if s.cacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[id]
	if !ok {
		entry = &cacheEntry{expires: time.Now().Add(s.cacheTTL)}
		s.cache[id] = entry
	}
	fill(entry)
}
