// Package computing orchestrates the explanation pipeline: resolve the
// entity selection, load the model's capabilities, invoke them and shape
// the result. Every operation is stateless across requests.
package computing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
	"github.com/sibyl-dev/sibyl/internal/explain"
	"github.com/sibyl-dev/sibyl/internal/metrics"
	"github.com/sibyl-dev/sibyl/internal/params"
)

// defaultNeighborCount is how many similar examples each query returns.
const defaultNeighborCount = 3

// ChangePrediction is one entry of a SingleChangePredictions response.
type ChangePrediction struct {
	Feature    string
	Prediction float64
}

// Service implements the computing operations.
type Service struct {
	entities EntityResolver
	vault    Vault
	features FeatureReader
}

// New creates a computing service.
func New(entities EntityResolver, vault Vault, features FeatureReader) *Service {
	return &Service{entities: entities, vault: vault, features: features}
}

// Predict resolves one row and predicts on it. returnProba selects the
// probability of the most likely class instead of the raw label.
func (s *Service) Predict(ctx context.Context, modelID, eid, rowID string, returnProba bool) (float64, error) {
	row, err := s.entities.EntityTable(ctx, eid, rowID)
	if err != nil {
		return 0, err
	}
	p, err := s.vault.LoadPredictor(ctx, modelID)
	if err != nil {
		return 0, err
	}
	return s.predictRow(modelID, p, row, returnProba)
}

// MultiPredict predicts over a batch. Output is keyed by eid, or by row
// id when fanning out within one entity.
func (s *Service) MultiPredict(
	ctx context.Context, modelID string, eids, rowIDs []string, returnProba bool,
) (map[string]float64, error) {
	tbl, err := s.resolveBatch(ctx, eids, rowIDs)
	if err != nil {
		return nil, err
	}
	p, err := s.vault.LoadPredictor(ctx, modelID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, tbl.Len())
	for _, row := range tbl.Rows() {
		pred, err := s.predictRow(modelID, p, row, returnProba)
		if err != nil {
			return nil, err
		}
		out[row.Key()] = pred
	}
	return out, nil
}

// SingleChangePredictions applies each change independently to a copy of
// the resolved row and predicts. Output order equals input order.
func (s *Service) SingleChangePredictions(
	ctx context.Context, modelID, eid, rowID string, changes params.ChangeList, returnProba bool,
) ([]ChangePrediction, error) {
	if err := s.ValidateChanges(ctx, changes); err != nil {
		return nil, err
	}
	row, err := s.entities.EntityTable(ctx, eid, rowID)
	if err != nil {
		return nil, err
	}
	p, err := s.vault.LoadPredictor(ctx, modelID)
	if err != nil {
		return nil, err
	}

	out := make([]ChangePrediction, 0, len(changes))
	for _, change := range changes {
		modified := row.With(change.Feature, change.Value)
		pred, err := s.predictRow(modelID, p, modified, returnProba)
		if err != nil {
			return nil, err
		}
		out = append(out, ChangePrediction{Feature: change.Feature, Prediction: pred})
	}
	return out, nil
}

// ModifiedPrediction applies all changes jointly and predicts once.
func (s *Service) ModifiedPrediction(
	ctx context.Context, modelID, eid, rowID string, changes params.ChangeList,
) (float64, error) {
	if err := s.ValidateChanges(ctx, changes); err != nil {
		return 0, err
	}
	row, err := s.entities.EntityTable(ctx, eid, rowID)
	if err != nil {
		return 0, err
	}
	p, err := s.vault.LoadPredictor(ctx, modelID)
	if err != nil {
		return 0, err
	}
	return s.predictRow(modelID, p, row.WithAll(changes.AsMap()), false)
}

// Contributions computes feature contributions for one resolved row.
func (s *Service) Contributions(
	ctx context.Context, modelID, eid, rowID string,
) (map[string]explain.Contribution, error) {
	row, err := s.entities.EntityTable(ctx, eid, rowID)
	if err != nil {
		return nil, err
	}
	return s.contributionsForRow(ctx, modelID, row)
}

// MultiContributions computes contributions over a batch, returning the
// contribution and the underlying value per key and feature.
func (s *Service) MultiContributions(
	ctx context.Context, modelID string, eids, rowIDs []string,
) (map[string]map[string]float64, map[string]map[string]domain.Value, error) {
	tbl, err := s.resolveBatch(ctx, eids, rowIDs)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.vault.LoadExplainer(ctx, modelID)
	if err != nil {
		return nil, nil, err
	}

	contributions := make(map[string]map[string]float64, tbl.Len())
	values := make(map[string]map[string]domain.Value, tbl.Len())
	for _, row := range tbl.Rows() {
		result, err := s.invokeContributions(modelID, e, row)
		if err != nil {
			return nil, nil, err
		}
		perFeature := make(map[string]float64, len(result))
		perValue := make(map[string]domain.Value, len(result))
		for name, c := range result {
			perFeature[name] = c.Contribution
			perValue[name] = c.Value
		}
		contributions[row.Key()] = perFeature
		values[row.Key()] = perValue
	}
	return contributions, values, nil
}

// ModifiedContribution applies all changes jointly and computes
// contributions on the modified row.
func (s *Service) ModifiedContribution(
	ctx context.Context, modelID, eid, rowID string, changes params.ChangeList,
) (map[string]explain.Contribution, error) {
	if err := s.ValidateChanges(ctx, changes); err != nil {
		return nil, err
	}
	row, err := s.entities.EntityTable(ctx, eid, rowID)
	if err != nil {
		return nil, err
	}
	return s.contributionsForRow(ctx, modelID, row.WithAll(changes.AsMap()))
}

// SimilarEntities finds the nearest training examples for each queried
// entity. The model must own a loadable training set.
func (s *Service) SimilarEntities(
	ctx context.Context, modelID string, eids []string,
) (map[string]explain.Neighbors, error) {
	tbl, err := s.resolveBatch(ctx, eids, nil)
	if err != nil {
		return nil, err
	}
	e, err := s.vault.LoadExplainer(ctx, modelID)
	if err != nil {
		return nil, err
	}
	train, err := s.vault.TrainingTable(ctx, modelID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]explain.Neighbors, tbl.Len())
	for _, row := range tbl.Rows() {
		start := time.Now()
		neighbors, err := e.SimilarExamples(row, train, defaultNeighborCount)
		s.observe(modelID, "similar_examples", start, err)
		if err != nil {
			return nil, fmt.Errorf("similar examples for %s: %w", row.Key(), err)
		}
		out[row.Key()] = neighbors
	}
	return out, nil
}

// ValidateChanges checks a change list against the feature registry:
// unknown features are rejected, and binary features only accept 0 or 1.
func (s *Service) ValidateChanges(ctx context.Context, changes params.ChangeList) error {
	for _, change := range changes {
		f, err := s.features.Get(ctx, change.Feature)
		if err != nil {
			if errors.Is(err, domain.ErrFeatureNotFound) {
				return fmt.Errorf("invalid feature %s: %w", change.Feature, domain.ErrUnknownFeature)
			}
			return fmt.Errorf("get feature %s: %w", change.Feature, err)
		}
		if f.FeatureType() != domfeature.Binary {
			continue
		}
		v, ok := change.Value.Float()
		if !ok || (v != 0 && v != 1) {
			return fmt.Errorf(
				"feature %s is binary, invalid change value: %w", change.Feature, domain.ErrTypeMismatch,
			)
		}
	}
	return nil
}

// resolveBatch implements the Multi* fan-out: several eids spread one row
// each, a single eid with no row selection spreads over all of its rows.
func (s *Service) resolveBatch(ctx context.Context, eids, rowIDs []string) (*table.Table, error) {
	allRows := len(eids) == 1 && len(rowIDs) == 0
	return s.entities.EntitiesTable(ctx, eids, rowIDs, allRows)
}

func (s *Service) contributionsForRow(
	ctx context.Context, modelID string, row table.Row,
) (map[string]explain.Contribution, error) {
	e, err := s.vault.LoadExplainer(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return s.invokeContributions(modelID, e, row)
}

func (s *Service) invokeContributions(
	modelID string, e explain.Explainer, row table.Row,
) (map[string]explain.Contribution, error) {
	start := time.Now()
	result, err := e.Contributions(row)
	s.observe(modelID, "contributions", start, err)
	if err != nil {
		return nil, fmt.Errorf("contributions for %s: %w", row.Key(), err)
	}
	return result, nil
}

func (s *Service) predictRow(modelID string, p explain.Predictor, row table.Row, returnProba bool) (float64, error) {
	start := time.Now()
	var (
		pred float64
		err  error
	)
	if returnProba {
		pred, err = maxProba(p, row)
	} else {
		pred, err = p.Predict(row)
	}
	s.observe(modelID, "predict", start, err)
	if err != nil {
		return 0, fmt.Errorf("predict for %s: %w", row.Key(), err)
	}
	return pred, nil
}

// maxProba returns the probability of the predicted class, the largest
// entry of the class distribution.
func maxProba(p explain.Predictor, row table.Row) (float64, error) {
	pp, ok := p.(explain.ProbaPredictor)
	if !ok {
		return 0, fmt.Errorf("model does not expose class probabilities: %w", domain.ErrMissingComponent)
	}
	probs, err := pp.PredictProba(row)
	if err != nil {
		return 0, err
	}
	if len(probs) == 0 {
		return 0, fmt.Errorf("empty probability vector: %w", domain.ErrValidation)
	}
	best := probs[0]
	for _, v := range probs[1:] {
		if v > best {
			best = v
		}
	}
	return best, nil
}

func (s *Service) observe(modelID, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ModelInvocationsTotal.WithLabelValues(modelID, operation, status).Inc()
	metrics.ModelInvocationDuration.WithLabelValues(modelID, operation).Observe(time.Since(start).Seconds())
}
