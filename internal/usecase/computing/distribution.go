package computing

import (
	"context"
	"fmt"
	"sort"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
	"github.com/sibyl-dev/sibyl/internal/domain/trainingset"
)

// Distribution summarizes one column of the training data over the rows
// the model predicts as a given output.
type Distribution struct {
	Type    string         // "numeric" or "categorical"
	Numeric []float64      // [min, q1, median, q3, max] when numeric
	Values  []domain.Value // unique values when categorical
	Counts  []int          // occurrences per value, aligned with Values
}

// FeatureDistributions summarizes every registered feature over the
// training rows predicted as the given output. Numeric features get a
// five-number summary, binary and categorical features value counts.
func (s *Service) FeatureDistributions(
	ctx context.Context, modelID string, prediction float64,
) (map[string]Distribution, error) {
	rows, err := s.rowsPredictedAs(ctx, modelID, prediction)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no training data predicted as %v: %w", prediction, domain.ErrValidation)
	}

	features, err := s.features.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}

	out := make(map[string]Distribution, len(features))
	for _, f := range features {
		vals := columnValues(rows, f.Name())
		if len(vals) == 0 {
			continue
		}
		if f.FeatureType() == domfeature.Numeric {
			out[f.Name()] = numericDistribution(vals)
		} else {
			out[f.Name()] = categoricalDistribution(vals)
		}
	}
	return out, nil
}

// PredictionCount counts the training rows predicted as the given output.
func (s *Service) PredictionCount(ctx context.Context, modelID string, prediction float64) (int, error) {
	rows, err := s.rowsPredictedAs(ctx, modelID, prediction)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// OutcomeCount summarizes the ground-truth labels of the training rows
// predicted as the given output, keyed by the label column.
func (s *Service) OutcomeCount(
	ctx context.Context, modelID string, prediction float64,
) (map[string]Distribution, error) {
	rows, err := s.rowsPredictedAs(ctx, modelID, prediction)
	if err != nil {
		return nil, err
	}

	labels := columnValues(rows, trainingset.LabelColumn)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no training data predicted as %v: %w", prediction, domain.ErrValidation)
	}
	return map[string]Distribution{
		trainingset.LabelColumn: categoricalDistribution(labels),
	}, nil
}

// rowsPredictedAs runs the model over its training table and keeps the
// rows whose prediction matches exactly.
func (s *Service) rowsPredictedAs(ctx context.Context, modelID string, prediction float64) ([]table.Row, error) {
	p, err := s.vault.LoadPredictor(ctx, modelID)
	if err != nil {
		return nil, err
	}
	train, err := s.vault.TrainingTable(ctx, modelID)
	if err != nil {
		return nil, err
	}

	var matched []table.Row
	for _, row := range train.Rows() {
		pred, err := s.predictRow(modelID, p, row, false)
		if err != nil {
			return nil, err
		}
		if pred == prediction {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func columnValues(rows []table.Row, name string) []domain.Value {
	vals := make([]domain.Value, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.Value(name); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// numericDistribution computes [min, q1, median, q3, max] over the
// numeric cells of a column.
func numericDistribution(vals []domain.Value) Distribution {
	floats := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			floats = append(floats, f)
		}
	}
	if len(floats) == 0 {
		return categoricalDistribution(vals)
	}
	sort.Float64s(floats)
	return Distribution{
		Type: "numeric",
		Numeric: []float64{
			floats[0],
			quantile(floats, 0.25),
			quantile(floats, 0.5),
			quantile(floats, 0.75),
			floats[len(floats)-1],
		},
	}
}

// categoricalDistribution counts occurrences per unique value, ordered
// by the value's string form for deterministic output.
func categoricalDistribution(vals []domain.Value) Distribution {
	counts := map[domain.Value]int{}
	for _, v := range vals {
		counts[v]++
	}

	unique := make([]domain.Value, 0, len(counts))
	for v := range counts {
		unique = append(unique, v)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	d := Distribution{Type: "categorical", Values: unique, Counts: make([]int, len(unique))}
	for i, v := range unique {
		d.Counts[i] = counts[v]
	}
	return d
}

// quantile interpolates linearly between the two closest order
// statistics. vals must be sorted and non-empty.
func quantile(vals []float64, q float64) float64 {
	if len(vals) == 1 {
		return vals[0]
	}
	pos := q * float64(len(vals)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(vals) {
		return vals[lo]
	}
	frac := pos - float64(lo)
	return vals[lo]*(1-frac) + vals[hi]*frac
}
