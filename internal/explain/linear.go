package explain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sibyl-dev/sibyl/internal/domain"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
)

// Envelope kinds shipped with the service.
const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

// LinearParams parameterize the linear predictor and explainer kinds.
// Baselines are the training means used to anchor contributions and are
// only required for the explainer.
type LinearParams struct {
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
	Baselines    map[string]float64 `json:"baselines,omitempty"`
}

// linearPredictor computes intercept + sum(coef * value). Features the
// model carries no coefficient for are ignored; features absent from the
// row are treated as zero.
type linearPredictor struct {
	params LinearParams
}

func decodeLinearPredictor(raw json.RawMessage) (Predictor, error) {
	p, err := decodeLinearParams(raw)
	if err != nil {
		return nil, err
	}
	return &linearPredictor{params: p}, nil
}

func (p *linearPredictor) Predict(row table.Row) (float64, error) {
	sum := p.params.Intercept
	for name, coef := range p.params.Coefficients {
		x, err := featureFloat(row, name)
		if err != nil {
			return 0, err
		}
		sum += coef * x
	}
	return sum, nil
}

// logisticPredictor applies a sigmoid on top of the linear score and
// predicts the most probable of two classes.
type logisticPredictor struct {
	linear linearPredictor
}

func decodeLogisticPredictor(raw json.RawMessage) (Predictor, error) {
	p, err := decodeLinearParams(raw)
	if err != nil {
		return nil, err
	}
	return &logisticPredictor{linear: linearPredictor{params: p}}, nil
}

func (p *logisticPredictor) Predict(row table.Row) (float64, error) {
	probs, err := p.PredictProba(row)
	if err != nil {
		return 0, err
	}
	if probs[1] >= probs[0] {
		return 1, nil
	}
	return 0, nil
}

func (p *logisticPredictor) PredictProba(row table.Row) ([]float64, error) {
	score, err := p.linear.Predict(row)
	if err != nil {
		return nil, err
	}
	pos := 1 / (1 + math.Exp(-score))
	return []float64{1 - pos, pos}, nil
}

// linearExplainer attributes coef*(value-baseline) to each feature.
type linearExplainer struct {
	params LinearParams
}

func decodeLinearExplainer(raw json.RawMessage) (Explainer, error) {
	p, err := decodeLinearParams(raw)
	if err != nil {
		return nil, err
	}
	if p.Baselines == nil {
		p.Baselines = map[string]float64{}
	}
	return &linearExplainer{params: p}, nil
}

func (e *linearExplainer) Contributions(row table.Row) (map[string]Contribution, error) {
	out := make(map[string]Contribution, len(e.params.Coefficients))
	for name, coef := range e.params.Coefficients {
		x, err := featureFloat(row, name)
		if err != nil {
			return nil, err
		}
		base := e.params.Baselines[name]
		val, ok := row.Value(name)
		if !ok {
			val = domain.Num(0)
		}
		out[name] = Contribution{
			Value:        val,
			Contribution: coef * (x - base),
			Average:      domain.Num(base),
		}
	}
	return out, nil
}

func (e *linearExplainer) SimilarExamples(row table.Row, train *table.Table, k int) (Neighbors, error) {
	return nearestExamples(row, train, k)
}

func decodeLinearParams(raw json.RawMessage) (LinearParams, error) {
	var p LinearParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return LinearParams{}, err
	}
	if len(p.Coefficients) == 0 {
		return LinearParams{}, fmt.Errorf("coefficients are required")
	}
	return p, nil
}

func featureFloat(row table.Row, name string) (float64, error) {
	val, ok := row.Value(name)
	if !ok {
		return 0, nil
	}
	f, ok := val.Float()
	if !ok {
		return 0, fmt.Errorf("feature %s is not numeric: %w", name, domain.ErrTypeMismatch)
	}
	return f, nil
}
