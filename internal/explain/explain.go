// Package explain defines the capability interfaces behind prediction and
// explanation, and the versioned serialization envelope models store them
// in. Stored blobs are JSON envelopes {"version", "kind", "params"}
// decoded through a codec registry; the computation itself stays behind
// the Predictor/Explainer interfaces so alternative kinds can plug in.
package explain

import (
	"encoding/json"
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
)

// CurrentVersion is the envelope version written by this package.
const CurrentVersion = 1

// Predictor produces a model output for one observation.
type Predictor interface {
	Predict(row table.Row) (float64, error)
}

// ProbaPredictor additionally exposes per-class probabilities.
type ProbaPredictor interface {
	Predictor
	PredictProba(row table.Row) ([]float64, error)
}

// Contribution is one feature's share of a prediction.
type Contribution struct {
	Value        domain.Value // the feature value the row carried
	Contribution float64      // signed share of the model output
	Average      domain.Value // average/mode of the feature in training
}

// Neighbors holds the similar-examples result for one queried row.
type Neighbors struct {
	X *table.Table            // neighbor feature rows
	Y map[string]domain.Value // neighbor key → training label
}

// Explainer produces feature contributions and similar training examples.
type Explainer interface {
	Contributions(row table.Row) (map[string]Contribution, error)
	SimilarExamples(row table.Row, train *table.Table, k int) (Neighbors, error)
}

// envelope is the stored wire form of a predictor or explainer.
type envelope struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	Params  json.RawMessage `json:"params"`
}

// PredictorCodec reconstructs a predictor from envelope params.
type PredictorCodec func(params json.RawMessage) (Predictor, error)

// ExplainerCodec reconstructs an explainer from envelope params.
type ExplainerCodec func(params json.RawMessage) (Explainer, error)

// Built-in kinds. Populated as literals rather than init() so the full
// registry is visible in one place.
var (
	predictorCodecs = map[string]PredictorCodec{
		KindLinear:   decodeLinearPredictor,
		KindLogistic: decodeLogisticPredictor,
	}
	explainerCodecs = map[string]ExplainerCodec{
		KindLinear: decodeLinearExplainer,
	}
)

// RegisterPredictor adds a predictor kind. Not safe for concurrent use;
// call during startup only.
func RegisterPredictor(kind string, codec PredictorCodec) {
	predictorCodecs[kind] = codec
}

// RegisterExplainer adds an explainer kind.
func RegisterExplainer(kind string, codec ExplainerCodec) {
	explainerCodecs[kind] = codec
}

// DecodePredictor reconstructs a predictor from a stored blob.
// Any failure wraps domain.ErrDeserialization.
func DecodePredictor(blob []byte) (Predictor, error) {
	env, err := decodeEnvelope(blob)
	if err != nil {
		return nil, err
	}
	codec, ok := predictorCodecs[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown predictor kind %q: %w", env.Kind, domain.ErrDeserialization)
	}
	p, err := codec(env.Params)
	if err != nil {
		return nil, fmt.Errorf("decode %s predictor: %w: %w", env.Kind, domain.ErrDeserialization, err)
	}
	return p, nil
}

// DecodeExplainer reconstructs an explainer from a stored blob.
func DecodeExplainer(blob []byte) (Explainer, error) {
	env, err := decodeEnvelope(blob)
	if err != nil {
		return nil, err
	}
	codec, ok := explainerCodecs[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown explainer kind %q: %w", env.Kind, domain.ErrDeserialization)
	}
	e, err := codec(env.Params)
	if err != nil {
		return nil, fmt.Errorf("decode %s explainer: %w: %w", env.Kind, domain.ErrDeserialization, err)
	}
	return e, nil
}

func decodeEnvelope(blob []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %w", domain.ErrDeserialization, err)
	}
	if env.Version != CurrentVersion {
		return envelope{}, fmt.Errorf(
			"unsupported envelope version %d: %w", env.Version, domain.ErrDeserialization,
		)
	}
	if env.Kind == "" {
		return envelope{}, fmt.Errorf("envelope kind is required: %w", domain.ErrDeserialization)
	}
	return env, nil
}

// Encode wraps params of the given kind into a stored blob.
func Encode(kind string, params any) ([]byte, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", kind, err)
	}
	return json.Marshal(envelope{Version: CurrentVersion, Kind: kind, Params: raw})
}
