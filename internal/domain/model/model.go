package model

import (
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Model holds a trained predictor, its optional explainer and metadata.
// Predictor and explainer are stored as opaque versioned blobs decoded by
// the explain package; this type only enforces presence rules.
type Model struct {
	modelID       string
	description   string
	performance   string
	importances   map[string]float64
	predictor     []byte // required
	explainer     []byte // optional; nil means explanation endpoints fail
	trainingSetID string // owning reference, optional
}

// New validates and creates a Model.
func New(
	modelID, description, performance string,
	importances map[string]float64,
	predictor, explainer []byte,
	trainingSetID string,
) (Model, error) {
	if modelID == "" {
		return Model{}, fmt.Errorf("model id is required: %w", domain.ErrValidation)
	}
	if len(predictor) == 0 {
		return Model{}, fmt.Errorf("model %s: predictor is required: %w", modelID, domain.ErrValidation)
	}
	return Model{
		modelID:       modelID,
		description:   description,
		performance:   performance,
		importances:   importances,
		predictor:     predictor,
		explainer:     explainer,
		trainingSetID: trainingSetID,
	}, nil
}

// Reconstruct creates a Model without validation (storage hydration).
func Reconstruct(
	modelID, description, performance string,
	importances map[string]float64,
	predictor, explainer []byte,
	trainingSetID string,
) Model {
	return Model{
		modelID: modelID, description: description, performance: performance,
		importances: importances, predictor: predictor, explainer: explainer,
		trainingSetID: trainingSetID,
	}
}

// ID returns the model id.
func (m *Model) ID() string { return m.modelID }

// Description returns the model description.
func (m *Model) Description() string { return m.description }

// Performance returns the free-text performance summary.
func (m *Model) Performance() string { return m.performance }

// Importances returns the feature → importance mapping.
func (m *Model) Importances() map[string]float64 { return m.importances }

// Predictor returns the serialized predictor blob.
func (m *Model) Predictor() []byte { return m.predictor }

// Explainer returns the serialized explainer blob, nil if never trained.
func (m *Model) Explainer() []byte { return m.explainer }

// TrainingSetID returns the owned training set reference, empty if none.
func (m *Model) TrainingSetID() string { return m.trainingSetID }
