package computing

import (
	"context"

	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
	"github.com/sibyl-dev/sibyl/internal/explain"
)

// EntityResolver resolves eid/row_id selections into tables.
type EntityResolver interface {
	EntityTable(ctx context.Context, eid, rowID string) (table.Row, error)
	EntitiesTable(ctx context.Context, eids, rowIDs []string, allRows bool) (*table.Table, error)
}

// Vault loads live predictor/explainer capabilities for a model.
type Vault interface {
	LoadPredictor(ctx context.Context, modelID string) (explain.Predictor, error)
	LoadExplainer(ctx context.Context, modelID string) (explain.Explainer, error)
	TrainingTable(ctx context.Context, modelID string) (*table.Table, error)
}

// FeatureReader resolves features for change validation and training
// data summaries.
type FeatureReader interface {
	Get(ctx context.Context, name string) (domfeature.Feature, error)
	List(ctx context.Context) ([]domfeature.Feature, error)
}
