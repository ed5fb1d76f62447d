// Package ingest loads a dataset directory into the document store:
// categories, features, groups, terminology and entity feature values.
// Every file except entities is optional, matching the batch-ingestion
// layout the API is usually seeded from.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	domctx "github.com/sibyl-dev/sibyl/internal/domain/appcontext"
	domcategory "github.com/sibyl-dev/sibyl/internal/domain/category"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
	domgroup "github.com/sibyl-dev/sibyl/internal/domain/group"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
)

// Dataset file names inside the ingest directory.
const (
	categoriesFile = "categories.csv"
	featuresFile   = "features.yaml"
	groupsFile     = "groups.csv"
	termsFile      = "terms.csv"
	entitiesFile   = "entities.csv"
)

// EntityWriter inserts new entities.
type EntityWriter interface {
	BulkInsert(ctx context.Context, entities []domentity.Entity) error
}

// FeatureWriter upserts features and categories.
type FeatureWriter interface {
	BulkPut(ctx context.Context, features []domfeature.Feature) error
	PutCategories(ctx context.Context, categories []domcategory.Category) error
}

// GroupWriter upserts entity groups.
type GroupWriter interface {
	Put(ctx context.Context, g domgroup.Group) error
}

// ContextWriter upserts the UI context document.
type ContextWriter interface {
	Put(ctx context.Context, id string, config map[string]any) (domctx.Context, error)
}

// TrainingSetWriter registers a training set over ingested entities.
type TrainingSetWriter interface {
	PutTrainingSet(ctx context.Context, ts domts.TrainingSet) error
}

// Options steers one ingest run.
type Options struct {
	Dir           string
	TrainingSetID string // when set, labeled entities become a training set
	ContextID     string // context document id for terms.csv, default "default"
}

// Result reports what one run loaded.
type Result struct {
	Categories int
	Features   int
	Groups     int
	Entities   int
	Labeled    int
}

// Loader runs the ingest pipeline against the usecase services.
type Loader struct {
	entities     EntityWriter
	features     FeatureWriter
	groups       GroupWriter
	contexts     ContextWriter
	trainingSets TrainingSetWriter
	logger       *zap.Logger
}

// New creates a Loader.
func New(
	entities EntityWriter,
	features FeatureWriter,
	groups GroupWriter,
	contexts ContextWriter,
	trainingSets TrainingSetWriter,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		entities:     entities,
		features:     features,
		groups:       groups,
		contexts:     contexts,
		trainingSets: trainingSets,
		logger:       logger,
	}
}

// Run loads the dataset directory. Optional files are skipped silently
// when absent; a malformed file aborts the run.
func (l *Loader) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result

	if path := filepath.Join(opts.Dir, categoriesFile); fileExists(path) {
		categories, err := readCategories(path)
		if err != nil {
			return res, err
		}
		if err := l.features.PutCategories(ctx, categories); err != nil {
			return res, fmt.Errorf("store categories: %w", err)
		}
		res.Categories = len(categories)
	}

	if path := filepath.Join(opts.Dir, featuresFile); fileExists(path) {
		features, err := readFeatureConfig(path)
		if err != nil {
			return res, err
		}
		if err := l.features.BulkPut(ctx, features); err != nil {
			return res, fmt.Errorf("store features: %w", err)
		}
		res.Features = len(features)
	}

	if path := filepath.Join(opts.Dir, groupsFile); fileExists(path) {
		groups, err := readGroups(path)
		if err != nil {
			return res, err
		}
		for _, g := range groups {
			if err := l.groups.Put(ctx, g); err != nil {
				return res, fmt.Errorf("store group %s: %w", g.ID(), err)
			}
		}
		res.Groups = len(groups)
	}

	if path := filepath.Join(opts.Dir, termsFile); fileExists(path) {
		terms, err := readTerms(path)
		if err != nil {
			return res, err
		}
		contextID := opts.ContextID
		if contextID == "" {
			contextID = "default"
		}
		if _, err := l.contexts.Put(ctx, contextID, map[string]any{"terms": terms}); err != nil {
			return res, fmt.Errorf("store context: %w", err)
		}
	}

	entities, labeled, err := readEntities(filepath.Join(opts.Dir, entitiesFile))
	if err != nil {
		return res, err
	}
	if err := l.entities.BulkInsert(ctx, entities); err != nil {
		return res, fmt.Errorf("store entities: %w", err)
	}
	res.Entities = len(entities)
	res.Labeled = len(labeled)

	if opts.TrainingSetID != "" {
		if len(labeled) == 0 {
			return res, fmt.Errorf("training set %s requested but no entity carries labels", opts.TrainingSetID)
		}
		ts, err := domts.New(opts.TrainingSetID, labeled, nil)
		if err != nil {
			return res, err
		}
		if err := l.trainingSets.PutTrainingSet(ctx, ts); err != nil {
			return res, fmt.Errorf("store training set: %w", err)
		}
	}

	l.logger.Info("ingest finished",
		zap.String("dir", opts.Dir),
		zap.Int("categories", res.Categories),
		zap.Int("features", res.Features),
		zap.Int("groups", res.Groups),
		zap.Int("entities", res.Entities),
		zap.Int("labeled", res.Labeled),
	)
	return res, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
