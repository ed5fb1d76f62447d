// Command sibyl-ingest loads a dataset directory into the document
// store: categories, features, groups, terminology and entities, with
// an optional training set over the labeled entities.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sibyl-dev/sibyl/internal/config"
	dbRedis "github.com/sibyl-dev/sibyl/internal/db/redis"
	"github.com/sibyl-dev/sibyl/internal/ingest"
	logpkg "github.com/sibyl-dev/sibyl/internal/logger"
	ctxrepo "github.com/sibyl-dev/sibyl/internal/repository/appcontext"
	categoryrepo "github.com/sibyl-dev/sibyl/internal/repository/category"
	entityrepo "github.com/sibyl-dev/sibyl/internal/repository/entity"
	eventrepo "github.com/sibyl-dev/sibyl/internal/repository/event"
	featurerepo "github.com/sibyl-dev/sibyl/internal/repository/feature"
	grouprepo "github.com/sibyl-dev/sibyl/internal/repository/group"
	modelrepo "github.com/sibyl-dev/sibyl/internal/repository/model"
	tsrepo "github.com/sibyl-dev/sibyl/internal/repository/trainingset"
	appctxuc "github.com/sibyl-dev/sibyl/internal/usecase/appcontext"
	entityuc "github.com/sibyl-dev/sibyl/internal/usecase/entity"
	featureuc "github.com/sibyl-dev/sibyl/internal/usecase/feature"
	groupuc "github.com/sibyl-dev/sibyl/internal/usecase/group"
	modeluc "github.com/sibyl-dev/sibyl/internal/usecase/model"
)

// lastRunKey records when the last ingest finished, for operators
// checking dataset freshness.
const lastRunKey = "ingest:last_run"

func main() {
	dir := flag.String("dir", "", "dataset directory to load")
	trainingSet := flag.String("training-set", "", "register labeled entities as this training set")
	contextID := flag.String("context", "default", "context document id for terms.csv")
	flag.Parse()

	if *dir == "" {
		panic("usage: sibyl-ingest -dir <dataset directory> [-training-set <id>] [-context <id>]")
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	prefix := cfg.Storage.KeyPrefix
	entities := entityrepo.New(store, prefix)
	features := featurerepo.New(store, prefix)
	categories := categoryrepo.New(store, prefix)
	events := eventrepo.New(store, prefix)
	trainingSets := tsrepo.New(store, prefix)
	models := modelrepo.New(store, prefix)
	groups := grouprepo.New(store, prefix)
	contexts := ctxrepo.New(store, prefix)

	entitySvc := entityuc.New(entities, trainingSets, events)
	featureSvc := featureuc.New(features, categories)
	modelSvc := modeluc.New(models, trainingSets, entities, 0)
	groupSvc := groupuc.New(groups)
	contextSvc := appctxuc.New(contexts)

	loader := ingest.New(entitySvc, featureSvc, groupSvc, contextSvc, modelSvc, logger)

	res, err := loader.Run(ctx, ingest.Options{
		Dir:           *dir,
		TrainingSetID: *trainingSet,
		ContextID:     *contextID,
	})
	if err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}

	stamp := []byte(fmt.Sprintf("%d", time.Now().Unix()))
	if err := store.Set(ctx, prefix+lastRunKey, stamp); err != nil {
		logger.Warn("Failed to record ingest timestamp", zap.Error(err))
	}

	logger.Info("Ingest complete",
		zap.Int("categories", res.Categories),
		zap.Int("features", res.Features),
		zap.Int("groups", res.Groups),
		zap.Int("entities", res.Entities),
		zap.Int("labeled", res.Labeled),
	)
}
