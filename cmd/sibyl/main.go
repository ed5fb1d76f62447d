package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sibyl-dev/sibyl/internal/config"
	dbRedis "github.com/sibyl-dev/sibyl/internal/db/redis"
	logpkg "github.com/sibyl-dev/sibyl/internal/logger"
	"github.com/sibyl-dev/sibyl/internal/metrics"
	ctxrepo "github.com/sibyl-dev/sibyl/internal/repository/appcontext"
	categoryrepo "github.com/sibyl-dev/sibyl/internal/repository/category"
	entityrepo "github.com/sibyl-dev/sibyl/internal/repository/entity"
	eventrepo "github.com/sibyl-dev/sibyl/internal/repository/event"
	featurerepo "github.com/sibyl-dev/sibyl/internal/repository/feature"
	grouprepo "github.com/sibyl-dev/sibyl/internal/repository/group"
	modelrepo "github.com/sibyl-dev/sibyl/internal/repository/model"
	referralrepo "github.com/sibyl-dev/sibyl/internal/repository/referral"
	tsrepo "github.com/sibyl-dev/sibyl/internal/repository/trainingset"
	chiTransport "github.com/sibyl-dev/sibyl/internal/transport/chi"
	appctxuc "github.com/sibyl-dev/sibyl/internal/usecase/appcontext"
	"github.com/sibyl-dev/sibyl/internal/usecase/auditlog"
	computinguc "github.com/sibyl-dev/sibyl/internal/usecase/computing"
	entityuc "github.com/sibyl-dev/sibyl/internal/usecase/entity"
	eventuc "github.com/sibyl-dev/sibyl/internal/usecase/event"
	featureuc "github.com/sibyl-dev/sibyl/internal/usecase/feature"
	groupuc "github.com/sibyl-dev/sibyl/internal/usecase/group"
	modeluc "github.com/sibyl-dev/sibyl/internal/usecase/model"
	referraluc "github.com/sibyl-dev/sibyl/internal/usecase/referral"
	"github.com/sibyl-dev/sibyl/internal/version"
)

func main() {
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

	logger.Info("Starting sibyl API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

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
	logger.Info("Connected to database")

	// Register model metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	// Repositories share one key prefix
	prefix := cfg.Storage.KeyPrefix
	entities := entityrepo.New(store, prefix)
	features := featurerepo.New(store, prefix)
	categories := categoryrepo.New(store, prefix)
	events := eventrepo.New(store, prefix)
	trainingSets := tsrepo.New(store, prefix)
	models := modelrepo.New(store, prefix)
	groups := grouprepo.New(store, prefix)
	contexts := ctxrepo.New(store, prefix)
	referrals := referralrepo.New(store, prefix)

	// Use case services
	entitySvc := entityuc.New(entities, trainingSets, events)
	featureSvc := featureuc.New(features, categories)
	modelSvc := modeluc.New(models, trainingSets, entities, time.Duration(cfg.Cache.ModelTTLSec)*time.Second)
	computingSvc := computinguc.New(entitySvc, modelSvc, featureSvc)
	eventSvc := eventuc.New(events, entities)
	groupSvc := groupuc.New(groups)
	contextSvc := appctxuc.New(contexts)
	referralSvc := referraluc.New(referrals)
	audit := auditlog.New(cfg.AuditLog.Path)

	server := chiTransport.NewServer(
		entitySvc, featureSvc, modelSvc, computingSvc,
		eventSvc, groupSvc, contextSvc, referralSvc, audit, store, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
