// Package chi implements the REST surface: route table, request
// decoding, error-to-status mapping and response shaping. Handlers stay
// thin, all behavior lives in the usecase services.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sibyl-dev/sibyl/internal/db"
	"github.com/sibyl-dev/sibyl/internal/domain"
	appctxuc "github.com/sibyl-dev/sibyl/internal/usecase/appcontext"
	"github.com/sibyl-dev/sibyl/internal/usecase/auditlog"
	computinguc "github.com/sibyl-dev/sibyl/internal/usecase/computing"
	entityuc "github.com/sibyl-dev/sibyl/internal/usecase/entity"
	eventuc "github.com/sibyl-dev/sibyl/internal/usecase/event"
	featureuc "github.com/sibyl-dev/sibyl/internal/usecase/feature"
	groupuc "github.com/sibyl-dev/sibyl/internal/usecase/group"
	modeluc "github.com/sibyl-dev/sibyl/internal/usecase/model"
	referraluc "github.com/sibyl-dev/sibyl/internal/usecase/referral"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server wires the usecase services into HTTP handlers.
type Server struct {
	entities  *entityuc.Service
	features  *featureuc.Service
	models    *modeluc.Service
	computing *computinguc.Service
	events    *eventuc.Service
	groups    *groupuc.Service
	contexts  *appctxuc.Service
	referrals *referraluc.Service
	audit     *auditlog.Logger
	pinger    db.Pinger
	logger    *zap.Logger

	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	entities *entityuc.Service,
	features *featureuc.Service,
	models *modeluc.Service,
	computing *computinguc.Service,
	events *eventuc.Service,
	groups *groupuc.Service,
	contexts *appctxuc.Service,
	referrals *referraluc.Service,
	audit *auditlog.Logger,
	pinger db.Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		entities:  entities,
		features:  features,
		models:    models,
		computing: computing,
		events:    events,
		groups:    groups,
		contexts:  contexts,
		referrals: referrals,
		audit:     audit,
		pinger:    pinger,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEntityNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrRowNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrFeatureNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrCategoryNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrModelNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrTrainingSetNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrGroupNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrEventNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrContextNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrReferralNotFound, http.StatusBadRequest),
		sentinelHandler(domain.ErrDuplicateKey, http.StatusBadRequest),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest),
		sentinelHandler(domain.ErrMissingParameter, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidType, http.StatusBadRequest),
		sentinelHandler(domain.ErrValidationFailed, http.StatusBadRequest),
		sentinelHandler(domain.ErrAmbiguousSelection, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnknownFeature, http.StatusBadRequest),
		sentinelHandler(domain.ErrTypeMismatch, http.StatusBadRequest),
		sentinelHandler(domain.ErrMissingComponent, http.StatusBadRequest),
		sentinelHandler(domain.ErrTrainingSetInUse, http.StatusBadRequest),
		sentinelHandler(domain.ErrDeserialization, http.StatusInternalServerError),
	}
	return s
}

// Routes builds the full route table.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/entities/", s.listEntities)
		r.Put("/entities/", s.bulkPutEntities)
		r.Get("/entities/{eid}/", s.getEntity)
		r.Put("/entities/{eid}/", s.putEntity)
		r.Delete("/entities/{eid}/", s.deleteEntity)

		r.Get("/events/", s.listEvents)
		r.Post("/events/", s.addEvent)
		r.Delete("/events/{id}/", s.deleteEvent)

		r.Get("/features/", s.listFeatures)
		r.Put("/features/", s.bulkPutFeatures)
		r.Get("/features/{name}/", s.getFeature)
		r.Put("/features/{name}/", s.putFeature)
		r.Delete("/features/{name}/", s.deleteFeature)

		r.Get("/categories/", s.listCategories)
		r.Put("/categories/", s.putCategories)
		r.Delete("/categories/{name}/", s.deleteCategory)

		r.Get("/models/", s.listModels)
		r.Get("/models/{id}/", s.getModel)
		r.Put("/models/{id}/", s.putModel)
		r.Get("/importance/", s.importance)

		r.Put("/training_sets/{id}/", s.putTrainingSet)
		r.Delete("/training_sets/{id}/", s.deleteTrainingSet)

		r.Get("/groups/", s.listGroups)
		r.Get("/groups/{id}/", s.getGroup)
		r.Put("/groups/{id}/", s.putGroup)
		r.Delete("/groups/{id}/", s.deleteGroup)

		r.Get("/contexts/", s.listContexts)
		r.Get("/context/{id}/", s.getContext)
		r.Put("/context/{id}/", s.putContext)

		r.Get("/referrals/", s.listReferrals)
		r.Get("/cases/", s.listReferrals)
		r.Get("/referrals/{id}/", s.getReferral)
		r.Put("/referrals/{id}/", s.putReferral)
		r.Delete("/referrals/{id}/", s.deleteReferral)

		r.Get("/prediction/", s.prediction)
		r.Post("/multi_prediction/", s.multiPrediction)
		r.Post("/single_change_predictions/", s.singleChangePredictions)
		r.Post("/modified_prediction/", s.modifiedPrediction)
		r.Post("/contributions/", s.contributions)
		r.Post("/multi_contributions/", s.multiContributions)
		r.Post("/modified_contribution/", s.modifiedContribution)
		r.Post("/similar_entities/", s.similarEntities)
		r.Post("/feature_distributions/", s.featureDistributions)
		r.Post("/prediction_count/", s.predictionCount)
		r.Post("/outcome_count/", s.outcomeCount)
		r.Post("/logging/", s.logging)
	})

	return r
}

// health reports process and database liveness.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	status := http.StatusOK
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// messageResponse is the error envelope shared by every endpoint.
type messageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error. Client errors keep the wrapped message: lookup failures must
// name the id that was not found.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = sentinel.Error()
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	s.logger.Warn("request error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// readBody drains the request body for params.Extract. An empty body is
// fine, extraction then falls back to query parameters.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// decodeBody strictly decodes a JSON request body into dst.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
