package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	dommodel "github.com/sibyl-dev/sibyl/internal/domain/model"
	domts "github.com/sibyl-dev/sibyl/internal/domain/trainingset"
	"github.com/sibyl-dev/sibyl/internal/params"
)

// modelResponse carries model metadata. The predictor and explainer
// blobs never leave the server.
type modelResponse struct {
	ModelID       string             `json:"model_id"`
	Description   string             `json:"description,omitempty"`
	Performance   string             `json:"performance,omitempty"`
	Importances   map[string]float64 `json:"importances,omitempty"`
	TrainingSetID string             `json:"training_set_id,omitempty"`
}

type modelRequest struct {
	Description   string             `json:"description"`
	Performance   string             `json:"performance"`
	Importances   map[string]float64 `json:"importances"`
	Predictor     json.RawMessage    `json:"predictor"`
	Explainer     json.RawMessage    `json:"explainer"`
	TrainingSetID string             `json:"training_set_id"`
}

func modelToResponse(m *dommodel.Model) modelResponse {
	return modelResponse{
		ModelID:       m.ID(),
		Description:   m.Description(),
		Performance:   m.Performance(),
		Importances:   m.Importances(),
		TrainingSetID: m.TrainingSetID(),
	}
}

// getModel handles GET /api/v1/models/{id}/.
func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.models.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelToResponse(&m))
}

// putModel handles PUT /api/v1/models/{id}/.
func (s *Server) putModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	m, err := dommodel.New(
		chi.URLParam(r, "id"), req.Description, req.Performance,
		req.Importances, req.Predictor, req.Explainer, req.TrainingSetID,
	)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.models.Put(r.Context(), m); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelToResponse(&m))
}

// listModels handles GET /api/v1/models/.
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.models.List(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	out := make([]modelResponse, len(models))
	for i := range models {
		out[i] = modelToResponse(&models[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}

// importance handles GET /api/v1/importance/.
func (s *Server) importance(w http.ResponseWriter, r *http.Request) {
	vals, err := params.Extract(nil, r.URL.Query(), []params.Attr{
		{Name: "model_id"},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	modelID := vals[0].(string)

	importances, err := s.models.Importance(r.Context(), modelID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"importances": importances})
}

// putTrainingSet handles PUT /api/v1/training_sets/{id}/.
func (s *Server) putTrainingSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntityIDs []string `json:"entity_ids"`
		Neighbors []byte   `json:"neighbors"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	ts, err := domts.New(chi.URLParam(r, "id"), req.EntityIDs, req.Neighbors)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.models.PutTrainingSet(r.Context(), ts); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         ts.ID(),
		"entity_ids": ts.EntityIDs(),
	})
}

// deleteTrainingSet handles DELETE /api/v1/training_sets/{id}/. Denied
// while any model references the set.
func (s *Server) deleteTrainingSet(w http.ResponseWriter, r *http.Request) {
	if err := s.models.DeleteTrainingSet(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contextResponse struct {
	ContextID string         `json:"context_id"`
	Config    map[string]any `json:"config"`
}

// getContext handles GET /api/v1/context/{id}/.
func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	c, err := s.contexts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"context": contextResponse{ContextID: c.ID(), Config: c.Config()},
	})
}

// putContext handles PUT /api/v1/context/{id}/. Partial update: config
// keys absent from the request keep their stored values.
func (s *Server) putContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Config map[string]any `json:"config"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	c, err := s.contexts.Put(r.Context(), chi.URLParam(r, "id"), req.Config)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"context": contextResponse{ContextID: c.ID(), Config: c.Config()},
	})
}

// listContexts handles GET /api/v1/contexts/.
func (s *Server) listContexts(w http.ResponseWriter, r *http.Request) {
	contexts, err := s.contexts.List(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	out := make([]contextResponse, len(contexts))
	for i, c := range contexts {
		out[i] = contextResponse{ContextID: c.ID(), Config: c.Config()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contexts": out})
}
