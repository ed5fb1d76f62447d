package chi

import (
	"net/http"

	"github.com/sibyl-dev/sibyl/internal/domain"
	"github.com/sibyl-dev/sibyl/internal/explain"
	"github.com/sibyl-dev/sibyl/internal/params"
	"github.com/sibyl-dev/sibyl/internal/usecase/auditlog"
	computinguc "github.com/sibyl-dev/sibyl/internal/usecase/computing"
)

// contributionEntry is the per-feature contribution structure returned
// by the explanation endpoints.
type contributionEntry struct {
	Value        domain.Value `json:"value"`
	Contribution float64      `json:"contribution"`
	Average      domain.Value `json:"average"`
}

func contributionsToResponse(result map[string]explain.Contribution) map[string]contributionEntry {
	out := make(map[string]contributionEntry, len(result))
	for name, c := range result {
		out[name] = contributionEntry{
			Value:        c.Value,
			Contribution: c.Contribution,
			Average:      c.Average,
		}
	}
	return out
}

// prediction handles GET /api/v1/prediction/.
func (s *Server) prediction(w http.ResponseWriter, r *http.Request) {
	vals, err := params.Extract(nil, r.URL.Query(), []params.Attr{
		{Name: "model_id"},
		{Name: "eid"},
		{Name: "row_id", Optional: true, Default: ""},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	modelID, eid, rowID := vals[0].(string), vals[1].(string), vals[2].(string)

	output, err := s.computing.Predict(r.Context(), modelID, eid, rowID, false)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"output": output})
}

// multiPrediction handles POST /api/v1/multi_prediction/.
func (s *Server) multiPrediction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eids", Type: params.StringList},
		{Name: "model_id"},
		{Name: "row_ids", Type: params.StringList, Optional: true},
		{Name: "return_proba", Type: params.Bool, Optional: true, Default: false},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eids := vals[0].([]string)
	modelID := vals[1].(string)
	rowIDs := asStrings(vals[2])
	returnProba := vals[3].(bool)

	predictions, err := s.computing.MultiPredict(r.Context(), modelID, eids, rowIDs, returnProba)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

// singleChangePredictions handles POST /api/v1/single_change_predictions/.
// Response order equals the order changes appeared in the request body.
func (s *Server) singleChangePredictions(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eid"},
		{Name: "model_id"},
		{Name: "changes", Type: params.Changes},
		{Name: "row_id", Optional: true, Default: ""},
		{Name: "return_proba", Type: params.Bool, Optional: true, Default: false},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eid := vals[0].(string)
	modelID := vals[1].(string)
	changes := vals[2].(params.ChangeList)
	rowID := vals[3].(string)
	returnProba := vals[4].(bool)

	predictions, err := s.computing.SingleChangePredictions(r.Context(), modelID, eid, rowID, changes, returnProba)
	if err != nil {
		s.handleError(w, err)
		return
	}

	pairs := make([][]any, len(predictions))
	for i, p := range predictions {
		pairs[i] = []any{p.Feature, p.Prediction}
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": pairs})
}

// modifiedPrediction handles POST /api/v1/modified_prediction/.
func (s *Server) modifiedPrediction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eid"},
		{Name: "model_id"},
		{Name: "changes", Type: params.Changes},
		{Name: "row_id", Optional: true, Default: ""},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eid := vals[0].(string)
	modelID := vals[1].(string)
	changes := vals[2].(params.ChangeList)
	rowID := vals[3].(string)

	prediction, err := s.computing.ModifiedPrediction(r.Context(), modelID, eid, rowID, changes)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prediction": prediction})
}

// contributions handles POST /api/v1/contributions/.
func (s *Server) contributions(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eid"},
		{Name: "model_id"},
		{Name: "row_id", Optional: true, Default: ""},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eid, modelID, rowID := vals[0].(string), vals[1].(string), vals[2].(string)

	result, err := s.computing.Contributions(r.Context(), modelID, eid, rowID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": contributionsToResponse(result)})
}

// multiContributions handles POST /api/v1/multi_contributions/.
func (s *Server) multiContributions(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eids", Type: params.StringList},
		{Name: "model_id"},
		{Name: "row_ids", Type: params.StringList, Optional: true},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eids := vals[0].([]string)
	modelID := vals[1].(string)
	rowIDs := asStrings(vals[2])

	contributions, values, err := s.computing.MultiContributions(r.Context(), modelID, eids, rowIDs)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contributions": contributions,
		"values":        values,
	})
}

// modifiedContribution handles POST /api/v1/modified_contribution/.
func (s *Server) modifiedContribution(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eid"},
		{Name: "model_id"},
		{Name: "changes", Type: params.Changes},
		{Name: "row_id", Optional: true, Default: ""},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eid := vals[0].(string)
	modelID := vals[1].(string)
	changes := vals[2].(params.ChangeList)
	rowID := vals[3].(string)

	result, err := s.computing.ModifiedContribution(r.Context(), modelID, eid, rowID, changes)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": contributionsToResponse(result)})
}

// similarEntities handles POST /api/v1/similar_entities/. Per queried
// key, X holds the neighbors' feature rows and y their labels.
func (s *Server) similarEntities(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "eids", Type: params.StringList},
		{Name: "model_id"},
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	eids := vals[0].([]string)
	modelID := vals[1].(string)

	neighbors, err := s.computing.SimilarEntities(r.Context(), modelID, eids)
	if err != nil {
		s.handleError(w, err)
		return
	}

	out := make(map[string]any, len(neighbors))
	for key, n := range neighbors {
		x := make(map[string]map[string]domain.Value, n.X.Len())
		for _, row := range n.X.Rows() {
			x[row.Key()] = row.Cells()
		}
		out[key] = map[string]any{"X": x, "y": n.Y}
	}
	writeJSON(w, http.StatusOK, map[string]any{"similar_entities": out})
}

// distributionResponse is the per-column summary shape: numeric columns
// carry [min, q1, median, q3, max], categorical columns [values, counts].
type distributionResponse struct {
	Type    string `json:"type"`
	Metrics []any  `json:"metrics"`
}

func distributionsToResponse(result map[string]computinguc.Distribution) map[string]distributionResponse {
	out := make(map[string]distributionResponse, len(result))
	for name, d := range result {
		resp := distributionResponse{Type: d.Type}
		if d.Type == "numeric" {
			resp.Metrics = make([]any, len(d.Numeric))
			for i, v := range d.Numeric {
				resp.Metrics[i] = v
			}
		} else {
			resp.Metrics = []any{d.Values, d.Counts}
		}
		out[name] = resp
	}
	return out
}

// extractPredictionQuery pulls the shared {prediction, model_id} body of
// the training-summary endpoints.
func (s *Server) extractPredictionQuery(w http.ResponseWriter, r *http.Request) (string, float64, bool) {
	body, err := readBody(r)
	if err != nil {
		s.handleError(w, err)
		return "", 0, false
	}
	vals, err := params.Extract(body, r.URL.Query(), []params.Attr{
		{Name: "prediction", Type: params.Float},
		{Name: "model_id"},
	})
	if err != nil {
		s.handleError(w, err)
		return "", 0, false
	}
	return vals[1].(string), vals[0].(float64), true
}

// featureDistributions handles POST /api/v1/feature_distributions/.
func (s *Server) featureDistributions(w http.ResponseWriter, r *http.Request) {
	modelID, prediction, ok := s.extractPredictionQuery(w, r)
	if !ok {
		return
	}

	result, err := s.computing.FeatureDistributions(r.Context(), modelID, prediction)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"distributions": distributionsToResponse(result)})
}

// predictionCount handles POST /api/v1/prediction_count/.
func (s *Server) predictionCount(w http.ResponseWriter, r *http.Request) {
	modelID, prediction, ok := s.extractPredictionQuery(w, r)
	if !ok {
		return
	}

	count, err := s.computing.PredictionCount(r.Context(), modelID, prediction)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// outcomeCount handles POST /api/v1/outcome_count/.
func (s *Server) outcomeCount(w http.ResponseWriter, r *http.Request) {
	modelID, prediction, ok := s.extractPredictionQuery(w, r)
	if !ok {
		return
	}

	result, err := s.computing.OutcomeCount(r.Context(), modelID, prediction)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"distributions": distributionsToResponse(result)})
}

// logging handles POST /api/v1/logging/, appending one row to the audit
// CSV side file.
func (s *Server) logging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		EID       string `json:"eid"`
		Timestamp int64  `json:"timestamp"`
		Event     struct {
			Element string `json:"element"`
			Action  string `json:"action"`
			Details string `json:"details"`
		} `json:"event"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	err := s.audit.Log(auditlog.Entry{
		Timestamp: req.Timestamp,
		UserID:    req.UserID,
		EID:       req.EID,
		Element:   req.Event.Element,
		Action:    req.Event.Action,
		Details:   req.Event.Details,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "log successful"})
}

// asStrings unwraps an optional StringList extraction result.
func asStrings(v any) []string {
	if v == nil {
		return nil
	}
	return v.([]string)
}
