package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sibyl-dev/sibyl/internal/explain"
	ctxrepo "github.com/sibyl-dev/sibyl/internal/repository/appcontext"
	categoryrepo "github.com/sibyl-dev/sibyl/internal/repository/category"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore/docstoretest"
	entityrepo "github.com/sibyl-dev/sibyl/internal/repository/entity"
	eventrepo "github.com/sibyl-dev/sibyl/internal/repository/event"
	featurerepo "github.com/sibyl-dev/sibyl/internal/repository/feature"
	grouprepo "github.com/sibyl-dev/sibyl/internal/repository/group"
	modelrepo "github.com/sibyl-dev/sibyl/internal/repository/model"
	referralrepo "github.com/sibyl-dev/sibyl/internal/repository/referral"
	tsrepo "github.com/sibyl-dev/sibyl/internal/repository/trainingset"
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

const testPrefix = "sibyl:"

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// testAPI is a full stack over the in-memory store: real repositories,
// real services, real handlers.
type testAPI struct {
	handler   http.Handler
	auditPath string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := docstoretest.NewMemStore()
	entities := entityrepo.New(store, testPrefix)
	features := featurerepo.New(store, testPrefix)
	categories := categoryrepo.New(store, testPrefix)
	events := eventrepo.New(store, testPrefix)
	trainingSets := tsrepo.New(store, testPrefix)
	models := modelrepo.New(store, testPrefix)
	groups := grouprepo.New(store, testPrefix)
	contexts := ctxrepo.New(store, testPrefix)
	referrals := referralrepo.New(store, testPrefix)

	entitySvc := entityuc.New(entities, trainingSets, events)
	featureSvc := featureuc.New(features, categories)
	modelSvc := modeluc.New(models, trainingSets, entities, time.Minute)
	computingSvc := computinguc.New(entitySvc, modelSvc, featureSvc)
	eventSvc := eventuc.New(events, entities)
	groupSvc := groupuc.New(groups)
	contextSvc := appctxuc.New(contexts)
	referralSvc := referraluc.New(referrals)

	auditPath := filepath.Join(t.TempDir(), "audit.csv")
	audit := auditlog.New(auditPath)

	srv := NewServer(
		entitySvc, featureSvc, modelSvc, computingSvc,
		eventSvc, groupSvc, contextSvc, referralSvc, audit, okPinger{}, zap.NewNop(),
	)
	return &testAPI{handler: srv.Routes(), auditPath: auditPath}
}

// do runs one request through the router and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

// mustDo fails the test unless the request returns the wanted status.
func (a *testAPI) mustDo(t *testing.T, method, path string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	rr := a.do(t, method, path, body)
	if rr.Code != wantStatus {
		t.Fatalf("%s %s: got status %d, want %d (body %s)", method, path, rr.Code, wantStatus, rr.Body.String())
	}
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// seedEntity registers a single-row entity via the API. label may be nil.
func (a *testAPI) seedEntity(t *testing.T, eid string, cells map[string]float64, label *float64) {
	t.Helper()

	features := map[string]map[string]float64{"r1": cells}
	body := map[string]any{"row_ids": []string{"r1"}, "features": features}
	if label != nil {
		body["labels"] = map[string]float64{"r1": *label}
	}
	a.mustDo(t, http.MethodPut, "/api/v1/entities/"+eid+"/", body, http.StatusOK)
}

// seedDiffModel registers the A-B linear model with baselines A:8, B:5,
// optionally with a trained explainer and an owned training set.
func (a *testAPI) seedDiffModel(t *testing.T, id string, withExplainer bool, trainingSetID string) {
	t.Helper()

	params := explain.LinearParams{
		Coefficients: map[string]float64{"A": 1, "B": -1},
		Baselines:    map[string]float64{"A": 8, "B": 5},
	}
	predictor, err := explain.Encode(explain.KindLinear, params)
	if err != nil {
		t.Fatalf("encode predictor: %v", err)
	}

	body := map[string]any{
		"description": "difference model",
		"predictor":   json.RawMessage(predictor),
	}
	if withExplainer {
		explainer, err := explain.Encode(explain.KindLinear, params)
		if err != nil {
			t.Fatalf("encode explainer: %v", err)
		}
		body["explainer"] = json.RawMessage(explainer)
	}
	if trainingSetID != "" {
		body["training_set_id"] = trainingSetID
	}
	a.mustDo(t, http.MethodPut, "/api/v1/models/"+id+"/", body, http.StatusOK)
}

// seedFeature registers a numeric feature with no category.
func (a *testAPI) seedFeature(t *testing.T, name, ftype string) {
	t.Helper()
	a.mustDo(t, http.MethodPut, "/api/v1/features/"+name+"/", map[string]any{"type": ftype}, http.StatusOK)
}

// encodeLinear returns a minimal predictor blob for metadata-only tests.
func encodeLinear(t *testing.T) json.RawMessage {
	t.Helper()
	blob, err := explain.Encode(explain.KindLinear, explain.LinearParams{
		Coefficients: map[string]float64{"A": 1},
	})
	if err != nil {
		t.Fatalf("encode predictor: %v", err)
	}
	return blob
}

// rawBody passes a request body through verbatim, keeping key order.
func rawBody(s string) json.RawMessage { return json.RawMessage(s) }

func fptr(v float64) *float64 { return &v }
