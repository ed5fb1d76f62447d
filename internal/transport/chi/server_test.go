package chi

import (
	"net/http"
	"strings"
	"testing"
)

func TestGetEntity_RoundTrip(t *testing.T) {
	api := newTestAPI(t)
	api.seedEntity(t, "e1", map[string]float64{"A": 10, "B": 4}, nil)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/entities/e1/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)

	if resp["eid"] != "e1" {
		t.Errorf("eid: got %v, want e1", resp["eid"])
	}
	features := resp["features"].(map[string]any)
	row := features["r1"].(map[string]any)
	if row["A"].(float64) != 10 {
		t.Errorf("feature A: got %v, want 10", row["A"])
	}
}

func TestGetEntity_UnknownEID_400WithEIDInMessage(t *testing.T) {
	api := newTestAPI(t)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/entities/ghost/", nil, http.StatusBadRequest)
	resp := decodeResponse(t, rr)
	if msg := resp["message"].(string); !strings.Contains(msg, "ghost") {
		t.Errorf("message %q does not name the missing eid", msg)
	}
}

func TestGetEntity_RowIDQuery_NarrowsToOneRow(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{
		"row_ids": []string{"r1", "r2"},
		"features": map[string]map[string]float64{
			"r1": {"A": 1},
			"r2": {"A": 2},
		},
	}
	api.mustDo(t, http.MethodPut, "/api/v1/entities/multi/", body, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/entities/multi/?row_id=r2", nil, http.StatusOK)
	resp := decodeResponse(t, rr)

	features := resp["features"].(map[string]any)
	if len(features) != 1 {
		t.Fatalf("expected one row, got %d", len(features))
	}
	if features["r2"].(map[string]any)["A"].(float64) != 2 {
		t.Errorf("row r2 not returned: %v", features)
	}

	rr = api.mustDo(t, http.MethodGet, "/api/v1/entities/multi/?row_id=nope", nil, http.StatusBadRequest)
	resp = decodeResponse(t, rr)
	if msg := resp["message"].(string); !strings.Contains(msg, "nope") {
		t.Errorf("message %q does not name the missing row", msg)
	}
}

func TestListEntities_GroupFilter(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(t, http.MethodPut, "/api/v1/entities/in/", map[string]any{
		"features": map[string]map[string]float64{"r1": {"A": 1}},
		"property": map[string]any{"group_ids": []string{"g1"}},
	}, http.StatusOK)
	api.mustDo(t, http.MethodPut, "/api/v1/entities/out/", map[string]any{
		"features": map[string]map[string]float64{"r1": {"A": 2}},
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/entities/?group_id=g1", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	entities := resp["entities"].([]any)
	if len(entities) != 1 {
		t.Fatalf("expected one entity in group, got %d", len(entities))
	}
	if entities[0].(map[string]any)["eid"] != "in" {
		t.Errorf("wrong entity returned: %v", entities[0])
	}
}

func TestPutEntity_RepeatedPutKeepsEventReferences(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{
		"features": map[string]map[string]float64{"r1": {"A": 10, "B": 4}},
	}
	api.mustDo(t, http.MethodPut, "/api/v1/entities/e1/", body, http.StatusOK)
	api.mustDo(t, http.MethodPost, "/api/v1/events/", map[string]any{
		"eid":      "e1",
		"datetime": "2024-03-01T12:00:00Z",
		"type":     "inspection",
	}, http.StatusOK)

	api.mustDo(t, http.MethodPut, "/api/v1/entities/e1/", body, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/events/?eid=e1", nil, http.StatusOK)
	if events := decodeResponse(t, rr)["events"].([]any); len(events) != 1 {
		t.Errorf("event references lost on update: got %d events, want 1", len(events))
	}
}

func TestPutEntity_OmittedFieldsKeepStoredValues(t *testing.T) {
	api := newTestAPI(t)
	api.seedEntity(t, "e1", map[string]float64{"A": 10, "B": 4}, fptr(1))

	api.mustDo(t, http.MethodPut, "/api/v1/entities/e1/", map[string]any{
		"property": map[string]any{"name": "Ada"},
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/entities/e1/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	row := resp["features"].(map[string]any)["r1"].(map[string]any)
	if row["A"].(float64) != 10 {
		t.Errorf("features lost on property-only update: %v", resp["features"])
	}
	if labels := resp["labels"].(map[string]any); labels["r1"].(float64) != 1 {
		t.Errorf("labels lost on property-only update: %v", resp["labels"])
	}
	if resp["property"].(map[string]any)["name"] != "Ada" {
		t.Errorf("property not applied: %v", resp["property"])
	}
}

func TestBulkPutEntities(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{
		"entities": []map[string]any{
			{"eid": "b1", "features": map[string]map[string]float64{"r1": {"A": 1}}},
			{"eid": "b2", "features": map[string]map[string]float64{"r1": {"A": 2}}},
		},
	}
	api.mustDo(t, http.MethodPut, "/api/v1/entities/", body, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/entities/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	if got := len(resp["entities"].([]any)); got != 2 {
		t.Errorf("expected 2 entities, got %d", got)
	}
}

func TestDeleteEntity_PulledFromTrainingSet(t *testing.T) {
	api := newTestAPI(t)
	api.seedEntity(t, "t1", map[string]float64{"A": 1, "B": 1}, fptr(1))
	api.seedEntity(t, "t2", map[string]float64{"A": 2, "B": 2}, fptr(0))
	api.mustDo(t, http.MethodPut, "/api/v1/training_sets/ts1/", map[string]any{
		"entity_ids": []string{"t1", "t2"},
	}, http.StatusOK)

	api.mustDo(t, http.MethodDelete, "/api/v1/entities/t1/", nil, http.StatusNoContent)

	// The set survives with the remaining member.
	api.seedEntity(t, "q", map[string]float64{"A": 0, "B": 0}, nil)
	api.seedDiffModel(t, "m1", true, "ts1")
	rr := api.mustDo(t, http.MethodPost, "/api/v1/similar_entities/", map[string]any{
		"eids":     []string{"q"},
		"model_id": "m1",
	}, http.StatusOK)
	resp := decodeResponse(t, rr)
	similar := resp["similar_entities"].(map[string]any)["r1"].(map[string]any)
	neighbors := similar["X"].(map[string]any)
	if _, gone := neighbors["t1"]; gone {
		t.Errorf("deleted entity still in training neighbors: %v", neighbors)
	}
	if _, ok := neighbors["t2"]; !ok {
		t.Errorf("surviving member missing from neighbors: %v", neighbors)
	}
}

func TestFeature_CategoryAutoCreatedAndNullifiedOnDelete(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(t, http.MethodPut, "/api/v1/features/age/", map[string]any{
		"type":     "numeric",
		"category": "demographics",
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/categories/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	categories := resp["categories"].([]any)
	if len(categories) != 1 || categories[0].(map[string]any)["name"] != "demographics" {
		t.Fatalf("referenced category not auto-created: %v", categories)
	}

	api.mustDo(t, http.MethodDelete, "/api/v1/categories/demographics/", nil, http.StatusNoContent)

	rr = api.mustDo(t, http.MethodGet, "/api/v1/features/age/", nil, http.StatusOK)
	feature := decodeResponse(t, rr)
	if feature["category"] != nil {
		t.Errorf("category not nullified after delete: %v", feature["category"])
	}
}

func TestPutFeature_InvalidType_400(t *testing.T) {
	api := newTestAPI(t)
	rr := api.mustDo(t, http.MethodPut, "/api/v1/features/bad/", map[string]any{
		"type": "fancy",
	}, http.StatusBadRequest)
	resp := decodeResponse(t, rr)
	if msg := resp["message"].(string); !strings.Contains(msg, "fancy") {
		t.Errorf("message %q does not name the bad type", msg)
	}
}

func TestModel_MetadataWithoutBlobs(t *testing.T) {
	api := newTestAPI(t)
	api.seedDiffModel(t, "m1", true, "")

	rr := api.mustDo(t, http.MethodGet, "/api/v1/models/m1/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	if resp["model_id"] != "m1" {
		t.Errorf("model_id: got %v", resp["model_id"])
	}
	if _, leaked := resp["predictor"]; leaked {
		t.Error("predictor blob leaked into the metadata response")
	}
}

func TestImportance(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(t, http.MethodPut, "/api/v1/models/mi/", map[string]any{
		"predictor":   encodeLinear(t),
		"importances": map[string]float64{"A": 0.7, "B": 0.3},
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/importance/?model_id=mi", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	importances := resp["importances"].(map[string]any)
	if importances["A"].(float64) != 0.7 {
		t.Errorf("importance A: got %v, want 0.7", importances["A"])
	}

	rr = api.mustDo(t, http.MethodGet, "/api/v1/importance/", nil, http.StatusBadRequest)
	resp = decodeResponse(t, rr)
	if msg := resp["message"].(string); !strings.Contains(msg, "model_id") {
		t.Errorf("message %q does not name the missing parameter", msg)
	}
}

func TestDeleteTrainingSet_DeniedWhileReferenced(t *testing.T) {
	api := newTestAPI(t)
	api.seedEntity(t, "t1", map[string]float64{"A": 1, "B": 1}, fptr(1))
	api.mustDo(t, http.MethodPut, "/api/v1/training_sets/ts1/", map[string]any{
		"entity_ids": []string{"t1"},
	}, http.StatusOK)
	api.seedDiffModel(t, "m1", false, "ts1")

	api.mustDo(t, http.MethodDelete, "/api/v1/training_sets/ts1/", nil, http.StatusBadRequest)

	// Unreferenced sets delete fine.
	api.mustDo(t, http.MethodPut, "/api/v1/training_sets/ts2/", map[string]any{
		"entity_ids": []string{"t1"},
	}, http.StatusOK)
	api.mustDo(t, http.MethodDelete, "/api/v1/training_sets/ts2/", nil, http.StatusNoContent)
}

func TestEvents_AddListDelete(t *testing.T) {
	api := newTestAPI(t)
	api.seedEntity(t, "e1", map[string]float64{"A": 1}, nil)

	rr := api.mustDo(t, http.MethodPost, "/api/v1/events/", map[string]any{
		"eid":      "e1",
		"datetime": "2024-03-01T12:00:00Z",
		"type":     "inspection",
	}, http.StatusOK)
	eventID := decodeResponse(t, rr)["event_id"].(string)

	rr = api.mustDo(t, http.MethodGet, "/api/v1/events/?eid=e1", nil, http.StatusOK)
	events := decodeResponse(t, rr)["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].(map[string]any)["type"] != "inspection" {
		t.Errorf("wrong event returned: %v", events[0])
	}

	api.mustDo(t, http.MethodDelete, "/api/v1/events/"+eventID+"/", nil, http.StatusNoContent)

	rr = api.mustDo(t, http.MethodGet, "/api/v1/events/?eid=e1", nil, http.StatusOK)
	if events := decodeResponse(t, rr)["events"].([]any); len(events) != 0 {
		t.Errorf("event still listed after delete: %v", events)
	}
}

func TestContext_PartialUpdateMerges(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(t, http.MethodPut, "/api/v1/context/ui/", map[string]any{
		"config": map[string]any{"pos_color": "#00ff00", "neg_color": "#ff0000"},
	}, http.StatusOK)
	api.mustDo(t, http.MethodPut, "/api/v1/context/ui/", map[string]any{
		"config": map[string]any{"neg_color": "#880000"},
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/context/ui/", nil, http.StatusOK)
	config := decodeResponse(t, rr)["context"].(map[string]any)["config"].(map[string]any)
	if config["pos_color"] != "#00ff00" {
		t.Errorf("untouched key lost: %v", config)
	}
	if config["neg_color"] != "#880000" {
		t.Errorf("updated key not applied: %v", config)
	}
}

func TestGroups_RoundTrip(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(t, http.MethodPut, "/api/v1/groups/g1/", map[string]any{
		"property": map[string]any{"region": "north"},
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/groups/g1/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	if resp["group_id"] != "g1" {
		t.Errorf("group_id: got %v", resp["group_id"])
	}

	api.mustDo(t, http.MethodDelete, "/api/v1/groups/g1/", nil, http.StatusNoContent)
	api.mustDo(t, http.MethodGet, "/api/v1/groups/g1/", nil, http.StatusBadRequest)
}

func TestReferrals_RoundTripAndCasesAlias(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(t, http.MethodPut, "/api/v1/referrals/c1/", map[string]any{
		"property": map[string]any{"team": "north"},
	}, http.StatusOK)

	rr := api.mustDo(t, http.MethodGet, "/api/v1/referrals/c1/", nil, http.StatusOK)
	resp := decodeResponse(t, rr)
	if resp["referral_id"] != "c1" {
		t.Errorf("referral_id: got %v", resp["referral_id"])
	}
	if resp["property"].(map[string]any)["team"] != "north" {
		t.Errorf("property: got %v", resp["property"])
	}

	for _, path := range []string{"/api/v1/referrals/", "/api/v1/cases/"} {
		rr = api.mustDo(t, http.MethodGet, path, nil, http.StatusOK)
		cases := decodeResponse(t, rr)["cases"].([]any)
		if len(cases) != 1 || cases[0] != "c1" {
			t.Errorf("%s: got %v, want [c1]", path, cases)
		}
	}

	api.mustDo(t, http.MethodDelete, "/api/v1/referrals/c1/", nil, http.StatusNoContent)

	rr = api.mustDo(t, http.MethodGet, "/api/v1/referrals/c1/", nil, http.StatusBadRequest)
	resp = decodeResponse(t, rr)
	if msg := resp["message"].(string); !strings.Contains(msg, "c1") {
		t.Errorf("message %q does not name the missing referral", msg)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rr := api.mustDo(t, http.MethodGet, "/health", nil, http.StatusOK)
	checks := decodeResponse(t, rr)["checks"].(map[string]any)
	if checks["database"] != "ok" {
		t.Errorf("database check: got %v", checks["database"])
	}
}
