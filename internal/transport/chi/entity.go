package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	domevent "github.com/sibyl-dev/sibyl/internal/domain/event"
	domgroup "github.com/sibyl-dev/sibyl/internal/domain/group"
	domreferral "github.com/sibyl-dev/sibyl/internal/domain/referral"
	entityuc "github.com/sibyl-dev/sibyl/internal/usecase/entity"
)

type entityResponse struct {
	EID      string                             `json:"eid"`
	RowIDs   []string                           `json:"row_ids"`
	Features map[string]map[string]domain.Value `json:"features"`
	Labels   map[string]domain.Value            `json:"labels,omitempty"`
	Property map[string]any                     `json:"property,omitempty"`
	Events   []string                           `json:"events,omitempty"`
}

type entitySummary struct {
	EID      string         `json:"eid"`
	RowIDs   []string       `json:"row_ids"`
	Property map[string]any `json:"property,omitempty"`
}

type entityRequest struct {
	EID      string                             `json:"eid"`
	RowIDs   []string                           `json:"row_ids"`
	Features map[string]map[string]domain.Value `json:"features"`
	Labels   map[string]domain.Value            `json:"labels"`
	Property map[string]any                     `json:"property"`
}

func entityToResponse(e *domentity.Entity) entityResponse {
	return entityResponse{
		EID:      e.EID(),
		RowIDs:   e.RowIDs(),
		Features: e.Features(),
		Labels:   e.Labels(),
		Property: e.Property(),
		Events:   e.Events(),
	}
}

func entityPatch(req entityRequest) entityuc.Patch {
	return entityuc.Patch{
		RowIDs:   req.RowIDs,
		Features: req.Features,
		Labels:   req.Labels,
		Property: req.Property,
	}
}

// getEntity handles GET /api/v1/entities/{eid}/. A row_id query narrows
// the response to that single row.
func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	eid := chi.URLParam(r, "eid")
	e, err := s.entities.Get(r.Context(), eid)
	if err != nil {
		s.handleError(w, err)
		return
	}

	resp := entityToResponse(&e)
	if rowID := r.URL.Query().Get("row_id"); rowID != "" {
		cells, ok := e.Row(rowID)
		if !ok {
			writeError(w, http.StatusBadRequest, "row_id "+rowID+" does not exist for entity "+eid)
			return
		}
		resp.RowIDs = []string{rowID}
		resp.Features = map[string]map[string]domain.Value{rowID: cells}
		if label, ok := e.Label(rowID); ok {
			resp.Labels = map[string]domain.Value{rowID: label}
		} else {
			resp.Labels = nil
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// putEntity handles PUT /api/v1/entities/{eid}/. Updates are partial:
// fields absent from the body keep their stored values.
func (s *Server) putEntity(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	e, err := s.entities.Upsert(r.Context(), chi.URLParam(r, "eid"), entityPatch(req))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entityToResponse(&e))
}

// listEntities handles GET /api/v1/entities/ with an optional group_id
// filter.
func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.entities.List(r.Context(), r.URL.Query().Get("group_id"))
	if err != nil {
		s.handleError(w, err)
		return
	}

	summaries := make([]entitySummary, len(entities))
	for i := range entities {
		summaries[i] = entitySummary{
			EID:      entities[i].EID(),
			RowIDs:   entities[i].RowIDs(),
			Property: entities[i].Property(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": summaries})
}

// bulkPutEntities handles PUT /api/v1/entities/ with the same partial
// update semantics as the single-entity PUT.
func (s *Server) bulkPutEntities(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entities []entityRequest `json:"entities"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	for _, er := range req.Entities {
		if er.EID == "" {
			writeError(w, http.StatusBadRequest, "must provide eid for all entities")
			return
		}
		if _, err := s.entities.Upsert(r.Context(), er.EID, entityPatch(er)); err != nil {
			s.handleError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "entities updated"})
}

// deleteEntity handles DELETE /api/v1/entities/{eid}/.
func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := s.entities.Delete(r.Context(), chi.URLParam(r, "eid")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type eventResponse struct {
	EventID  string         `json:"event_id"`
	Datetime time.Time      `json:"datetime"`
	Type     string         `json:"type"`
	Property map[string]any `json:"property,omitempty"`
}

// listEvents handles GET /api/v1/events/. The eid query is required:
// events are always listed through the entity referencing them.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	eid := r.URL.Query().Get("eid")
	if eid == "" {
		writeError(w, http.StatusBadRequest, "must provide eid")
		return
	}

	events, err := s.entities.Events(r.Context(), eid)
	if err != nil {
		s.handleError(w, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i, ev := range events {
		out[i] = eventResponse{
			EventID:  ev.ID(),
			Datetime: ev.Datetime(),
			Type:     ev.Type(),
			Property: ev.Property(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// addEvent handles POST /api/v1/events/.
func (s *Server) addEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EID      string         `json:"eid"`
		EventID  string         `json:"event_id"`
		Datetime time.Time      `json:"datetime"`
		Type     string         `json:"type"`
		Property map[string]any `json:"property"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.EID == "" {
		writeError(w, http.StatusBadRequest, "must provide eid")
		return
	}

	ev, err := domevent.New(req.EventID, req.Datetime, req.Type, req.Property)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.events.Add(r.Context(), req.EID, ev); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"event_id": ev.ID()})
}

// deleteEvent handles DELETE /api/v1/events/{id}/.
func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type groupResponse struct {
	GroupID  string         `json:"group_id"`
	Property map[string]any `json:"property,omitempty"`
}

// listGroups handles GET /api/v1/groups/.
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.List(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupResponse{GroupID: g.ID(), Property: g.Property()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

// getGroup handles GET /api/v1/groups/{id}/.
func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.groups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupResponse{GroupID: g.ID(), Property: g.Property()})
}

// putGroup handles PUT /api/v1/groups/{id}/.
func (s *Server) putGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Property map[string]any `json:"property"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	g, err := domgroup.New(chi.URLParam(r, "id"), req.Property)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.groups.Put(r.Context(), g); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupResponse{GroupID: g.ID(), Property: g.Property()})
}

// deleteGroup handles DELETE /api/v1/groups/{id}/.
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type referralResponse struct {
	ReferralID string         `json:"referral_id"`
	Property   map[string]any `json:"property,omitempty"`
}

// listReferrals handles GET /api/v1/referrals/ and its /api/v1/cases/
// alias. The list is id-only and keyed "cases" either way.
func (s *Server) listReferrals(w http.ResponseWriter, r *http.Request) {
	ids, err := s.referrals.IDs(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": ids})
}

// getReferral handles GET /api/v1/referrals/{id}/.
func (s *Server) getReferral(w http.ResponseWriter, r *http.Request) {
	ref, err := s.referrals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, referralResponse{ReferralID: ref.ID(), Property: ref.Property()})
}

// putReferral handles PUT /api/v1/referrals/{id}/.
func (s *Server) putReferral(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Property map[string]any `json:"property"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	ref, err := domreferral.New(chi.URLParam(r, "id"), req.Property)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.referrals.Put(r.Context(), ref); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, referralResponse{ReferralID: ref.ID(), Property: ref.Property()})
}

// deleteReferral handles DELETE /api/v1/referrals/{id}/.
func (s *Server) deleteReferral(w http.ResponseWriter, r *http.Request) {
	if err := s.referrals.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
