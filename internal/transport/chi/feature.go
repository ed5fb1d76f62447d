package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domcategory "github.com/sibyl-dev/sibyl/internal/domain/category"
	domfeature "github.com/sibyl-dev/sibyl/internal/domain/feature"
)

// featureResponse mirrors the stored feature document. Category is a
// pointer: a feature whose category was deleted serializes it as null.
type featureResponse struct {
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	NegatedDescription string   `json:"negated_description,omitempty"`
	Category           *string  `json:"category"`
	Type               string   `json:"type"`
	Values             []string `json:"values,omitempty"`
}

type featureRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	NegatedDescription string   `json:"negated_description"`
	Category           string   `json:"category"`
	Type               string   `json:"type"`
	Values             []string `json:"values"`
}

func featureToResponse(f domfeature.Feature) featureResponse {
	var category *string
	if f.Category() != "" {
		c := f.Category()
		category = &c
	}
	return featureResponse{
		Name:               f.Name(),
		Description:        f.Description(),
		NegatedDescription: f.NegatedDescription(),
		Category:           category,
		Type:               string(f.FeatureType()),
		Values:             f.Values(),
	}
}

func featureFromRequest(name string, req featureRequest) (domfeature.Feature, error) {
	return domfeature.New(
		name, req.Description, req.NegatedDescription,
		req.Category, domfeature.Type(req.Type), req.Values,
	)
}

// getFeature handles GET /api/v1/features/{name}/.
func (s *Server) getFeature(w http.ResponseWriter, r *http.Request) {
	f, err := s.features.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, featureToResponse(f))
}

// putFeature handles PUT /api/v1/features/{name}/.
func (s *Server) putFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	f, err := featureFromRequest(chi.URLParam(r, "name"), req)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.features.Put(r.Context(), f); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, featureToResponse(f))
}

// listFeatures handles GET /api/v1/features/.
func (s *Server) listFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.features.List(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	out := make([]featureResponse, len(features))
	for i, f := range features {
		out[i] = featureToResponse(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": out})
}

// bulkPutFeatures handles PUT /api/v1/features/.
func (s *Server) bulkPutFeatures(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Features []featureRequest `json:"features"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	features := make([]domfeature.Feature, 0, len(req.Features))
	for _, fr := range req.Features {
		f, err := featureFromRequest(fr.Name, fr)
		if err != nil {
			s.handleError(w, err)
			return
		}
		features = append(features, f)
	}
	if err := s.features.BulkPut(r.Context(), features); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "features updated"})
}

// deleteFeature handles DELETE /api/v1/features/{name}/.
func (s *Server) deleteFeature(w http.ResponseWriter, r *http.Request) {
	if err := s.features.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryResponse struct {
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// listCategories handles GET /api/v1/categories/.
func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.features.Categories(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{Name: c.Name(), Color: c.Color(), Abbreviation: c.Abbreviation()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// putCategories handles PUT /api/v1/categories/.
func (s *Server) putCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []categoryResponse `json:"categories"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	categories := make([]domcategory.Category, 0, len(req.Categories))
	for _, cr := range req.Categories {
		c, err := domcategory.New(cr.Name, cr.Color, cr.Abbreviation)
		if err != nil {
			s.handleError(w, err)
			return
		}
		categories = append(categories, c)
	}
	if err := s.features.PutCategories(r.Context(), categories); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "categories updated"})
}

// deleteCategory handles DELETE /api/v1/categories/{name}/. Features
// referencing the category survive with a null category.
func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.features.DeleteCategory(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
