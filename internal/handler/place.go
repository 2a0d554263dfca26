package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lamle62/webgis-du-lich/internal/domain"
)

// placeRequest is the body for the admin curation endpoints.
type placeRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Province    string  `json:"province"`
	District    string  `json:"district"`
	Ward        string  `json:"ward"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	Price       float64 `json:"price"`
	Parking     bool    `json:"parking"`
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
}

// ListPlaces handles GET /api/places. The optional ?ids= parameter
// (comma-separated) restricts the result to a batch lookup; unknown ids are
// omitted rather than failing the request.
func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	var (
		places []domain.Place
		err    error
	)
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids, perr := parseIDList(raw)
		if perr != nil {
			badRequest(w, "ids must be a comma-separated list of integers")
			return
		}
		places, err = s.places.GetByIDs(r.Context(), ids)
	} else {
		places, err = s.places.List(r.Context())
	}
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places})
}

// parseIDList parses a comma-separated list of place ids.
func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetPlacesGeoJSON handles GET /api/places/geojson — the bulk export the map
// client renders.
func (s *Server) GetPlacesGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc, err := s.places.GeoJSON(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// FilterPlaces handles GET /api/places/filter.
// All criteria are optional query parameters, AND-combined.
func (s *Server) FilterPlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.PlaceFilter{
		Type:     q.Get("type"),
		Province: q.Get("province"),
		District: q.Get("district"),
		Ward:     q.Get("ward"),
	}

	if v := q.Get("min_rating"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(w, "min_rating must be a number")
			return
		}
		f.MinRating = &n
	}
	if v := q.Get("max_price"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(w, "max_price must be a number")
			return
		}
		f.MaxPrice = &n
	}
	if v := q.Get("parking"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "parking must be a boolean")
			return
		}
		f.Parking = &b
	}

	places, err := s.places.Filter(r.Context(), f)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places})
}

// GetPlace handles GET /api/places/{id}.
func (s *Server) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, ok := placeIDParam(w, r)
	if !ok {
		return
	}

	place, err := s.places.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "place not found")
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// GetNearbyPlaces handles GET /api/places/{id}/nearby.
// The optional ?radius= parameter is in meters.
func (s *Server) GetNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	id, ok := placeIDParam(w, r)
	if !ok {
		return
	}

	var radius float64
	if v := r.URL.Query().Get("radius"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			badRequest(w, "radius must be a positive number of meters")
			return
		}
		radius = n
	}

	nearby, err := s.places.Nearby(r.Context(), id, radius)
	if err != nil {
		writeError(w, err, "place not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nearby": nearby})
}

// CreatePlace handles POST /api/admin/places.
func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	created, err := s.places.CreatePlace(r.Context(), placeFromRequest(req, 0))
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePlace handles PUT /api/admin/places/{id}.
func (s *Server) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	id, ok := placeIDParam(w, r)
	if !ok {
		return
	}
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	updated, err := s.places.UpdatePlace(r.Context(), placeFromRequest(req, id))
	if err != nil {
		writeError(w, err, "place not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePlace handles DELETE /api/admin/places/{id}.
func (s *Server) DeletePlace(w http.ResponseWriter, r *http.Request) {
	id, ok := placeIDParam(w, r)
	if !ok {
		return
	}

	if err := s.places.DeletePlace(r.Context(), id); err != nil {
		writeError(w, err, "place not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// placeIDParam parses the {id} path parameter, writing the error response
// itself when it is not an integer.
func placeIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "place id must be an integer")
		return 0, false
	}
	return id, true
}

// placeFromRequest maps a curation request body onto a domain.Place.
func placeFromRequest(req placeRequest, id int64) domain.Place {
	return domain.Place{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Province:    req.Province,
		District:    req.District,
		Ward:        req.Ward,
		Address:     req.Address,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Rating:      req.Rating,
		Price:       req.Price,
		Parking:     req.Parking,
		Lon:         req.Lon,
		Lat:         req.Lat,
	}
}
