package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lamle62/webgis-du-lich/internal/domain"
	"github.com/lamle62/webgis-du-lich/internal/middleware"
)

// itineraryRequest is the body for POST /api/itineraries and
// PUT /api/itineraries/{id}.
type itineraryRequest struct {
	Name   string                  `json:"name"`
	Places []itineraryPlaceRequest `json:"places"`
}

// itineraryPlaceRequest is one desired place entry. Visited is honoured on
// create only; updates manage the flag through the dedicated status endpoint.
type itineraryPlaceRequest struct {
	PlaceID   int64      `json:"place_id"`
	VisitTime *time.Time `json:"visit_time,omitempty"`
	Visited   bool       `json:"visited,omitempty"`
}

// statusRequest is the body for PATCH .../places/{placeID}/status.
// Visited is a pointer so a missing field is distinguishable from false.
type statusRequest struct {
	Visited *bool `json:"visited"`
}

// CreateItinerary handles POST /api/itineraries.
func (s *Server) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, "")
		return
	}

	var req itineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	created, err := s.itineraries.Create(r.Context(), caller.ID, req.Name, placeInputs(req.Places))
	if err != nil {
		writeError(w, err, "itinerary not found")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListItineraries handles GET /api/itineraries.
func (s *Server) ListItineraries(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, "")
		return
	}

	its, err := s.itineraries.List(r.Context(), caller.ID)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"itineraries": its})
}

// GetItinerary handles GET /api/itineraries/{id}.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	caller, itineraryID, ok := s.itineraryCall(w, r)
	if !ok {
		return
	}

	it, err := s.itineraries.Get(r.Context(), itineraryID, caller.ID)
	if err != nil {
		writeError(w, err, "itinerary not found")
		return
	}

	writeJSON(w, http.StatusOK, it)
}

// UpdateItinerary handles PUT /api/itineraries/{id} — the reconciling update.
func (s *Server) UpdateItinerary(w http.ResponseWriter, r *http.Request) {
	caller, itineraryID, ok := s.itineraryCall(w, r)
	if !ok {
		return
	}

	var req itineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	updated, err := s.itineraries.Update(r.Context(), itineraryID, caller.ID, req.Name, placeInputs(req.Places))
	if err != nil {
		writeError(w, err, "itinerary not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteItinerary handles DELETE /api/itineraries/{id}.
func (s *Server) DeleteItinerary(w http.ResponseWriter, r *http.Request) {
	caller, itineraryID, ok := s.itineraryCall(w, r)
	if !ok {
		return
	}

	deleted, err := s.itineraries.Delete(r.Context(), itineraryID, caller.ID)
	if err != nil {
		writeError(w, err, "")
		return
	}
	if !deleted {
		writeError(w, domain.ErrNotFound, "itinerary not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveItineraryPlace handles DELETE /api/itineraries/{id}/places/{placeID}.
func (s *Server) RemoveItineraryPlace(w http.ResponseWriter, r *http.Request) {
	caller, itineraryID, ok := s.itineraryCall(w, r)
	if !ok {
		return
	}
	placeID, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		badRequest(w, "place id must be an integer")
		return
	}

	it, err := s.itineraries.RemovePlace(r.Context(), itineraryID, placeID, caller.ID)
	if err != nil {
		writeError(w, err, "itinerary or place not found")
		return
	}

	writeJSON(w, http.StatusOK, it)
}

// SetItineraryPlaceStatus handles PATCH /api/itineraries/{id}/places/{placeID}/status.
// Setting the current value again succeeds — the operation is idempotent.
func (s *Server) SetItineraryPlaceStatus(w http.ResponseWriter, r *http.Request) {
	caller, itineraryID, ok := s.itineraryCall(w, r)
	if !ok {
		return
	}
	placeID, err := strconv.ParseInt(chi.URLParam(r, "placeID"), 10, 64)
	if err != nil {
		badRequest(w, "place id must be an integer")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Visited == nil {
		badRequest(w, "body must contain a boolean \"visited\" field")
		return
	}

	if err := s.itineraries.ToggleVisited(r.Context(), itineraryID, placeID, caller.ID, *req.Visited); err != nil {
		writeError(w, err, "itinerary or place not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"visited": *req.Visited})
}

// itineraryCall extracts the caller identity and the itinerary id path
// parameter, writing the error response itself when either is missing.
func (s *Server) itineraryCall(w http.ResponseWriter, r *http.Request) (domain.Identity, uuid.UUID, bool) {
	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, "")
		return domain.Identity{}, uuid.Nil, false
	}
	itineraryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "itinerary id must be a UUID")
		return domain.Identity{}, uuid.Nil, false
	}
	return caller, itineraryID, true
}

// placeInputs converts request place entries into domain inputs.
func placeInputs(reqs []itineraryPlaceRequest) []domain.ItineraryPlaceInput {
	inputs := make([]domain.ItineraryPlaceInput, len(reqs))
	for i, p := range reqs {
		inputs[i] = domain.ItineraryPlaceInput{
			PlaceID:   p.PlaceID,
			VisitTime: p.VisitTime,
			Visited:   p.Visited,
		}
	}
	return inputs
}
