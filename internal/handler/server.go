// Package handler implements the HTTP handlers for the travel itinerary API.
// All handlers are methods on Server; methods are split into domain-specific
// files (health.go, itinerary.go, place.go) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lamle62/webgis-du-lich/internal/domain"
	"github.com/lamle62/webgis-du-lich/internal/middleware"
)

// ItineraryServicer defines the business operations the itinerary handlers
// depend on. Defining the interface here (in the consumer package) follows
// the Go convention: "accept interfaces, return concrete types". It lets
// handler tests inject a mock without touching the database or service layer.
type ItineraryServicer interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string, places []domain.ItineraryPlaceInput) (domain.Itinerary, error)
	Get(ctx context.Context, itineraryID, callerID uuid.UUID) (domain.Itinerary, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Itinerary, error)
	Update(ctx context.Context, itineraryID, callerID uuid.UUID, name string, desired []domain.ItineraryPlaceInput) (domain.Itinerary, error)
	Delete(ctx context.Context, itineraryID, callerID uuid.UUID) (bool, error)
	RemovePlace(ctx context.Context, itineraryID uuid.UUID, placeID int64, callerID uuid.UUID) (domain.Itinerary, error)
	ToggleVisited(ctx context.Context, itineraryID uuid.UUID, placeID int64, callerID uuid.UUID, visited bool) error
}

// PlaceServicer defines the catalog operations the place handlers depend on.
type PlaceServicer interface {
	Get(ctx context.Context, id int64) (domain.Place, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Place, error)
	List(ctx context.Context) ([]domain.Place, error)
	Filter(ctx context.Context, f domain.PlaceFilter) ([]domain.Place, error)
	Nearby(ctx context.Context, id int64, radiusMeters float64) ([]domain.NearbyPlace, error)
	GeoJSON(ctx context.Context) (domain.FeatureCollection, error)
	CreatePlace(ctx context.Context, p domain.Place) (domain.Place, error)
	UpdatePlace(ctx context.Context, p domain.Place) (domain.Place, error)
	DeletePlace(ctx context.Context, id int64) error
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	itineraries ItineraryServicer
	places      PlaceServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(itineraries ItineraryServicer, places PlaceServicer) *Server {
	return &Server{itineraries: itineraries, places: places}
}

// Routes registers all API endpoints on r. Identity extraction must already
// be wired on the parent router; the groups below only enforce presence.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)

	r.Route("/api/places", func(r chi.Router) {
		r.Get("/", s.ListPlaces)
		r.Get("/geojson", s.GetPlacesGeoJSON)
		r.Get("/filter", s.FilterPlaces)
		r.Get("/{id}", s.GetPlace)
		r.Get("/{id}/nearby", s.GetNearbyPlaces)
	})

	r.Route("/api/admin/places", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/", s.CreatePlace)
		r.Put("/{id}", s.UpdatePlace)
		r.Delete("/{id}", s.DeletePlace)
	})

	r.Route("/api/itineraries", func(r chi.Router) {
		r.Use(middleware.RequireIdentity)
		r.Post("/", s.CreateItinerary)
		r.Get("/", s.ListItineraries)
		r.Get("/{id}", s.GetItinerary)
		r.Put("/{id}", s.UpdateItinerary)
		r.Delete("/{id}", s.DeleteItinerary)
		r.Delete("/{id}/places/{placeID}", s.RemoveItineraryPlace)
		r.Patch("/{id}/places/{placeID}/status", s.SetItineraryPlaceStatus)
	})
}
