// Package domain contains the core data types for the travel itinerary API.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Itinerary is a named, owned collection of places with per-place visit
// scheduling. It is the top-level aggregate; itinerary_places rows belong to
// it and are cascade-deleted with it.
//
// Only the owner may read, mutate, or delete an itinerary. Lookups by a
// non-owner report ErrNotFound rather than a distinct authorization error.
type Itinerary struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	Places    []ItineraryPlace `json:"places"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ItineraryPlace is one place scheduled on an itinerary, denormalized with
// the place attributes the map UI needs. VisitTime is nil when the user has
// not scheduled the visit yet; unscheduled places sort after scheduled ones.
type ItineraryPlace struct {
	PlaceID   int64      `json:"place_id"`
	VisitTime *time.Time `json:"visit_time,omitempty"`
	Visited   bool       `json:"visited"`

	// Denormalized place attributes, joined from the catalog.
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Province string  `json:"province"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
}

// ItineraryPlaceInput is the caller-supplied desired state for one place on
// an itinerary. Visited is only honoured by Create; Update never changes the
// visited flag (that is ToggleVisited's job).
type ItineraryPlaceInput struct {
	PlaceID   int64      `json:"place_id"`
	VisitTime *time.Time `json:"visit_time,omitempty"`
	Visited   bool       `json:"visited,omitempty"`
}
