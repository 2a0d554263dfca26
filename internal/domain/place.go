package domain

import "time"

// Place is a point of interest from the catalog: a geographic position plus
// the descriptive attributes shown on the map and detail pages.
// Places are shared, read-mostly data — itineraries reference them by ID and
// never own them.
type Place struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Province    string    `json:"province"`
	District    string    `json:"district,omitempty"`
	Ward        string    `json:"ward,omitempty"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Rating      float64   `json:"rating"`
	Price       float64   `json:"price"`
	Parking     bool      `json:"parking"`
	Views       int64     `json:"views"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NearbyPlace is a Place annotated with its spherical distance in meters from
// the query center.
type NearbyPlace struct {
	Place
	DistanceMeters float64 `json:"distance_m"`
}

// PlaceFilter holds the optional, AND-combined criteria for catalog
// filtering. Zero values (empty string, nil pointer) mean "no constraint".
type PlaceFilter struct {
	// Type matches the category tag case-insensitively (exact match).
	Type string
	// Province, District, and Ward are case-insensitive substring matches.
	Province string
	District string
	Ward     string
	// MinRating keeps places rated at or above the given value.
	MinRating *float64
	// MaxPrice keeps places priced at or below the given value.
	MaxPrice *float64
	// Parking, when set, requires the parking flag to equal the given value.
	Parking *bool
}

// IsZero reports whether no criteria are set and the filter would match the
// whole catalog.
func (f PlaceFilter) IsZero() bool {
	return f.Type == "" && f.Province == "" && f.District == "" && f.Ward == "" &&
		f.MinRating == nil && f.MaxPrice == nil && f.Parking == nil
}
