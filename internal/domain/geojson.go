package domain

// GeoJSON types for the bulk catalog export consumed by the map client.
// Only Point geometries are produced; the types follow RFC 7946 field names.

// FeatureCollection is the top-level GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"` // always "FeatureCollection"
	Features []Feature `json:"features"`
}

// Feature is one place rendered as a GeoJSON feature.
type Feature struct {
	Type       string            `json:"type"` // always "Feature"
	Geometry   PointGeometry     `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// PointGeometry holds coordinates in GeoJSON order: [longitude, latitude].
type PointGeometry struct {
	Type        string     `json:"type"` // always "Point"
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties carries the place attributes the map popup displays.
type FeatureProperties struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Province    string  `json:"province"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating"`
	Price       float64 `json:"price"`
	Parking     bool    `json:"parking"`
}

// Feature converts a Place into its GeoJSON representation.
func (p Place) Feature() Feature {
	return Feature{
		Type: "Feature",
		Geometry: PointGeometry{
			Type:        "Point",
			Coordinates: [2]float64{p.Lon, p.Lat},
		},
		Properties: FeatureProperties{
			ID:          p.ID,
			Name:        p.Name,
			Type:        p.Type,
			Province:    p.Province,
			Address:     p.Address,
			Description: p.Description,
			Rating:      p.Rating,
			Price:       p.Price,
			Parking:     p.Parking,
		},
	}
}

// NewFeatureCollection builds a FeatureCollection from catalog places.
// The Features slice is never nil so the export marshals as [] rather than null.
func NewFeatureCollection(places []Place) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(places))}
	for _, p := range places {
		fc.Features = append(fc.Features, p.Feature())
	}
	return fc
}
