package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lamle62/webgis-du-lich/internal/domain"
	"github.com/lamle62/webgis-du-lich/internal/repo"
)

// DefaultNearbyRadiusMeters is used when a nearby query does not specify a
// radius; it matches the map client's default suggestion range.
const DefaultNearbyRadiusMeters = 3000

// Cache keys for the read-mostly catalog responses.
const (
	geoJSONCacheKey   = "places:geojson"
	nearbyCacheFormat = "places:nearby:%d:%d"
)

// Cache is the caching behaviour PlaceService depends on. Defining the
// interface here (in the consumer package) lets tests inject an in-memory
// fake and keeps the service ignorant of redis. Get reports whether the key
// was present.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// PlaceService implements catalog reads for the map UI plus the admin
// curation writes. GeoJSON and nearby responses are cached: the catalog is
// read-mostly and those two queries dominate map traffic.
type PlaceService struct {
	places repo.PlaceRepo
	cache  Cache
	ttl    time.Duration
}

// NewPlaceService constructs a PlaceService. ttl controls how long cached
// catalog responses live; curation writes invalidate the geojson entry
// eagerly while nearby entries age out on their own.
func NewPlaceService(r repo.PlaceRepo, c Cache, ttl time.Duration) *PlaceService {
	return &PlaceService{places: r, cache: c, ttl: ttl}
}

// Get returns one place and bumps its view counter, mirroring the detail
// page behaviour. The counter bump is best-effort only in the sense that it
// happens after the fetch; a missing place never increments anything.
func (s *PlaceService) Get(ctx context.Context, id int64) (domain.Place, error) {
	p, err := s.places.GetByID(ctx, id)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Get: %w", err)
	}
	if err := s.places.IncrementViews(ctx, id); err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Get: %w", err)
	}
	p.Views++
	return p, nil
}

// GetByIDs returns the places for the given ids, in no particular order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *PlaceService) GetByIDs(ctx context.Context, ids []int64) ([]domain.Place, error) {
	places, err := s.places.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceService.GetByIDs: %w", err)
	}
	if places == nil {
		places = []domain.Place{}
	}
	return places, nil
}

// List returns the whole catalog ordered by id.
func (s *PlaceService) List(ctx context.Context) ([]domain.Place, error) {
	places, err := s.places.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceService.List: %w", err)
	}
	if places == nil {
		places = []domain.Place{}
	}
	return places, nil
}

// Filter returns catalog places matching all set criteria.
func (s *PlaceService) Filter(ctx context.Context, f domain.PlaceFilter) ([]domain.Place, error) {
	places, err := s.places.Filter(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceService.Filter: %w", err)
	}
	if places == nil {
		places = []domain.Place{}
	}
	return places, nil
}

// Nearby returns places within radiusMeters of the given place, nearest
// first. A non-positive radius falls back to DefaultNearbyRadiusMeters.
// Results are cached per (place, radius) pair.
func (s *PlaceService) Nearby(ctx context.Context, id int64, radiusMeters float64) ([]domain.NearbyPlace, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadiusMeters
	}

	key := fmt.Sprintf(nearbyCacheFormat, id, int64(radiusMeters))
	var cached []domain.NearbyPlace
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	nearby, err := s.places.Nearby(ctx, id, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceService.Nearby: %w", err)
	}
	if nearby == nil {
		nearby = []domain.NearbyPlace{}
	}

	// A failed cache write only costs the next caller a DB round trip.
	_ = s.cache.Set(ctx, key, nearby, s.ttl)
	return nearby, nil
}

// GeoJSON returns the whole catalog as a FeatureCollection for map
// rendering. The export is cached: it is the single heaviest read and every
// map load requests it.
func (s *PlaceService) GeoJSON(ctx context.Context) (domain.FeatureCollection, error) {
	var cached domain.FeatureCollection
	if hit, err := s.cache.Get(ctx, geoJSONCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	places, err := s.places.List(ctx)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("service.PlaceService.GeoJSON: %w", err)
	}
	fc := domain.NewFeatureCollection(places)

	_ = s.cache.Set(ctx, geoJSONCacheKey, fc, s.ttl)
	return fc, nil
}

// CreatePlace adds a place to the catalog (admin curation) and invalidates
// the cached export.
func (s *PlaceService) CreatePlace(ctx context.Context, p domain.Place) (domain.Place, error) {
	if err := validatePlace(p); err != nil {
		return domain.Place{}, err
	}
	created, err := s.places.Insert(ctx, p)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.CreatePlace: %w", err)
	}
	_ = s.cache.Del(ctx, geoJSONCacheKey)
	return created, nil
}

// UpdatePlace overwrites a catalog place (admin curation) and invalidates
// the cached export. Nearby entries referencing the old position age out via
// their TTL.
func (s *PlaceService) UpdatePlace(ctx context.Context, p domain.Place) (domain.Place, error) {
	if err := validatePlace(p); err != nil {
		return domain.Place{}, err
	}
	updated, err := s.places.Update(ctx, p)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.UpdatePlace: %w", err)
	}
	_ = s.cache.Del(ctx, geoJSONCacheKey)
	return updated, nil
}

// DeletePlace removes a catalog place (admin curation) and invalidates the
// cached export. A place still referenced by an itinerary cannot be deleted
// and surfaces as domain.ErrValidation.
func (s *PlaceService) DeletePlace(ctx context.Context, id int64) error {
	if err := s.places.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.PlaceService.DeletePlace: %w", err)
	}
	_ = s.cache.Del(ctx, geoJSONCacheKey)
	return nil
}

// validatePlace enforces catalog business rules for curation writes:
// a non-empty name and a coordinate pair inside WGS84 bounds.
func validatePlace(p domain.Place) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude out of range", domain.ErrValidation)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude out of range", domain.ErrValidation)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}
	return nil
}
