package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamle62/webgis-du-lich/internal/domain"
	"github.com/lamle62/webgis-du-lich/internal/repo"
)

func TestPlaceRepo_InsertAndGet(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	created, err := r.Insert(ctx, domain.Place{
		Name:     "My Khe Beach",
		Type:     "beach",
		Address:  "Vo Nguyen Giap",
		Province: "Da Nang",
		District: "Son Tra",
		Rating:   4.5,
		Price:    0,
		Parking:  true,
		Lon:      108.2460,
		Lat:      16.0544,
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID, "ID should be DB-generated")

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "My Khe Beach", got.Name)
	assert.Equal(t, "beach", got.Type)
	assert.True(t, got.Parking)
	assert.InDelta(t, 108.2460, got.Lon, 1e-9)
	assert.InDelta(t, 16.0544, got.Lat, 1e-9)
	assert.Zero(t, got.Views)
}

func TestPlaceRepo_GetByID_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)

	_, err := r.GetByID(context.Background(), 987654)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceRepo_GetByIDs(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	a := seedPlace(t, tx, "A", 108.1, 16.1)
	b := seedPlace(t, tx, "B", 108.2, 16.2)

	// Unknown ids are silently skipped rather than failing the batch.
	places, err := r.GetByIDs(ctx, []int64{a, b, 999999})
	require.NoError(t, err)
	assert.Len(t, places, 2)

	places, err = r.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestPlaceRepo_Filter(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	insert := func(p domain.Place) int64 {
		created, err := r.Insert(ctx, p)
		require.NoError(t, err)
		return created.ID
	}

	cheapEats := insert(domain.Place{Name: "Banh Mi Ba Lan", Type: "restaurant", Province: "Da Nang", District: "Hai Chau", Rating: 4.2, Price: 30000, Lon: 108.21, Lat: 16.06})
	fancyEats := insert(domain.Place{Name: "Rooftop Dining", Type: "restaurant", Province: "Da Nang", District: "Son Tra", Rating: 4.8, Price: 500000, Parking: true, Lon: 108.24, Lat: 16.07})
	hotel := insert(domain.Place{Name: "Riverside Hotel", Type: "hotel", Province: "Da Nang", District: "Hai Chau", Rating: 3.9, Price: 800000, Parking: true, Lon: 108.22, Lat: 16.07})

	t.Run("byType", func(t *testing.T) {
		places, err := r.Filter(ctx, domain.PlaceFilter{Type: "Restaurant"})
		require.NoError(t, err)
		ids := placeIDs(places)
		assert.Contains(t, ids, cheapEats)
		assert.Contains(t, ids, fancyEats)
		assert.NotContains(t, ids, hotel)
	})

	t.Run("byDistrict", func(t *testing.T) {
		places, err := r.Filter(ctx, domain.PlaceFilter{District: "Hai Chau"})
		require.NoError(t, err)
		ids := placeIDs(places)
		assert.Contains(t, ids, cheapEats)
		assert.Contains(t, ids, hotel)
		assert.NotContains(t, ids, fancyEats)
	})

	t.Run("byMinRating", func(t *testing.T) {
		minRating := 4.5
		places, err := r.Filter(ctx, domain.PlaceFilter{MinRating: &minRating})
		require.NoError(t, err)
		ids := placeIDs(places)
		assert.Contains(t, ids, fancyEats)
		assert.NotContains(t, ids, cheapEats)
	})

	t.Run("byMaxPrice", func(t *testing.T) {
		maxPrice := 100000.0
		places, err := r.Filter(ctx, domain.PlaceFilter{Type: "restaurant", MaxPrice: &maxPrice})
		require.NoError(t, err)
		ids := placeIDs(places)
		assert.Contains(t, ids, cheapEats)
		assert.NotContains(t, ids, fancyEats)
	})

	t.Run("byParking", func(t *testing.T) {
		parking := true
		places, err := r.Filter(ctx, domain.PlaceFilter{Type: "restaurant", Parking: &parking})
		require.NoError(t, err)
		ids := placeIDs(places)
		assert.Contains(t, ids, fancyEats)
		assert.NotContains(t, ids, cheapEats)
	})

	t.Run("combined", func(t *testing.T) {
		minRating := 4.0
		places, err := r.Filter(ctx, domain.PlaceFilter{Type: "restaurant", District: "Son Tra", MinRating: &minRating})
		require.NoError(t, err)
		assert.Equal(t, []int64{fancyEats}, placeIDs(places))
	})
}

func TestPlaceRepo_Nearby(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	// Dragon Bridge as the center; the others sit at known distances from it.
	center := seedPlace(t, tx, "Dragon Bridge", 108.2272, 16.0614)
	near := seedPlace(t, tx, "Han Market", 108.2241, 16.0678) // ~780m
	far := seedPlace(t, tx, "Marble Mountains", 108.2631, 16.0039) // ~7.5km
	_ = far

	nearby, err := r.Nearby(ctx, center, 3000)
	require.NoError(t, err)
	require.Len(t, nearby, 1, "only the close place is within 3km")

	assert.Equal(t, near, nearby[0].ID)
	assert.Greater(t, nearby[0].DistanceMeters, 0.0)
	assert.Less(t, nearby[0].DistanceMeters, 3000.0)

	// A wider radius picks up both, ordered closest first.
	nearby, err = r.Nearby(ctx, center, 10000)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, near, nearby[0].ID)
	assert.Equal(t, far, nearby[1].ID)
	assert.Less(t, nearby[0].DistanceMeters, nearby[1].DistanceMeters)
}

func TestPlaceRepo_Nearby_UnknownCenter(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)

	_, err := r.Nearby(context.Background(), 424242, 3000)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceRepo_IncrementViews(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	id := seedPlace(t, tx, "Cau Rong", 108.2272, 16.0614)

	require.NoError(t, r.IncrementViews(ctx, id))
	require.NoError(t, r.IncrementViews(ctx, id))

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
}

func TestPlaceRepo_Update(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	created, err := r.Insert(ctx, domain.Place{Name: "Old Name", Type: "cafe", Province: "Da Nang", Lon: 108.2, Lat: 16.0})
	require.NoError(t, err)

	created.Name = "New Name"
	created.Rating = 4.0
	created.Lon = 108.25
	updated, err := r.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.InDelta(t, 4.0, updated.Rating, 1e-9)
	assert.InDelta(t, 108.25, updated.Lon, 1e-9)
}

func TestPlaceRepo_Update_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)

	_, err := r.Update(context.Background(), domain.Place{ID: 777777, Name: "Ghost", Type: "cafe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceRepo_Delete(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewPlaceRepo(tx)
	ctx := context.Background()

	id := seedPlace(t, tx, "Short-lived", 108.2, 16.0)

	require.NoError(t, r.Delete(ctx, id))

	_, err := r.GetByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = r.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceRepo_Delete_Referenced(t *testing.T) {
	tx := newTestTx(t)
	placeRepo := repo.NewPlaceRepo(tx)
	itinRepo := repo.NewItineraryRepo(tx)
	ctx := context.Background()

	id := seedPlace(t, tx, "Popular Spot", 108.2, 16.0)
	it, err := itinRepo.Insert(ctx, "Trip", uuid.New())
	require.NoError(t, err)
	require.NoError(t, itinRepo.InsertPlace(ctx, it.ID, domain.ItineraryPlaceInput{PlaceID: id}))

	// A place referenced by an itinerary cannot be removed from the catalog.
	err = placeRepo.Delete(ctx, id)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func placeIDs(places []domain.Place) []int64 {
	ids := make([]int64, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	return ids
}
