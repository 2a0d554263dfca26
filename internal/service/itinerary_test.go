package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamle62/webgis-du-lich/internal/domain"
	"github.com/lamle62/webgis-du-lich/internal/repo"
	"github.com/lamle62/webgis-du-lich/internal/service"
)

// mockItineraryRepo is a hand-written test double for repo.ItineraryRepo.
// Each method is a function field — set only the ones your test needs; an
// unset method panics, which makes unexpected repo calls fail loudly.
// withTx defaults to running the callback against the mock itself, so the
// same function fields serve both inside and outside a transaction.
type mockItineraryRepo struct {
	withTx          func(ctx context.Context, fn func(repo.ItineraryRepo) error) error
	insert          func(ctx context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error)
	getByID         func(ctx context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error)
	listByOwner     func(ctx context.Context, ownerID uuid.UUID) ([]domain.Itinerary, error)
	updateName      func(ctx context.Context, id, ownerID uuid.UUID, name string) error
	delete          func(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	listPlaceIDs    func(ctx context.Context, itineraryID uuid.UUID) ([]int64, error)
	listPlaces      func(ctx context.Context, itineraryID uuid.UUID) ([]domain.ItineraryPlace, error)
	insertPlace     func(ctx context.Context, itineraryID uuid.UUID, in domain.ItineraryPlaceInput) error
	updateVisitTime func(ctx context.Context, itineraryID uuid.UUID, placeID int64, visitTime *time.Time) error
	deletePlaces    func(ctx context.Context, itineraryID uuid.UUID, placeIDs []int64) error
	deletePlace     func(ctx context.Context, itineraryID uuid.UUID, placeID int64) error
	setVisited      func(ctx context.Context, itineraryID uuid.UUID, placeID int64, visited bool) error
}

func (m *mockItineraryRepo) WithTx(ctx context.Context, fn func(repo.ItineraryRepo) error) error {
	if m.withTx != nil {
		return m.withTx(ctx, fn)
	}
	return fn(m)
}
func (m *mockItineraryRepo) Insert(ctx context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error) {
	return m.insert(ctx, name, ownerID)
}
func (m *mockItineraryRepo) GetByID(ctx context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
	return m.getByID(ctx, id, ownerID)
}
func (m *mockItineraryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Itinerary, error) {
	return m.listByOwner(ctx, ownerID)
}
func (m *mockItineraryRepo) UpdateName(ctx context.Context, id, ownerID uuid.UUID, name string) error {
	return m.updateName(ctx, id, ownerID, name)
}
func (m *mockItineraryRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	return m.delete(ctx, id, ownerID)
}
func (m *mockItineraryRepo) ListPlaceIDs(ctx context.Context, itineraryID uuid.UUID) ([]int64, error) {
	return m.listPlaceIDs(ctx, itineraryID)
}
func (m *mockItineraryRepo) ListPlaces(ctx context.Context, itineraryID uuid.UUID) ([]domain.ItineraryPlace, error) {
	return m.listPlaces(ctx, itineraryID)
}
func (m *mockItineraryRepo) InsertPlace(ctx context.Context, itineraryID uuid.UUID, in domain.ItineraryPlaceInput) error {
	return m.insertPlace(ctx, itineraryID, in)
}
func (m *mockItineraryRepo) UpdateVisitTime(ctx context.Context, itineraryID uuid.UUID, placeID int64, visitTime *time.Time) error {
	return m.updateVisitTime(ctx, itineraryID, placeID, visitTime)
}
func (m *mockItineraryRepo) DeletePlaces(ctx context.Context, itineraryID uuid.UUID, placeIDs []int64) error {
	return m.deletePlaces(ctx, itineraryID, placeIDs)
}
func (m *mockItineraryRepo) DeletePlace(ctx context.Context, itineraryID uuid.UUID, placeID int64) error {
	return m.deletePlace(ctx, itineraryID, placeID)
}
func (m *mockItineraryRepo) SetVisited(ctx context.Context, itineraryID uuid.UUID, placeID int64, visited bool) error {
	return m.setVisited(ctx, itineraryID, placeID, visited)
}

// compile-time check: mockItineraryRepo must satisfy repo.ItineraryRepo.
var _ repo.ItineraryRepo = (*mockItineraryRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func placeInput(id int64) domain.ItineraryPlaceInput {
	return domain.ItineraryPlaceInput{PlaceID: id}
}

func noPlaces(ctx context.Context, _ uuid.UUID) ([]domain.ItineraryPlace, error) {
	return nil, nil
}

// ---- Create tests ----------------------------------------------------------

func TestItineraryService_Create_Valid(t *testing.T) {
	owner := uuid.New()
	itID := uuid.New()

	var inserted []int64
	m := &mockItineraryRepo{
		insert: func(_ context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error) {
			assert.Equal(t, "Da Nang Weekend", name)
			assert.Equal(t, owner, ownerID)
			return domain.Itinerary{ID: itID, Name: name, OwnerID: ownerID}, nil
		},
		insertPlace: func(_ context.Context, id uuid.UUID, in domain.ItineraryPlaceInput) error {
			assert.Equal(t, itID, id)
			inserted = append(inserted, in.PlaceID)
			return nil
		},
		listPlaces: func(_ context.Context, _ uuid.UUID) ([]domain.ItineraryPlace, error) {
			return []domain.ItineraryPlace{{PlaceID: 1}, {PlaceID: 2}}, nil
		},
	}
	svc := service.NewItineraryService(m)

	got, err := svc.Create(context.Background(), owner, "Da Nang Weekend", []domain.ItineraryPlaceInput{placeInput(1), placeInput(2)})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, inserted)
	assert.Len(t, got.Places, 2)
}

func TestItineraryService_Create_TrimsName(t *testing.T) {
	m := &mockItineraryRepo{
		insert: func(_ context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error) {
			assert.Equal(t, "Trip", name)
			return domain.Itinerary{ID: uuid.New(), Name: name, OwnerID: ownerID}, nil
		},
		listPlaces: noPlaces,
	}
	svc := service.NewItineraryService(m)

	got, err := svc.Create(context.Background(), uuid.New(), "  Trip  ", nil)

	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Name)
	assert.NotNil(t, got.Places, "Places must marshal as [], not null")
}

func TestItineraryService_Create_Invalid(t *testing.T) {
	// No function fields set: any repo call panics. Validation must reject
	// the input before the repo is ever touched.
	svc := service.NewItineraryService(&mockItineraryRepo{})
	ctx := context.Background()
	owner := uuid.New()

	cases := map[string]struct {
		name   string
		places []domain.ItineraryPlaceInput
	}{
		"emptyName":         {name: "", places: nil},
		"whitespaceName":    {name: "   ", places: nil},
		"zeroPlaceID":       {name: "Trip", places: []domain.ItineraryPlaceInput{placeInput(0)}},
		"negativePlaceID":   {name: "Trip", places: []domain.ItineraryPlaceInput{placeInput(-5)}},
		"duplicatePlaceIDs": {name: "Trip", places: []domain.ItineraryPlaceInput{placeInput(3), placeInput(3)}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tc.name, tc.places)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestItineraryService_Create_RollsBackOnPlaceError(t *testing.T) {
	badPlace := errors.New("fk violation")
	var committed bool
	m := &mockItineraryRepo{
		insert: func(_ context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{ID: uuid.New(), Name: name, OwnerID: ownerID}, nil
		},
		insertPlace: func(_ context.Context, _ uuid.UUID, _ domain.ItineraryPlaceInput) error {
			return badPlace
		},
	}
	m.withTx = func(ctx context.Context, fn func(repo.ItineraryRepo) error) error {
		err := fn(m)
		committed = err == nil
		return err
	}
	svc := service.NewItineraryService(m)

	_, err := svc.Create(context.Background(), uuid.New(), "Trip", []domain.ItineraryPlaceInput{placeInput(1)})

	require.ErrorIs(t, err, badPlace)
	assert.False(t, committed, "transaction must not commit when a place insert fails")
}

// ---- Update tests ----------------------------------------------------------

// updateRecorder wires a mockItineraryRepo that starts from the given current
// place ids and records every mutating call Update makes.
type updateRecorder struct {
	deleteBatches [][]int64
	inserted      []domain.ItineraryPlaceInput
	visitUpdates  []int64
}

func newUpdateMock(t *testing.T, currentIDs []int64, rec *updateRecorder) *mockItineraryRepo {
	t.Helper()
	return &mockItineraryRepo{
		updateName: func(_ context.Context, _, _ uuid.UUID, _ string) error { return nil },
		listPlaceIDs: func(_ context.Context, _ uuid.UUID) ([]int64, error) {
			return currentIDs, nil
		},
		deletePlaces: func(_ context.Context, _ uuid.UUID, ids []int64) error {
			rec.deleteBatches = append(rec.deleteBatches, ids)
			return nil
		},
		insertPlace: func(_ context.Context, _ uuid.UUID, in domain.ItineraryPlaceInput) error {
			rec.inserted = append(rec.inserted, in)
			return nil
		},
		updateVisitTime: func(_ context.Context, _ uuid.UUID, placeID int64, _ *time.Time) error {
			rec.visitUpdates = append(rec.visitUpdates, placeID)
			return nil
		},
		getByID: func(_ context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{ID: id, OwnerID: ownerID, Name: "Trip"}, nil
		},
		listPlaces: noPlaces,
	}
}

func TestItineraryService_Update_Reconciles(t *testing.T) {
	// Current {1,2,3}, desired {2,3,4}: delete [1] in one batch, insert 4,
	// reschedule 2 and 3.
	var rec updateRecorder
	m := newUpdateMock(t, []int64{1, 2, 3}, &rec)
	svc := service.NewItineraryService(m)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip",
		[]domain.ItineraryPlaceInput{placeInput(2), placeInput(3), placeInput(4)})

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1}}, rec.deleteBatches, "exactly one batched delete of removed ids")
	require.Len(t, rec.inserted, 1, "only genuinely new places get inserted")
	assert.Equal(t, int64(4), rec.inserted[0].PlaceID)
	assert.Equal(t, []int64{2, 3}, rec.visitUpdates, "kept places get visit-time updates, in input order")
}

func TestItineraryService_Update_NoChanges(t *testing.T) {
	var rec updateRecorder
	m := newUpdateMock(t, []int64{1, 2}, &rec)
	svc := service.NewItineraryService(m)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip",
		[]domain.ItineraryPlaceInput{placeInput(1), placeInput(2)})

	require.NoError(t, err)
	require.Len(t, rec.deleteBatches, 1)
	assert.Empty(t, rec.deleteBatches[0], "nothing to delete")
	assert.Empty(t, rec.inserted, "nothing to insert")
	assert.Equal(t, []int64{1, 2}, rec.visitUpdates)
}

func TestItineraryService_Update_ReplaceAll(t *testing.T) {
	var rec updateRecorder
	m := newUpdateMock(t, []int64{1, 2}, &rec)
	svc := service.NewItineraryService(m)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip",
		[]domain.ItineraryPlaceInput{placeInput(7), placeInput(8)})

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2}}, rec.deleteBatches)
	require.Len(t, rec.inserted, 2)
	assert.Empty(t, rec.visitUpdates)
}

func TestItineraryService_Update_ClearPlaces(t *testing.T) {
	var rec updateRecorder
	m := newUpdateMock(t, []int64{1, 2, 3}, &rec)
	svc := service.NewItineraryService(m)

	got, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip", nil)

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2, 3}}, rec.deleteBatches)
	assert.Empty(t, rec.inserted)
	assert.Empty(t, rec.visitUpdates)
	assert.NotNil(t, got.Places)
}

func TestItineraryService_Update_NeverCarriesVisitedFlag(t *testing.T) {
	// A client sending visited=true for a new place must not pre-mark it:
	// the flag changes only through ToggleVisited.
	var rec updateRecorder
	m := newUpdateMock(t, nil, &rec)
	svc := service.NewItineraryService(m)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip",
		[]domain.ItineraryPlaceInput{{PlaceID: 5, Visited: true}})

	require.NoError(t, err)
	require.Len(t, rec.inserted, 1)
	assert.False(t, rec.inserted[0].Visited)
}

func TestItineraryService_Update_NotOwned(t *testing.T) {
	m := &mockItineraryRepo{
		updateName: func(_ context.Context, _, _ uuid.UUID, _ string) error {
			return domain.ErrNotFound
		},
	}
	svc := service.NewItineraryService(m)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip", nil)

	// Someone else's itinerary is indistinguishable from a missing one, and
	// the rename failure stops the update before any place mutation.
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItineraryService_Update_Idempotent(t *testing.T) {
	// Applying the same desired list twice produces the same operations:
	// the second run starts from the reconciled state and changes nothing
	// beyond visit-time refreshes.
	desired := []domain.ItineraryPlaceInput{placeInput(2), placeInput(4)}

	var first updateRecorder
	svc := service.NewItineraryService(newUpdateMock(t, []int64{1, 2}, &first))
	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip", desired)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1}}, first.deleteBatches)
	require.Len(t, first.inserted, 1)

	var second updateRecorder
	svc = service.NewItineraryService(newUpdateMock(t, []int64{2, 4}, &second))
	_, err = svc.Update(context.Background(), uuid.New(), uuid.New(), "Trip", desired)
	require.NoError(t, err)
	require.Len(t, second.deleteBatches, 1)
	assert.Empty(t, second.deleteBatches[0])
	assert.Empty(t, second.inserted)
}

// ---- Get / List tests ------------------------------------------------------

func TestItineraryService_Get(t *testing.T) {
	itID := uuid.New()
	owner := uuid.New()
	m := &mockItineraryRepo{
		getByID: func(_ context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
			assert.Equal(t, itID, id)
			assert.Equal(t, owner, ownerID)
			return domain.Itinerary{ID: id, OwnerID: ownerID, Name: "Trip"}, nil
		},
		listPlaces: func(_ context.Context, _ uuid.UUID) ([]domain.ItineraryPlace, error) {
			return []domain.ItineraryPlace{{PlaceID: 9, Name: "Dragon Bridge"}}, nil
		},
	}
	svc := service.NewItineraryService(m)

	got, err := svc.Get(context.Background(), itID, owner)

	require.NoError(t, err)
	require.Len(t, got.Places, 1)
	assert.Equal(t, "Dragon Bridge", got.Places[0].Name)
}

func TestItineraryService_Get_NotFound(t *testing.T) {
	m := &mockItineraryRepo{
		getByID: func(_ context.Context, _, _ uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{}, domain.ErrNotFound
		},
	}
	svc := service.NewItineraryService(m)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItineraryService_List(t *testing.T) {
	owner := uuid.New()
	a, b := uuid.New(), uuid.New()
	m := &mockItineraryRepo{
		listByOwner: func(_ context.Context, _ uuid.UUID) ([]domain.Itinerary, error) {
			return []domain.Itinerary{
				{ID: a, OwnerID: owner, Name: "A"},
				{ID: b, OwnerID: owner, Name: "B"},
			}, nil
		},
		listPlaces: func(_ context.Context, id uuid.UUID) ([]domain.ItineraryPlace, error) {
			if id == a {
				return []domain.ItineraryPlace{{PlaceID: 1}}, nil
			}
			return nil, nil
		},
	}
	svc := service.NewItineraryService(m)

	got, err := svc.List(context.Background(), owner)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Places, 1)
	assert.NotNil(t, got[1].Places, "empty place list stays non-nil")
}

func TestItineraryService_List_Empty(t *testing.T) {
	m := &mockItineraryRepo{
		listByOwner: func(_ context.Context, _ uuid.UUID) ([]domain.Itinerary, error) {
			return nil, nil
		},
	}
	svc := service.NewItineraryService(m)

	got, err := svc.List(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, got, "empty list must marshal as [], not null")
	assert.Empty(t, got)
}

// ---- Delete / RemovePlace / ToggleVisited ----------------------------------

func TestItineraryService_Delete(t *testing.T) {
	m := &mockItineraryRepo{
		delete: func(_ context.Context, _, _ uuid.UUID) (bool, error) { return true, nil },
	}
	svc := service.NewItineraryService(m)

	deleted, err := svc.Delete(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestItineraryService_RemovePlace(t *testing.T) {
	itID := uuid.New()
	var deletedPlace int64
	m := &mockItineraryRepo{
		getByID: func(_ context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{ID: id, OwnerID: ownerID, Name: "Trip"}, nil
		},
		deletePlace: func(_ context.Context, _ uuid.UUID, placeID int64) error {
			deletedPlace = placeID
			return nil
		},
		listPlaces: noPlaces,
	}
	svc := service.NewItineraryService(m)

	got, err := svc.RemovePlace(context.Background(), itID, 42, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, int64(42), deletedPlace)
	assert.NotNil(t, got.Places)
}

func TestItineraryService_RemovePlace_NotOnItinerary(t *testing.T) {
	m := &mockItineraryRepo{
		getByID: func(_ context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{ID: id, OwnerID: ownerID}, nil
		},
		deletePlace: func(_ context.Context, _ uuid.UUID, _ int64) error {
			return domain.ErrNotFound
		},
	}
	svc := service.NewItineraryService(m)

	_, err := svc.RemovePlace(context.Background(), uuid.New(), 42, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItineraryService_ToggleVisited(t *testing.T) {
	var set []bool
	m := &mockItineraryRepo{
		getByID: func(_ context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{ID: id, OwnerID: ownerID}, nil
		},
		setVisited: func(_ context.Context, _ uuid.UUID, _ int64, visited bool) error {
			set = append(set, visited)
			return nil
		},
	}
	svc := service.NewItineraryService(m)
	ctx := context.Background()

	require.NoError(t, svc.ToggleVisited(ctx, uuid.New(), 7, uuid.New(), true))
	require.NoError(t, svc.ToggleVisited(ctx, uuid.New(), 7, uuid.New(), true))

	assert.Equal(t, []bool{true, true}, set, "re-marking visited is accepted")
}

func TestItineraryService_ToggleVisited_ChecksOwnershipFirst(t *testing.T) {
	m := &mockItineraryRepo{
		getByID: func(_ context.Context, _, _ uuid.UUID) (domain.Itinerary, error) {
			return domain.Itinerary{}, domain.ErrNotFound
		},
		// setVisited unset: calling it would panic.
	}
	svc := service.NewItineraryService(m)

	err := svc.ToggleVisited(context.Background(), uuid.New(), 7, uuid.New(), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
