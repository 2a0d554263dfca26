// Package service contains the business logic for the travel itinerary API.
// Services validate inputs, enforce ownership, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lamle62/webgis-du-lich/internal/domain"
	"github.com/lamle62/webgis-du-lich/internal/repo"
)

// listConcurrency bounds the parallel place-loading fan-out in List.
const listConcurrency = 4

// ItineraryService implements the itinerary operations, including the
// reconciling update that moves the persisted place set to a caller-supplied
// desired state with the minimum number of row changes.
//
// Every operation takes the caller identity explicitly; an itinerary that
// exists but belongs to someone else behaves exactly like a missing one.
type ItineraryService struct {
	itineraries repo.ItineraryRepo
}

// NewItineraryService constructs an ItineraryService backed by the provided repo.
func NewItineraryService(r repo.ItineraryRepo) *ItineraryService {
	return &ItineraryService{itineraries: r}
}

// Create validates and persists a new itinerary with its initial places.
// The itinerary row and all association rows are written in one transaction:
// if any place insert fails (e.g. an unknown place id), nothing is created.
func (s *ItineraryService) Create(ctx context.Context, ownerID uuid.UUID, name string, places []domain.ItineraryPlaceInput) (domain.Itinerary, error) {
	if err := validateItineraryInput(name, places); err != nil {
		return domain.Itinerary{}, err
	}

	var result domain.Itinerary
	err := s.itineraries.WithTx(ctx, func(tx repo.ItineraryRepo) error {
		it, err := tx.Insert(ctx, strings.TrimSpace(name), ownerID)
		if err != nil {
			return err
		}
		for _, p := range places {
			if err := tx.InsertPlace(ctx, it.ID, p); err != nil {
				return err
			}
		}
		it.Places, err = tx.ListPlaces(ctx, it.ID)
		if err != nil {
			return err
		}
		result = it
		return nil
	})
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}

	ensurePlaces(&result)
	return result, nil
}

// Get returns the itinerary with its denormalized places, ordered by visit
// time ascending with unscheduled places last.
// Returns domain.ErrNotFound when missing or not owned by callerID.
func (s *ItineraryService) Get(ctx context.Context, itineraryID, callerID uuid.UUID) (domain.Itinerary, error) {
	it, err := s.itineraries.GetByID(ctx, itineraryID, callerID)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	it.Places, err = s.itineraries.ListPlaces(ctx, it.ID)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}

	ensurePlaces(&it)
	return it, nil
}

// List returns all of the caller's itineraries with their places attached.
// Place loading fans out across itineraries with bounded concurrency; each
// goroutine writes only its own slice element.
func (s *ItineraryService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Itinerary, error) {
	its, err := s.itineraries.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.List: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i := range its {
		i := i
		g.Go(func() error {
			places, err := s.itineraries.ListPlaces(gctx, its[i].ID)
			if err != nil {
				return err
			}
			its[i].Places = places
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.List: %w", err)
	}

	if its == nil {
		its = []domain.Itinerary{}
	}
	for i := range its {
		ensurePlaces(&its[i])
	}
	return its, nil
}

// Update reconciles the itinerary's place associations against the desired
// list, atomically:
//
//  1. Rename the itinerary, keyed by id and owner (0 rows ⇒ not found).
//  2. Diff current place ids against the desired ids.
//  3. Batch-delete associations no longer desired.
//  4. For each desired entry in input order: update the visit time of kept
//     rows (never the visited flag), insert new rows with visited=false.
//
// Any failure rolls back the whole transaction — a caller never observes a
// partially applied update. The Visited field of the input is ignored here;
// use ToggleVisited to change it.
func (s *ItineraryService) Update(ctx context.Context, itineraryID, callerID uuid.UUID, name string, desired []domain.ItineraryPlaceInput) (domain.Itinerary, error) {
	if err := validateItineraryInput(name, desired); err != nil {
		return domain.Itinerary{}, err
	}

	var result domain.Itinerary
	err := s.itineraries.WithTx(ctx, func(tx repo.ItineraryRepo) error {
		if err := tx.UpdateName(ctx, itineraryID, callerID, strings.TrimSpace(name)); err != nil {
			return err
		}

		currentIDs, err := tx.ListPlaceIDs(ctx, itineraryID)
		if err != nil {
			return err
		}
		current := make(map[int64]bool, len(currentIDs))
		for _, id := range currentIDs {
			current[id] = true
		}
		keep := make(map[int64]bool, len(desired))
		for _, p := range desired {
			keep[p.PlaceID] = true
		}

		var toDelete []int64
		for _, id := range currentIDs {
			if !keep[id] {
				toDelete = append(toDelete, id)
			}
		}
		if err := tx.DeletePlaces(ctx, itineraryID, toDelete); err != nil {
			return err
		}

		for _, p := range desired {
			if current[p.PlaceID] {
				err = tx.UpdateVisitTime(ctx, itineraryID, p.PlaceID, p.VisitTime)
			} else {
				err = tx.InsertPlace(ctx, itineraryID, domain.ItineraryPlaceInput{
					PlaceID:   p.PlaceID,
					VisitTime: p.VisitTime,
				})
			}
			if err != nil {
				return err
			}
		}

		result, err = tx.GetByID(ctx, itineraryID, callerID)
		if err != nil {
			return err
		}
		result.Places, err = tx.ListPlaces(ctx, itineraryID)
		return err
	})
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Update: %w", err)
	}

	ensurePlaces(&result)
	return result, nil
}

// Delete removes the itinerary; association rows cascade at the schema level.
// The boolean reports whether anything was deleted — false means the
// itinerary was missing or not owned by the caller.
func (s *ItineraryService) Delete(ctx context.Context, itineraryID, callerID uuid.UUID) (bool, error) {
	deleted, err := s.itineraries.Delete(ctx, itineraryID, callerID)
	if err != nil {
		return false, fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	return deleted, nil
}

// RemovePlace detaches one place from the itinerary and returns the refreshed
// itinerary. The ownership check and the delete run in one transaction.
// Returns domain.ErrNotFound when the itinerary is missing, not owned by the
// caller, or the place is not on it.
func (s *ItineraryService) RemovePlace(ctx context.Context, itineraryID uuid.UUID, placeID int64, callerID uuid.UUID) (domain.Itinerary, error) {
	var result domain.Itinerary
	err := s.itineraries.WithTx(ctx, func(tx repo.ItineraryRepo) error {
		it, err := tx.GetByID(ctx, itineraryID, callerID)
		if err != nil {
			return err
		}
		if err := tx.DeletePlace(ctx, itineraryID, placeID); err != nil {
			return err
		}
		it.Places, err = tx.ListPlaces(ctx, itineraryID)
		if err != nil {
			return err
		}
		result = it
		return nil
	})
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.RemovePlace: %w", err)
	}

	ensurePlaces(&result)
	return result, nil
}

// ToggleVisited sets the visited flag of one place on the itinerary.
// Setting the current value again succeeds without effect.
// Returns domain.ErrNotFound when the itinerary is missing, not owned by the
// caller, or the place is not on it.
func (s *ItineraryService) ToggleVisited(ctx context.Context, itineraryID uuid.UUID, placeID int64, callerID uuid.UUID, visited bool) error {
	if _, err := s.itineraries.GetByID(ctx, itineraryID, callerID); err != nil {
		return fmt.Errorf("service.ItineraryService.ToggleVisited: %w", err)
	}
	if err := s.itineraries.SetVisited(ctx, itineraryID, placeID, visited); err != nil {
		return fmt.Errorf("service.ItineraryService.ToggleVisited: %w", err)
	}
	return nil
}

// validateItineraryInput enforces rules common to Create and Update:
//   - the name must be non-empty (whitespace-only names are rejected);
//   - place ids must be positive and unique within the list.
//
// Validation runs before any transaction is opened, so invalid input never
// causes side effects.
func validateItineraryInput(name string, places []domain.ItineraryPlaceInput) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	seen := make(map[int64]bool, len(places))
	for _, p := range places {
		if p.PlaceID <= 0 {
			return fmt.Errorf("%w: place id must be a positive integer", domain.ErrValidation)
		}
		if seen[p.PlaceID] {
			return fmt.Errorf("%w: duplicate place id %d", domain.ErrValidation, p.PlaceID)
		}
		seen[p.PlaceID] = true
	}
	return nil
}

// ensurePlaces guarantees a non-nil Places slice so responses marshal the
// collection as [] rather than null.
func ensurePlaces(it *domain.Itinerary) {
	if it.Places == nil {
		it.Places = []domain.ItineraryPlace{}
	}
}
