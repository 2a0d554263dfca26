package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lamle62/webgis-du-lich/internal/domain"
)

// ItineraryRepo defines the persistence operations for itineraries and their
// place associations. All reads and writes are scoped by ownerID where the
// operation touches the itinerary row itself; association rows are scoped by
// itineraryID and rely on the service layer having already verified ownership
// inside the same transaction.
type ItineraryRepo interface {
	// WithTx runs fn against a repo bound to a single transaction.
	// A nil return from fn commits; any error rolls back and is returned.
	WithTx(ctx context.Context, fn func(ItineraryRepo) error) error

	// Insert creates a new itinerary row and returns the persisted record
	// (with DB-generated id and timestamps, no places attached).
	Insert(ctx context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error)

	// GetByID retrieves the itinerary row for the given id and owner.
	// Returns domain.ErrNotFound when the row is missing or owned by someone else.
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error)

	// ListByOwner returns all itineraries belonging to ownerID, newest first,
	// without their place associations.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Itinerary, error)

	// UpdateName renames the itinerary, keyed by id and owner.
	// Returns domain.ErrNotFound when zero rows were affected.
	UpdateName(ctx context.Context, id, ownerID uuid.UUID, name string) error

	// Delete removes the itinerary; association rows cascade at the schema
	// level. The boolean reports whether a row was actually deleted.
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)

	// ListPlaceIDs returns the place ids currently associated with the itinerary.
	ListPlaceIDs(ctx context.Context, itineraryID uuid.UUID) ([]int64, error)

	// ListPlaces returns the denormalized association rows for the itinerary,
	// ordered by visit_time ascending with unscheduled places last
	// (ties broken by place_id for a stable order).
	ListPlaces(ctx context.Context, itineraryID uuid.UUID) ([]domain.ItineraryPlace, error)

	// InsertPlace attaches a place to the itinerary. An unknown place id or a
	// duplicate pair surfaces as domain.ErrValidation.
	InsertPlace(ctx context.Context, itineraryID uuid.UUID, in domain.ItineraryPlaceInput) error

	// UpdateVisitTime sets (or clears, when nil) the visit time of one
	// association row. The visited flag is left untouched.
	UpdateVisitTime(ctx context.Context, itineraryID uuid.UUID, placeID int64, visitTime *time.Time) error

	// DeletePlaces removes the association rows for the given place ids in one
	// statement. A nil or empty slice is a no-op.
	DeletePlaces(ctx context.Context, itineraryID uuid.UUID, placeIDs []int64) error

	// DeletePlace removes a single association row.
	// Returns domain.ErrNotFound when no such association exists.
	DeletePlace(ctx context.Context, itineraryID uuid.UUID, placeID int64) error

	// SetVisited updates the visited flag of one association row. Setting the
	// same value again is a no-op success.
	// Returns domain.ErrNotFound when no such association exists.
	SetVisited(ctx context.Context, itineraryID uuid.UUID, placeID int64, visited bool) error
}

// pgItineraryRepo is the Postgres implementation of ItineraryRepo.
type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db
// connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx for
// rollback isolation.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

// WithTx opens a transaction and hands fn a repo bound to it.
func (r *pgItineraryRepo) WithTx(ctx context.Context, fn func(ItineraryRepo) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.WithTx: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&pgItineraryRepo{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.WithTx: commit: %w", err)
	}
	return nil
}

func (r *pgItineraryRepo) Insert(ctx context.Context, name string, ownerID uuid.UUID) (domain.Itinerary, error) {
	const q = `
		INSERT INTO itineraries (name, owner_id)
		VALUES (@name, @owner_id)
		RETURNING id, name, owner_id, created_at, updated_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name, "owner_id": ownerID})
	result, err := scanItinerary(row)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.Insert: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) GetByID(ctx context.Context, id, ownerID uuid.UUID) (domain.Itinerary, error) {
	const q = `
		SELECT id, name, owner_id, created_at, updated_at
		FROM itineraries
		WHERE id = @id AND owner_id = @owner_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	result, err := scanItinerary(row)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Itinerary, error) {
	const q = `
		SELECT id, name, owner_id, created_at, updated_at
		FROM itineraries
		WHERE owner_id = @owner_id
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var its []domain.Itinerary
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListByOwner: scan: %w", err)
		}
		its = append(its, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByOwner: rows: %w", err)
	}

	return its, nil
}

func (r *pgItineraryRepo) UpdateName(ctx context.Context, id, ownerID uuid.UUID, name string) error {
	const q = `
		UPDATE itineraries
		SET name = @name, updated_at = now()
		WHERE id = @id AND owner_id = @owner_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID, "name": name})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.UpdateName: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.UpdateName: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgItineraryRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	const q = `DELETE FROM itineraries WHERE id = @id AND owner_id = @owner_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return false, fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgItineraryRepo) ListPlaceIDs(ctx context.Context, itineraryID uuid.UUID) ([]int64, error) {
	const q = `SELECT place_id FROM itinerary_places WHERE itinerary_id = @itinerary_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"itinerary_id": itineraryID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListPlaceIDs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListPlaceIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListPlaceIDs: rows: %w", err)
	}

	return ids, nil
}

func (r *pgItineraryRepo) ListPlaces(ctx context.Context, itineraryID uuid.UUID) ([]domain.ItineraryPlace, error) {
	const q = `
		SELECT ip.place_id, ip.visit_time, ip.status,
		       p.name, p.type, p.province, ST_X(p.geom), ST_Y(p.geom)
		FROM itinerary_places ip
		JOIN places p ON p.id = ip.place_id
		WHERE ip.itinerary_id = @itinerary_id
		ORDER BY ip.visit_time ASC NULLS LAST, ip.place_id ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"itinerary_id": itineraryID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListPlaces: %w", err)
	}
	defer rows.Close()

	var places []domain.ItineraryPlace
	for rows.Next() {
		var (
			ip domain.ItineraryPlace
			vt pgtype.Timestamptz
		)
		err := rows.Scan(&ip.PlaceID, &vt, &ip.Visited, &ip.Name, &ip.Type, &ip.Province, &ip.Lon, &ip.Lat)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListPlaces: scan: %w", err)
		}
		if vt.Valid {
			t := vt.Time
			ip.VisitTime = &t
		}
		places = append(places, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListPlaces: rows: %w", err)
	}

	return places, nil
}

func (r *pgItineraryRepo) InsertPlace(ctx context.Context, itineraryID uuid.UUID, in domain.ItineraryPlaceInput) error {
	const q = `
		INSERT INTO itinerary_places (itinerary_id, place_id, visit_time, status)
		VALUES (@itinerary_id, @place_id, @visit_time, @status)`

	args := pgx.NamedArgs{
		"itinerary_id": itineraryID,
		"place_id":     in.PlaceID,
		"visit_time":   in.VisitTime, // nil becomes NULL
		"status":       in.Visited,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.InsertPlace: %w", translateConstraint(err))
	}
	return nil
}

func (r *pgItineraryRepo) UpdateVisitTime(ctx context.Context, itineraryID uuid.UUID, placeID int64, visitTime *time.Time) error {
	const q = `
		UPDATE itinerary_places
		SET visit_time = @visit_time
		WHERE itinerary_id = @itinerary_id AND place_id = @place_id`

	args := pgx.NamedArgs{
		"itinerary_id": itineraryID,
		"place_id":     placeID,
		"visit_time":   visitTime,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.UpdateVisitTime: %w", err)
	}
	return nil
}

func (r *pgItineraryRepo) DeletePlaces(ctx context.Context, itineraryID uuid.UUID, placeIDs []int64) error {
	if len(placeIDs) == 0 {
		return nil
	}

	const q = `
		DELETE FROM itinerary_places
		WHERE itinerary_id = @itinerary_id AND place_id = ANY(@place_ids)`

	args := pgx.NamedArgs{"itinerary_id": itineraryID, "place_ids": placeIDs}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.DeletePlaces: %w", err)
	}
	return nil
}

func (r *pgItineraryRepo) DeletePlace(ctx context.Context, itineraryID uuid.UUID, placeID int64) error {
	const q = `
		DELETE FROM itinerary_places
		WHERE itinerary_id = @itinerary_id AND place_id = @place_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"itinerary_id": itineraryID, "place_id": placeID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.DeletePlace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.DeletePlace: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgItineraryRepo) SetVisited(ctx context.Context, itineraryID uuid.UUID, placeID int64, visited bool) error {
	const q = `
		UPDATE itinerary_places
		SET status = @status
		WHERE itinerary_id = @itinerary_id AND place_id = @place_id`

	args := pgx.NamedArgs{"itinerary_id": itineraryID, "place_id": placeID, "status": visited}
	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.SetVisited: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.SetVisited: %w", domain.ErrNotFound)
	}
	return nil
}

// scanItinerary maps a single itineraries row into a domain.Itinerary.
func scanItinerary(s scanner) (domain.Itinerary, error) {
	var (
		it      domain.Itinerary
		id      pgtype.UUID
		ownerID pgtype.UUID
	)

	err := s.Scan(&id, &it.Name, &ownerID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Itinerary{}, domain.ErrNotFound
		}
		return domain.Itinerary{}, err
	}

	it.ID = uuid.UUID(id.Bytes)
	it.OwnerID = uuid.UUID(ownerID.Bytes)
	return it, nil
}
