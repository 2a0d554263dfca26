package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lamle62/webgis-du-lich/internal/domain"
)

// nearbyLimit caps proximity query results; the map sidebar shows at most
// this many suggestions.
const nearbyLimit = 15

// placeColumns is the shared select list for place queries. The geometry
// column is exposed as plain lon/lat doubles.
const placeColumns = `
	id, name, type, province, district, ward, address, description,
	image_url, rating, price, parking, views,
	ST_X(geom), ST_Y(geom), created_at, updated_at`

// PlaceRepo defines the persistence operations for the place catalog.
// Reads serve the map UI and itinerary denormalization; writes are reserved
// for admin curation.
type PlaceRepo interface {
	// GetByID retrieves a single place. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (domain.Place, error)

	// GetByIDs retrieves places for the given ids in no particular order.
	// Missing ids are silently omitted from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Place, error)

	// List returns the whole catalog ordered by id ascending.
	List(ctx context.Context) ([]domain.Place, error)

	// Filter returns catalog places matching all set criteria, ordered by id.
	Filter(ctx context.Context, f domain.PlaceFilter) ([]domain.Place, error)

	// Nearby returns up to nearbyLimit places within radiusMeters of the given
	// place, excluding the place itself, ordered by distance ascending.
	// Returns domain.ErrNotFound when the center place does not exist.
	Nearby(ctx context.Context, id int64, radiusMeters float64) ([]domain.NearbyPlace, error)

	// IncrementViews bumps the view counter by one. Missing ids are a no-op.
	IncrementViews(ctx context.Context, id int64) error

	// Insert adds a new catalog place and returns the persisted record.
	Insert(ctx context.Context, p domain.Place) (domain.Place, error)

	// Update overwrites the mutable fields of a place and returns the updated
	// record. Returns domain.ErrNotFound if no place with that ID exists.
	Update(ctx context.Context, p domain.Place) (domain.Place, error)

	// Delete removes a place. Returns domain.ErrNotFound if it does not exist.
	// Fails with domain.ErrValidation while any itinerary still references it.
	Delete(ctx context.Context, id int64) error
}

// pgPlaceRepo is the Postgres/PostGIS implementation of PlaceRepo.
type pgPlaceRepo struct {
	db db
}

// NewPlaceRepo constructs a PlaceRepo backed by the provided db connection.
func NewPlaceRepo(db db) PlaceRepo {
	return &pgPlaceRepo{db: db}
}

func (r *pgPlaceRepo) GetByID(ctx context.Context, id int64) (domain.Place, error) {
	q := `SELECT ` + placeColumns + ` FROM places WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanPlace(row)
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgPlaceRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Place, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := `SELECT ` + placeColumns + ` FROM places WHERE id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.GetByIDs: %w", err)
	}
	defer rows.Close()

	return collectPlaces(rows, "repo.PlaceRepo.GetByIDs")
}

func (r *pgPlaceRepo) List(ctx context.Context) ([]domain.Place, error) {
	q := `SELECT ` + placeColumns + ` FROM places ORDER BY id ASC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.List: %w", err)
	}
	defer rows.Close()

	return collectPlaces(rows, "repo.PlaceRepo.List")
}

// Filter builds the WHERE clause incrementally from the set criteria.
// Named args keep the clause fragments readable and injection-safe.
func (r *pgPlaceRepo) Filter(ctx context.Context, f domain.PlaceFilter) ([]domain.Place, error) {
	var (
		clauses []string
		args    = pgx.NamedArgs{}
	)

	if f.Type != "" {
		clauses = append(clauses, "LOWER(type) = LOWER(@type)")
		args["type"] = f.Type
	}
	if f.Province != "" {
		clauses = append(clauses, "province ILIKE @province")
		args["province"] = "%" + f.Province + "%"
	}
	if f.District != "" {
		clauses = append(clauses, "district ILIKE @district")
		args["district"] = "%" + f.District + "%"
	}
	if f.Ward != "" {
		clauses = append(clauses, "ward ILIKE @ward")
		args["ward"] = "%" + f.Ward + "%"
	}
	if f.MinRating != nil {
		clauses = append(clauses, "rating >= @min_rating")
		args["min_rating"] = *f.MinRating
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, "price <= @max_price")
		args["max_price"] = *f.MaxPrice
	}
	if f.Parking != nil {
		clauses = append(clauses, "parking = @parking")
		args["parking"] = *f.Parking
	}

	q := `SELECT ` + placeColumns + ` FROM places`
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY id ASC"

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.Filter: %w", err)
	}
	defer rows.Close()

	return collectPlaces(rows, "repo.PlaceRepo.Filter")
}

func (r *pgPlaceRepo) Nearby(ctx context.Context, id int64, radiusMeters float64) ([]domain.NearbyPlace, error) {
	// Resolve the center first so a missing place is reported as not-found
	// rather than an empty result.
	const centerQ = `SELECT 1 FROM places WHERE id = @id`
	var one int
	if err := r.db.QueryRow(ctx, centerQ, pgx.NamedArgs{"id": id}).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repo.PlaceRepo.Nearby: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.PlaceRepo.Nearby: center: %w", err)
	}

	q := `
		SELECT ` + placeColumns + `,
		       ST_DistanceSphere(geom, (SELECT geom FROM places WHERE id = @id)) AS distance
		FROM places
		WHERE id <> @id
		  AND ST_DistanceSphere(geom, (SELECT geom FROM places WHERE id = @id)) < @radius
		ORDER BY distance ASC
		LIMIT @limit`

	args := pgx.NamedArgs{"id": id, "radius": radiusMeters, "limit": nearbyLimit}
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.Nearby: %w", err)
	}
	defer rows.Close()

	var nearby []domain.NearbyPlace
	for rows.Next() {
		var np domain.NearbyPlace
		if err := scanPlaceInto(rows, &np.Place, &np.DistanceMeters); err != nil {
			return nil, fmt.Errorf("repo.PlaceRepo.Nearby: scan: %w", err)
		}
		nearby = append(nearby, np)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.Nearby: rows: %w", err)
	}

	return nearby, nil
}

func (r *pgPlaceRepo) IncrementViews(ctx context.Context, id int64) error {
	const q = `UPDATE places SET views = views + 1 WHERE id = @id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.PlaceRepo.IncrementViews: %w", err)
	}
	return nil
}

func (r *pgPlaceRepo) Insert(ctx context.Context, p domain.Place) (domain.Place, error) {
	q := `
		INSERT INTO places
			(name, type, province, district, ward, address, description,
			 image_url, rating, price, parking, geom)
		VALUES
			(@name, @type, @province, @district, @ward, @address, @description,
			 @image_url, @rating, @price, @parking,
			 ST_SetSRID(ST_MakePoint(@lon, @lat), 4326))
		RETURNING ` + placeColumns

	row := r.db.QueryRow(ctx, q, placeArgs(p))
	result, err := scanPlace(row)
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Insert: %w", err)
	}
	return result, nil
}

func (r *pgPlaceRepo) Update(ctx context.Context, p domain.Place) (domain.Place, error) {
	q := `
		UPDATE places
		SET name        = @name,
		    type        = @type,
		    province    = @province,
		    district    = @district,
		    ward        = @ward,
		    address     = @address,
		    description = @description,
		    image_url   = @image_url,
		    rating      = @rating,
		    price       = @price,
		    parking     = @parking,
		    geom        = ST_SetSRID(ST_MakePoint(@lon, @lat), 4326),
		    updated_at  = now()
		WHERE id = @id
		RETURNING ` + placeColumns

	args := placeArgs(p)
	args["id"] = p.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanPlace(row)
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgPlaceRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM places WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.PlaceRepo.Delete: %w", translateConstraint(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PlaceRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// placeArgs maps the writable fields of a place onto named SQL arguments.
func placeArgs(p domain.Place) pgx.NamedArgs {
	return pgx.NamedArgs{
		"name":        p.Name,
		"type":        p.Type,
		"province":    p.Province,
		"district":    p.District,
		"ward":        p.Ward,
		"address":     p.Address,
		"description": p.Description,
		"image_url":   p.ImageURL,
		"rating":      p.Rating,
		"price":       p.Price,
		"parking":     p.Parking,
		"lon":         p.Lon,
		"lat":         p.Lat,
	}
}

// scanPlace maps a single places row into a domain.Place.
func scanPlace(s scanner) (domain.Place, error) {
	var p domain.Place
	if err := scanPlaceInto(s, &p); err != nil {
		return domain.Place{}, err
	}
	return p, nil
}

// scanPlaceInto scans the placeColumns select list into p, followed by any
// extra destinations (e.g. the computed distance column in Nearby).
func scanPlaceInto(s scanner, p *domain.Place, extra ...any) error {
	dest := []any{
		&p.ID, &p.Name, &p.Type, &p.Province, &p.District, &p.Ward,
		&p.Address, &p.Description, &p.ImageURL, &p.Rating, &p.Price,
		&p.Parking, &p.Views, &p.Lon, &p.Lat, &p.CreatedAt, &p.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

// collectPlaces drains rows into a slice, wrapping errors with op.
func collectPlaces(rows pgx.Rows, op string) ([]domain.Place, error) {
	var places []domain.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return places, nil
}
