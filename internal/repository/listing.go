package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sharebnb/internal/model"
)

const listingColumns = `id, title, description, photo, photo_key, price, latitude, longitude, beds, rooms, bathrooms, created_by, rented_by`

type listingRepository struct {
	db dbtx
}

func NewListingRepository(db *sqlx.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create inserts a listing and fills in its id.
func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	query := `
		INSERT INTO listings (title, description, photo, photo_key, price, latitude, longitude, beds, rooms, bathrooms, created_by, rented_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		l.Title,
		l.Description,
		l.Photo,
		l.PhotoKey,
		l.Price,
		l.Latitude,
		l.Longitude,
		l.Beds,
		l.Rooms,
		l.Bathrooms,
		l.CreatedBy,
		l.RentedBy,
	).Scan(&l.ID)
	if err != nil {
		return translateError("insert listing", err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var l model.Listing
	err := r.db.GetContext(ctx, &l, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &l, nil
}

func (r *listingRepository) Find(ctx context.Context, criteria model.ListingCriteria) ([]model.Listing, error) {
	query, args := buildFindQuery(criteria)

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) ListByCreator(ctx context.Context, username string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := r.db.SelectContext(ctx, &listings,
		`SELECT `+listingColumns+` FROM listings WHERE created_by = $1 ORDER BY id`, username)
	if err != nil {
		return nil, fmt.Errorf("list listings by creator: %w", err)
	}
	return listings, nil
}

// Update overwrites every mutable column of the listing.
func (r *listingRepository) Update(ctx context.Context, l *model.Listing) error {
	query := `
		UPDATE listings
		SET title = $1, description = $2, photo = $3, photo_key = $4, price = $5,
		    latitude = $6, longitude = $7, beds = $8, rooms = $9, bathrooms = $10, rented_by = $11
		WHERE id = $12
	`
	res, err := r.db.ExecContext(ctx, query,
		l.Title,
		l.Description,
		l.Photo,
		l.PhotoKey,
		l.Price,
		l.Latitude,
		l.Longitude,
		l.Beds,
		l.Rooms,
		l.Bathrooms,
		l.RentedBy,
		l.ID,
	)
	if err != nil {
		return translateError("update listing", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrListingNotFound
	}
	return nil
}

// Delete removes the listing; its messages go with it via ON DELETE CASCADE.
func (r *listingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if n == 0 {
		return model.ErrListingNotFound
	}
	return nil
}
