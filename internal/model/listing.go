package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Listing is a rentable property owned by CreatedBy.
type Listing struct {
	ID          int64           `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Photo       string          `db:"photo"`
	PhotoKey    *string         `db:"photo_key"`
	Price       decimal.Decimal `db:"price"`
	Latitude    float64         `db:"latitude"`
	Longitude   float64         `db:"longitude"`
	Beds        int             `db:"beds"`
	Rooms       int             `db:"rooms"`
	Bathrooms   int             `db:"bathrooms"`
	CreatedBy   string          `db:"created_by"`
	RentedBy    *string         `db:"rented_by"`
}

// ListingSummary is the list-view shape.
type ListingSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Photo       string  `json:"photo"`
	Price       float64 `json:"price"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// ListingDetail is the single-listing shape.
type ListingDetail struct {
	ListingSummary
	Beds      int     `json:"beds"`
	Rooms     int     `json:"rooms"`
	Bathrooms int     `json:"bathrooms"`
	CreatedBy string  `json:"created_by"`
	RentedBy  *string `json:"rented_by"`
}

// Summary flattens the listing for list views. Price goes out as a float.
func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Photo:       l.Photo,
		Price:       l.Price.InexactFloat64(),
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
	}
}

// Detail flattens the listing for the single-listing view.
func (l *Listing) Detail() ListingDetail {
	return ListingDetail{
		ListingSummary: l.Summary(),
		Beds:           l.Beds,
		Rooms:          l.Rooms,
		Bathrooms:      l.Bathrooms,
		CreatedBy:      l.CreatedBy,
		RentedBy:       l.RentedBy,
	}
}

// Summaries maps a result set to list-view shapes.
func Summaries(listings []Listing) []ListingSummary {
	out := make([]ListingSummary, len(listings))
	for i := range listings {
		out[i] = listings[i].Summary()
	}
	return out
}

// ListingCriteria holds the optional search parameters. A nil field imposes
// no constraint.
type ListingCriteria struct {
	MaxPrice  *int64
	Longitude *float64
	Latitude  *float64
	Beds      *int64
	Bathrooms *int64
}

// IsEmpty reports whether no criterion is present.
func (c ListingCriteria) IsEmpty() bool {
	return c.MaxPrice == nil && c.Longitude == nil && c.Latitude == nil &&
		c.Beds == nil && c.Bathrooms == nil
}

// CreateListingRequest is the request body for POST /listings.
type CreateListingRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Photo       string           `json:"photo"`
	Price       *decimal.Decimal `json:"price"`
	Latitude    *float64         `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64         `json:"longitude" validate:"required,gte=-180,lte=180"`
	Beds        *int             `json:"beds" validate:"required,gte=0"`
	Rooms       *int             `json:"rooms" validate:"required,gte=0"`
	Bathrooms   *int             `json:"bathrooms" validate:"required,gte=0"`
}

// UpdateListingRequest is the request body for PATCH /listings/{id}.
// Omitted fields are left unchanged.
type UpdateListingRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Latitude    *float64         `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64         `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Beds        *int             `json:"beds" validate:"omitempty,gte=0"`
	Rooms       *int             `json:"rooms" validate:"omitempty,gte=0"`
	Bathrooms   *int             `json:"bathrooms" validate:"omitempty,gte=0"`
	RentedBy    *string          `json:"rented_by"`
}

// Listing errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNotListingOwner = errors.New("not the owner of this listing")
)
