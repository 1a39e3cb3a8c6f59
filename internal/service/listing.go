package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sharebnb/internal/model"
	"sharebnb/internal/queue"
	"sharebnb/internal/repository"
	"sharebnb/internal/validation"
)

// maxPrice is the first value that does not fit NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

// ListingService owns the listing filter engine and listing ownership rules.
type ListingService struct {
	repo            repository.ListingRepository
	users           repository.UserRepository
	publisher       queue.Publisher
	validate        *validation.Validator
	defaultPhotoURL string
}

func NewListingService(repo repository.ListingRepository, users repository.UserRepository, publisher queue.Publisher, defaultPhotoURL string) *ListingService {
	return &ListingService{
		repo:            repo,
		users:           users,
		publisher:       publisher,
		validate:        validation.New(),
		defaultPhotoURL: defaultPhotoURL,
	}
}

// ParseListingCriteria reads the optional search parameters from a query
// string. Empty values are treated as absent. Integer parameters given as
// "N.M" are truncated toward zero, so "3.7" becomes 3.
func ParseListingCriteria(q url.Values) (model.ListingCriteria, error) {
	var c model.ListingCriteria
	verr := &model.ValidationError{}

	intParam := func(name string) *int64 {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return nil
		}
		v, err := parseTruncatedInt(raw)
		if err != nil {
			verr.Add(name, "Not a valid integer value.")
			return nil
		}
		return &v
	}
	floatParam := func(name string) *float64 {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			verr.Add(name, "Not a valid float value.")
			return nil
		}
		return &v
	}

	c.MaxPrice = intParam("max_price")
	c.Longitude = floatParam("longitude")
	c.Latitude = floatParam("latitude")
	c.Beds = intParam("beds")
	c.Bathrooms = intParam("bathrooms")

	if err := verr.OrNil(); err != nil {
		return model.ListingCriteria{}, err
	}
	return c, nil
}

func parseTruncatedInt(raw string) (int64, error) {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	f = math.Trunc(f)
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, strconv.ErrRange
	}
	return int64(f), nil
}

// Find returns the listings matching every present criterion, ordered by id.
func (s *ListingService) Find(ctx context.Context, criteria model.ListingCriteria) ([]model.Listing, error) {
	listings, err := s.repo.Find(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	return listings, nil
}

// Get retrieves one listing.
func (s *ListingService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByCreator returns the listings owned by username. An unknown user simply
// owns nothing.
func (s *ListingService) ListByCreator(ctx context.Context, username string) ([]model.Listing, error) {
	listings, err := s.repo.ListByCreator(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// Create validates req and stores a listing owned by username.
func (s *ListingService) Create(ctx context.Context, username string, req *model.CreateListingRequest) (*model.Listing, error) {
	verr := &model.ValidationError{}
	if err := verr.Merge(s.validate.Struct(req)); err != nil {
		return nil, err
	}
	price, _ := checkPrice(verr, req.Price, true)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	photo := strings.TrimSpace(req.Photo)
	if photo == "" {
		photo = s.defaultPhotoURL
	}

	listing := &model.Listing{
		Title:       req.Title,
		Description: req.Description,
		Photo:       photo,
		Price:       price,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Beds:        *req.Beds,
		Rooms:       *req.Rooms,
		Bathrooms:   *req.Bathrooms,
		CreatedBy:   username,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		if errors.Is(err, model.ErrReferenceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	log.Printf("[ListingService] %s created listing %d", username, listing.ID)
	return listing, nil
}

// Update applies the non-nil fields of req. Only the owner or an admin may edit.
func (s *ListingService) Update(ctx context.Context, username string, id int64, req *model.UpdateListingRequest) (*model.Listing, error) {
	verr := &model.ValidationError{}
	if err := verr.Merge(s.validate.Struct(req)); err != nil {
		return nil, err
	}
	price, hasPrice := checkPrice(verr, req.Price, false)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	listing, err := s.loadForWrite(ctx, username, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if hasPrice {
		listing.Price = price
	}
	if req.Latitude != nil {
		listing.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		listing.Longitude = *req.Longitude
	}
	if req.Beds != nil {
		listing.Beds = *req.Beds
	}
	if req.Rooms != nil {
		listing.Rooms = *req.Rooms
	}
	if req.Bathrooms != nil {
		listing.Bathrooms = *req.Bathrooms
	}
	if req.RentedBy != nil {
		if renter := strings.TrimSpace(*req.RentedBy); renter == "" {
			listing.RentedBy = nil
		} else {
			listing.RentedBy = &renter
		}
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		if errors.Is(err, model.ErrReferenceNotFound) || errors.Is(err, model.ErrListingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

// CanEdit reports whether username may modify listing id. Upload handlers
// call it before sending anything to object storage.
func (s *ListingService) CanEdit(ctx context.Context, username string, id int64) error {
	_, err := s.loadForWrite(ctx, username, id)
	return err
}

// SetPhoto points the listing at a freshly uploaded photo. If the listing
// cannot be updated the new object is queued for deletion.
func (s *ListingService) SetPhoto(ctx context.Context, username string, id int64, upload *model.UploadResult) (*model.Listing, error) {
	listing, err := s.loadForWrite(ctx, username, id)
	if err != nil {
		publishOrphans(ctx, s.publisher, queue.ReasonPhotoReplaced, []string{upload.Key})
		return nil, err
	}

	var oldKey string
	if listing.PhotoKey != nil {
		oldKey = *listing.PhotoKey
	}
	listing.Photo = upload.URL
	key := upload.Key
	listing.PhotoKey = &key

	if err := s.repo.Update(ctx, listing); err != nil {
		publishOrphans(ctx, s.publisher, queue.ReasonPhotoReplaced, []string{upload.Key})
		if errors.Is(err, model.ErrListingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update listing photo: %w", err)
	}

	if oldKey != "" && oldKey != upload.Key {
		publishOrphans(ctx, s.publisher, queue.ReasonPhotoReplaced, []string{oldKey})
	}
	return listing, nil
}

// Delete removes the listing and, by cascade, its messages.
func (s *ListingService) Delete(ctx context.Context, username string, id int64) error {
	listing, err := s.loadForWrite(ctx, username, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	log.Printf("[ListingService] %s deleted listing %d", username, id)
	if listing.PhotoKey != nil {
		publishOrphans(ctx, s.publisher, queue.ReasonListingDeleted, []string{*listing.PhotoKey})
	}
	return nil
}

// loadForWrite fetches the listing and checks that username owns it or is an admin.
func (s *ListingService) loadForWrite(ctx context.Context, username string, id int64) (*model.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.CreatedBy == username {
		return listing, nil
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrNotListingOwner
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsAdmin {
		return nil, model.ErrNotListingOwner
	}
	return listing, nil
}

// checkPrice records price problems on verr and returns the price rounded to
// cents. ok is false when the price is absent or invalid.
func checkPrice(verr *model.ValidationError, p *decimal.Decimal, required bool) (price decimal.Decimal, ok bool) {
	if p == nil {
		if required {
			verr.Add("price", "This field is required.")
		}
		return decimal.Decimal{}, false
	}
	rounded := p.Round(2)
	switch {
	case rounded.IsNegative():
		verr.Add("price", "Must be greater than or equal to 0.")
		return decimal.Decimal{}, false
	case rounded.GreaterThanOrEqual(maxPrice):
		verr.Add("price", "Must be less than 100000000.")
		return decimal.Decimal{}, false
	}
	return rounded, true
}
