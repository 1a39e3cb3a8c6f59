package seed

import (
	"context"
	"fmt"
	"log"

	"sharebnb/internal/model"
	"sharebnb/internal/repository"
)

// Loader writes fixtures through the repository interfaces, so the same data
// set can seed PostgreSQL or the in-memory store.
type Loader struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	messages repository.MessageRepository
}

func NewLoader(users repository.UserRepository, listings repository.ListingRepository, messages repository.MessageRepository) *Loader {
	return &Loader{users: users, listings: listings, messages: messages}
}

// Stats counts the rows a Load call inserted.
type Stats struct {
	Users    int
	Listings int
	Messages int
}

// Load inserts users, then listings, then messages. Message rows point at
// listings by CSV row, which is mapped to the id the store assigned. It stops
// at the first failing row; callers that need all-or-nothing pass
// repositories bound to one transaction (see repository.WithTx).
func (l *Loader) Load(ctx context.Context, f *Fixtures) (Stats, error) {
	var stats Stats

	for i, u := range f.Users {
		user := &model.User{
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Password:  u.Password,
			Bio:       u.Bio,
			ImageURL:  u.ImageURL,
			Location:  u.Location,
		}
		if err := l.users.Create(ctx, user); err != nil {
			return stats, fmt.Errorf("user row %d (%s): %w", i+1, u.Username, err)
		}
		stats.Users++
	}

	listingIDs := make([]int64, len(f.Listings))
	for i, r := range f.Listings {
		listing := &model.Listing{
			Title:       r.Title,
			Description: r.Description,
			Photo:       r.Photo,
			Price:       r.Price,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Beds:        r.Beds,
			Rooms:       r.Rooms,
			Bathrooms:   r.Bathrooms,
			CreatedBy:   r.CreatedBy,
		}
		if err := l.listings.Create(ctx, listing); err != nil {
			return stats, fmt.Errorf("listing row %d: %w", i+1, err)
		}
		listingIDs[i] = listing.ID
		stats.Listings++
	}

	for i, r := range f.Messages {
		if r.Listing < 1 || r.Listing > len(listingIDs) {
			return stats, fmt.Errorf("message row %d: listing row %d out of range", i+1, r.Listing)
		}
		msg := &model.Message{
			Body:      r.Body,
			FromUser:  r.FromUser,
			ToUser:    r.ToUser,
			ListingID: listingIDs[r.Listing-1],
		}
		if err := l.messages.Create(ctx, msg); err != nil {
			return stats, fmt.Errorf("message row %d: %w", i+1, err)
		}
		stats.Messages++
	}

	log.Printf("[Seed] Loaded users=%d listings=%d messages=%d", stats.Users, stats.Listings, stats.Messages)
	return stats, nil
}
