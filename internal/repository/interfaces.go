package repository

import (
	"context"

	"sharebnb/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// List returns every user ordered by username, or those whose username
	// contains query (case-insensitive) when query is non-empty.
	List(ctx context.Context, query string) ([]model.User, error)
	Update(ctx context.Context, username string, upd model.UserUpdate) (*model.User, error)
	// Delete removes the user and, through the store's cascades, their
	// listings and messages. It returns the object-storage keys that belonged
	// to the deleted rows.
	Delete(ctx context.Context, username string) (orphanKeys []string, err error)
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	// Find returns the listings matching every present criterion, ascending by id.
	Find(ctx context.Context, criteria model.ListingCriteria) ([]model.Listing, error)
	ListByCreator(ctx context.Context, username string) ([]model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	Delete(ctx context.Context, id int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	// ListBetween returns messages sent from fromUser to toUser, newest first.
	ListBetween(ctx context.Context, fromUser, toUser string, limit int) ([]model.Message, error)
	// ListByListingAndSender returns messages on listingID sent by sender, newest first.
	ListByListingAndSender(ctx context.Context, listingID int64, sender string, limit int) ([]model.Message, error)
}
