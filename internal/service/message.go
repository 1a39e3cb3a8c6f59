package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sharebnb/internal/model"
	"sharebnb/internal/repository"
	"sharebnb/internal/validation"
)

// MessageService decides which messages a caller may read or write.
//
// Threads are directional: a lookup keyed by (from, to) never includes the
// replies sent from "to" back to "from", and the listing-scoped lookup only
// returns what the requester sent.
type MessageService struct {
	repo     repository.MessageRepository
	listings repository.ListingRepository
	validate *validation.Validator
}

func NewMessageService(repo repository.MessageRepository, listings repository.ListingRepository) *MessageService {
	return &MessageService{
		repo:     repo,
		listings: listings,
		validate: validation.New(),
	}
}

// ListBetween returns up to MaxThreadMessages messages sent from fromUser to
// toUser, newest first. The caller must be one of the two users.
func (s *MessageService) ListBetween(ctx context.Context, caller, fromUser, toUser string) ([]model.Message, error) {
	fromUser = strings.TrimSpace(fromUser)
	toUser = strings.TrimSpace(toUser)

	verr := &model.ValidationError{}
	if fromUser == "" {
		verr.Add("from_user", "This field is required.")
	}
	if toUser == "" {
		verr.Add("to_user", "This field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if caller != fromUser && caller != toUser {
		return nil, model.ErrNotParticipant
	}

	msgs, err := s.repo.ListBetween(ctx, fromUser, toUser, model.MaxThreadMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// ListForListing returns the messages requester sent about listingID, newest
// first. A recipient who never replied sees an empty thread.
func (s *MessageService) ListForListing(ctx context.Context, listingID int64, requester string) ([]model.Message, error) {
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListByListingAndSender(ctx, listingID, requester, model.MaxThreadMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// Create sends a message from caller about listingID. id and sent_at are
// assigned by the store and read_at stays unset.
func (s *MessageService) Create(ctx context.Context, caller string, listingID int64, req *model.CreateMessageRequest) (*model.Message, error) {
	req.ToUser = strings.TrimSpace(req.ToUser)
	req.FromUser = strings.TrimSpace(req.FromUser)
	if strings.TrimSpace(req.Body) == "" {
		req.Body = ""
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	if req.FromUser != "" && req.FromUser != caller {
		return nil, model.ErrNotParticipant
	}
	if req.ToUser == caller {
		return nil, model.ErrSelfMessage
	}

	msg := &model.Message{
		Body:      req.Body,
		FromUser:  caller,
		ToUser:    req.ToUser,
		ListingID: listingID,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		if errors.Is(err, model.ErrReferenceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// Get returns one message if caller sent or received it.
func (s *MessageService) Get(ctx context.Context, caller string, id int64) (*model.Message, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.FromUser != caller && msg.ToUser != caller {
		return nil, model.ErrNotParticipant
	}
	return msg, nil
}
