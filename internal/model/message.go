package model

import (
	"errors"
	"time"
)

// Message is a direct message between two users about one listing.
// ReadAt is part of the schema but no operation sets it yet.
type Message struct {
	ID        int64      `db:"id" json:"id"`
	Body      string     `db:"body" json:"body"`
	FromUser  string     `db:"from_user" json:"from_user"`
	ToUser    string     `db:"to_user" json:"to_user"`
	ListingID int64      `db:"listing_id" json:"listing_id"`
	SentAt    time.Time  `db:"sent_at" json:"sent_at"`
	ReadAt    *time.Time `db:"read_at" json:"read_at"`
}

// CreateMessageRequest is the request body for POST /listings/{id}/messages.
// FromUser may be omitted; it always resolves to the authenticated caller.
type CreateMessageRequest struct {
	Body     string `json:"body" validate:"required"`
	ToUser   string `json:"to_user" validate:"required"`
	FromUser string `json:"from_user"`
}

// MessageListResponse wraps a thread lookup result.
type MessageListResponse struct {
	Messages []Message `json:"messages"`
}

// MaxThreadMessages caps every thread lookup.
const MaxThreadMessages = 100

// Message errors
var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("not a participant in this conversation")
	ErrSelfMessage     = errors.New("cannot send a message to yourself")
)
