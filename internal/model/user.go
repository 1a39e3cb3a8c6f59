package model

import (
	"errors"
	"time"
)

// User represents a user in the system. Username is the primary key.
type User struct {
	Username  string  `db:"username" json:"username"`
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	Email     string  `db:"email" json:"email"`
	Password  string  `db:"password" json:"-"` // bcrypt hash, never plaintext
	Bio       string  `db:"bio" json:"bio"`
	ImageURL  string  `db:"image_url" json:"image_url"`
	ImageKey  *string `db:"image_key" json:"-"`
	Location  string  `db:"location" json:"location"`
	IsAdmin   bool    `db:"is_admin" json:"is_admin"`

	// CreatedAt tells a re-registered username apart from the account it
	// replaced. Tokens carry it and stop working once it no longer matches.
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// SignupRequest represents the data needed to register a new user
type SignupRequest struct {
	Username  string `json:"username" validate:"required,max=50"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"min=6"`
	ImageURL  string `json:"image_url"`
	Location  string `json:"location"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest edits the caller's profile. Password is the current
// password and is checked before anything is written.
type UpdateUserRequest struct {
	Bio       *string `json:"bio"`
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	ImageURL  *string `json:"image_url"`
	Location  *string `json:"location"`
	Password  string  `json:"password" validate:"required"`
}

// UserUpdate is the set of profile columns written by UserRepository.Update.
// Nil fields are left unchanged.
type UserUpdate struct {
	Bio       *string
	FirstName *string
	LastName  *string
	Email     *string
	ImageURL  *string
	ImageKey  *string
	Location  *string
}

// AuthResponse is returned after successful signup or login
type AuthResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when attempting to create a user with a taken username
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned when the email belongs to another user
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidCredentials is returned when login or re-authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// Token errors returned by token parsing
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenRevoked = "TOKEN_REVOKED"
)
