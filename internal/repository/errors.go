package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sharebnb/internal/model"
)

// PostgreSQL SQLSTATE codes we translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const (
	usersPkeyConstraint  = "users_pkey"
	usersEmailConstraint = "users_email_key"
)

// translateError maps integrity violations to domain sentinels and wraps
// anything else with op.
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			switch pqErr.Constraint {
			case usersEmailConstraint:
				return model.ErrEmailTaken
			case usersPkeyConstraint:
				return model.ErrUsernameTaken
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, model.ErrReferenceNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
