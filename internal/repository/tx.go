package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// dbtx is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Repositories bundles the three repositories over one handle.
type Repositories struct {
	Users    UserRepository
	Listings ListingRepository
	Messages MessageRepository
}

// WithTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(Repositories) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(Repositories{
		Users:    &userRepository{db: tx},
		Listings: &listingRepository{db: tx},
		Messages: &messageRepository{db: tx},
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// inTx runs fn in its own transaction, or directly when q already is one.
func inTx(ctx context.Context, q dbtx, fn func(dbtx) error) error {
	db, ok := q.(*sqlx.DB)
	if !ok {
		return fn(q)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
