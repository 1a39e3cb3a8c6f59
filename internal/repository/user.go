package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"sharebnb/internal/model"
)

const userColumns = `username, first_name, last_name, email, password, bio, image_url, image_key, location, is_admin, created_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db dbtx
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, first_name, last_name, email, password, bio, image_url, image_key, location, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Password,
		u.Bio,
		u.ImageURL,
		u.ImageKey,
		u.Location,
		u.IsAdmin,
	).Scan(&u.CreatedAt)
	if err != nil {
		return translateError("insert user", err)
	}

	return nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

func (r *userRepository) List(ctx context.Context, query string) ([]model.User, error) {
	users := []model.User{}
	var err error
	if query == "" {
		err = r.db.SelectContext(ctx, &users,
			`SELECT `+userColumns+` FROM users ORDER BY username`)
	} else {
		err = r.db.SelectContext(ctx, &users,
			`SELECT `+userColumns+` FROM users WHERE username ILIKE $1 ORDER BY username`,
			"%"+escapeLike(query)+"%")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update writes the non-nil fields of upd and returns the updated row.
func (r *userRepository) Update(ctx context.Context, username string, upd model.UserUpdate) (*model.User, error) {
	var sets []string
	var args []interface{}
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("bio", upd.Bio)
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("email", upd.Email)
	add("image_url", upd.ImageURL)
	add("image_key", upd.ImageKey)
	add("location", upd.Location)

	if len(sets) == 0 {
		return r.GetByUsername(ctx, username)
	}

	args = append(args, username)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE username = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args))

	var u model.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, translateError("update user", err)
	}
	return &u, nil
}

// Delete removes the user inside a transaction so the object keys of the
// user and of the listings the cascade removes are collected consistently.
func (r *userRepository) Delete(ctx context.Context, username string) ([]string, error) {
	var keys []string
	err := inTx(ctx, r.db, func(tx dbtx) error {
		err := tx.SelectContext(ctx, &keys, `
			SELECT photo_key FROM listings
			WHERE created_by = $1 AND photo_key IS NOT NULL
			ORDER BY id
		`, username)
		if err != nil {
			return fmt.Errorf("collect listing keys: %w", err)
		}

		var imageKey sql.NullString
		err = tx.GetContext(ctx, &imageKey,
			`DELETE FROM users WHERE username = $1 RETURNING image_key`, username)
		if err == sql.ErrNoRows {
			return model.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if imageKey.Valid {
			keys = append(keys, imageKey.String)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
