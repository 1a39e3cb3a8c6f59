package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sharebnb/internal/model"
)

const messageColumns = `id, body, from_user, to_user, listing_id, sent_at, read_at`

type messageRepository struct {
	db dbtx
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create inserts the message; id and sent_at are assigned by the database.
func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	query := `
		INSERT INTO messages (body, from_user, to_user, listing_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns
	err := r.db.GetContext(ctx, m, query, m.Body, m.FromUser, m.ToUser, m.ListingID)
	if err != nil {
		return translateError("insert message", err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	var m model.Message
	err := r.db.GetContext(ctx, &m, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}

func (r *messageRepository) ListBetween(ctx context.Context, fromUser, toUser string, limit int) ([]model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE from_user = $1 AND to_user = $2
		ORDER BY sent_at DESC, id DESC
		LIMIT $3
	`
	messages := []model.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, fromUser, toUser, limit); err != nil {
		return nil, fmt.Errorf("list messages between users: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) ListByListingAndSender(ctx context.Context, listingID int64, sender string, limit int) ([]model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE listing_id = $1 AND from_user = $2
		ORDER BY sent_at DESC, id DESC
		LIMIT $3
	`
	messages := []model.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, listingID, sender, limit); err != nil {
		return nil, fmt.Errorf("list listing messages: %w", err)
	}
	return messages, nil
}
