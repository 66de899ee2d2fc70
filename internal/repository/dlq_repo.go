package repository

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice/internal/model"
)

// DLQRepository stores undeliverable e-mail jobs and events.
type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
}

type dlqRepository struct {
	db *sql.DB
}

func NewDLQRepository(db *sql.DB) DLQRepository {
	return &dlqRepository{db: db}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	query := `
        INSERT INTO dead_letter_messages (source, message_id, payload, attributes, reason, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	err := r.db.QueryRowContext(
		ctx,
		query,
		message.Source,
		message.MessageID,
		message.Payload,
		message.Attributes,
		message.Reason,
		message.Status,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("record dead letter %s from %s: %w", message.MessageID, message.Source, err)
	}
	return nil
}
