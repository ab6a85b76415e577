package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"chatrooms-service/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Insert(ctx context.Context, chatID int, senderID int, content string) (models.Message, error)
	QueryRange(ctx context.Context, chatID int, after time.Time, before time.Time) ([]models.Message, error)
	QueryLast(ctx context.Context, chatID int, count int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message. The creation timestamp comes from the database clock.
func (r *MessageRepo) Insert(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
        RETURNING id, chat_id, sender_id, content, created_at`, chatID, senderID, content).
		Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// QueryRange returns messages with created_at inside [after, before], ascending.
func (r *MessageRepo) QueryRange(ctx context.Context, chatID int, after time.Time, before time.Time) ([]models.Message, error) {
	query := `SELECT id, chat_id, sender_id, content, created_at FROM messages
        WHERE chat_id=$1 AND created_at >= $2 AND created_at <= $3
        ORDER BY created_at ASC, id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, chatID, after, before)
	return msgs, err
}

// QueryLast returns the newest count messages, newest first. Callers that need
// chronological order reverse the slice.
func (r *MessageRepo) QueryLast(ctx context.Context, chatID int, count int) ([]models.Message, error) {
	query := `SELECT id, chat_id, sender_id, content, created_at FROM messages
        WHERE chat_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, chatID, count)
	return msgs, err
}
