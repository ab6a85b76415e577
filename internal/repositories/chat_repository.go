package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chatrooms-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")
var ErrUserNotFound = errors.New("user not found")

// foreignKeyViolation is the Postgres error code raised when a referenced
// row does not exist.
const foreignKeyViolation = "23503"

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, title string, memberIDs []int) (models.ChatDetails, error)
	IsMember(ctx context.Context, chatID int, userID int) (bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	GetChatDetails(ctx context.Context, chatID int) (models.ChatDetails, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.ChatPreview, error)
	ListAllChats(ctx context.Context) ([]models.ChatPreview, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat inserts a chat and its membership rows in one transaction.
// A member id without a matching user row aborts the whole insert.
func (r *ChatRepo) CreateChat(ctx context.Context, title string, memberIDs []int) (models.ChatDetails, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatDetails{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	if err := tx.QueryRowxContext(ctx, `INSERT INTO chats (title) VALUES ($1) RETURNING id, title, created_at`, title).
		Scan(&chat.ID, &chat.Title, &chat.CreatedAt); err != nil {
		return models.ChatDetails{}, err
	}

	for _, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)`, chat.ID, memberID); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
				return models.ChatDetails{}, ErrUserNotFound
			}
			return models.ChatDetails{}, err
		}
	}

	members, err := selectMembers(ctx, tx, chat.ID)
	if err != nil {
		return models.ChatDetails{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.ChatDetails{}, err
	}
	return models.ChatDetails{ID: chat.ID, Title: chat.Title, Members: members}, nil
}

// IsMember checks whether a user belongs to the chat.
func (r *ChatRepo) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, title, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetChatDetails fetches a chat with its member list.
func (r *ChatRepo) GetChatDetails(ctx context.Context, chatID int) (models.ChatDetails, error) {
	chat, err := r.GetChat(ctx, chatID)
	if err != nil {
		return models.ChatDetails{}, err
	}

	members, err := selectMembers(ctx, r.db, chatID)
	if err != nil {
		return models.ChatDetails{}, err
	}
	return models.ChatDetails{ID: chat.ID, Title: chat.Title, Members: members}, nil
}

// ListChatsForUser returns previews for chats the user is a member of.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.ChatPreview, error) {
	query := `SELECT c.id, c.title, m.content AS last_content
        FROM chats c
        JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
        LEFT JOIN LATERAL (
            SELECT content FROM messages WHERE chat_id = c.id ORDER BY created_at DESC, id DESC LIMIT 1
        ) m ON TRUE
        ORDER BY c.created_at DESC`
	return r.selectPreviews(ctx, query, userID)
}

// ListAllChats returns previews for every chat, regardless of membership.
func (r *ChatRepo) ListAllChats(ctx context.Context) ([]models.ChatPreview, error) {
	query := `SELECT c.id, c.title, m.content AS last_content
        FROM chats c
        LEFT JOIN LATERAL (
            SELECT content FROM messages WHERE chat_id = c.id ORDER BY created_at DESC, id DESC LIMIT 1
        ) m ON TRUE
        ORDER BY c.created_at DESC`
	return r.selectPreviews(ctx, query)
}

func (r *ChatRepo) selectPreviews(ctx context.Context, query string, args ...interface{}) ([]models.ChatPreview, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ChatPreview
	for rows.Next() {
		var row struct {
			ID          int            `db:"id"`
			Title       string         `db:"title"`
			LastContent sql.NullString `db:"last_content"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		preview := models.ChatPreview{ID: row.ID, Title: row.Title}
		if row.LastContent.Valid {
			preview.LastMessagePreview = toMessagePreview(row.LastContent.String)
		} else {
			preview.LastMessagePreview = noMessagesPreview
		}
		result = append(result, preview)
	}
	return result, rows.Err()
}

func selectMembers(ctx context.Context, q sqlx.QueryerContext, chatID int) ([]models.Sender, error) {
	rows, err := q.QueryxContext(ctx, `SELECT u.id, u.username FROM users u
        JOIN chat_members cm ON cm.user_id = u.id
        WHERE cm.chat_id = $1
        ORDER BY u.id`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Sender
	for rows.Next() {
		var member models.Sender
		if err := rows.Scan(&member.ID, &member.Username); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
