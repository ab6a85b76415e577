package services

import (
	"context"
	"time"

	"chatrooms-service/internal/models"
	"chatrooms-service/internal/repositories"
)

// MessageHistoryService paginates persisted messages for chats the caller
// may access. Both query modes return messages in ascending creation order.
type MessageHistoryService interface {
	GetMessages(ctx context.Context, chatID int, userID int, after time.Time, before *time.Time) ([]models.MessageView, error)
	GetLastMessages(ctx context.Context, chatID int, userID int, count int) ([]models.MessageView, error)
}

// HistoryService is the repository-backed MessageHistoryService.
type HistoryService struct {
	guard    MembershipGuard
	messages repositories.MessageRepository
	users    repositories.UserRepository
	now      func() time.Time
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(guard MembershipGuard, messages repositories.MessageRepository, users repositories.UserRepository) *HistoryService {
	return &HistoryService{guard: guard, messages: messages, users: users, now: time.Now}
}

// GetMessages returns messages with timestamps in [after, before], ascending.
// A nil before means "up to now".
func (s *HistoryService) GetMessages(ctx context.Context, chatID int, userID int, after time.Time, before *time.Time) ([]models.MessageView, error) {
	if err := s.guard.CheckAccess(ctx, chatID, userID); err != nil {
		return nil, err
	}

	upper := s.now()
	if before != nil {
		upper = *before
	}
	if after.After(upper) {
		return nil, ErrInvalidRange
	}

	msgs, err := s.messages.QueryRange(ctx, chatID, after, upper)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, msgs)
}

// GetLastMessages returns the trailing count messages in ascending order,
// oldest-of-the-tail first.
func (s *HistoryService) GetLastMessages(ctx context.Context, chatID int, userID int, count int) ([]models.MessageView, error) {
	if count < 1 {
		return nil, ErrInvalidRange
	}
	if err := s.guard.CheckAccess(ctx, chatID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.QueryLast(ctx, chatID, count)
	if err != nil {
		return nil, err
	}

	// QueryLast returns newest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return s.enrich(ctx, msgs)
}

func (s *HistoryService) enrich(ctx context.Context, msgs []models.Message) ([]models.MessageView, error) {
	senderIDs := make([]int, 0, len(msgs))
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	users, err := s.users.ListUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	usernameByID := map[int]string{}
	for _, u := range users {
		usernameByID[u.ID] = u.Username
	}

	now := s.now()
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, models.MessageView{
			ID:             m.ID,
			ChatID:         m.ChatID,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			CreatedAtLabel: relativeLabel(now, m.CreatedAt),
			Sender:         models.Sender{ID: m.SenderID, Username: usernameByID[m.SenderID]},
		})
	}
	return views, nil
}
