package services

import (
	"context"

	"chatrooms-service/internal/repositories"
)

// MembershipGuard verifies chat membership before any read or write.
type MembershipGuard interface {
	CheckAccess(ctx context.Context, chatID int, userID int) error
}

// Guard is the repository-backed MembershipGuard.
type Guard struct {
	chats repositories.ChatRepository
}

// NewGuard constructs a Guard.
func NewGuard(chats repositories.ChatRepository) *Guard {
	return &Guard{chats: chats}
}

// CheckAccess returns nil when a membership row exists for (chatID, userID)
// and ErrForbidden otherwise.
func (g *Guard) CheckAccess(ctx context.Context, chatID int, userID int) error {
	member, err := g.chats.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrForbidden
	}
	return nil
}
