package mocks

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"

	"chatrooms-service/internal/models"
	"chatrooms-service/internal/repositories"
	"chatrooms-service/internal/services"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, title string, memberIDs []int) (models.ChatDetails, error) {
	args := m.Called(ctx, title, memberIDs)
	var details models.ChatDetails
	if val := args.Get(0); val != nil {
		details = val.(models.ChatDetails)
	}
	return details, args.Error(1)
}

func (m *ChatRepositoryMock) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChatDetails(ctx context.Context, chatID int) (models.ChatDetails, error) {
	args := m.Called(ctx, chatID)
	var details models.ChatDetails
	if val := args.Get(0); val != nil {
		details = val.(models.ChatDetails)
	}
	return details, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.ChatPreview, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatPreview
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatPreview)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) ListAllChats(ctx context.Context) ([]models.ChatPreview, error) {
	args := m.Called(ctx)
	var list []models.ChatPreview
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatPreview)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) QueryRange(ctx context.Context, chatID int, after time.Time, before time.Time) ([]models.Message, error) {
	args := m.Called(ctx, chatID, after, before)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) QueryLast(ctx context.Context, chatID int, count int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, count)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type MembershipGuardMock struct {
	mock.Mock
}

func (m *MembershipGuardMock) CheckAccess(ctx context.Context, chatID int, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

type MessageHistoryMock struct {
	mock.Mock
}

func (m *MessageHistoryMock) GetMessages(ctx context.Context, chatID int, userID int, after time.Time, before *time.Time) ([]models.MessageView, error) {
	args := m.Called(ctx, chatID, userID, after, before)
	var msgs []models.MessageView
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageView)
	}
	return msgs, args.Error(1)
}

func (m *MessageHistoryMock) GetLastMessages(ctx context.Context, chatID int, userID int, count int) ([]models.MessageView, error) {
	args := m.Called(ctx, chatID, userID, count)
	var msgs []models.MessageView
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageView)
	}
	return msgs, args.Error(1)
}

type BroadcastPipelineMock struct {
	mock.Mock
}

func (m *BroadcastPipelineMock) HandleInbound(ctx context.Context, chatID int, senderID int, content string, sender *websocket.Conn) (models.MessageView, error) {
	args := m.Called(ctx, chatID, senderID, content, sender)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

type ViewRendererMock struct {
	mock.Mock
}

func (m *ViewRendererMock) Render(name string, data any) ([]byte, error) {
	args := m.Called(name, data)
	var payload []byte
	if val := args.Get(0); val != nil {
		payload = val.([]byte)
	}
	return payload, args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Broadcast(chatID int, senderID int, sender *websocket.Conn, senderPayload []byte, othersPayload []byte) {
	m.Called(chatID, senderID, sender, senderPayload, othersPayload)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ services.MembershipGuard = (*MembershipGuardMock)(nil)
var _ services.MessageHistoryService = (*MessageHistoryMock)(nil)
var _ services.BroadcastPipeline = (*BroadcastPipelineMock)(nil)
var _ services.ViewRenderer = (*ViewRendererMock)(nil)
var _ services.Broadcaster = (*BroadcasterMock)(nil)
