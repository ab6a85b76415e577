package services_test

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatrooms-service/internal/mocks"
	"chatrooms-service/internal/models"
	"chatrooms-service/internal/services"
)

func newPipeline(guard *mocks.MembershipGuardMock, messages *mocks.MessageRepositoryMock, users *mocks.UserRepositoryMock, renderer *mocks.ViewRendererMock, rooms *mocks.BroadcasterMock) *services.Pipeline {
	return services.NewPipeline(guard, messages, users, renderer, rooms)
}

func selfFlagIs(want bool) interface{} {
	return mock.MatchedBy(func(data any) bool {
		return reflect.ValueOf(data).FieldByName("Self").Bool() == want
	})
}

func TestHandleInboundForbidden(t *testing.T) {
	guard := new(mocks.MembershipGuardMock)
	messages := new(mocks.MessageRepositoryMock)
	pipeline := newPipeline(guard, messages, new(mocks.UserRepositoryMock), new(mocks.ViewRendererMock), new(mocks.BroadcasterMock))

	guard.On("CheckAccess", mock.Anything, 7, 2).Return(services.ErrForbidden).Once()

	_, err := pipeline.HandleInbound(context.Background(), 7, 2, "hi", nil)
	require.ErrorIs(t, err, services.ErrForbidden)
	messages.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleInboundContentBounds(t *testing.T) {
	guard := new(mocks.MembershipGuardMock)
	messages := new(mocks.MessageRepositoryMock)
	pipeline := newPipeline(guard, messages, new(mocks.UserRepositoryMock), new(mocks.ViewRendererMock), new(mocks.BroadcasterMock))

	guard.On("CheckAccess", mock.Anything, 7, 1).Return(nil)

	_, err := pipeline.HandleInbound(context.Background(), 7, 1, "", nil)
	require.ErrorIs(t, err, services.ErrInvalidContent)

	_, err = pipeline.HandleInbound(context.Background(), 7, 1, strings.Repeat("x", 1025), nil)
	require.ErrorIs(t, err, services.ErrInvalidContent)

	messages.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleInboundStoreFailureDropsFrame(t *testing.T) {
	guard := new(mocks.MembershipGuardMock)
	messages := new(mocks.MessageRepositoryMock)
	rooms := new(mocks.BroadcasterMock)
	pipeline := newPipeline(guard, messages, new(mocks.UserRepositoryMock), new(mocks.ViewRendererMock), rooms)

	guard.On("CheckAccess", mock.Anything, 7, 1).Return(nil).Once()
	messages.On("Insert", mock.Anything, 7, 1, "hi").Return(models.Message{}, assert.AnError).Once()

	_, err := pipeline.HandleInbound(context.Background(), 7, 1, "hi", nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, services.ErrForbidden)
	rooms.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleInboundBroadcastsBothVariants(t *testing.T) {
	guard := new(mocks.MembershipGuardMock)
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	renderer := new(mocks.ViewRendererMock)
	rooms := new(mocks.BroadcasterMock)
	pipeline := newPipeline(guard, messages, users, renderer, rooms)

	created := models.Message{ID: 42, ChatID: 7, SenderID: 1, Content: "hi", CreatedAt: time.Now()}

	guard.On("CheckAccess", mock.Anything, 7, 1).Return(nil).Once()
	messages.On("Insert", mock.Anything, 7, 1, "hi").Return(created, nil).Once()
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil).Once()
	renderer.On("Render", "message", selfFlagIs(true)).Return([]byte("<div>self</div>"), nil).Once()
	renderer.On("Render", "message", selfFlagIs(false)).Return([]byte("<div>other</div>"), nil).Once()

	var senderPayload, othersPayload []byte
	rooms.On("Broadcast", 7, 1, mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		senderPayload = args.Get(3).([]byte)
		othersPayload = args.Get(4).([]byte)
	}).Return().Once()

	view, err := pipeline.HandleInbound(context.Background(), 7, 1, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, 42, view.ID)
	require.Equal(t, "alice", view.Sender.Username)

	var selfEvent, otherEvent models.ChatEvent
	require.NoError(t, json.Unmarshal(senderPayload, &selfEvent))
	require.NoError(t, json.Unmarshal(othersPayload, &otherEvent))
	require.Equal(t, models.ActionAddMessage, selfEvent.Action)
	require.Equal(t, models.ActionAddMessage, otherEvent.Action)
	require.Equal(t, 42, selfEvent.MessageID)
	require.Equal(t, 42, otherEvent.MessageID)
	require.Equal(t, "<div>self</div>", selfEvent.HTML)
	require.Equal(t, "<div>other</div>", otherEvent.HTML)

	guard.AssertExpectations(t)
	messages.AssertExpectations(t)
	renderer.AssertExpectations(t)
	rooms.AssertExpectations(t)
}

func TestHandleInboundRenderFailureKeepsMessage(t *testing.T) {
	guard := new(mocks.MembershipGuardMock)
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	renderer := new(mocks.ViewRendererMock)
	rooms := new(mocks.BroadcasterMock)
	pipeline := newPipeline(guard, messages, users, renderer, rooms)

	created := models.Message{ID: 43, ChatID: 7, SenderID: 1, Content: "hi", CreatedAt: time.Now()}

	guard.On("CheckAccess", mock.Anything, 7, 1).Return(nil).Once()
	messages.On("Insert", mock.Anything, 7, 1, "hi").Return(created, nil).Once()
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil).Once()
	renderer.On("Render", "message", mock.Anything).Return(nil, assert.AnError).Once()

	view, err := pipeline.HandleInbound(context.Background(), 7, 1, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, 43, view.ID)
	rooms.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
