package services

import (
	"context"
	"encoding/json"
	"log"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"chatrooms-service/internal/models"
	"chatrooms-service/internal/observability"
	"chatrooms-service/internal/repositories"
)

const maxContentLen = 1024

// ViewRenderer renders a named template with the given data. Implemented by
// the views package; injected so the pipeline stays presentation-agnostic.
type ViewRenderer interface {
	Render(name string, data any) ([]byte, error)
}

// Broadcaster fans a rendered payload out to a chat room. Implemented by the
// websocket hub.
type Broadcaster interface {
	Broadcast(chatID int, senderID int, sender *websocket.Conn, senderPayload []byte, othersPayload []byte)
}

// BroadcastPipeline authorizes, persists and fans out inbound message content.
type BroadcastPipeline interface {
	HandleInbound(ctx context.Context, chatID int, senderID int, content string, sender *websocket.Conn) (models.MessageView, error)
}

// Pipeline is the production BroadcastPipeline.
type Pipeline struct {
	guard    MembershipGuard
	messages repositories.MessageRepository
	users    repositories.UserRepository
	renderer ViewRenderer
	rooms    Broadcaster
	now      func() time.Time
}

// NewPipeline constructs a Pipeline.
func NewPipeline(guard MembershipGuard, messages repositories.MessageRepository, users repositories.UserRepository, renderer ViewRenderer, rooms Broadcaster) *Pipeline {
	return &Pipeline{
		guard:    guard,
		messages: messages,
		users:    users,
		renderer: renderer,
		rooms:    rooms,
		now:      time.Now,
	}
}

type messageTemplateData struct {
	Message models.MessageView
	Self    bool
}

// HandleInbound runs one inbound frame through the pipeline: re-check access,
// persist, render the sender and receiver variants, fan out. Membership is
// re-validated on every frame so a revocation mid-session takes effect.
// A nil sender connection (REST send path) still delivers the own-message
// variant to any live connection the sender holds; the hub matches by user id.
func (p *Pipeline) HandleInbound(ctx context.Context, chatID int, senderID int, content string, sender *websocket.Conn) (models.MessageView, error) {
	if err := p.guard.CheckAccess(ctx, chatID, senderID); err != nil {
		return models.MessageView{}, err
	}

	if n := utf8.RuneCountInString(content); n < 1 || n > maxContentLen {
		return models.MessageView{}, ErrInvalidContent
	}

	msg, err := p.messages.Insert(ctx, chatID, senderID, content)
	if err != nil {
		return models.MessageView{}, err
	}

	view := models.MessageView{
		ID:             msg.ID,
		ChatID:         msg.ChatID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
		CreatedAtLabel: relativeLabel(p.now(), msg.CreatedAt),
		Sender:         models.Sender{ID: senderID},
	}
	if user, err := p.users.GetUser(ctx, senderID); err == nil {
		view.Sender.Username = user.Username
	} else {
		log.Printf("sender lookup failed for user %d: %v", senderID, err)
	}

	// The message is durable at this point. Rendering or fan-out failures
	// must not fail the frame.
	senderPayload, err := p.buildEnvelope(view, true)
	if err != nil {
		log.Printf("render sender variant failed for message %d: %v", view.ID, err)
		observability.IncBroadcastDropped("render_error")
		return view, nil
	}
	othersPayload, err := p.buildEnvelope(view, false)
	if err != nil {
		log.Printf("render receiver variant failed for message %d: %v", view.ID, err)
		observability.IncBroadcastDropped("render_error")
		return view, nil
	}

	p.rooms.Broadcast(chatID, senderID, sender, senderPayload, othersPayload)
	return view, nil
}

func (p *Pipeline) buildEnvelope(view models.MessageView, self bool) ([]byte, error) {
	html, err := p.renderer.Render("message", messageTemplateData{Message: view, Self: self})
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.ChatEvent{
		Action:    models.ActionAddMessage,
		MessageID: view.ID,
		HTML:      string(html),
	})
}
