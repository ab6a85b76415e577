package ws

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatrooms-service/internal/observability"
	"chatrooms-service/internal/services"
)

// Session owns one live connection after a successful join. Frames are read
// and processed sequentially, so per-sender ordering holds; sessions for
// different connections run concurrently.
type Session struct {
	hub       *Hub
	pipeline  services.BroadcastPipeline
	conn      *websocket.Conn
	chatID    int
	userID    int
	info      ConnInfo
	closeOnce sync.Once
}

// NewSession constructs a Session for an already-registered connection.
func NewSession(hub *Hub, pipeline services.BroadcastPipeline, conn *websocket.Conn, chatID int, userID int, info ConnInfo) *Session {
	return &Session{
		hub:      hub,
		pipeline: pipeline,
		conn:     conn,
		chatID:   chatID,
		userID:   userID,
		info:     info,
	}
}

// Run processes inbound frames until the connection closes or membership is
// revoked. Frame N+1 is not read before frame N's pipeline completes.
func (s *Session) Run(ctx context.Context) {
	var closeReason string
	defer func() {
		s.Close(ctx, closeReason)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
					EventType: "ws_events",
					EventName: "ws_error",
					Payload:   wsEventPayload(s.info, s.chatID, "ws_error", closeReason, time.Since(s.info.ConnectedAt).Milliseconds()),
				}, observability.BuildHeaders(s.info.RequestID, s.info.TraceID))
			}
			return
		}

		if err := s.handleFrame(ctx, data); err != nil {
			closeReason = err.Error()
			return
		}
	}
}

// handleFrame runs one frame through the pipeline. Only a Forbidden result
// tears down the session; bad or undeliverable frames are dropped so the room
// stays available.
func (s *Session) handleFrame(ctx context.Context, data []byte) error {
	_, err := s.pipeline.HandleInbound(ctx, s.chatID, s.userID, string(data), s.conn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrForbidden):
		log.Printf("closing session for user %d: access to chat %d revoked", s.userID, s.chatID)
		return err
	case errors.Is(err, services.ErrInvalidContent):
		log.Printf("dropping frame from user %d in chat %d: %v", s.userID, s.chatID, err)
		observability.IncBroadcastDropped("invalid_content")
		return nil
	default:
		log.Printf("dropping frame from user %d in chat %d: %v", s.userID, s.chatID, err)
		observability.IncBroadcastDropped("store_error")
		return nil
	}
}

// Close deregisters the session and releases the connection. Safe to call
// more than once.
func (s *Session) Close(ctx context.Context, reason string) {
	s.closeOnce.Do(func() {
		s.hub.Leave(s.chatID, s.conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   wsEventPayload(s.info, s.chatID, "ws_disconnect", reason, time.Since(s.info.ConnectedAt).Milliseconds()),
		}, observability.BuildHeaders(s.info.RequestID, s.info.TraceID))
		s.conn.Close()
	})
}
