package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"chatrooms-service/internal/auth"
	"chatrooms-service/internal/observability"
	"chatrooms-service/internal/services"
)

// LiveHandler upgrades chat-join requests to live sessions.
type LiveHandler struct {
	hub      *Hub
	guard    services.MembershipGuard
	pipeline services.BroadcastPipeline
	verifier auth.TokenVerifier
}

// NewLiveHandler constructs a LiveHandler.
func NewLiveHandler(hub *Hub, guard services.MembershipGuard, pipeline services.BroadcastPipeline, verifier auth.TokenVerifier) *LiveHandler {
	return &LiveHandler{hub: hub, guard: guard, pipeline: pipeline, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates and authorizes the join, upgrades the connection and
// starts the session. Authorization failures never register the connection,
// so a half-open session can never receive a broadcast.
func (h *LiveHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("chatrooms-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	authCtx, err := h.verifier.Verify(bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// Live sessions are always membership-scoped, admins included.
	if err := h.guard.CheckAccess(ctx, chatID, authCtx.UserID); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      authCtx.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Join(chatID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload(info, chatID, "ws_connect", "", 0),
	}, observability.BuildHeaders(info.RequestID, info.TraceID))

	// The request context dies when this handler returns, but the session
	// outlives the handshake. Detach it, keeping the trace linkage.
	sessionCtx := trace.ContextWithSpanContext(context.Background(), span.SpanContext())

	session := NewSession(h.hub, h.pipeline, conn, chatID, authCtx.UserID, info)
	go session.Run(sessionCtx)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && header[:len(prefix)] == prefix {
			return header[len(prefix):]
		}
		return ""
	}
	return c.Query("token")
}
