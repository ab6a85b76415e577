package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatrooms-service/internal/observability"
)

// writeWait bounds the outbound send to one peer so a stuck connection
// cannot stall delivery to the rest of the room.
const writeWait = 10 * time.Second

type client struct {
	info ConnInfo
	mu   sync.Mutex // serializes writes to the connection
}

// Hub maintains the live rooms: chat id to the set of connections currently
// subscribed to that chat. Constructed once at startup and injected into the
// handlers that need it.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int]map[*websocket.Conn]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[*websocket.Conn]*client)}
}

// Join registers a connection in the chat's room, creating the room lazily.
func (h *Hub) Join(chatID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[chatID][conn] = &client{info: info}
}

// Leave removes a connection by identity. A no-op when the connection was
// never joined or already left, so a double close is harmless.
func (h *Hub) Leave(chatID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// RoomSize reports how many connections are subscribed to a chat.
func (h *Hub) RoomSize(chatID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// Broadcast sends senderPayload to the sender's connections and othersPayload
// to every other connection in the chat's room. The sender is matched by
// connection identity or by user id, so an author who sent over REST still
// gets the own-message variant on any live connection they hold. Connections
// that fail to receive are closed and removed, never treated as fatal for the
// rest of the room.
func (h *Hub) Broadcast(chatID int, senderID int, sender *websocket.Conn, senderPayload []byte, othersPayload []byte) {
	type target struct {
		conn *websocket.Conn
		cl   *client
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.rooms[chatID]))
	for conn, cl := range h.rooms[chatID] {
		targets = append(targets, target{conn: conn, cl: cl})
	}
	h.mu.RUnlock()

	for _, t := range targets {
		payload := othersPayload
		variant := "receiver"
		if t.conn == sender || (senderID != 0 && t.cl.info.UserID == senderID) {
			payload = senderPayload
			variant = "sender"
		}

		if err := writeConn(t.conn, t.cl, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			t.conn.Close()
			h.Leave(chatID, t.conn)
			h.publishWSError(chatID, t.cl.info, err)
			observability.IncBroadcastDropped("write_error")
			continue
		}
		observability.IncBroadcastDelivered(variant)
	}
}

func writeConn(conn *websocket.Conn, cl *client, payload []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) publishWSError(chatID int, info ConnInfo, err error) {
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   wsEventPayload(info, chatID, "ws_error", err.Error(), time.Since(info.ConnectedAt).Milliseconds()),
	}, headers)
	observability.IncWSEvent("ws_error")
}
