package models

import "time"

// Message represents a persisted chat message. Immutable once created.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageView is a message enriched for presentation: sender identity and a
// relative timestamp label computed at read time.
type MessageView struct {
	ID             int       `json:"id"`
	ChatID         int       `json:"chat_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedAtLabel string    `json:"created_at_label"`
	Sender         Sender    `json:"sender"`
}

// ActionAddMessage is the envelope action for new-message fan-out.
const ActionAddMessage = "ADD_MESSAGE"

// ChatEvent is the wire envelope broadcasted through websockets.
type ChatEvent struct {
	Action    string `json:"action"`
	MessageID int    `json:"message_id"`
	HTML      string `json:"html"`
}
