package models

import "time"

// Chat represents a titled chat with an arbitrary number of members.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatPreview is the list-view of a chat for a user.
type ChatPreview struct {
	ID                 int    `json:"id"`
	Title              string `json:"title"`
	LastMessagePreview string `json:"last_message_preview"`
}

// ChatDetails carries the full member list of a chat.
type ChatDetails struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Members []Sender `json:"members"`
}
