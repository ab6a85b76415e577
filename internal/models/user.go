package models

import "time"

// Roles assigned to users. Admins may read chat metadata they are not a
// member of; message traffic is always membership-scoped.
const (
	RoleAdmin   = "ADMIN"
	RoleRegular = "REGULAR"
)

// User represents an account stored in the service database.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Role      string    `db:"role" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Sender is the subset of user data attached to messages.
type Sender struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
