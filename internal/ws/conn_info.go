package ws

import "time"

// ConnInfo identifies one live chat connection. Captured at handshake time
// and carried through hub events, broker messages and log lines so a
// connection can be traced across its whole lifetime.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
