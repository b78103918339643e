package ws

import "time"

// ConnInfo carries identity and diagnostic metadata for one connection.
type ConnInfo struct {
	ConnID      string
	UserID      string
	Verified    bool
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
