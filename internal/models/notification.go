package models

import "time"

// Notification types created by the fanout pipeline.
const (
	NotificationTypeClaimCode     = "claim_code"
	NotificationTypeClaimProgress = "claim_progress"
)

// Notification is one record per (recipient, event), persisted and then pushed
// to the recipient's personal channel.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	ItemID    string    `db:"item_id" json:"item_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
