package models

import "time"

// Conversation links the participants discussing a claim to the item claimed.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	ItemID    string    `db:"item_id" json:"item_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
