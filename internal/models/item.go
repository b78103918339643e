package models

import "time"

// Item is a lost or found posting.
type Item struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	PosterID  string    `db:"poster_id" json:"poster_id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
