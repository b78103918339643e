package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

// ItemRepository defines lookups against lost and found postings.
type ItemRepository interface {
	GetItem(ctx context.Context, itemID string) (models.Item, error)
}

// ItemRepo is a sqlx-backed repository.
type ItemRepo struct {
	db *sqlx.DB
}

// NewItemRepo constructs ItemRepo.
func NewItemRepo(db *sqlx.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// GetItem retrieves a single posting.
func (r *ItemRepo) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	var item models.Item
	err := r.db.GetContext(ctx, &item, `SELECT id, title, poster_id, is_active, created_at FROM items WHERE id=$1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, ErrItemNotFound
	}
	return item, err
}
