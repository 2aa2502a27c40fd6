package chat

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Conversation) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*Conversation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ListRecent returns the newest conversations first.
func (r *repository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*Conversation, error) {
	var conversations []*Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}
