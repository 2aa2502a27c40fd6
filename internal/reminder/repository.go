package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreateMessage(ctx context.Context, m *ProactiveMessage) error
	ListUndeliveredDue(ctx context.Context, now time.Time) ([]*ProactiveMessage, error)
	MarkSent(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	ListDelivered(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*ProactiveMessage, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*ProactiveMessage, error)

	MarkCommitmentReminded(ctx context.Context, commitmentID uuid.UUID, count int, at time.Time) error

	CreatePrompts(ctx context.Context, prompts []*ScheduledPrompt) error
	CountPrompts(ctx context.Context, userID uuid.UUID) (int64, error)
	ListActivePrompts(ctx context.Context) ([]*ScheduledPrompt, error)
	MarkPromptSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) CreateMessage(ctx context.Context, m *ProactiveMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) ListUndeliveredDue(ctx context.Context, now time.Time) ([]*ProactiveMessage, error) {
	var messages []*ProactiveMessage
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL AND scheduled_for <= ?", now).
		Order("scheduled_for ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) MarkSent(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&ProactiveMessage{}).
		Where("id IN ? AND sent_at IS NULL", ids).
		Update("sent_at", at)
	return res.RowsAffected, res.Error
}

func (r *repository) ListDelivered(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*ProactiveMessage, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND sent_at IS NOT NULL", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var messages []*ProactiveMessage
	if err := q.Order("sent_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead only touches delivered messages owned by userID. Marking an
// already read message keeps the first read time.
func (r *repository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*ProactiveMessage, error) {
	var m ProactiveMessage
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND sent_at IS NOT NULL", id, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if m.ReadAt != nil {
		return &m, nil
	}

	if err := r.db.WithContext(ctx).Model(&m).Update("read_at", at).Error; err != nil {
		return nil, err
	}
	m.ReadAt = &at
	return &m, nil
}

func (r *repository) MarkCommitmentReminded(ctx context.Context, commitmentID uuid.UUID, count int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&commitment.Commitment{}).
		Where("id = ?", commitmentID).
		Updates(map[string]interface{}{
			"reminder_count":   count,
			"last_reminded_at": at,
			"updated_at":       at,
		}).Error
}

func (r *repository) CreatePrompts(ctx context.Context, prompts []*ScheduledPrompt) error {
	if len(prompts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&prompts).Error
}

func (r *repository) CountPrompts(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ScheduledPrompt{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *repository) ListActivePrompts(ctx context.Context) ([]*ScheduledPrompt, error) {
	var prompts []*ScheduledPrompt
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

func (r *repository) MarkPromptSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&ScheduledPrompt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_sent_at": at, "updated_at": at}).Error
}
