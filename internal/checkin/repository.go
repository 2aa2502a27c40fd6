package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	FindByDay(ctx context.Context, userID uuid.UUID, day util.Date) (*CheckIn, error)
	Create(ctx context.Context, c *CheckIn) error
	Update(ctx context.Context, c *CheckIn) error
	ListBetween(ctx context.Context, userID uuid.UUID, from, to util.Date) ([]*CheckIn, error)
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

func (r *repository) FindByDay(ctx context.Context, userID uuid.UUID, day util.Date) (*CheckIn, error) {
	var c CheckIn
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND check_in_date = ?", userID, day).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts the check-in for its (user, day). If another request got
// there first the existing row takes the new mood, notes and source.
func (r *repository) Create(ctx context.Context, c *CheckIn) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "check_in_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"mood", "notes", "source", "updated_at"}),
		}).
		Create(c).Error
}

func (r *repository) Update(ctx context.Context, c *CheckIn) error {
	c.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *repository) ListBetween(ctx context.Context, userID uuid.UUID, from, to util.Date) ([]*CheckIn, error) {
	var checkins []*CheckIn
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND check_in_date BETWEEN ? AND ?", userID, from, to).
		Order("check_in_date DESC").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}
	return checkins, nil
}
