package commitment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	Status Status
	Kind   Kind
}

type Repository interface {
	// Transaction runs fn against a repository bound to a single database
	// transaction; returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	Create(ctx context.Context, c *Commitment) error
	Update(ctx context.Context, c *Commitment) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*Commitment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Commitment, error)
	ListPendingWithDeadlineBefore(ctx context.Context, day util.Date) ([]*Commitment, error)
	ListOpen(ctx context.Context) ([]*Commitment, error)

	CreateCompletion(ctx context.Context, cc *Completion) error
	ListCompletions(ctx context.Context, commitmentID uuid.UUID) ([]Completion, error)
	ListCompletionsOn(ctx context.Context, commitmentIDs []uuid.UUID, day util.Date) ([]Completion, error)
	ListCompletionsBetween(ctx context.Context, commitmentIDs []uuid.UUID, from, to util.Date) ([]Completion, error)
}

type repository struct {
	db   *gorm.DB
	inTx bool
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx, inTx: true})
	})
}

func (r *repository) Create(ctx context.Context, c *Commitment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *repository) Update(ctx context.Context, c *Commitment) error {
	c.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

// Delete removes the commitment and its completion rows. The explicit delete
// covers databases where the foreign key cascade is not enforced.
func (r *repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&Commitment{}).Where("id = ? AND user_id = ?", id, userID).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return ErrNotFound
		}
		if err := tx.Where("commitment_id = ?", id).Delete(&Completion{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Commitment{}).Error
	})
}

// FindByIDAndUser locks the row for the rest of the transaction on postgres,
// so concurrent same-day completions serialise.
func (r *repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*Commitment, error) {
	q := r.db.WithContext(ctx)
	if r.inTx && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var c Commitment
	if err := q.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Commitment, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	switch filter.Kind {
	case KindOneTime:
		q = q.Where("recurrence_pattern = ?", RecurrenceNone)
	case KindRecurring:
		q = q.Where("recurrence_pattern <> ?", RecurrenceNone)
	}

	var commitments []*Commitment
	if err := q.Order("created_at DESC").Find(&commitments).Error; err != nil {
		return nil, err
	}
	return commitments, nil
}

func (r *repository) ListPendingWithDeadlineBefore(ctx context.Context, day util.Date) ([]*Commitment, error) {
	var commitments []*Commitment
	err := r.db.WithContext(ctx).
		Where("status = ? AND recurrence_pattern = ? AND deadline IS NOT NULL AND deadline < ?", StatusPending, RecurrenceNone, day).
		Order("deadline ASC").
		Find(&commitments).Error
	if err != nil {
		return nil, err
	}
	return commitments, nil
}

// ListOpen returns pending and active commitments of every user.
func (r *repository) ListOpen(ctx context.Context) ([]*Commitment, error) {
	var commitments []*Commitment
	err := r.db.WithContext(ctx).
		Where("status IN ?", []Status{StatusPending, StatusActive}).
		Order("user_id, created_at").
		Find(&commitments).Error
	if err != nil {
		return nil, err
	}
	return commitments, nil
}

func (r *repository) CreateCompletion(ctx context.Context, cc *Completion) error {
	return r.db.WithContext(ctx).Create(cc).Error
}

func (r *repository) ListCompletions(ctx context.Context, commitmentID uuid.UUID) ([]Completion, error) {
	var completions []Completion
	err := r.db.WithContext(ctx).
		Where("commitment_id = ?", commitmentID).
		Order("completion_date DESC, completed_at DESC").
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}

func (r *repository) ListCompletionsOn(ctx context.Context, commitmentIDs []uuid.UUID, day util.Date) ([]Completion, error) {
	if len(commitmentIDs) == 0 {
		return nil, nil
	}
	var completions []Completion
	err := r.db.WithContext(ctx).
		Where("commitment_id IN ? AND completion_date = ?", commitmentIDs, day).
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}

func (r *repository) ListCompletionsBetween(ctx context.Context, commitmentIDs []uuid.UUID, from, to util.Date) ([]Completion, error) {
	if len(commitmentIDs) == 0 {
		return nil, nil
	}
	var completions []Completion
	err := r.db.WithContext(ctx).
		Where("commitment_id IN ? AND completion_date >= ? AND completion_date <= ?", commitmentIDs, from, to).
		Order("completion_date ASC").
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}
