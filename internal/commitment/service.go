package commitment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/config"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, dto CreateCommitmentDTO) (*CommitmentResponse, error)
	CreateFromExtraction(ctx context.Context, userID uuid.UUID, ex Extraction) (*CommitmentResponse, error)
	List(ctx context.Context, userID uuid.UUID, q ListQuery) ([]*CommitmentResponse, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*CommitmentResponse, error)
	Update(ctx context.Context, id, userID uuid.UUID, dto UpdateCommitmentDTO) (*CommitmentResponse, error)
	Complete(ctx context.Context, id, userID uuid.UUID, notes *string) (*CommitmentResponse, error)
	Skip(ctx context.Context, id, userID uuid.UUID, notes *string) (*CommitmentResponse, error)
	Dismiss(ctx context.Context, id, userID uuid.UUID) (*CommitmentResponse, error)
	Resume(ctx context.Context, id, userID uuid.UUID) (*CommitmentResponse, error)
	Postpone(ctx context.Context, id, userID uuid.UUID, deadline *util.Date) (*CommitmentResponse, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Completions(ctx context.Context, id, userID uuid.UUID) ([]Completion, error)
	ExpireOverdue(ctx context.Context, graceDays int) (int, error)
}

type service struct {
	repo  Repository
	clock util.Clock
}

func NewService(repo Repository, clock util.Clock) Service {
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, clock: clock}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, dto CreateCommitmentDTO) (*CommitmentResponse, error) {
	return s.CreateFromExtraction(ctx, userID, Extraction{
		Description:     dto.TaskDescription,
		OriginalMessage: dto.OriginalMessage,
		Deadline:        dto.Deadline,
		Recurrence: &Recurrence{
			Pattern:  dto.RecurrencePattern,
			Interval: dto.RecurrenceInterval,
			Days:     dto.RecurrenceDays,
			DueTime:  dto.DueTime,
		},
	})
}

// CreateFromExtraction is the single creation path shared by the REST API and
// the chat glue.
func (s *service) CreateFromExtraction(ctx context.Context, userID uuid.UUID, ex Extraction) (*CommitmentResponse, error) {
	log := config.WithContext(ctx).WithField("user_id", userID)

	description := strings.TrimSpace(ex.Description)
	if description == "" {
		return nil, validationErr("task_description is required")
	}

	var rec Recurrence
	if ex.Recurrence != nil {
		rec = *ex.Recurrence
	}
	sched, err := normalizeSchedule(ex.Deadline, rec)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	c := &Commitment{
		UserID:             userID,
		TaskDescription:    description,
		OriginalMessage:    strings.TrimSpace(ex.OriginalMessage),
		Deadline:           sched.Deadline,
		RecurrencePattern:  sched.Recurrence.Pattern,
		RecurrenceInterval: sched.Recurrence.Interval,
		RecurrenceDays:     joinDays(sched.Recurrence.Days),
		DueTime:            sched.Recurrence.DueTime,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if IsRecurring(c) {
		c.Status = StatusActive
	}

	if err := s.repo.Create(ctx, c); err != nil {
		log.WithError(err).Error("Failed to create commitment")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"commitment_id": c.ID,
		"recurrence":    c.RecurrencePattern,
	}).Info("Commitment created")
	return toResponse(c, now, nil), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, q ListQuery) ([]*CommitmentResponse, error) {
	log := config.WithContext(ctx)

	if q.Status != "" && !q.Status.IsValid() {
		return nil, validationErr("unknown status %q", q.Status)
	}
	if q.Kind != "" && q.Kind != KindOneTime && q.Kind != KindRecurring {
		return nil, validationErr("type must be one_time or recurring")
	}

	commitments, err := s.repo.ListByUser(ctx, userID, ListFilter{Status: q.Status, Kind: q.Kind})
	if err != nil {
		log.WithError(err).Error("Failed to list commitments")
		return nil, err
	}

	now := s.clock()
	byCommitment, err := s.completionsOn(ctx, s.repo, commitments, util.DateOf(now))
	if err != nil {
		log.WithError(err).Error("Failed to load today's completions")
		return nil, err
	}

	responses := make([]*CommitmentResponse, 0, len(commitments))
	for _, c := range commitments {
		resp := toResponse(c, now, byCommitment[c.ID])
		if q.OverdueOnly && !resp.IsOverdue {
			continue
		}
		responses = append(responses, resp)
	}

	switch q.Sort {
	case "", SortPriority:
		sort.SliceStable(responses, func(i, j int) bool {
			if responses[i].Priority != responses[j].Priority {
				return responses[i].Priority < responses[j].Priority
			}
			return deadlineLess(responses[i], responses[j])
		})
	case SortDeadline:
		sort.SliceStable(responses, func(i, j int) bool {
			return deadlineLess(responses[i], responses[j])
		})
	case SortCreated:
	default:
		return nil, validationErr("sort must be priority, deadline or created")
	}

	return responses, nil
}

// deadlineLess orders by deadline with undated commitments last.
func deadlineLess(a, b *CommitmentResponse) bool {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return false
	case a.Deadline == nil:
		return false
	case b.Deadline == nil:
		return true
	default:
		return a.Deadline.Before(*b.Deadline)
	}
}

func (s *service) Get(ctx context.Context, id, userID uuid.UUID) (*CommitmentResponse, error) {
	c, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, s.logLookup(ctx, err, id, userID)
	}
	return s.respond(ctx, s.repo, c, s.clock())
}

func (s *service) Update(ctx context.Context, id, userID uuid.UUID, dto UpdateCommitmentDTO) (*CommitmentResponse, error) {
	log := config.WithContext(ctx).WithField("commitment_id", id)

	var resp *CommitmentResponse
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		c, err := tx.FindByIDAndUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if !IsRecurring(c) && !c.Status.IsOpen() {
			return fmt.Errorf("%w: a %s commitment can no longer be edited", ErrInvalidState, c.Status)
		}

		if dto.TaskDescription != nil {
			description := strings.TrimSpace(*dto.TaskDescription)
			if description == "" {
				return validationErr("task_description cannot be empty")
			}
			c.TaskDescription = description
		}

		rec := Recurrence{
			Pattern:  c.RecurrencePattern,
			Interval: c.RecurrenceInterval,
			Days:     c.Days(),
			DueTime:  c.DueTime,
		}
		if dto.RecurrencePattern != nil {
			rec.Pattern = *dto.RecurrencePattern
			if dto.RecurrenceDays == nil && rec.Pattern != RecurrenceWeekly {
				rec.Days = nil
			}
		}
		if dto.RecurrenceInterval != nil {
			rec.Interval = *dto.RecurrenceInterval
		}
		if dto.RecurrenceDays != nil {
			rec.Days = *dto.RecurrenceDays
		}
		if dto.DueTime != nil {
			rec.DueTime = dto.DueTime
		}

		sched, err := normalizeSchedule(c.Deadline, rec)
		if err != nil {
			return err
		}
		if (sched.Recurrence.Pattern != RecurrenceNone) != IsRecurring(c) {
			return validationErr("a commitment cannot switch between one-time and recurring")
		}

		c.RecurrencePattern = sched.Recurrence.Pattern
		c.RecurrenceInterval = sched.Recurrence.Interval
		c.RecurrenceDays = joinDays(sched.Recurrence.Days)
		c.DueTime = sched.Recurrence.DueTime

		if err := tx.Update(ctx, c); err != nil {
			return err
		}
		resp, err = s.respond(ctx, tx, c, s.clock())
		return err
	})
	if err != nil {
		return nil, s.logMutation(log, err, "update")
	}

	log.Info("Commitment updated")
	return resp, nil
}

func (s *service) Complete(ctx context.Context, id, userID uuid.UUID, notes *string) (*CommitmentResponse, error) {
	log := config.WithContext(ctx).WithField("commitment_id", id)

	var resp *CommitmentResponse
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		c, err := tx.FindByIDAndUser(ctx, id, userID)
		if err != nil {
			return err
		}

		now := s.clock()
		today := util.DateOf(now)

		if IsRecurring(c) {
			if c.Status != StatusActive {
				return fmt.Errorf("%w: a %s recurring commitment cannot be completed", ErrInvalidState, c.Status)
			}
			rows, err := tx.ListCompletionsOn(ctx, []uuid.UUID{c.ID}, today)
			if err != nil {
				return err
			}
			if CompletedOn(rows, today) {
				return ErrAlreadyCompletedToday
			}

			if err := tx.CreateCompletion(ctx, &Completion{
				CommitmentID:   c.ID,
				CompletionDate: today,
				CompletedAt:    now,
				Notes:          trimNotes(notes),
			}); err != nil {
				return err
			}
			c.CompletionCount++
			c.LastCompletedAt = &now
		} else {
			if c.Status != StatusPending {
				return fmt.Errorf("%w: only pending commitments can be completed, this one is %s", ErrInvalidState, c.Status)
			}
			c.Status = StatusCompleted
			c.CompletedAt = &now
			c.LastCompletedAt = &now
			c.CompletionCount++
		}

		if err := tx.Update(ctx, c); err != nil {
			return err
		}
		resp, err = s.respond(ctx, tx, c, now)
		return err
	})
	if err != nil {
		return nil, s.logMutation(log, err, "complete")
	}

	log.Info("Commitment completed")
	return resp, nil
}

func (s *service) Skip(ctx context.Context, id, userID uuid.UUID, notes *string) (*CommitmentResponse, error) {
	log := config.WithContext(ctx).WithField("commitment_id", id)

	var resp *CommitmentResponse
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		c, err := tx.FindByIDAndUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if !IsRecurring(c) {
			return fmt.Errorf("%w: only recurring commitments can be skipped", ErrInvalidState)
		}
		if c.Status != StatusActive {
			return fmt.Errorf("%w: a %s recurring commitment cannot be skipped", ErrInvalidState, c.Status)
		}

		now := s.clock()
		today := util.DateOf(now)
		rows, err := tx.ListCompletionsOn(ctx, []uuid.UUID{c.ID}, today)
		if err != nil {
			return err
		}
		if CompletedOn(rows, today) {
			return ErrAlreadyCompletedToday
		}
		if HandledOn(rows, today) {
			return fmt.Errorf("%w: today is already skipped", ErrAlreadyCompletedToday)
		}

		if err := tx.CreateCompletion(ctx, &Completion{
			CommitmentID:   c.ID,
			CompletionDate: today,
			CompletedAt:    now,
			Skipped:        true,
			Notes:          trimNotes(notes),
		}); err != nil {
			return err
		}

		resp, err = s.respond(ctx, tx, c, now)
		return err
	})
	if err != nil {
		return nil, s.logMutation(log, err, "skip")
	}

	log.Info("Commitment skipped for today")
	return resp, nil
}

func (s *service) Dismiss(ctx context.Context, id, userID uuid.UUID) (*CommitmentResponse, error) {
	return s.transition(ctx, id, userID, "dismiss", func(c *Commitment) error {
		switch {
		case IsRecurring(c) && c.Status == StatusActive:
		case !IsRecurring(c) && c.Status == StatusPending:
		default:
			return fmt.Errorf("%w: a %s commitment cannot be dismissed", ErrInvalidState, c.Status)
		}
		c.Status = StatusDismissed
		return nil
	})
}

func (s *service) Resume(ctx context.Context, id, userID uuid.UUID) (*CommitmentResponse, error) {
	return s.transition(ctx, id, userID, "resume", func(c *Commitment) error {
		if !IsRecurring(c) || c.Status != StatusDismissed {
			return fmt.Errorf("%w: only dismissed recurring commitments can be resumed", ErrInvalidState)
		}
		c.Status = StatusActive
		return nil
	})
}

func (s *service) Postpone(ctx context.Context, id, userID uuid.UUID, deadline *util.Date) (*CommitmentResponse, error) {
	if deadline == nil || deadline.IsZero() {
		return nil, validationErr("deadline is required")
	}
	return s.transition(ctx, id, userID, "postpone", func(c *Commitment) error {
		if IsRecurring(c) {
			return fmt.Errorf("%w: recurring commitments have no deadline to postpone", ErrInvalidState)
		}
		if c.Status != StatusPending {
			return fmt.Errorf("%w: a %s commitment cannot be postponed", ErrInvalidState, c.Status)
		}
		d := *deadline
		c.Deadline = &d
		c.ReminderCount = 0
		c.LastRemindedAt = nil
		return nil
	})
}

// transition loads, mutates and saves a commitment inside one transaction.
func (s *service) transition(ctx context.Context, id, userID uuid.UUID, action string, apply func(c *Commitment) error) (*CommitmentResponse, error) {
	log := config.WithContext(ctx).WithField("commitment_id", id)

	var resp *CommitmentResponse
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		c, err := tx.FindByIDAndUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := apply(c); err != nil {
			return err
		}
		if err := tx.Update(ctx, c); err != nil {
			return err
		}
		resp, err = s.respond(ctx, tx, c, s.clock())
		return err
	})
	if err != nil {
		return nil, s.logMutation(log, err, action)
	}

	log.WithField("status", resp.Status).Infof("Commitment %s applied", action)
	return resp, nil
}

func (s *service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := config.WithContext(ctx).WithField("commitment_id", id)

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.FindByIDAndUser(ctx, id, userID); err != nil {
			return err
		}
		return tx.Delete(ctx, id, userID)
	})
	if err != nil {
		return s.logMutation(log, err, "delete")
	}

	log.Info("Commitment deleted")
	return nil
}

func (s *service) Completions(ctx context.Context, id, userID uuid.UUID) ([]Completion, error) {
	if _, err := s.repo.FindByIDAndUser(ctx, id, userID); err != nil {
		return nil, s.logLookup(ctx, err, id, userID)
	}
	completions, err := s.repo.ListCompletions(ctx, id)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to list completions")
		return nil, err
	}
	return completions, nil
}

// ExpireOverdue marks pending one-time commitments as missed once their
// deadline is more than graceDays behind today. It returns how many changed.
func (s *service) ExpireOverdue(ctx context.Context, graceDays int) (int, error) {
	log := config.WithContext(ctx)
	if graceDays < 0 {
		graceDays = 0
	}

	cutoff := util.DateOf(s.clock()).AddDays(-graceDays)
	expired := 0
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		stale, err := tx.ListPendingWithDeadlineBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, c := range stale {
			c.Status = StatusMissed
			if err := tx.Update(ctx, c); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to expire overdue commitments")
		return 0, err
	}

	if expired > 0 {
		log.WithField("count", expired).Info("Marked overdue commitments as missed")
	}
	return expired, nil
}

func (s *service) respond(ctx context.Context, repo Repository, c *Commitment, now time.Time) (*CommitmentResponse, error) {
	var today []Completion
	if IsRecurring(c) {
		rows, err := repo.ListCompletionsOn(ctx, []uuid.UUID{c.ID}, util.DateOf(now))
		if err != nil {
			return nil, err
		}
		today = rows
	}
	return toResponse(c, now, today), nil
}

func (s *service) completionsOn(ctx context.Context, repo Repository, commitments []*Commitment, day util.Date) (map[uuid.UUID][]Completion, error) {
	var ids []uuid.UUID
	for _, c := range commitments {
		if IsRecurring(c) {
			ids = append(ids, c.ID)
		}
	}
	rows, err := repo.ListCompletionsOn(ctx, ids, day)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]Completion, len(ids))
	for _, cc := range rows {
		out[cc.CommitmentID] = append(out[cc.CommitmentID], cc)
	}
	return out, nil
}

func (s *service) logLookup(ctx context.Context, err error, id, userID uuid.UUID) error {
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"commitment_id": id,
		"user_id":       userID,
	})
	if errors.Is(err, ErrNotFound) {
		log.Warn("Commitment not found or does not belong to user")
		return err
	}
	log.WithError(err).Error("Failed to load commitment")
	return err
}

func (s *service) logMutation(log *logrus.Entry, err error, action string) error {
	if isDomainError(err) {
		log.WithError(err).Warnf("Commitment %s rejected", action)
		return err
	}
	log.WithError(err).Errorf("Failed to %s commitment", action)
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrAlreadyCompletedToday) ||
		errors.Is(err, ErrValidation)
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	n := strings.TrimSpace(*notes)
	if n == "" {
		return nil
	}
	return &n
}
