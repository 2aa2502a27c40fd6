package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/saulo-duarte/commitments-api/internal/config"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	// promptWindow is how far from its schedule time a prompt may still fire.
	promptWindow     = 5 * time.Minute
	reminderSpacing  = 24 * time.Hour
	defaultListLimit = 50
	maxListLimit     = 200
)

type Options struct {
	MaxReminders    int
	MissedAfterDays int
}

type Service interface {
	CheckCommitmentReminders(ctx context.Context) (int, error)
	SendScheduledPrompts(ctx context.Context) (int, error)
	DeliverDueMessages(ctx context.Context) (int, error)
	ExpireMissed(ctx context.Context) (int, error)
	InitializeDefaultPrompts(ctx context.Context, userID uuid.UUID) error

	ListMessages(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*ProactiveMessage, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*ProactiveMessage, error)
}

type service struct {
	repo        Repository
	commitments commitment.Repository
	expirer     commitment.Service
	clock       util.Clock
	opts        Options
}

func NewService(repo Repository, commitments commitment.Repository, expirer commitment.Service, clock util.Clock, opts Options) Service {
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:        repo,
		commitments: commitments,
		expirer:     expirer,
		clock:       clock,
		opts:        opts,
	}
}

// CheckCommitmentReminders queues follow-ups for overdue one-time commitments
// (at most MaxReminders each, a day apart) and a once-a-day nudge for
// recurring commitments whose due time has passed without a completion.
func (s *service) CheckCommitmentReminders(ctx context.Context) (int, error) {
	log := config.WithContext(ctx)

	open, err := s.commitments.ListOpen(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load open commitments for reminders")
		return 0, err
	}

	now := s.clock()
	today := util.DateOf(now)

	var habitIDs []uuid.UUID
	for _, c := range open {
		if commitment.IsRecurring(c) {
			habitIDs = append(habitIDs, c.ID)
		}
	}
	rows, err := s.commitments.ListCompletionsOn(ctx, habitIDs, today)
	if err != nil {
		log.WithError(err).Error("Failed to load today's completions for reminders")
		return 0, err
	}
	handled := make(map[uuid.UUID]bool, len(rows))
	for _, cc := range rows {
		handled[cc.CommitmentID] = true
	}

	queued := 0
	for _, c := range open {
		var (
			content string
			kind    string
			count   = c.ReminderCount
		)

		if commitment.IsRecurring(c) {
			if !s.habitReminderDue(c, now, handled[c.ID]) {
				continue
			}
			content = fmt.Sprintf("Time for %s! Ready to check it off today?", c.TaskDescription)
			kind = MessageHabitReminder
		} else {
			if !s.followUpDue(c, now) {
				continue
			}
			content = followUpText(c)
			kind = MessageCommitmentReminder
			count++
		}

		id := c.ID
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			if err := tx.CreateMessage(ctx, &ProactiveMessage{
				UserID:       c.UserID,
				CommitmentID: &id,
				MessageType:  kind,
				Content:      content,
				ScheduledFor: now,
			}); err != nil {
				return err
			}
			return tx.MarkCommitmentReminded(ctx, id, count, now)
		})
		if err != nil {
			log.WithError(err).WithField("commitment_id", id).Error("Failed to queue reminder")
			continue
		}
		queued++
	}

	if queued > 0 {
		log.WithField("count", queued).Info("Queued commitment reminders")
	}
	return queued, nil
}

func (s *service) followUpDue(c *commitment.Commitment, now time.Time) bool {
	if c.Status != commitment.StatusPending || c.Deadline == nil {
		return false
	}
	if !c.Deadline.Before(util.DateOf(now)) {
		return false
	}
	if c.ReminderCount >= s.opts.MaxReminders {
		return false
	}
	return c.LastRemindedAt == nil || now.Sub(*c.LastRemindedAt) > reminderSpacing
}

func (s *service) habitReminderDue(c *commitment.Commitment, now time.Time, handledToday bool) bool {
	if c.Status != commitment.StatusActive || handledToday || c.DueTime == nil {
		return false
	}
	today := util.DateOf(now)
	if !commitment.IsScheduledOn(c, today, now.Location()) {
		return false
	}
	if c.LastRemindedAt != nil && util.DateOf(c.LastRemindedAt.In(now.Location())).Equal(today) {
		return false
	}
	due, err := time.ParseInLocation("15:04", *c.DueTime, now.Location())
	if err != nil {
		return false
	}
	dueAt := time.Date(now.Year(), now.Month(), now.Day(), due.Hour(), due.Minute(), 0, 0, now.Location())
	return !now.Before(dueAt)
}

func followUpText(c *commitment.Commitment) string {
	if c.ReminderCount == 0 {
		return fmt.Sprintf("You mentioned %s. How did it go?", c.TaskDescription)
	}
	return fmt.Sprintf("Looks like %s might have gotten away from you. Want to try again today?", c.TaskDescription)
}

// SendScheduledPrompts queues every active prompt whose schedule time is
// within five minutes of now, at most once per day.
func (s *service) SendScheduledPrompts(ctx context.Context) (int, error) {
	log := config.WithContext(ctx)

	prompts, err := s.repo.ListActivePrompts(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load scheduled prompts")
		return 0, err
	}

	now := s.clock()
	today := util.DateOf(now)
	queued := 0

	for _, p := range prompts {
		if !p.RunsOn(now) {
			continue
		}
		if p.LastSentAt != nil && !util.DateOf(p.LastSentAt.In(now.Location())).Before(today) {
			continue
		}
		if !withinWindow(p.ScheduleTime, now) {
			continue
		}

		prompt := p
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			if err := tx.CreateMessage(ctx, &ProactiveMessage{
				UserID:       prompt.UserID,
				MessageType:  MessageScheduledPrompt,
				Content:      prompt.Template,
				ScheduledFor: now,
			}); err != nil {
				return err
			}
			return tx.MarkPromptSent(ctx, prompt.ID, now)
		})
		if err != nil {
			log.WithError(err).WithField("prompt_id", prompt.ID).Error("Failed to queue scheduled prompt")
			continue
		}
		queued++
	}

	if queued > 0 {
		log.WithField("count", queued).Info("Queued scheduled prompts")
	}
	return queued, nil
}

func withinWindow(scheduleTime string, now time.Time) bool {
	t, err := time.ParseInLocation("15:04", scheduleTime, now.Location())
	if err != nil {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	diff := now.Sub(at)
	if diff < 0 {
		diff = -diff
	}
	return diff <= promptWindow
}

// DeliverDueMessages marks queued messages whose time has come as sent, which
// makes them visible to the user.
func (s *service) DeliverDueMessages(ctx context.Context) (int, error) {
	log := config.WithContext(ctx)
	now := s.clock()

	due, err := s.repo.ListUndeliveredDue(ctx, now)
	if err != nil {
		log.WithError(err).Error("Failed to load due messages")
		return 0, err
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, m := range due {
		ids = append(ids, m.ID)
	}
	n, err := s.repo.MarkSent(ctx, ids, now)
	if err != nil {
		log.WithError(err).Error("Failed to mark messages as sent")
		return 0, err
	}

	if n > 0 {
		log.WithField("count", n).Info("Delivered proactive messages")
	}
	return int(n), nil
}

func (s *service) ExpireMissed(ctx context.Context) (int, error) {
	return s.expirer.ExpireOverdue(ctx, s.opts.MissedAfterDays)
}

// InitializeDefaultPrompts creates the default prompts for a user that has
// none yet. It is safe to call more than once.
func (s *service) InitializeDefaultPrompts(ctx context.Context, userID uuid.UUID) error {
	log := config.WithContext(ctx).WithField("user_id", userID)

	n, err := s.repo.CountPrompts(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if err := s.repo.CreatePrompts(ctx, DefaultPrompts(userID)); err != nil {
		log.WithError(err).Error("Failed to create default prompts")
		return err
	}
	log.Info("Initialized default prompts")
	return nil
}

func (s *service) ListMessages(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*ProactiveMessage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	messages, err := s.repo.ListDelivered(ctx, userID, unreadOnly, limit)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to list proactive messages")
		return nil, err
	}
	return messages, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*ProactiveMessage, error) {
	m, err := s.repo.MarkRead(ctx, id, userID, s.clock())
	if err != nil {
		if !errors.Is(err, ErrMessageNotFound) {
			config.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
				"message_id": id,
				"user_id":    userID,
			}).Error("Failed to mark message as read")
		}
		return nil, err
	}
	return m, nil
}
