package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/saulo-duarte/commitments-api/internal/config"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

var ErrInvalidWindow = errors.New("days must be between 1 and 365")

type Service interface {
	Overview(ctx context.Context, userID uuid.UUID, days int) (*OverviewResponse, error)
	CommitmentStats(ctx context.Context, id, userID uuid.UUID) (*CommitmentStats, error)
}

type service struct {
	repo  commitment.Repository
	clock util.Clock
}

func NewService(repo commitment.Repository, clock util.Clock) Service {
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, clock: clock}
}

// Overview aggregates the user's commitments over the last days days,
// today included.
func (s *service) Overview(ctx context.Context, userID uuid.UUID, days int) (*OverviewResponse, error) {
	log := config.WithContext(ctx).WithField("user_id", userID)

	if days == 0 {
		days = DefaultWindowDays
	}
	if days < 1 || days > MaxWindowDays {
		return nil, ErrInvalidWindow
	}

	commitments, err := s.repo.ListByUser(ctx, userID, commitment.ListFilter{})
	if err != nil {
		log.WithError(err).Error("Failed to load commitments for overview")
		return nil, err
	}

	now := s.clock()
	today := util.DateOf(now)
	from := today.AddDays(-(days - 1))

	history, err := s.history(ctx, commitments, today, now.Location())
	if err != nil {
		log.WithError(err).Error("Failed to load completions for overview")
		return nil, err
	}

	out := &OverviewResponse{From: from, To: today, Total: len(commitments)}
	var numerator, denominator int

	for _, c := range commitments {
		rows := history[c.ID]
		todays := rowsOn(rows, today)

		switch c.Status {
		case commitment.StatusActive:
			out.Active++
		case commitment.StatusPending:
			out.Pending++
		}
		if commitment.IsOverdue(c, now, todays) {
			out.Overdue++
		}

		if commitment.IsRecurring(c) {
			if commitment.CompletedOn(todays, today) {
				out.CompletedToday++
			}

			start := maxDate(from, util.DateIn(c.CreatedAt, now.Location()))
			numerator += QualifyingDaysBetween(rows, start, today)
			denominator += DaysInRange(start, today)

			if streak := CurrentStreak(rows, today); streak > out.CurrentStreak {
				out.CurrentStreak = streak
			}
			if streak := LongestStreak(rows); streak > out.LongestStreak {
				out.LongestStreak = streak
			}
			continue
		}

		if c.Status == commitment.StatusCompleted && c.CompletedAt != nil &&
			util.DateOf(c.CompletedAt.In(now.Location())).Equal(today) {
			out.CompletedToday++
		}

		created := util.DateIn(c.CreatedAt, now.Location())
		if created.Before(from) || created.After(today) {
			continue
		}
		denominator++
		if c.Status == commitment.StatusCompleted {
			numerator++
		}
	}

	out.CompletionRate = Rate(numerator, denominator)
	return out, nil
}

func (s *service) CommitmentStats(ctx context.Context, id, userID uuid.UUID) (*CommitmentStats, error) {
	log := config.WithContext(ctx).WithField("commitment_id", id)

	c, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		if !errors.Is(err, commitment.ErrNotFound) {
			log.WithError(err).Error("Failed to load commitment for stats")
		}
		return nil, err
	}

	rows, err := s.repo.ListCompletions(ctx, c.ID)
	if err != nil {
		log.WithError(err).Error("Failed to load completions for stats")
		return nil, err
	}

	now := s.clock()
	today := util.DateOf(now)
	stats := &CommitmentStats{
		CommitmentID:    c.ID,
		TaskDescription: c.TaskDescription,
		Status:          c.Status,
		IsRecurring:     commitment.IsRecurring(c),
	}

	if !stats.IsRecurring {
		stats.TotalCompletions = c.CompletionCount
		if c.Status == commitment.StatusCompleted {
			stats.CompletionRate = 1
			stats.CompletedToday = c.CompletedAt != nil && util.DateOf(c.CompletedAt.In(now.Location())).Equal(today)
		}
		return stats, nil
	}

	for _, cc := range rows {
		if cc.Skipped {
			stats.TotalSkipped++
		} else {
			stats.TotalCompletions++
		}
	}
	stats.CurrentStreak = CurrentStreak(rows, today)
	stats.LongestStreak = LongestStreak(rows)
	stats.CompletedToday = commitment.CompletedOn(rows, today)

	start := maxDate(today.AddDays(-(DefaultWindowDays - 1)), util.DateIn(c.CreatedAt, now.Location()))
	stats.CompletionRate = Rate(QualifyingDaysBetween(rows, start, today), DaysInRange(start, today))

	return stats, nil
}

// history loads every completion of the recurring commitments up to today.
func (s *service) history(ctx context.Context, commitments []*commitment.Commitment, today util.Date, loc *time.Location) (map[uuid.UUID][]commitment.Completion, error) {
	var ids []uuid.UUID
	earliest := today
	for _, c := range commitments {
		if !commitment.IsRecurring(c) {
			continue
		}
		ids = append(ids, c.ID)
		if created := util.DateIn(c.CreatedAt, loc); created.Before(earliest) {
			earliest = created
		}
	}

	rows, err := s.repo.ListCompletionsBetween(ctx, ids, earliest, today)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]commitment.Completion, len(ids))
	for _, cc := range rows {
		out[cc.CommitmentID] = append(out[cc.CommitmentID], cc)
	}
	return out, nil
}

func rowsOn(rows []commitment.Completion, day util.Date) []commitment.Completion {
	var out []commitment.Completion
	for _, cc := range rows {
		if cc.CompletionDate.Equal(day) {
			out = append(out, cc)
		}
	}
	return out
}

func maxDate(a, b util.Date) util.Date {
	if a.After(b) {
		return a
	}
	return b
}
