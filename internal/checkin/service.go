package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/config"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListDays = 30
	MaxListDays     = 365
)

type Service interface {
	// Record stores today's mood for the user, replacing an earlier check-in
	// from the same day. The bool reports whether a new row was created.
	Record(ctx context.Context, userID uuid.UUID, mood int, notes *string, source string) (*CheckIn, bool, error)
	Today(ctx context.Context, userID uuid.UUID) (*CheckIn, error)
	List(ctx context.Context, userID uuid.UUID, days int) ([]*CheckIn, error)
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

func (s *service) Record(ctx context.Context, userID uuid.UUID, mood int, notes *string, source string) (*CheckIn, bool, error) {
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"user_id": userID,
		"source":  source,
	})

	if mood < MinMood || mood > MaxMood {
		return nil, false, fmt.Errorf("%w: mood must be between %d and %d", ErrValidation, MinMood, MaxMood)
	}
	if source == "" {
		source = SourceAPI
	}
	notes = trimNotes(notes)

	today := util.DateOf(s.clock())
	var (
		saved   *CheckIn
		created bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.FindByDay(ctx, userID, today)
		switch {
		case err == nil:
			existing.Mood = mood
			if notes != nil {
				existing.Notes = notes
			}
			existing.Source = source
			saved = existing
			return tx.Update(ctx, existing)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if err := tx.Create(ctx, &CheckIn{
			UserID:      userID,
			CheckInDate: today,
			Mood:        mood,
			Notes:       notes,
			Source:      source,
		}); err != nil {
			return err
		}
		created = true
		saved, err = tx.FindByDay(ctx, userID, today)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to record check-in")
		return nil, false, err
	}

	log.WithFields(logrus.Fields{"mood": mood, "created": created}).Info("Check-in recorded")
	return saved, created, nil
}

func (s *service) Today(ctx context.Context, userID uuid.UUID) (*CheckIn, error) {
	c, err := s.repo.FindByDay(ctx, userID, util.DateOf(s.clock()))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			config.WithContext(ctx).WithError(err).Error("Failed to load today's check-in")
		}
		return nil, err
	}
	return c, nil
}

// List returns the check-ins of the last days calendar days, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, days int) ([]*CheckIn, error) {
	if days == 0 {
		days = DefaultListDays
	}
	if days < 1 || days > MaxListDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrValidation, MaxListDays)
	}

	today := util.DateOf(s.clock())
	checkins, err := s.repo.ListBetween(ctx, userID, today.AddDays(-(days - 1)), today)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to list check-ins")
		return nil, err
	}
	return checkins, nil
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
