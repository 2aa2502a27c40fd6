package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/checkin"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/saulo-duarte/commitments-api/internal/config"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	maxMessageLength    = 2000
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = fmt.Errorf("message must be at most %d characters", maxMessageLength)
)

type Service interface {
	SendMessage(ctx context.Context, userID uuid.UUID, message string) (*ChatResponse, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*Conversation, error)
}

type service struct {
	repo        Repository
	commitments commitment.Service
	checkins    checkin.Service
	provider    Provider
	fallback    Provider
	clock       util.Clock
}

// NewService wires the chat turn. fallback, when set, answers whenever the
// primary provider fails. Moods are ignored when checkins is nil.
func NewService(repo Repository, commitments commitment.Service, checkins checkin.Service, provider, fallback Provider, clock util.Clock) Service {
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:        repo,
		commitments: commitments,
		checkins:    checkins,
		provider:    provider,
		fallback:    fallback,
		clock:       clock,
	}
}

func (s *service) SendMessage(ctx context.Context, userID uuid.UUID, message string) (*ChatResponse, error) {
	log := config.WithContext(ctx).WithField("user_id", userID)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	open, err := s.openCommitments(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to load open commitments for chat")
		return nil, err
	}

	now := s.clock()
	req := Request{
		System:  systemPrompt,
		Prompt:  BuildUserPrompt(message, now, open),
		Message: message,
		Now:     now,
		Open:    open,
	}

	reply, err := s.generate(ctx, log, req)
	if err != nil {
		return nil, err
	}

	outcomes := s.apply(ctx, log, userID, message, reply, open)

	text := strings.TrimSpace(reply.Message)
	if text == "" {
		text = "Got it."
	}

	actions, err := json.Marshal(outcomes)
	if err != nil {
		return nil, err
	}
	conv := &Conversation{
		UserID:    userID,
		Message:   message,
		Response:  text,
		Actions:   datatypes.JSON(actions),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		log.WithError(err).Error("Failed to store conversation")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"outcomes":        len(outcomes),
	}).Info("Chat turn processed")

	return &ChatResponse{
		ConversationID: conv.ID,
		Message:        text,
		Outcomes:       outcomes,
		CreatedAt:      conv.CreatedAt,
	}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]*Conversation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	conversations, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to load chat history")
		return nil, err
	}
	return conversations, nil
}

func (s *service) generate(ctx context.Context, log *logrus.Entry, req Request) (*Reply, error) {
	reply, err := s.provider.Generate(ctx, req)
	if err == nil {
		return reply, nil
	}
	if s.fallback == nil {
		log.WithError(err).Error("Chat provider failed")
		return nil, err
	}

	log.WithError(err).Warn("Chat provider failed, using rule-based fallback")
	reply, ferr := s.fallback.Generate(ctx, req)
	if ferr != nil {
		log.WithError(ferr).Error("Fallback chat provider failed")
		return nil, errors.Join(err, ferr)
	}
	return reply, nil
}

func (s *service) openCommitments(ctx context.Context, userID uuid.UUID) ([]OpenCommitment, error) {
	list, err := s.commitments.List(ctx, userID, commitment.ListQuery{Sort: commitment.SortPriority})
	if err != nil {
		return nil, err
	}

	var open []OpenCommitment
	for _, c := range list {
		if !c.Status.IsOpen() {
			continue
		}
		open = append(open, OpenCommitment{
			ID:              c.ID,
			TaskDescription: c.TaskDescription,
			IsRecurring:     c.IsRecurring,
			CompletedToday:  c.CompletedToday,
			DeadlineDisplay: c.DeadlineDisplay,
		})
	}
	return open, nil
}

// apply executes the reply's commitments, actions and mood one by one. Each
// one yields an outcome; a failure never stops the rest. An extraction that
// repeats an open commitment is reported instead of created.
func (s *service) apply(ctx context.Context, log *logrus.Entry, userID uuid.UUID, message string, reply *Reply, open []OpenCommitment) []Outcome {
	outcomes := make([]Outcome, 0, len(reply.Commitments)+len(reply.Actions)+1)

	for _, ex := range reply.Commitments {
		extraction, err := toExtraction(ex, message)
		if err != nil {
			outcomes = append(outcomes, Outcome{Type: OutcomeCreateFailed, TaskDescription: ex.TaskDescription, Error: err.Error()})
			continue
		}

		if existing := findDuplicate(extraction, open); existing != nil {
			id := existing.ID
			log.WithField("commitment_id", id).Info("Extracted commitment already open, not creating")
			outcomes = append(outcomes, Outcome{Type: OutcomeExists, CommitmentID: &id, TaskDescription: existing.TaskDescription})
			continue
		}

		created, err := s.commitments.CreateFromExtraction(ctx, userID, extraction)
		if err != nil {
			log.WithError(err).WithField("task", ex.TaskDescription).Warn("Extracted commitment was not created")
			outcomes = append(outcomes, Outcome{Type: OutcomeCreateFailed, TaskDescription: ex.TaskDescription, Error: err.Error()})
			continue
		}
		id := created.ID
		open = append(open, OpenCommitment{ID: id, TaskDescription: created.TaskDescription, IsRecurring: created.IsRecurring})
		outcomes = append(outcomes, Outcome{Type: OutcomeCreated, CommitmentID: &id, TaskDescription: created.TaskDescription})
	}

	for _, action := range reply.Actions {
		outcomes = append(outcomes, s.applyAction(ctx, log, userID, action))
	}

	if mood := strings.TrimSpace(reply.Mood); mood != "" && s.checkins != nil {
		outcomes = append(outcomes, s.recordMood(ctx, log, userID, mood, reply.MoodNotes))
	}
	return outcomes
}

// findDuplicate returns the open commitment of the same kind whose
// description has the same significant words as the extraction.
func findDuplicate(ex commitment.Extraction, open []OpenCommitment) *OpenCommitment {
	key := significantWords(ex.Description)
	if key == "" {
		return nil
	}
	recurring := ex.Recurrence != nil
	for i := range open {
		if open[i].IsRecurring == recurring && significantWords(open[i].TaskDescription) == key {
			return &open[i]
		}
	}
	return nil
}

func (s *service) recordMood(ctx context.Context, log *logrus.Entry, userID uuid.UUID, label, notes string) Outcome {
	score, ok := moodScores[strings.ToLower(label)]
	if !ok {
		return Outcome{Type: OutcomeMoodFailed, Error: fmt.Sprintf("unknown mood %q", label)}
	}

	var n *string
	if t := strings.TrimSpace(notes); t != "" {
		n = &t
	}

	_, created, err := s.checkins.Record(ctx, userID, score, n, checkin.SourceChat)
	if err != nil {
		log.WithError(err).Warn("Mood from chat was not recorded")
		return Outcome{Type: OutcomeMoodFailed, Mood: score, Error: err.Error()}
	}
	if created {
		return Outcome{Type: OutcomeMoodRecorded, Mood: score}
	}
	return Outcome{Type: OutcomeMoodUpdated, Mood: score}
}

func (s *service) applyAction(ctx context.Context, log *logrus.Entry, userID uuid.UUID, action Action) Outcome {
	id, err := uuid.Parse(action.CommitmentID)
	if err != nil {
		return Outcome{Type: OutcomeActionRejected, Error: fmt.Sprintf("invalid commitment id %q", action.CommitmentID)}
	}

	var notes *string
	if n := strings.TrimSpace(action.Notes); n != "" {
		notes = &n
	}

	var (
		resp    *commitment.CommitmentResponse
		success string
	)
	switch action.Type {
	case ActionComplete:
		resp, err = s.commitments.Complete(ctx, id, userID, notes)
		success = OutcomeCompleted
	case ActionSkip:
		resp, err = s.commitments.Skip(ctx, id, userID, notes)
		success = OutcomeSkipped
	default:
		return Outcome{Type: OutcomeActionRejected, CommitmentID: &id, Error: fmt.Sprintf("unknown action %q", action.Type)}
	}

	if err != nil {
		log.WithError(err).WithField("commitment_id", id).Warnf("Chat action %s failed", action.Type)
		return Outcome{Type: OutcomeActionFailed, CommitmentID: &id, Error: err.Error()}
	}
	return Outcome{Type: success, CommitmentID: &id, TaskDescription: resp.TaskDescription}
}

func toExtraction(ex ExtractedCommitment, message string) (commitment.Extraction, error) {
	out := commitment.Extraction{
		Description:     ex.TaskDescription,
		OriginalMessage: message,
	}

	if d := strings.TrimSpace(ex.Deadline); d != "" {
		parsed, err := util.ParseDate(d)
		if err != nil {
			return out, fmt.Errorf("deadline %q is not a YYYY-MM-DD date", ex.Deadline)
		}
		out.Deadline = &parsed
	}

	pattern := commitment.RecurrencePattern(strings.ToLower(strings.TrimSpace(ex.RecurrencePattern)))
	if pattern != "" && pattern != commitment.RecurrenceNone {
		rec := &commitment.Recurrence{
			Pattern:  pattern,
			Interval: ex.RecurrenceInterval,
			Days:     commitment.DayList(ex.RecurrenceDays),
		}
		if t := strings.TrimSpace(ex.DueTime); t != "" {
			rec.DueTime = &t
		}
		out.Recurrence = rec
	}
	return out, nil
}
