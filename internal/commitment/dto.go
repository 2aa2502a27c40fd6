package commitment

import (
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

type CreateCommitmentDTO struct {
	TaskDescription    string            `json:"task_description"`
	OriginalMessage    string            `json:"original_message"`
	Deadline           *util.Date        `json:"deadline"`
	RecurrencePattern  RecurrencePattern `json:"recurrence_pattern"`
	RecurrenceInterval int               `json:"recurrence_interval"`
	RecurrenceDays     DayList           `json:"recurrence_days"`
	DueTime            *string           `json:"due_time"`
}

type UpdateCommitmentDTO struct {
	TaskDescription    *string            `json:"task_description"`
	RecurrencePattern  *RecurrencePattern `json:"recurrence_pattern"`
	RecurrenceInterval *int               `json:"recurrence_interval"`
	RecurrenceDays     *DayList           `json:"recurrence_days"`
	DueTime            *string            `json:"due_time"`
}

type CompletionDTO struct {
	Notes *string `json:"notes"`
}

type PostponeDTO struct {
	Deadline *util.Date `json:"deadline"`
}

// Extraction is what the chat layer pulls out of a free-text message.
type Extraction struct {
	Description     string
	OriginalMessage string
	Deadline        *util.Date
	Recurrence      *Recurrence
}

type ListQuery struct {
	Status      Status
	Kind        Kind
	OverdueOnly bool
	Sort        string
}

const (
	SortPriority = "priority"
	SortDeadline = "deadline"
	SortCreated  = "created"
)

type CommitmentResponse struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"user_id"`
	TaskDescription    string            `json:"task_description"`
	OriginalMessage    string            `json:"original_message,omitempty"`
	Deadline           *util.Date        `json:"deadline,omitempty"`
	RecurrencePattern  RecurrencePattern `json:"recurrence_pattern"`
	RecurrenceInterval int               `json:"recurrence_interval"`
	RecurrenceDays     DayList           `json:"recurrence_days,omitempty"`
	DueTime            *string           `json:"due_time,omitempty"`
	Status             Status            `json:"status"`
	CompletionCount    int               `json:"completion_count"`
	LastCompletedAt    *time.Time        `json:"last_completed_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	IsRecurring     bool   `json:"is_recurring"`
	CompletedToday  bool   `json:"completed_today"`
	IsOverdue       bool   `json:"is_overdue"`
	IsDueToday      bool   `json:"is_due_today"`
	ScheduledToday  bool   `json:"scheduled_today"`
	DeadlineDisplay string `json:"deadline_display"`
	Priority        int    `json:"priority"`
}

// toResponse derives the read-side fields. today holds this commitment's
// completion rows for the current day only.
func toResponse(c *Commitment, now time.Time, today []Completion) *CommitmentResponse {
	resp := &CommitmentResponse{
		ID:                 c.ID,
		UserID:             c.UserID,
		TaskDescription:    c.TaskDescription,
		OriginalMessage:    c.OriginalMessage,
		Deadline:           c.Deadline,
		RecurrencePattern:  c.RecurrencePattern,
		RecurrenceInterval: c.RecurrenceInterval,
		RecurrenceDays:     c.Days(),
		DueTime:            c.DueTime,
		Status:             c.Status,
		CompletionCount:    c.CompletionCount,
		LastCompletedAt:    c.LastCompletedAt,
		CompletedAt:        c.CompletedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,

		IsRecurring:     IsRecurring(c),
		IsOverdue:       IsOverdue(c, now, today),
		IsDueToday:      IsDueToday(c, now, today),
		ScheduledToday:  IsScheduledOn(c, util.DateOf(now), now.Location()),
		DeadlineDisplay: FormatDeadline(c, now),
		Priority:        Priority(c, now, today),
	}

	if resp.IsRecurring {
		resp.CompletedToday = CompletedOn(today, util.DateOf(now))
	} else {
		resp.CompletedToday = c.Status == StatusCompleted && c.CompletedAt != nil &&
			util.DateOf(c.CompletedAt.In(now.Location())).Equal(util.DateOf(now))
	}
	return resp
}
