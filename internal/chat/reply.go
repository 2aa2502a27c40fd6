package chat

import (
	"time"

	"github.com/google/uuid"
)

// Reply is the structured answer a Provider produces for one message.
type Reply struct {
	Message     string                `json:"message"`
	Commitments []ExtractedCommitment `json:"commitments"`
	Actions     []Action              `json:"actions"`
	Mood        string                `json:"mood,omitempty"`
	MoodNotes   string                `json:"mood_notes,omitempty"`
}

type ExtractedCommitment struct {
	TaskDescription    string   `json:"task_description"`
	Deadline           string   `json:"deadline,omitempty"`
	RecurrencePattern  string   `json:"recurrence_pattern,omitempty"`
	RecurrenceInterval int      `json:"recurrence_interval,omitempty"`
	RecurrenceDays     []string `json:"recurrence_days,omitempty"`
	DueTime            string   `json:"due_time,omitempty"`
}

const (
	ActionComplete = "complete"
	ActionSkip     = "skip"
)

type Action struct {
	Type         string `json:"type"`
	CommitmentID string `json:"commitment_id"`
	Notes        string `json:"notes,omitempty"`
}

const (
	OutcomeCreated        = "commitment_created"
	OutcomeExists         = "commitment_exists"
	OutcomeCreateFailed   = "commitment_creation_failed"
	OutcomeCompleted      = "commitment_completed"
	OutcomeSkipped        = "commitment_skipped"
	OutcomeActionFailed   = "action_failed"
	OutcomeActionRejected = "action_rejected"
	OutcomeMoodRecorded   = "mood_recorded"
	OutcomeMoodUpdated    = "mood_updated"
	OutcomeMoodFailed     = "mood_failed"
)

// moodScores maps the mood labels a provider may report to check-in scores.
var moodScores = map[string]int{
	"very_negative": 1,
	"negative":      2,
	"neutral":       3,
	"positive":      4,
	"very_positive": 5,
}

// Outcome reports what happened to one extracted commitment, action or mood.
type Outcome struct {
	Type            string     `json:"type"`
	CommitmentID    *uuid.UUID `json:"commitment_id,omitempty"`
	TaskDescription string     `json:"task_description,omitempty"`
	Mood            int        `json:"mood,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// OpenCommitment is the slice of a commitment a provider gets to see.
type OpenCommitment struct {
	ID              uuid.UUID
	TaskDescription string
	IsRecurring     bool
	CompletedToday  bool
	DeadlineDisplay string
}

type Request struct {
	System  string
	Prompt  string
	Message string
	Now     time.Time
	Open    []OpenCommitment
}
