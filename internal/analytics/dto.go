package analytics

import (
	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

type OverviewResponse struct {
	From           util.Date `json:"from"`
	To             util.Date `json:"to"`
	Total          int       `json:"total"`
	Active         int       `json:"active"`
	Pending        int       `json:"pending"`
	CompletedToday int       `json:"completed_today"`
	Overdue        int       `json:"overdue"`
	CompletionRate float64   `json:"completion_rate"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
}

type CommitmentStats struct {
	CommitmentID     uuid.UUID         `json:"commitment_id"`
	TaskDescription  string            `json:"task_description"`
	Status           commitment.Status `json:"status"`
	IsRecurring      bool              `json:"is_recurring"`
	TotalCompletions int               `json:"total_completions"`
	TotalSkipped     int               `json:"total_skipped"`
	CurrentStreak    int               `json:"current_streak"`
	LongestStreak    int               `json:"longest_streak"`
	CompletionRate   float64           `json:"completion_rate"`
	CompletedToday   bool              `json:"completed_today"`
}
