package reminder

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageCommitmentReminder = "commitment_reminder"
	MessageHabitReminder      = "habit_reminder"
	MessageScheduledPrompt    = "scheduled_prompt"
)

// ProactiveMessage is a message the system sends without being asked. It is
// queued with ScheduledFor and becomes visible once SentAt is set.
type ProactiveMessage struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	CommitmentID *uuid.UUID `gorm:"type:uuid;index" json:"commitment_id,omitempty"`
	MessageType  string     `gorm:"type:varchar(32);not null" json:"message_type"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	ScheduledFor time.Time  `gorm:"not null;index" json:"scheduled_for"`
	SentAt       *time.Time `gorm:"index" json:"sent_at,omitempty"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (m *ProactiveMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type ScheduledPrompt struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PromptType   string     `gorm:"type:varchar(32);not null" json:"prompt_type"`
	ScheduleTime string     `gorm:"type:varchar(5);not null" json:"schedule_time"`
	ScheduleDays string     `gorm:"type:varchar(64);not null" json:"schedule_days"`
	Template     string     `gorm:"type:text;not null" json:"template"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	LastSentAt   *time.Time `json:"last_sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (p *ScheduledPrompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// RunsOn reports whether the prompt is scheduled on t's weekday.
func (p *ScheduledPrompt) RunsOn(t time.Time) bool {
	code := strings.ToLower(t.Weekday().String()[:3])
	for _, d := range strings.Split(p.ScheduleDays, ",") {
		if strings.TrimSpace(strings.ToLower(d)) == code {
			return true
		}
	}
	return false
}

// DefaultPrompts are created for every new user.
func DefaultPrompts(userID uuid.UUID) []*ScheduledPrompt {
	return []*ScheduledPrompt{
		{
			UserID:       userID,
			PromptType:   "work_checkin",
			ScheduleTime: "17:00",
			ScheduleDays: "mon,tue,wed,thu,fri",
			Template:     "Hope work wrapped up well today! How was it? Want to chat about anything?",
			IsActive:     true,
		},
		{
			UserID:       userID,
			PromptType:   "weekend_reflection",
			ScheduleTime: "18:00",
			ScheduleDays: "sun",
			Template:     "How was your weekend? Ready for the week ahead?",
			IsActive:     true,
		},
	}
}
