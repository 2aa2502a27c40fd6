package commitment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

type Commitment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskDescription    string            `gorm:"type:text;not null" json:"task_description"`
	OriginalMessage    string            `gorm:"type:text" json:"original_message,omitempty"`
	Deadline           *util.Date        `gorm:"type:date;index" json:"deadline,omitempty"`
	RecurrencePattern  RecurrencePattern `gorm:"type:varchar(16);not null;default:'none'" json:"recurrence_pattern"`
	RecurrenceInterval int               `gorm:"not null;default:1" json:"recurrence_interval"`
	RecurrenceDays     string            `gorm:"type:varchar(64)" json:"recurrence_days,omitempty"`
	DueTime            *string           `gorm:"type:varchar(5)" json:"due_time,omitempty"`
	Status             Status            `gorm:"type:varchar(16);not null;index" json:"status"`
	CompletionCount    int               `gorm:"not null;default:0" json:"completion_count"`
	LastCompletedAt    *time.Time        `json:"last_completed_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	ReminderCount      int               `gorm:"not null;default:0" json:"reminder_count"`
	LastRemindedAt     *time.Time        `json:"last_reminded_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	Completions []Completion `gorm:"foreignKey:CommitmentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Commitment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Commitment) Days() DayList {
	if c.RecurrenceDays == "" {
		return nil
	}
	return SplitDays(c.RecurrenceDays)
}

func joinDays(days DayList) string {
	return strings.Join(days, ",")
}

// Completion records one occurrence of a recurring commitment, either done or
// explicitly skipped.
type Completion struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CommitmentID   uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_commitment_date" json:"commitment_id"`
	CompletionDate util.Date `gorm:"type:date;not null;index:idx_completion_commitment_date" json:"completion_date"`
	CompletedAt    time.Time `gorm:"not null" json:"completed_at"`
	Skipped        bool      `gorm:"not null;default:false" json:"skipped"`
	Notes          *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Completion) TableName() string {
	return "commitment_completions"
}

func (cc *Completion) BeforeCreate(tx *gorm.DB) error {
	if cc.ID == uuid.Nil {
		cc.ID = uuid.New()
	}
	return nil
}
