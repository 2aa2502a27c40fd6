package checkin

import (
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

const (
	MinMood = 1
	MaxMood = 5
)

const (
	SourceAPI  = "api"
	SourceChat = "chat"
)

// CheckIn is a user's mood for one calendar day. A second check-in on the
// same day replaces the first.
type CheckIn struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_checkin_user_day" json:"user_id"`
	CheckInDate util.Date `gorm:"type:date;not null;uniqueIndex:idx_checkin_user_day" json:"checkin_date"`
	Mood        int       `gorm:"not null" json:"mood"`
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`
	Source      string    `gorm:"type:varchar(16);not null" json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (CheckIn) TableName() string {
	return "daily_checkins"
}

func (c *CheckIn) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
