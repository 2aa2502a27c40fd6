package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation is one chat turn: the user's message, the assistant reply and
// the outcomes of every action the reply triggered.
type Conversation struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Response  string         `gorm:"type:text;not null" json:"response"`
	Actions   datatypes.JSON `json:"actions"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
