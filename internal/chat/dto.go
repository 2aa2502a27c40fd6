package chat

import (
	"time"

	"github.com/google/uuid"
)

type MessageDTO struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Message        string    `json:"message"`
	Outcomes       []Outcome `json:"outcomes"`
	CreatedAt      time.Time `json:"created_at"`
}
