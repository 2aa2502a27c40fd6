package chat

import (
	"context"

	"github.com/saulo-duarte/commitments-api/internal/checkin"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/saulo-duarte/commitments-api/internal/config"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

type ChatContainer struct {
	Service Service
	Handler *Handler
}

// NewChatContainer uses Gemini when an API key is configured and the rule-based
// parser otherwise. With Gemini the parser stays on as the fallback.
func NewChatContainer(ctx context.Context, db *gorm.DB, commitments commitment.Service, checkins checkin.Service, apiKey, model string, clock util.Clock) *ChatContainer {
	log := config.WithContext(ctx)

	rules := NewRuleProvider()
	var provider, fallback Provider = rules, nil

	if apiKey != "" {
		gemini, err := NewGeminiProvider(ctx, apiKey, model)
		if err != nil {
			log.WithError(err).Warn("Gemini unavailable, chat uses the rule-based parser")
		} else {
			provider, fallback = gemini, rules
		}
	}

	service := NewService(NewRepository(db), commitments, checkins, provider, fallback, clock)
	handler := NewHandler(service)

	return &ChatContainer{
		Service: service,
		Handler: handler,
	}
}
