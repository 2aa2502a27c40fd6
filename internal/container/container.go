package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/saulo-duarte/commitments-api/internal/analytics"
	"github.com/saulo-duarte/commitments-api/internal/auth"
	"github.com/saulo-duarte/commitments-api/internal/chat"
	"github.com/saulo-duarte/commitments-api/internal/checkin"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/saulo-duarte/commitments-api/internal/config"
	"github.com/saulo-duarte/commitments-api/internal/reminder"
	"github.com/saulo-duarte/commitments-api/internal/router"
	"github.com/saulo-duarte/commitments-api/internal/user"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"gorm.io/gorm"
)

type Container struct {
	DB *gorm.DB

	UserContainer       *user.UserContainer
	CommitmentContainer *commitment.CommitmentContainer
	AnalyticsContainer  *analytics.AnalyticsContainer
	ChatContainer       *chat.ChatContainer
	CheckInContainer    *checkin.CheckInContainer
	ReminderContainer   *reminder.ReminderContainer
}

func models() []interface{} {
	return []interface{}{
		&user.User{},
		&commitment.Commitment{},
		&commitment.Completion{},
		&chat.Conversation{},
		&checkin.CheckIn{},
		&reminder.ProactiveMessage{},
		&reminder.ScheduledPrompt{},
	}
}

// New loads configuration, connects to the database, migrates the schema and
// builds every feature container.
func New(ctx context.Context) (*Container, error) {
	config.Init()
	auth.Init()

	if err := config.Connect(ctx, config.App.DatabaseDSN); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := config.Migrate(config.DB, models()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return Build(ctx, config.DB, util.InLocation(time.Now, config.App.Location)), nil
}

// Build wires the feature containers on top of an open database.
func Build(ctx context.Context, db *gorm.DB, clock util.Clock) *Container {
	commitmentContainer := commitment.NewCommitmentContainer(db, clock)
	reminderContainer := reminder.NewReminderContainer(db, commitmentContainer, clock, reminder.Options{
		MaxReminders:    config.App.ReminderMaxCount,
		MissedAfterDays: config.App.MissedAfterDays,
	})
	userContainer := user.NewUserContainer(db, config.App.JWTTTL, reminderContainer.Service.InitializeDefaultPrompts)
	analyticsContainer := analytics.NewAnalyticsContainer(commitmentContainer.Repo, clock)
	checkInContainer := checkin.NewCheckInContainer(db, clock)
	chatContainer := chat.NewChatContainer(ctx, db, commitmentContainer.Service, checkInContainer.Service, config.App.GeminiAPIKey, config.App.GeminiModel, clock)

	return &Container{
		DB:                  db,
		UserContainer:       userContainer,
		CommitmentContainer: commitmentContainer,
		AnalyticsContainer:  analyticsContainer,
		ChatContainer:       chatContainer,
		CheckInContainer:    checkInContainer,
		ReminderContainer:   reminderContainer,
	}
}

func (c *Container) Router() http.Handler {
	return router.New(router.RouterConfig{
		UserHandler:       c.UserContainer.Handler,
		CommitmentHandler: c.CommitmentContainer.Handler,
		AnalyticsHandler:  c.AnalyticsContainer.Handler,
		ChatHandler:       c.ChatContainer.Handler,
		CheckInHandler:    c.CheckInContainer.Handler,
		ReminderHandler:   c.ReminderContainer.Handler,
	})
}

func (c *Container) Close() error {
	return config.Close(c.DB)
}
