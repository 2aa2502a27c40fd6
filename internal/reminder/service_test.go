package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Wednesday.
var testNow = time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

type fixture struct {
	svc         Service
	repo        Repository
	commitments commitment.Repository
	db          *gorm.DB
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&commitment.Commitment{},
		&commitment.Completion{},
		&ProactiveMessage{},
		&ScheduledPrompt{},
	))

	f := &fixture{db: db, now: testNow}
	clock := func() time.Time { return f.now }

	f.commitments = commitment.NewRepository(db)
	f.repo = NewRepository(db)
	f.svc = NewService(f.repo, f.commitments, commitment.NewService(f.commitments, clock), clock, Options{
		MaxReminders:    2,
		MissedAfterDays: 7,
	})
	return f
}

func (f *fixture) oneTime(t *testing.T, userID uuid.UUID, desc string, deadline util.Date) *commitment.Commitment {
	t.Helper()
	c := &commitment.Commitment{
		UserID:             userID,
		TaskDescription:    desc,
		Deadline:           &deadline,
		RecurrencePattern:  commitment.RecurrenceNone,
		RecurrenceInterval: 1,
		Status:             commitment.StatusPending,
		CreatedAt:          testNow.AddDate(0, 0, -10),
	}
	require.NoError(t, f.commitments.Create(context.Background(), c))
	return c
}

func (f *fixture) daily(t *testing.T, userID uuid.UUID, desc, dueTime string) *commitment.Commitment {
	t.Helper()
	c := &commitment.Commitment{
		UserID:             userID,
		TaskDescription:    desc,
		RecurrencePattern:  commitment.RecurrenceDaily,
		RecurrenceInterval: 1,
		DueTime:            &dueTime,
		Status:             commitment.StatusActive,
		CreatedAt:          testNow.AddDate(0, 0, -3),
	}
	require.NoError(t, f.commitments.Create(context.Background(), c))
	return c
}

func (f *fixture) queued(t *testing.T) []ProactiveMessage {
	t.Helper()
	var messages []ProactiveMessage
	require.NoError(t, f.db.Order("created_at ASC").Find(&messages).Error)
	return messages
}

func TestFollowUpRemindersAreSpacedAndCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	c := f.oneTime(t, userID, "Send invoice", util.NewDate(2025, time.June, 9))
	f.oneTime(t, userID, "Due later", util.NewDate(2025, time.June, 20))

	n, err := f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	messages := f.queued(t)
	require.Len(t, messages, 1)
	assert.Equal(t, MessageCommitmentReminder, messages[0].MessageType)
	assert.Equal(t, "You mentioned Send invoice. How did it go?", messages[0].Content)
	require.NotNil(t, messages[0].CommitmentID)
	assert.Equal(t, c.ID, *messages[0].CommitmentID)
	assert.Nil(t, messages[0].SentAt)

	n, err = f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second reminder within a day")

	f.now = testNow.Add(25 * time.Hour)
	n, err = f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	messages = f.queued(t)
	require.Len(t, messages, 2)
	assert.Equal(t, "Looks like Send invoice might have gotten away from you. Want to try again today?", messages[1].Content)

	stored, err := f.commitments.FindByIDAndUser(ctx, c.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ReminderCount)
	require.NotNil(t, stored.LastRemindedAt)

	f.now = testNow.Add(50 * time.Hour)
	n, err = f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "reminders are capped")
}

func TestHabitRemindersAfterDueTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	stretch := f.daily(t, userID, "Stretch", "09:00")
	f.daily(t, userID, "Read", "18:00")
	walked := f.daily(t, userID, "Walk", "08:00")

	require.NoError(t, f.commitments.CreateCompletion(ctx, &commitment.Completion{
		CommitmentID:   walked.ID,
		CompletionDate: util.DateOf(testNow),
		CompletedAt:    testNow.Add(-time.Hour),
	}))

	n, err := f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	messages := f.queued(t)
	require.Len(t, messages, 1)
	assert.Equal(t, MessageHabitReminder, messages[0].MessageType)
	assert.Equal(t, "Time for Stretch! Ready to check it off today?", messages[0].Content)
	assert.Equal(t, stretch.ID, *messages[0].CommitmentID)

	f.now = testNow.Add(2 * time.Hour)
	n, err = f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "one habit reminder per day")

	f.now = testNow.Add(24 * time.Hour)
	n, err = f.svc.CheckCommitmentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "stretch and walk are due again the next morning")
}

func TestScheduledPromptsFireOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, f.svc.InitializeDefaultPrompts(ctx, userID))
	require.NoError(t, f.svc.InitializeDefaultPrompts(ctx, userID))
	count, err := f.repo.CountPrompts(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	f.now = time.Date(2025, time.June, 11, 16, 50, 0, 0, time.UTC)
	n, err := f.svc.SendScheduledPrompts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "too early")

	f.now = time.Date(2025, time.June, 11, 17, 3, 0, 0, time.UTC)
	n, err = f.svc.SendScheduledPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.SendScheduledPrompts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already sent today")

	// Sunday evening only the weekend prompt runs.
	f.now = time.Date(2025, time.June, 15, 18, 0, 0, 0, time.UTC)
	n, err = f.svc.SendScheduledPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	messages := f.queued(t)
	require.Len(t, messages, 2)
	assert.Equal(t, MessageScheduledPrompt, messages[0].MessageType)
	assert.Contains(t, messages[0].Content, "work wrapped up")
	assert.Contains(t, messages[1].Content, "weekend")
	assert.Nil(t, messages[1].CommitmentID)
}

func TestDeliveryAndReadState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, other := uuid.New(), uuid.New()

	require.NoError(t, f.repo.CreateMessage(ctx, &ProactiveMessage{
		UserID: userID, MessageType: MessageScheduledPrompt, Content: "now", ScheduledFor: testNow.Add(-time.Minute),
	}))
	require.NoError(t, f.repo.CreateMessage(ctx, &ProactiveMessage{
		UserID: userID, MessageType: MessageScheduledPrompt, Content: "later", ScheduledFor: testNow.Add(time.Hour),
	}))

	listed, err := f.svc.ListMessages(ctx, userID, false, 0)
	require.NoError(t, err)
	assert.Empty(t, listed, "queued messages are not visible")

	n, err := f.svc.DeliverDueMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.DeliverDueMessages(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	listed, err = f.svc.ListMessages(ctx, userID, true, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "now", listed[0].Content)

	_, err = f.svc.MarkRead(ctx, listed[0].ID, other)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	read, err := f.svc.MarkRead(ctx, listed[0].ID, userID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	unread, err := f.svc.ListMessages(ctx, userID, true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := f.svc.ListMessages(ctx, userID, false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.MarkRead(ctx, uuid.New(), userID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestExpireMissedUsesGracePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	stale := f.oneTime(t, userID, "Old errand", util.NewDate(2025, time.June, 1))
	recent := f.oneTime(t, userID, "Recent errand", util.NewDate(2025, time.June, 8))

	n, err := f.svc.ExpireMissed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.commitments.FindByIDAndUser(ctx, stale.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, commitment.StatusMissed, got.Status)

	got, err = f.commitments.FindByIDAndUser(ctx, recent.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, commitment.StatusPending, got.Status)
}

func TestWithinWindow(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, time.June, 11, h, m, 0, 0, time.UTC) }

	assert.True(t, withinWindow("17:00", at(17, 0)))
	assert.True(t, withinWindow("17:00", at(16, 55)))
	assert.True(t, withinWindow("17:00", at(17, 5)))
	assert.False(t, withinWindow("17:00", at(17, 6)))
	assert.False(t, withinWindow("bogus", at(17, 0)))
}

type wrappedMissRepository struct {
	Repository
	err error
}

func (r wrappedMissRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*ProactiveMessage, error) {
	return nil, r.err
}

func TestMarkReadLogsOnlyUnexpectedErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hook := logtest.NewGlobal()
	t.Cleanup(func() { logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks)) })

	miss := NewService(wrappedMissRepository{
		Repository: f.repo,
		err:        fmt.Errorf("mark read: %w", ErrMessageNotFound),
	}, f.commitments, nil, func() time.Time { return testNow }, Options{})
	_, err := miss.MarkRead(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrMessageNotFound)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level, e.Message)
	}

	hook.Reset()
	broken := NewService(wrappedMissRepository{
		Repository: f.repo,
		err:        errors.New("connection reset"),
	}, f.commitments, nil, func() time.Time { return testNow }, Options{})
	_, err = broken.MarkRead(ctx, uuid.New(), uuid.New())
	require.Error(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
