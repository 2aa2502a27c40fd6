package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/commitment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// June 10th, 2025 in the evening.
var testNow = time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) commitment.Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&commitment.Commitment{}, &commitment.Completion{}))
	return commitment.NewRepository(db)
}

func seedHabit(t *testing.T, repo commitment.Repository, userID uuid.UUID, completions []commitment.Completion) *commitment.Commitment {
	t.Helper()
	ctx := context.Background()

	c := &commitment.Commitment{
		UserID:             userID,
		TaskDescription:    "meditate",
		RecurrencePattern:  commitment.RecurrenceDaily,
		RecurrenceInterval: 1,
		Status:             commitment.StatusActive,
		CreatedAt:          june(1).Time,
	}
	require.NoError(t, repo.Create(ctx, c))
	for i := range completions {
		completions[i].CommitmentID = c.ID
		require.NoError(t, repo.CreateCompletion(ctx, &completions[i]))
	}
	return c
}

func TestCommitmentStats(t *testing.T) {
	repo := newTestRepo(t)
	userID := uuid.New()

	rows := doneOn(1, 2, 3, 5, 6, 7, 8, 9, 10)
	rows = append(rows, commitment.Completion{CompletionDate: june(4), CompletedAt: june(4).Time, Skipped: true})
	habit := seedHabit(t, repo, userID, rows)

	svc := NewService(repo, func() time.Time { return testNow })
	stats, err := svc.CommitmentStats(context.Background(), habit.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, 9, stats.TotalCompletions)
	assert.Equal(t, 1, stats.TotalSkipped)
	assert.Equal(t, 6, stats.CurrentStreak)
	assert.Equal(t, 6, stats.LongestStreak)
	assert.True(t, stats.CompletedToday)
	assert.Equal(t, 0.9, stats.CompletionRate)

	_, err = svc.CommitmentStats(context.Background(), habit.ID, uuid.New())
	assert.ErrorIs(t, err, commitment.ErrNotFound)
}

func TestOverview(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	seedHabit(t, repo, userID, doneOn(6, 7, 8, 9, 10))

	completedAt := testNow.Add(-time.Hour)
	yesterday := june(9)
	require.NoError(t, repo.Create(ctx, &commitment.Commitment{
		UserID: userID, TaskDescription: "done", RecurrencePattern: commitment.RecurrenceNone, RecurrenceInterval: 1,
		Status: commitment.StatusCompleted, CompletedAt: &completedAt, CompletionCount: 1, CreatedAt: june(8).Time,
	}))
	require.NoError(t, repo.Create(ctx, &commitment.Commitment{
		UserID: userID, TaskDescription: "late", RecurrencePattern: commitment.RecurrenceNone, RecurrenceInterval: 1,
		Status: commitment.StatusPending, Deadline: &yesterday, CreatedAt: june(8).Time,
	}))
	require.NoError(t, repo.Create(ctx, &commitment.Commitment{
		UserID: uuid.New(), TaskDescription: "someone else", RecurrencePattern: commitment.RecurrenceNone, RecurrenceInterval: 1,
		Status: commitment.StatusPending, CreatedAt: june(8).Time,
	}))

	svc := NewService(repo, func() time.Time { return testNow })
	overview, err := svc.Overview(ctx, userID, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, overview.Total)
	assert.Equal(t, 1, overview.Active)
	assert.Equal(t, 1, overview.Pending)
	assert.Equal(t, 2, overview.CompletedToday)
	assert.Equal(t, 1, overview.Overdue)
	assert.Equal(t, 5, overview.CurrentStreak)
	assert.Equal(t, 5, overview.LongestStreak)
	// (5 habit days + 1 completed) / (10 habit days + 2 one-time)
	assert.Equal(t, 0.5, overview.CompletionRate)
	assert.True(t, overview.From.Equal(june(1)))

	_, err = svc.Overview(ctx, userID, 400)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestOverviewEmpty(t *testing.T) {
	svc := NewService(newTestRepo(t), func() time.Time { return testNow })

	overview, err := svc.Overview(context.Background(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Zero(t, overview.Total)
	assert.Zero(t, overview.CompletionRate)
	assert.True(t, overview.From.Equal(june(10).AddDays(-29)))
}

func TestStatsUseClockZoneForCreationDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	brt := time.FixedZone("BRT", -3*60*60)

	// Created at 22:00 in São Paulo on June 10; sqlite hands it back in UTC.
	c := &commitment.Commitment{
		UserID:             userID,
		TaskDescription:    "journal",
		RecurrencePattern:  commitment.RecurrenceDaily,
		RecurrenceInterval: 1,
		Status:             commitment.StatusActive,
		CreatedAt:          time.Date(2025, 6, 10, 22, 0, 0, 0, brt).UTC(),
	}
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.CreateCompletion(ctx, &commitment.Completion{
		CommitmentID:   c.ID,
		CompletionDate: june(10),
		CompletedAt:    time.Date(2025, 6, 10, 22, 15, 0, 0, brt),
	}))

	now := time.Date(2025, 6, 10, 22, 30, 0, 0, brt)
	svc := NewService(repo, func() time.Time { return now })

	stats, err := svc.CommitmentStats(ctx, c.ID, userID)
	require.NoError(t, err)
	assert.True(t, stats.CompletedToday)
	assert.Equal(t, 1.0, stats.CompletionRate)

	overview, err := svc.Overview(ctx, userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, overview.CompletionRate)
	assert.Equal(t, 1, overview.CurrentStreak)
}
