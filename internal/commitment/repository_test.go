package commitment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(&Commitment{}, &Completion{}))
	return db
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	deadline := util.NewDate(2025, time.June, 20)

	c := &Commitment{
		UserID:             userID,
		TaskDescription:    "renew passport",
		Deadline:           &deadline,
		RecurrencePattern:  RecurrenceNone,
		RecurrenceInterval: 1,
		Status:             StatusPending,
	}
	require.NoError(t, repo.Create(ctx, c))
	require.NotEqual(t, uuid.Nil, c.ID)

	found, err := repo.FindByIDAndUser(ctx, c.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "renew passport", found.TaskDescription)
	require.NotNil(t, found.Deadline)
	assert.True(t, found.Deadline.Equal(deadline))

	_, err = repo.FindByIDAndUser(ctx, c.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	found.Status = StatusCompleted
	require.NoError(t, repo.Update(ctx, found))

	completed, err := repo.ListByUser(ctx, userID, ListFilter{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestRepositoryListFilters(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	past := util.NewDate(2025, time.June, 1)

	require.NoError(t, repo.Create(ctx, &Commitment{UserID: userID, TaskDescription: "one", RecurrencePattern: RecurrenceNone, RecurrenceInterval: 1, Status: StatusPending, Deadline: &past}))
	require.NoError(t, repo.Create(ctx, &Commitment{UserID: userID, TaskDescription: "two", RecurrencePattern: RecurrenceDaily, RecurrenceInterval: 1, Status: StatusActive}))
	require.NoError(t, repo.Create(ctx, &Commitment{UserID: uuid.New(), TaskDescription: "other", RecurrencePattern: RecurrenceDaily, RecurrenceInterval: 1, Status: StatusActive}))

	recurringOnly, err := repo.ListByUser(ctx, userID, ListFilter{Kind: KindRecurring})
	require.NoError(t, err)
	require.Len(t, recurringOnly, 1)
	assert.Equal(t, "two", recurringOnly[0].TaskDescription)

	oneTimeOnly, err := repo.ListByUser(ctx, userID, ListFilter{Kind: KindOneTime})
	require.NoError(t, err)
	require.Len(t, oneTimeOnly, 1)

	stale, err := repo.ListPendingWithDeadlineBefore(ctx, util.NewDate(2025, time.June, 5))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "one", stale[0].TaskDescription)

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 3)
}

func TestRepositoryCompletionsAndCascadeDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	day := util.NewDate(2025, time.June, 10)

	c := &Commitment{UserID: userID, TaskDescription: "run", RecurrencePattern: RecurrenceDaily, RecurrenceInterval: 1, Status: StatusActive}
	require.NoError(t, repo.Create(ctx, c))

	err := repo.Transaction(ctx, func(tx Repository) error {
		for i := 0; i < 3; i++ {
			if err := tx.CreateCompletion(ctx, &Completion{
				CommitmentID:   c.ID,
				CompletionDate: day.AddDays(i),
				CompletedAt:    day.AddDays(i).Time.Add(8 * time.Hour),
				Skipped:        i == 1,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	onDay, err := repo.ListCompletionsOn(ctx, []uuid.UUID{c.ID}, day.AddDays(1))
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.True(t, onDay[0].Skipped)

	between, err := repo.ListCompletionsBetween(ctx, []uuid.UUID{c.ID}, day, day.AddDays(1))
	require.NoError(t, err)
	assert.Len(t, between, 2)

	all, err := repo.ListCompletions(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CompletionDate.Equal(day.AddDays(2)))

	assert.ErrorIs(t, repo.Delete(ctx, c.ID, uuid.New()), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, c.ID, userID))

	var orphans int64
	require.NoError(t, db.Model(&Completion{}).Where("commitment_id = ?", c.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestRepositoryTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, &Commitment{UserID: uuid.New(), TaskDescription: "ghost", RecurrencePattern: RecurrenceNone, RecurrenceInterval: 1, Status: StatusPending}); err != nil {
			return err
		}
		return ErrInvalidState
	})
	assert.ErrorIs(t, err, ErrInvalidState)

	var count int64
	require.NoError(t, db.Model(&Commitment{}).Count(&count).Error)
	assert.Zero(t, count)
}
