package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.OrderSubmissionModel{})
	require.NoError(t, err)

	return db
}

func newTestSubmission(env, user string, status trade.SubmissionStatus, submittedAt time.Time) *trade.OrderSubmission {
	s := &trade.OrderSubmission{
		ID:          uuid.New(),
		Environment: env,
		User:        user,
		OrderReason: "Z01",
		SoldTo:      "0000100001",
		ShipTo:      "0000200001",
		SalesOrg:    "US01",
		RowNumbers:  []int{1, 2},
		ItemCount:   2,
		SubmittedAt: submittedAt,
	}
	if status == trade.SubmissionCreated {
		s.Succeed("0000012345", 800*time.Millisecond)
	} else {
		s.Fail("Material M1 does not exist", 300*time.Millisecond)
	}
	return s
}

func TestGormSubmissionRepository_Save(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewGormSubmissionRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("saves new submission", func(t *testing.T) {
		s := newTestSubmission("PRD", "JDOE", trade.SubmissionCreated, base)
		require.NoError(t, repo.Save(ctx, s))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "0000012345", found.DocumentNumber)
		assert.Equal(t, []int{1, 2}, found.RowNumbers)
		assert.Equal(t, 800*time.Millisecond, found.Duration)
		assert.True(t, base.Equal(found.SubmittedAt))
	})

	t.Run("saving again updates in place", func(t *testing.T) {
		s := newTestSubmission("PRD", "JDOE", trade.SubmissionCreated, base)
		require.NoError(t, repo.Save(ctx, s))

		s.Fail("Timeout", time.Second)
		require.NoError(t, repo.Save(ctx, s))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SubmissionFailed, found.Status)
		assert.Equal(t, "Timeout", found.Reason)
		assert.Empty(t, found.DocumentNumber)
	})

	t.Run("nil submission", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, nil))
	})
}

func TestGormSubmissionRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormSubmissionRepository(setupSubmissionTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSubmissionRepository_FindAll(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewGormSubmissionRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	fixtures := []*trade.OrderSubmission{
		newTestSubmission("PRD", "JDOE", trade.SubmissionCreated, base),
		newTestSubmission("PRD", "JDOE", trade.SubmissionFailed, base.Add(time.Minute)),
		newTestSubmission("PRD", "JDOE", trade.SubmissionCreated, base.Add(2*time.Minute)),
		newTestSubmission("PRD", "ASMITH", trade.SubmissionCreated, base.Add(3*time.Minute)),
		newTestSubmission("QAS", "JDOE", trade.SubmissionCreated, base.Add(4*time.Minute)),
	}
	for _, s := range fixtures {
		require.NoError(t, repo.Save(ctx, s))
	}

	t.Run("filters by environment and user, newest first", func(t *testing.T) {
		page, err := repo.FindAll(ctx, trade.SubmissionFilter{
			Filter:      shared.Filter{Page: 1, PageSize: 10},
			Environment: "PRD",
			User:        "JDOE",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		require.Len(t, page.Items, 3)
		assert.Equal(t, fixtures[2].ID, page.Items[0].ID)
		assert.Equal(t, fixtures[1].ID, page.Items[1].ID)
		assert.Equal(t, fixtures[0].ID, page.Items[2].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		page, err := repo.FindAll(ctx, trade.SubmissionFilter{
			Filter:      shared.Filter{Page: 1, PageSize: 10},
			Environment: "PRD",
			Status:      trade.SubmissionFailed,
		})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, fixtures[1].ID, page.Items[0].ID)
	})

	t.Run("paginates", func(t *testing.T) {
		page, err := repo.FindAll(ctx, trade.SubmissionFilter{
			Filter:      shared.Filter{Page: 2, PageSize: 2},
			Environment: "PRD",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 2)
		assert.Equal(t, fixtures[1].ID, page.Items[0].ID)
		assert.Equal(t, fixtures[0].ID, page.Items[1].ID)
	})

	t.Run("normalizes an empty filter", func(t *testing.T) {
		page, err := repo.FindAll(ctx, trade.SubmissionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
	})

	t.Run("empty result", func(t *testing.T) {
		page, err := repo.FindAll(ctx, trade.SubmissionFilter{Environment: "DEV"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Total)
		assert.Empty(t, page.Items)
	})
}
