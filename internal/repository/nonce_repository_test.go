package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BeArt-PDD/beart-labs/internal/models"
	"github.com/BeArt-PDD/beart-labs/internal/nonce"
	"github.com/BeArt-PDD/beart-labs/internal/nonce/noncetest"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps the in-memory database alive and serialises writers.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.SiweNonce{}))
	return db
}

func TestNonceRepository(t *testing.T) {
	noncetest.Run(t, func(t *testing.T, clock func() time.Time) nonce.Store {
		return NewNonceRepositoryWithClock(openTestDB(t), clock)
	})
}

func TestNonceRepositoryCountActive(t *testing.T) {
	ctx := context.Background()
	clock := noncetest.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := NewNonceRepositoryWithClock(openTestDB(t), clock.Now)

	require.NoError(t, repo.Issue(ctx, "abcdef0123456789", time.Minute))
	require.NoError(t, repo.Issue(ctx, "0123456789abcdef", time.Hour))

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	clock.Advance(10 * time.Minute)

	count, err = repo.CountActive(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestNonceRepositoryClosedDatabase(t *testing.T) {
	db := openTestDB(t)
	repo := NewNonceRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.ConsumeIfValid(context.Background(), "abcdef0123456789")
	require.Error(t, err)
}
