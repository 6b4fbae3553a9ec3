// Package storagetest provides throwaway databases for tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fitbro/fitbro/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated storage backed by a private in-memory SQLite
// database that lives as long as the test.
func New(t testing.TB) *storage.Storage {
	t.Helper()

	s := storage.New(NewDB(t))
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// NewDB opens the private in-memory database without migrating it, for tests
// that need to reach gorm directly.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
