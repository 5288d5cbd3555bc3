package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), atomic.AddInt64(&testDBCounter, 1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// setupServiceTestDB returns a migrated and seeded database.
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb := openServiceTestDB(t)
	require.NoError(t, db.Seed(gdb))
	return gdb
}

func newTestEditor(gdb *gorm.DB) (*PageEditor, *ReservedRouteRegistry) {
	registry := NewReservedRouteRegistry(gdb, cache.NewMemoryStore(), time.Minute)
	return NewPageEditor(gdb, registry), registry
}

func homepage(t *testing.T, gdb *gorm.DB) db.CmsPage {
	t.Helper()
	var home db.CmsPage
	require.NoError(t, gdb.Where("is_homepage = ?", true).First(&home).Error)
	return home
}

func intPtr(v int) *int {
	return &v
}

func ctx() context.Context {
	return context.Background()
}
