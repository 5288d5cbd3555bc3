package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/railtix/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	gdb := setupSeedTestDB(t)
	ctx := context.Background()

	require.NoError(t, seedDemo(ctx, gdb))
	require.NoError(t, seedDemo(ctx, gdb))

	var users int64
	require.NoError(t, gdb.Model(&db.User{}).Count(&users).Error)
	assert.EqualValues(t, 2, users)

	var events, live int64
	require.NoError(t, gdb.Model(&db.Event{}).Count(&events).Error)
	require.NoError(t, gdb.Model(&db.Event{}).Where("status = ?", db.EventStatusLive).Count(&live).Error)
	assert.EqualValues(t, len(demoEvents), events)
	assert.EqualValues(t, 2, live)

	var paths []string
	require.NoError(t, gdb.Model(&db.CmsPage{}).Order("path").Pluck("path", &paths).Error)
	assert.Equal(t, []string{"/", "/about", "/whats-on", "/whats-on/wellington"}, paths)

	var homeComponents int64
	require.NoError(t, gdb.Model(&db.CmsPageComponent{}).
		Joins("JOIN cms_pages ON cms_pages.id = cms_page_components.page_id").
		Where("cms_pages.is_homepage = ?", true).
		Count(&homeComponents).Error)
	assert.EqualValues(t, 2, homeComponents)
}
