package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:db-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func TestSeedCreatesHomepageAndReservedRoutesOnce(t *testing.T) {
	gdb := openTestDB(t)

	if err := Seed(gdb); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := Seed(gdb); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	var pages []CmsPage
	if err := gdb.Find(&pages).Error; err != nil {
		t.Fatalf("failed to list pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected exactly one seeded page, got %d", len(pages))
	}
	home := pages[0]
	if !home.IsHomepage || home.Path != "/" || home.ParentID != nil || !home.IsPublished {
		t.Fatalf("unexpected homepage: %+v", home)
	}

	var segments []string
	if err := gdb.Model(&CmsReservedRoute{}).Order("segment").Pluck("segment", &segments).Error; err != nil {
		t.Fatalf("failed to list reserved routes: %v", err)
	}
	if len(segments) != len(DefaultReservedSegments) {
		t.Fatalf("expected %d reserved routes, got %v", len(DefaultReservedSegments), segments)
	}
}

func TestHomepageIndexRejectsSecondHomepage(t *testing.T) {
	gdb := openTestDB(t)
	if err := Seed(gdb); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	second := CmsPage{Title: "Other", Slug: "other", Path: "/other", IsHomepage: true}
	if err := gdb.Create(&second).Error; err == nil {
		t.Fatal("expected unique violation for a second homepage")
	}
}

func TestEnsureUserWithRoleHashesPassword(t *testing.T) {
	gdb := openTestDB(t)

	if err := EnsureUserWithRole(gdb, " manager ", "s3cret", RoleEventManager); err != nil {
		t.Fatalf("ensure user failed: %v", err)
	}
	if err := EnsureUserWithRole(gdb, "manager", "other", RoleEventManager); err != nil {
		t.Fatalf("second ensure should be a no-op: %v", err)
	}

	var user User
	if err := gdb.Where("username = ?", "manager").First(&user).Error; err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Role != RoleEventManager {
		t.Fatalf("expected role %q, got %q", RoleEventManager, user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret")); err != nil {
		t.Fatalf("password hash mismatch: %v", err)
	}
	if err := EnsureUserWithRole(gdb, "x", "y", "superuser"); err == nil {
		t.Fatal("expected unknown role error")
	}
}

func TestEnsureParentDirCreatesMissingDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "railtix.db")
	if err := ensureParentDir(target); err != nil {
		t.Fatalf("ensureParentDir failed: %v", err)
	}
	if err := ensureParentDir("file:memdb?mode=memory"); err != nil {
		t.Fatalf("memory dsn should be ignored: %v", err)
	}
}
