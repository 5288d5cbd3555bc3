package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/railtix/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// DefaultReservedSegments 是首次启动时写入的保留路径段。
var DefaultReservedSegments = []string{"events", "account", "admin", "static"}

// Init 初始化数据库连接，执行自动迁移并写入初始数据。
// databasePath 为空时将回退到默认值 railtix.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "railtix.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	if err := Migrate(DB); err != nil {
		return err
	}
	return Seed(DB)
}

// Migrate 创建表结构以及 gorm 标签无法表达的索引。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&User{},
		&CmsPage{},
		&CmsPageComponent{},
		&CmsReservedRoute{},
		&Event{},
	); err != nil {
		return err
	}

	// 至多一个首页
	return gdb.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_cms_pages_homepage ON cms_pages (is_homepage) WHERE is_homepage = 1").Error
}

// Seed 在空库中写入首页和默认保留路径段，已有数据时不做任何修改。
func Seed(gdb *gorm.DB) error {
	var homepages int64
	if err := gdb.Model(&CmsPage{}).Where("is_homepage = ?", true).Count(&homepages).Error; err != nil {
		return err
	}
	if homepages == 0 {
		home := CmsPage{
			Title:       "Home",
			Slug:        "home",
			Path:        "/",
			Position:    0,
			IsHomepage:  true,
			IsPublished: true,
		}
		if err := gdb.Create(&home).Error; err != nil {
			return err
		}
		logger.Info("Seeded homepage", map[string]interface{}{"id": home.ID.String()})
	}

	var reserved int64
	if err := gdb.Model(&CmsReservedRoute{}).Count(&reserved).Error; err != nil {
		return err
	}
	if reserved == 0 {
		routes := make([]CmsReservedRoute, 0, len(DefaultReservedSegments))
		for _, segment := range DefaultReservedSegments {
			routes = append(routes, CmsReservedRoute{Segment: segment, IsActive: true})
		}
		if err := gdb.Create(&routes).Error; err != nil {
			return err
		}
		logger.Info("Seeded reserved routes", map[string]interface{}{"count": len(routes)})
	}

	return nil
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
