package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleAdmin        = "admin"
	RoleEventManager = "event_manager"
)

// User 定义了后台用户模型
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"size:32;not null;default:admin"`
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的管理员。
func EnsureUser(username, password string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return EnsureUserWithRole(DB, username, password, RoleAdmin)
}

// EnsureUserWithRole 与 EnsureUser 相同，但允许指定数据库和角色。
func EnsureUserWithRole(gdb *gorm.DB, username, password, role string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}
	if role != RoleAdmin && role != RoleEventManager {
		return errors.New("unknown role")
	}

	var existing User
	if err := gdb.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{Username: trimmedUser, Password: string(hashed), Role: role}).Error
	}

	return nil
}
