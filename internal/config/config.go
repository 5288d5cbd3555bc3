package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr            string
	Port                  string
	DatabasePath          string
	SessionSecret         string
	GinMode               string
	UploadDir             string
	UploadURLPath         string
	SuperRootUserName     string
	SuperRootPassword     string
	LogLevel              string
	RedisEnabled          bool
	RedisAddr             string
	ReservedRouteCacheTTL time.Duration
	LoginRatePerMinute    int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOr("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	return AppConfig{
		ListenAddr:            listenAddr,
		Port:                  port,
		DatabasePath:          envOr("DATABASE_PATH", "railtix.db"),
		SessionSecret:         envOr("SESSION_SECRET", "railtix-dev-secret"),
		GinMode:               envOr("GIN_MODE", "release"),
		UploadDir:             envOr("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:         envOr("UPLOAD_URL_PATH", "/static/uploads"),
		SuperRootUserName:     strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword:     strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		LogLevel:              envOr("LOG_LEVEL", "info"),
		RedisEnabled:          envBool("REDIS_ENABLED", false),
		RedisAddr:             envOr("REDIS_ADDR", "localhost:6379"),
		ReservedRouteCacheTTL: envDuration("RESERVED_ROUTE_CACHE_TTL", 30*time.Minute),
		LoginRatePerMinute:    envInt("LOGIN_RATE_PER_MINUTE", 10),
	}
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

// envInt 仅接受正整数，其余情况回退到默认值。
func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
