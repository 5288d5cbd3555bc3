package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/config"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/handler"
	"github.com/railtix/internal/logger"
	"github.com/railtix/internal/router"
)

func main() {
	// .env 文件可选，不存在时仅使用环境变量
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Logger.WithError(err).Fatal("failed to initialize database")
	}
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		logger.Logger.WithError(err).Fatal("failed to ensure admin user")
	}

	segments := segmentCache(cfg)
	api := handler.NewAPI(db.DB, handler.Options{
		SegmentCache:       segments,
		ReservedRouteTTL:   cfg.ReservedRouteCacheTTL,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		UploadDir:          cfg.UploadDir,
		UploadURL:          cfg.UploadURLPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepLoginLimiter(ctx, api)

	// 设置并运行 Gin 服务器
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, cfg.SessionSecret, cfg.UploadDir, cfg.UploadURLPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", map[string]interface{}{"addr": cfg.ListenAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.WithError(err).Fatal("failed to run server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Graceful shutdown failed", nil)
	}
	if closer, ok := segments.(*cache.RedisStore); ok {
		_ = closer.Close()
	}
}

// segmentCache prefers Redis when enabled and reachable so every instance
// sees reserved route invalidations.
func segmentCache(cfg config.AppConfig) cache.Store {
	if !cfg.RedisEnabled {
		return cache.NewMemoryStore()
	}
	store, err := cache.NewRedisStore(cfg.RedisAddr)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache", map[string]interface{}{"error": err.Error()})
		return cache.NewMemoryStore()
	}
	logger.Info("Using Redis for reserved route cache", map[string]interface{}{"addr": cfg.RedisAddr})
	return store
}

func sweepLoginLimiter(ctx context.Context, api *handler.API) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			api.LoginLimiter().Sweep()
		}
	}
}
