package handler

import (
	"time"

	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/ratelimit"
	"github.com/railtix/internal/service"
	"gorm.io/gorm"
)

// Options configures the handler set.
type Options struct {
	SegmentCache       cache.Store
	ReservedRouteTTL   time.Duration
	LoginRatePerMinute int
	UploadDir          string
	UploadURL          string
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	pages        *service.PageEditor
	components   *service.ComponentStore
	reserved     *service.ReservedRouteRegistry
	renderer     *service.PageRenderer
	events       *service.EventService
	loginLimiter *ratelimit.KeyedRateLimiter
	uploadDir    string
	uploadURL    string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, opts Options) *API {
	reserved := service.NewReservedRouteRegistry(db, opts.SegmentCache, opts.ReservedRouteTTL)
	events := service.NewEventService(db)

	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}
	uploadURL := opts.UploadURL
	if uploadURL == "" {
		uploadURL = "/static/uploads"
	}

	return &API{
		db:           db,
		pages:        service.NewPageEditor(db, reserved),
		components:   service.NewComponentStore(db),
		reserved:     reserved,
		renderer:     service.NewPageRenderer(db, events),
		events:       events,
		loginLimiter: ratelimit.PerMinute(opts.LoginRatePerMinute),
		uploadDir:    uploadDir,
		uploadURL:    uploadURL,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// LoginLimiter exposes the login limiter so the server can sweep idle keys.
func (a *API) LoginLimiter() *ratelimit.KeyedRateLimiter {
	return a.loginLimiter
}
