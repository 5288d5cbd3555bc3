package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerDBCounter int64

type testServer struct {
	engine *gin.Engine
	api    *API
	db     *gorm.DB
}

func setupHandlerTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), atomic.AddInt64(&handlerDBCounter, 1))
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

	require.NoError(t, db.EnsureUserWithRole(gdb, "admin", "admin-pass", db.RoleAdmin))
	require.NoError(t, db.EnsureUserWithRole(gdb, "organiser", "organiser-pass", db.RoleEventManager))

	api := NewAPI(gdb, Options{
		SegmentCache:       cache.NewMemoryStore(),
		ReservedRouteTTL:   time.Minute,
		LoginRatePerMinute: 3,
		UploadDir:          t.TempDir(),
		UploadURL:          "/static/uploads",
	})

	r := gin.New()
	store := cookie.NewStore([]byte("handler-test-secret"))
	r.Use(sessions.Sessions("railtix_session", store))
	r.Use(NormalizeURL())

	r.GET("/", api.ShowHome)
	r.GET("/events/:slug", api.ShowEvent)
	r.NoRoute(api.ShowCmsPage)
	r.POST("/admin/login", api.LoginRateLimit(), api.Login)

	adminAPI := r.Group("/admin/api", AuthRequired())
	cms := adminAPI.Group("", RequireRole(db.RoleAdmin))
	cms.GET("/pages", api.GetPageTree)
	cms.GET("/pages/parents", api.GetParentOptions)
	cms.POST("/pages", api.CreatePage)
	cms.GET("/pages/:id", api.GetPage)
	cms.PUT("/pages/:id", api.UpdatePage)
	cms.DELETE("/pages/:id", api.DeletePage)
	cms.POST("/pages/:id/components", api.CreateComponent)
	cms.PUT("/pages/:id/components/:componentId", api.UpdateComponent)
	cms.DELETE("/pages/:id/components/:componentId", api.DeleteComponent)
	cms.GET("/reserved-routes", api.GetReservedRoutes)
	cms.POST("/reserved-routes", api.CreateReservedRoute)
	cms.POST("/uploads/images", api.UploadImage)

	events := adminAPI.Group("/events", RequireRole(db.RoleAdmin, db.RoleEventManager))
	events.GET("", api.GetEvents)
	events.POST("", api.CreateEvent)
	events.PUT("/:id/status", api.UpdateEventStatus)

	return &testServer{engine: r, api: api, db: gdb}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// login signs in and returns the session cookies.
func (s *testServer) login(t *testing.T, username, password string) []*http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/admin/login", gin.H{"username": username, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	fields, ok := decodeBody(t, w)["fields"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return fields
}

func homepageID(t *testing.T, gdb *gorm.DB) string {
	t.Helper()
	var home db.CmsPage
	require.NoError(t, gdb.Where("is_homepage = ?", true).First(&home).Error)
	return home.ID.String()
}
