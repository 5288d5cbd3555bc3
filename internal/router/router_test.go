package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/handler"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T, uploadDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := db.Seed(gdb); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	if err := db.EnsureUserWithRole(gdb, "admin", "secret", db.RoleAdmin); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	api := handler.NewAPI(gdb, handler.Options{
		SegmentCache:       cache.NewMemoryStore(),
		LoginRatePerMinute: 10,
		UploadDir:          uploadDir,
		UploadURL:          "/static/uploads",
	})
	return SetupRouter(api, "test-secret", uploadDir, "/static/uploads")
}

func serve(r *gin.Engine, method, target string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSetupRouterServesUploads(t *testing.T) {
	uploadDir := t.TempDir()
	fileContent := []byte("hello uploads")
	if err := os.WriteFile(filepath.Join(uploadDir, "example.txt"), fileContent, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := setupRouterTest(t, uploadDir)

	rr := serve(r, http.MethodGet, "/static/uploads/example.txt", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != string(fileContent) {
		t.Fatalf("unexpected body, got %q", rr.Body.String())
	}
}

func TestSetupRouterHealthAndMetrics(t *testing.T) {
	r := setupRouterTest(t, t.TempDir())

	rr := serve(r, http.MethodGet, "/ping", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "pong") {
		t.Fatalf("unexpected ping response %d %q", rr.Code, rr.Body.String())
	}

	serve(r, http.MethodGet, "/no-such-page", nil, nil)

	rr = serve(r, http.MethodGet, "/metrics", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "railtix_cms_page_resolutions_total") {
		t.Fatalf("metrics output missing cms resolution counter")
	}
}

func TestSetupRouterPublishFlow(t *testing.T) {
	r := setupRouterTest(t, t.TempDir())

	rr := serve(r, http.MethodPost, "/admin/api/pages", map[string]interface{}{"title": "Nope"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", rr.Code)
	}

	rr = serve(r, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "secret"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()

	rr = serve(r, http.MethodPost, "/admin/api/pages", map[string]interface{}{
		"title":       "Getting Here",
		"customUrl":   "/Travel/Getting-Here",
		"isPublished": true,
	}, cookies)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create page failed: %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(r, http.MethodGet, "/travel/getting-here", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected published page, got %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Getting Here") {
		t.Fatalf("unexpected page body %q", rr.Body.String())
	}

	rr = serve(r, http.MethodGet, "/Travel/Getting-Here", nil, nil)
	if rr.Code != http.StatusMovedPermanently || rr.Header().Get("Location") != "/travel/getting-here" {
		t.Fatalf("expected canonical redirect, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = serve(r, http.MethodGet, "/admin/logout", nil, cookies)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected logout redirect, got %d", rr.Code)
	}
}
