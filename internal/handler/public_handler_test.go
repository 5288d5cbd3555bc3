package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPage(t *testing.T, s *testServer, cookies []*http.Cookie, body gin.H) map[string]interface{} {
	t.Helper()
	w := s.do(t, http.MethodPost, "/admin/api/pages", body, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["page"].(map[string]interface{})
}

func TestShowHomeRendersHomepage(t *testing.T) {
	s := setupHandlerTest(t)

	w := s.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := decodeBody(t, w)["page"].(map[string]interface{})
	assert.Equal(t, "/", page["path"])
	assert.Equal(t, true, page["isHomepage"])
}

func TestShowCmsPageRendersPublishedComponents(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	page := createPage(t, s, cookies, gin.H{"title": "Line Up", "isPublished": true})
	w := s.do(t, http.MethodPost, "/admin/api/pages/"+page["id"].(string)+"/components", gin.H{
		"type":    "banner",
		"heading": "<b>Headliners</b> announced",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/line-up", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	view := decodeBody(t, w)["page"].(map[string]interface{})
	components := view["components"].([]interface{})
	require.Len(t, components, 1)
	banner := components[0].(map[string]interface{})["banner"].(map[string]interface{})
	assert.Equal(t, "Headliners announced", banner["heading"])
}

func TestShowCmsPageHidesDrafts(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	createPage(t, s, cookies, gin.H{"title": "Coming Soon", "isPublished": false})

	w := s.do(t, http.MethodGet, "/coming-soon", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShowCmsPageRefusesReservedSegments(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	createPage(t, s, cookies, gin.H{"title": "Promo", "isPublished": true})
	w := s.do(t, http.MethodGet, "/promo", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/admin/api/reserved-routes", gin.H{"segment": "promo"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/promo", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/account/settings", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShowCmsPageOnlyAnswersReads(t *testing.T) {
	s := setupHandlerTest(t)

	w := s.do(t, http.MethodPost, "/anything", gin.H{}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNormalizeURLRedirectsToCanonicalPath(t *testing.T) {
	s := setupHandlerTest(t)

	w := s.do(t, http.MethodGet, "/Whats_On//Wellington/?page=2", nil, nil)
	require.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/whats-on/wellington?page=2", w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/static/Site.CSS", nil, nil)
	assert.NotEqual(t, http.StatusMovedPermanently, w.Code)

	w = s.do(t, http.MethodPost, "/Admin/Login", gin.H{}, nil)
	assert.NotEqual(t, http.StatusMovedPermanently, w.Code)
}
