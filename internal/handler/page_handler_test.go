package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePageUnderHomepage(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	w := s.do(t, http.MethodPost, "/admin/api/pages", gin.H{
		"title":       "Summer Festivals",
		"isPublished": true,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	page := decodeBody(t, w)["page"].(map[string]interface{})
	assert.Equal(t, "summer-festivals", page["slug"])
	assert.Equal(t, "/summer-festivals", page["path"])
	assert.Equal(t, homepageID(t, s.db), page["parentId"])
}

func TestCreatePageReportsFieldErrors(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	w := s.do(t, http.MethodPost, "/admin/api/pages", gin.H{"title": "   "}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "title")

	w = s.do(t, http.MethodPost, "/admin/api/pages", gin.H{"title": "Bad parent", "parentId": "not-a-uuid"}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Must be a valid id.", fieldErrors(t, w)["parentId"])
}

func TestCreatePageRejectsReservedCustomURL(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	w := s.do(t, http.MethodPost, "/admin/api/pages", gin.H{
		"title":     "Sneaky",
		"customUrl": "/Events/Sneaky",
	}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "customUrl")
}

func TestPageLifecycleThroughAPI(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	w := s.do(t, http.MethodPost, "/admin/api/pages", gin.H{"title": "Venues", "isPublished": true}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeBody(t, w)["page"].(map[string]interface{})["id"].(string)

	w = s.do(t, http.MethodPut, "/admin/api/pages/"+id, gin.H{"title": "Our Venues", "slug": "our-venues", "isPublished": true}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/our-venues", decodeBody(t, w)["page"].(map[string]interface{})["path"])

	w = s.do(t, http.MethodGet, "/admin/api/pages", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decodeBody(t, w)["pages"].([]interface{})
	require.Len(t, tree, 1)

	w = s.do(t, http.MethodGet, "/admin/api/pages/parents?exclude="+id, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	options := decodeBody(t, w)["options"].([]interface{})
	assert.Len(t, options, 1)

	w = s.do(t, http.MethodDelete, "/admin/api/pages/"+id, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["deleted"])

	w = s.do(t, http.MethodGet, "/admin/api/pages/"+id, nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteHomepageIsRefused(t *testing.T) {
	s := setupHandlerTest(t)
	cookies := s.login(t, "admin", "admin-pass")

	w := s.do(t, http.MethodDelete, "/admin/api/pages/"+homepageID(t, s.db), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["deleted"])
}
