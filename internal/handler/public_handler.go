package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railtix/internal/metrics"
	"github.com/railtix/internal/service"
	"github.com/railtix/internal/urlpath"
)

// ShowHome renders the published homepage.
func (a *API) ShowHome(c *gin.Context) {
	view, err := a.renderer.GetHomepage(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": view})
}

// ShowCmsPage is the catch-all for paths no other route claims. Paths under a
// reserved top-level segment are never served from the CMS.
func (a *API) ShowCmsPage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		respondError(c, http.StatusNotFound, "not found")
		return
	}

	ctx := c.Request.Context()
	path := urlpath.NormalizePath(c.Request.URL.Path)

	if top, ok := urlpath.TopLevelSegment(path); ok {
		reserved, err := a.reserved.IsReservedSegment(ctx, top)
		if err != nil {
			metrics.ObserveCMSResolution(metrics.OutcomeError)
			respondServiceError(c, err)
			return
		}
		if reserved {
			metrics.ObserveCMSResolution(metrics.OutcomeReserved)
			respondError(c, http.StatusNotFound, "not found")
			return
		}
	}

	view, err := a.renderer.GetByPath(ctx, path)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			metrics.ObserveCMSResolution(metrics.OutcomeNotFound)
			respondError(c, http.StatusNotFound, "not found")
			return
		}
		metrics.ObserveCMSResolution(metrics.OutcomeError)
		respondServiceError(c, err)
		return
	}

	metrics.ObserveCMSResolution(metrics.OutcomeRendered)
	c.JSON(http.StatusOK, gin.H{"page": view})
}

// NormalizeURL permanently redirects GET and HEAD requests whose path is not
// in canonical form. The root path and file-like paths are left alone.
func NormalizeURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "" || path == urlpath.Root || urlpath.HasFileExtension(path) {
			c.Next()
			return
		}

		normalized := urlpath.NormalizePath(path)
		if normalized == path {
			c.Next()
			return
		}

		target := normalized
		if raw := c.Request.URL.RawQuery; raw != "" {
			target += "?" + raw
		}
		c.Redirect(http.StatusMovedPermanently, target)
		c.Abort()
	}
}
