package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/handler"
	"github.com/railtix/internal/logger"
	"github.com/railtix/internal/metrics"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret, uploadDir, uploadURL string) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), gin.Recovery(), metrics.Middleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 60 * 60})
	r.Use(sessions.Sessions("railtix_session", store))
	r.Use(handler.NormalizeURL())

	// 静态文件服务
	if uploadDir != "" && uploadURL != "" {
		r.Static(uploadURL, uploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公开页面
	r.GET("/", api.ShowHome)
	r.GET("/events/:slug", api.ShowEvent)
	r.NoRoute(api.ShowCmsPage)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.LoginRateLimit(), api.Login)
		admin.GET("/logout", api.Logout)

		adminAPI := admin.Group("/api")
		adminAPI.Use(handler.AuthRequired())
		{
			cms := adminAPI.Group("")
			cms.Use(handler.RequireRole(db.RoleAdmin))
			{
				cms.GET("/pages", api.GetPageTree)
				cms.GET("/pages/parents", api.GetParentOptions)
				cms.POST("/pages", api.CreatePage)
				cms.GET("/pages/:id", api.GetPage)
				cms.PUT("/pages/:id", api.UpdatePage)
				cms.DELETE("/pages/:id", api.DeletePage)

				cms.GET("/pages/:id/components", api.ListComponents)
				cms.POST("/pages/:id/components", api.CreateComponent)
				cms.GET("/pages/:id/components/:componentId", api.GetComponent)
				cms.PUT("/pages/:id/components/:componentId", api.UpdateComponent)
				cms.DELETE("/pages/:id/components/:componentId", api.DeleteComponent)

				cms.GET("/reserved-routes", api.GetReservedRoutes)
				cms.POST("/reserved-routes", api.CreateReservedRoute)
				cms.PUT("/reserved-routes/:id", api.UpdateReservedRoute)
				cms.DELETE("/reserved-routes/:id", api.DeleteReservedRoute)

				cms.POST("/uploads/images", api.UploadImage)
			}

			events := adminAPI.Group("/events")
			events.Use(handler.RequireRole(db.RoleAdmin, db.RoleEventManager))
			{
				events.GET("", api.GetEvents)
				events.POST("", api.CreateEvent)
				events.PUT("/:id/status", api.UpdateEventStatus)
			}
		}
	}

	return r
}
