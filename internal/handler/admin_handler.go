package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
	sessionRoleKey     = "role"
)

type loginPayload struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login 校验用户名与密码并写入会话，支持表单与 JSON 两种提交方式。
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBind(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "用户名和密码不能为空")
		return
	}

	var user db.User
	if err := a.db.Where("username = ?", strings.TrimSpace(payload.Username)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	session.Set(sessionRoleKey, user.Role)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// LoginRateLimit rejects repeated login attempts from one client address.
func (a *API) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.loginLimiter.Allow(c.ClientIP()) {
			respondError(c, http.StatusTooManyRequests, "登录尝试过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRequired 是一个简单的认证中间件。API 请求返回 401，页面请求跳转到登录页。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api") {
				respondError(c, http.StatusUnauthorized, "unauthorized")
			} else {
				c.Redirect(http.StatusFound, "/admin/login")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole allows the request only when the session role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := sessions.Default(c).Get(sessionRoleKey).(string)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		respondError(c, http.StatusForbidden, "forbidden")
		c.Abort()
	}
}

// currentActor reads the signed-in user from the session.
func currentActor(c *gin.Context) service.EventActor {
	session := sessions.Default(c)
	actor := service.EventActor{}
	if id, ok := session.Get(sessionUserIDKey).(uint); ok {
		actor.UserID = id
	}
	role, _ := session.Get(sessionRoleKey).(string)
	actor.IsAdmin = role == db.RoleAdmin
	return actor
}
