package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/blues/antugrow/internal/model"
	"github.com/gin-gonic/gin"
)

// UserIDHeader 上游认证网关写入的用户ID
const UserIDHeader = "X-User-Id"

const sessionKey = "session"

// SessionResolver 按用户ID解析会话
type SessionResolver interface {
	Session(ctx context.Context, userID string) (model.Session, error)
}

// SessionMiddleware 解析请求身份并放入上下文，未携带身份时为匿名会话
func SessionMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		session, err := resolver.Session(c.Request.Context(), userID)
		if err != nil {
			HandleError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireSession 要求已登录
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c).Farmer == nil {
			ErrorResponse(c, http.StatusUnauthorized, "sign in to continue")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) model.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(model.Session); ok {
			return session
		}
	}
	return model.Session{}
}
