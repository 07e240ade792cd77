package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/service"
)

// tokenContextKey 会话令牌在 gin context 中的键.
const tokenContextKey = "sessionToken"

// bearerToken 从 Authorization 头提取 Bearer 令牌.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetToken 从 gin context 取出已验证的会话令牌，未认证请求返回 nil.
func GetToken(c *gin.Context) *service.Token {
	if v, exists := c.Get(tokenContextKey); exists {
		if token, ok := v.(*service.Token); ok {
			return token
		}
	}

	return nil
}

// OptionalAuth 尝试校验令牌但不强制.无效或缺失令牌按匿名处理，
// 公开/私有的判定交给业务层.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			if token, err := service.VerifyToken(raw); err == nil {
				c.Set(tokenContextKey, token)
			}
		}

		c.Next()
	}
}

// RequireAuth 强制认证并要求最低权限等级.缺失/无效令牌返回 401，权限不足返回 403.
func RequireAuth(required model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			e := errs.Unauthorized("")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": e.Code, "message": e.Message})

			return
		}

		token, err := service.VerifyToken(raw)
		if err != nil {
			e, _ := errs.As(err)
			c.AbortWithStatusJSON(errs.HTTPStatus(err), gin.H{"code": e.Code, "message": e.Message})

			return
		}

		if !service.PermissionAtLeast(token.Permission, required) {
			e := errs.Forbidden("")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": e.Code, "message": e.Message})

			return
		}

		c.Set(tokenContextKey, token)
		c.Next()
	}
}

// RequireAppAccess 校验令牌作用域覆盖路径参数中的应用.必须在 RequireAuth 之后使用.
func RequireAppAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := GetToken(c)
		appKey := c.Param(param)

		if !service.AppAccessAllowed(token, appKey) {
			e := errs.Forbidden("API key does not have access to this app")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": e.Code, "message": e.Message})

			return
		}

		c.Next()
	}
}
