package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/handle"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// RegisterAuthRoutes 注册认证与密钥管理路由.
func RegisterAuthRoutes(g *gin.RouterGroup) {
	g.POST("/auth/login", handle.Login)

	// 密钥管理仅限 admin
	keysRoutes := g.Group("/keys", middleware.RequireAuth(model.PermissionAdmin))
	{
		keysRoutes.POST("", handle.CreateAPIKey)
		keysRoutes.GET("", handle.ListAPIKeys)
		keysRoutes.DELETE("/:id", handle.RevokeAPIKey)
	}
}
