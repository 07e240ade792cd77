package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/handle"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// RegisterStatsRoutes 注册统计路由.
func RegisterStatsRoutes(g *gin.RouterGroup) {
	g.GET("/stats", middleware.RequireAuth(model.PermissionRead), handle.GetStats)
}
