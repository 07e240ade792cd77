package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/handle"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// RegisterAuditRoutes 注册审计日志查询路由，仅限 admin.
func RegisterAuditRoutes(g *gin.RouterGroup) {
	g.GET("/audit", middleware.RequireAuth(model.PermissionAdmin), handle.ListAudit)
}
