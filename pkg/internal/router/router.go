// Package router 管理路由配置，用于设置HTTP服务的路由.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/handle"
)

// RegisterAPIRoutes 将全部业务路由绑定到 /api/v1 分组，
// 文件下载路由独立挂在根路径以便反向代理直接转发.
func RegisterAPIRoutes(engine *gin.Engine) {
	// 探针路由不带认证与版本前缀
	engine.GET("/live", handle.Live)
	engine.GET("/ready", handle.Ready)

	api := engine.Group("/api/v1")

	RegisterAuthRoutes(api)
	RegisterAppsRoutes(api)
	RegisterAuditRoutes(api)
	RegisterStatsRoutes(api)
	RegisterSchedulerRoutes(api)
	RegisterHealthCheckRoute(api)

	RegisterFilesRoutes(engine, api)
}
