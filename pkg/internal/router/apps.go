package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/handle"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// RegisterAppsRoutes 注册应用与版本管理路由.
// latest 端点只挂 OptionalAuth：公开应用允许匿名，私有应用的判定在业务层完成.
func RegisterAppsRoutes(g *gin.RouterGroup) {
	appsRoutes := g.Group("/apps")
	{
		appsRoutes.GET("", middleware.RequireAuth(model.PermissionRead), handle.ListApps)
		appsRoutes.POST("", middleware.RequireAuth(model.PermissionWrite), handle.CreateApp)

		// 单个应用操作，appKey 作用域校验在认证之后
		singleGroup := appsRoutes.Group("/:appKey")
		{
			singleGroup.GET("", middleware.RequireAuth(model.PermissionRead), middleware.RequireAppAccess("appKey"), handle.GetApp)
			singleGroup.PATCH("", middleware.RequireAuth(model.PermissionWrite), middleware.RequireAppAccess("appKey"), handle.UpdateApp)
			singleGroup.DELETE("", middleware.RequireAuth(model.PermissionAdmin), middleware.RequireAppAccess("appKey"), handle.DeleteApp)

			singleGroup.GET("/latest", middleware.OptionalAuth(), handle.GetLatest)

			versionGroup := singleGroup.Group("/versions")
			{
				versionGroup.GET("", middleware.RequireAuth(model.PermissionRead), middleware.RequireAppAccess("appKey"), handle.ListVersions)
				versionGroup.POST("", middleware.RequireAuth(model.PermissionWrite), middleware.RequireAppAccess("appKey"), handle.UploadVersion)
				versionGroup.PUT("/active", middleware.RequireAuth(model.PermissionWrite), middleware.RequireAppAccess("appKey"), handle.SetActiveVersion)
				versionGroup.DELETE("/:versionId", middleware.RequireAuth(model.PermissionWrite), middleware.RequireAppAccess("appKey"), handle.DeleteVersion)
			}
		}
	}
}
