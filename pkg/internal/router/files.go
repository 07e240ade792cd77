package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/handle"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// RegisterFilesRoutes 注册文件下载路由.
// /files 挂在根路径，便于反向代理把静态下载流量与 API 流量分开处理；
// check-file-access 供 nginx auth_request 子请求在代理直接回源文件时做鉴权.
func RegisterFilesRoutes(engine *gin.Engine, api *gin.RouterGroup) {
	filesRoutes := engine.Group("/files", middleware.OptionalAuth())
	{
		filesRoutes.GET("/:appKey/:versionName/:fileName", handle.DownloadFile)
	}

	api.GET("/auth/check-file-access", middleware.OptionalAuth(), handle.CheckFileAccess)
}
