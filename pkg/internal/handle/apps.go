package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/types"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// ListApps 列出调用方作用域内的应用.
//
//	@Summary	应用列表
//	@Tags		应用
//	@Produce	json
//	@Success	200	{object}	types.ListAppsResponse
//	@Router		/api/v1/apps [get]
//	@Security	BearerAuth
func ListApps(c *gin.Context) {
	ctx := c.Request.Context()

	// 受限密钥只能看到其作用域内的应用，admin 与全局密钥看到全部
	var scope []string
	if token := middleware.GetToken(c); token != nil && token.Permission != model.PermissionAdmin {
		scope = token.AppScope
	}

	resp, err := service.NewAppService(ctx).List(ctx, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetApp 返回单个应用信息.
//
//	@Summary	应用详情
//	@Tags		应用
//	@Produce	json
//	@Param		appKey	path		string	true	"应用标识"
//	@Success	200		{object}	types.AppResponse
//	@Failure	404		{object}	map[string]string	"应用不存在"
//	@Router		/api/v1/apps/{appKey} [get]
//	@Security	BearerAuth
func GetApp(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := service.NewAppService(ctx).Get(ctx, c.Param("appKey"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateApp 注册新应用.
//
//	@Summary		注册应用
//	@Description	appKey 全局唯一，只允许小写字母、数字、连字符与下划线
//	@Tags			应用
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.CreateAppRequest	true	"应用参数"
//	@Success		201		{object}	types.AppResponse
//	@Failure		400		{object}	map[string]string	"请求参数错误"
//	@Failure		409		{object}	map[string]string	"appKey 已存在"
//	@Router			/api/v1/apps [post]
//	@Security		BearerAuth
func CreateApp(c *gin.Context) {
	var req types.CreateAppRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	resp, err := service.NewAppService(ctx).Create(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "app.create", "app", resp.AppKey,
		middleware.GetToken(c), c.ClientIP(), gin.H{"name": resp.Name, "is_public": resp.IsPublic})
	c.JSON(http.StatusCreated, resp)
}

// UpdateApp 更新应用的显示名或公开标志.
//
//	@Summary	更新应用
//	@Tags		应用
//	@Accept		json
//	@Produce	json
//	@Param		appKey	path		string					true	"应用标识"
//	@Param		body	body		types.UpdateAppRequest	true	"更新字段"
//	@Success	200		{object}	types.AppResponse
//	@Failure	404		{object}	map[string]string	"应用不存在"
//	@Router		/api/v1/apps/{appKey} [patch]
//	@Security	BearerAuth
func UpdateApp(c *gin.Context) {
	var req types.UpdateAppRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	appKey := c.Param("appKey")

	resp, err := service.NewAppService(ctx).Update(ctx, appKey, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "app.update", "app", appKey,
		middleware.GetToken(c), c.ClientIP(), &req)
	c.JSON(http.StatusOK, resp)
}

// DeleteApp 删除应用及其全部版本与文件.
//
//	@Summary		删除应用
//	@Description	级联删除所有版本与文件记录，磁盘文件随后清理
//	@Tags			应用
//	@Produce		json
//	@Param			appKey	path		string	true	"应用标识"
//	@Success		200		{object}	types.DeleteAppResponse
//	@Failure		404		{object}	map[string]string	"应用不存在"
//	@Router			/api/v1/apps/{appKey} [delete]
//	@Security		BearerAuth
func DeleteApp(c *gin.Context) {
	ctx := c.Request.Context()
	appKey := c.Param("appKey")

	resp, err := service.NewAppService(ctx).Delete(ctx, appKey)
	if err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "app.delete", "app", appKey,
		middleware.GetToken(c), c.ClientIP(), gin.H{"deleted_versions": resp.DeletedVersions})
	c.JSON(http.StatusOK, resp)
}
