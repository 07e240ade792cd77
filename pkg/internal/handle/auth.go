package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/types"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// Login 用 API 密钥换取会话令牌.
//
//	@Summary		登录
//	@Description	提交 API 密钥明文，换取带过期时间的会话令牌
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.LoginRequest	true	"登录请求"
//	@Success		200		{object}	types.LoginResponse	"会话令牌"
//	@Failure		400		{object}	map[string]string	"请求参数错误"
//	@Failure		401		{object}	map[string]string	"密钥无效"
//	@Router			/api/v1/auth/login [post]
func Login(c *gin.Context) {
	var req types.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	audit := service.NewAuditService(ctx)

	resp, err := service.NewAuthService(ctx).Login(ctx, req.APIKey)
	if err != nil {
		audit.Record(ctx, "auth.login_failed", "session", "", nil, c.ClientIP(), nil)
		respondError(c, err)

		return
	}

	audit.Record(ctx, "auth.login", "session", "", nil, c.ClientIP(),
		gin.H{"permission": resp.Permission})
	c.JSON(http.StatusOK, resp)
}

// CreateAPIKey 签发新的 API 密钥，明文仅在响应中出现一次.
//
//	@Summary		创建 API 密钥
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.CreateAPIKeyRequest	true	"密钥参数"
//	@Success		201		{object}	types.CreateAPIKeyResponse	"密钥明文与元数据"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Router			/api/v1/keys [post]
//	@Security		BearerAuth
func CreateAPIKey(c *gin.Context) {
	var req types.CreateAPIKeyRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	token := middleware.GetToken(c)

	resp, err := service.NewAuthService(ctx).CreateKey(ctx, &req, token)
	if err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "key.create", "api_key",
		strconv.FormatUint(uint64(resp.APIKey.ID), 10), token, c.ClientIP(),
		gin.H{"name": req.Name, "permission": req.Permission, "app_scope": req.AppScope})
	c.JSON(http.StatusCreated, resp)
}

// ListAPIKeys 列出所有 API 密钥（不含密钥材料）.
//
//	@Summary	API 密钥列表
//	@Tags		认证
//	@Produce	json
//	@Success	200	{object}	types.ListAPIKeysResponse
//	@Router		/api/v1/keys [get]
//	@Security	BearerAuth
func ListAPIKeys(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := service.NewAuthService(ctx).ListKeys(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RevokeAPIKey 吊销 API 密钥.记录保留用于审计追溯.
//
//	@Summary	吊销 API 密钥
//	@Tags		认证
//	@Produce	json
//	@Param		id	path		int					true	"密钥 ID"
//	@Success	200	{object}	map[string]string	"吊销结果"
//	@Failure	404	{object}	map[string]string	"密钥不存在"
//	@Router		/api/v1/keys/{id} [delete]
//	@Security	BearerAuth
func RevokeAPIKey(c *gin.Context) {
	id, parseErr := parseUintParam(c, "id")
	if parseErr != nil {
		respondError(c, parseErr)
		return
	}

	ctx := c.Request.Context()

	if err := service.NewAuthService(ctx).RevokeKey(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "key.revoke", "api_key",
		c.Param("id"), middleware.GetToken(c), c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "key revoked"})
}
