package handle

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ctxPkg "github.com/yeisme/firmvault/pkg/context"
	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/storage/blob"
	"github.com/yeisme/firmvault/pkg/internal/types"
	"github.com/yeisme/firmvault/pkg/log"
	"github.com/yeisme/firmvault/pkg/middleware"
)

// ListVersions 列出应用的全部版本，新版本在前.
//
//	@Summary	版本列表
//	@Tags		版本
//	@Produce	json
//	@Param		appKey	path		string	true	"应用标识"
//	@Success	200		{object}	types.ListVersionsResponse
//	@Failure	404		{object}	map[string]string	"应用不存在"
//	@Router		/api/v1/apps/{appKey}/versions [get]
//	@Security	BearerAuth
func ListVersions(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := service.NewVersionService(ctx).List(ctx, c.Param("appKey"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLatest 返回应用的活跃版本（无显式指针时回退为最近上传的版本）.
// 公开应用允许匿名访问，私有应用要求作用域内的有效令牌.
//
//	@Summary		获取最新版本
//	@Description	返回活跃版本的元数据与各文件的下载链接
//	@Tags			版本
//	@Produce		json
//	@Param			appKey	path		string	true	"应用标识"
//	@Success		200		{object}	types.VersionResponse
//	@Failure		401		{object}	map[string]string	"私有应用未认证"
//	@Failure		403		{object}	map[string]string	"应用不在令牌作用域内"
//	@Failure		404		{object}	map[string]string	"应用或版本不存在"
//	@Router			/api/v1/apps/{appKey}/latest [get]
func GetLatest(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := service.NewVersionService(ctx).Latest(ctx, c.Param("appKey"), middleware.GetToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// spoolUploads 将 multipart 文件落到上传暂存目录，返回待保存清单.
func spoolUploads(c *gin.Context) ([]blob.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errs.Validation("Invalid multipart form").WithCause(err)
	}

	files := form.File["files"]
	if len(files) == 0 {
		return nil, errs.Validation("No files provided")
	}

	tempDir := ctxPkg.GetBlobStore(c.Request.Context()).TempDir()

	uploads := make([]blob.Upload, 0, len(files))
	for _, fh := range files {
		dst := filepath.Join(tempDir, uuid.NewString())
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			removeSpooled(uploads)
			return nil, errs.Storage("Failed to store uploaded file", err)
		}

		uploads = append(uploads, blob.Upload{
			TempPath:     dst,
			OriginalName: fh.Filename,
			Size:         fh.Size,
		})
	}

	return uploads, nil
}

// removeSpooled 尽力清理暂存文件，保存成功的条目已被移走，删除失败交给定期清扫.
func removeSpooled(uploads []blob.Upload) {
	for _, up := range uploads {
		if err := os.Remove(up.TempPath); err != nil && !os.IsNotExist(err) {
			log.Logger().Warn().Err(err).Str("path", up.TempPath).Msg("failed to remove spooled upload")
		}
	}
}

// UploadVersion 上传新版本.表单字段 files 为文件列表，version_name 可选，
// 缺省时按最近版本名自动递增.新版本上传后立即成为活跃版本.
//
//	@Summary		上传版本
//	@Description	multipart 上传一个或多个文件作为一个新版本
//	@Tags			版本
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			appKey			path		string	true	"应用标识"
//	@Param			files			formData	file	true	"版本文件（可多选）"
//	@Param			version_name	formData	string	false	"版本名，缺省自动递增"
//	@Success		201				{object}	types.VersionResponse
//	@Failure		400				{object}	map[string]string	"请求参数错误"
//	@Failure		404				{object}	map[string]string	"应用不存在"
//	@Failure		409				{object}	map[string]string	"版本名已存在"
//	@Router			/api/v1/apps/{appKey}/versions [post]
//	@Security		BearerAuth
func UploadVersion(c *gin.Context) {
	ctx := c.Request.Context()
	appKey := c.Param("appKey")

	uploads, err := spoolUploads(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := service.NewVersionService(ctx).Upload(ctx, appKey, c.PostForm("version_name"), uploads)
	if err != nil {
		removeSpooled(uploads)
		respondError(c, err)

		return
	}

	service.NewAuditService(ctx).Record(ctx, "version.upload", "version",
		fmt.Sprintf("%s/%s", appKey, resp.VersionName),
		middleware.GetToken(c), c.ClientIP(), gin.H{"version_id": resp.ID, "files": len(resp.Files)})
	c.JSON(http.StatusCreated, resp)
}

// SetActiveVersion 将指定历史版本重新设为活跃版本.
//
//	@Summary	切换活跃版本
//	@Tags		版本
//	@Accept		json
//	@Produce	json
//	@Param		appKey	path		string							true	"应用标识"
//	@Param		body	body		types.SetActiveVersionRequest	true	"目标版本"
//	@Success	200		{object}	types.VersionResponse
//	@Failure	404		{object}	map[string]string	"应用或版本不存在"
//	@Router		/api/v1/apps/{appKey}/versions/active [put]
//	@Security	BearerAuth
func SetActiveVersion(c *gin.Context) {
	var req types.SetActiveVersionRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	appKey := c.Param("appKey")

	resp, err := service.NewVersionService(ctx).SetActive(ctx, appKey, req.VersionID)
	if err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "version.activate", "version",
		fmt.Sprintf("%s/%s", appKey, resp.VersionName),
		middleware.GetToken(c), c.ClientIP(), gin.H{"version_id": resp.ID})
	c.JSON(http.StatusOK, resp)
}

// DeleteVersion 删除历史版本.活跃版本受保护，需先切换.
//
//	@Summary	删除版本
//	@Tags		版本
//	@Produce	json
//	@Param		appKey		path		string				true	"应用标识"
//	@Param		versionId	path		int					true	"版本 ID"
//	@Success	200			{object}	map[string]string	"删除结果"
//	@Failure	400			{object}	map[string]string	"不能删除活跃版本"
//	@Failure	404			{object}	map[string]string	"应用或版本不存在"
//	@Router		/api/v1/apps/{appKey}/versions/{versionId} [delete]
//	@Security	BearerAuth
func DeleteVersion(c *gin.Context) {
	versionID, parseErr := parseUintParam(c, "versionId")
	if parseErr != nil {
		respondError(c, parseErr)
		return
	}

	ctx := c.Request.Context()
	appKey := c.Param("appKey")

	if err := service.NewVersionService(ctx).Delete(ctx, appKey, versionID); err != nil {
		respondError(c, err)
		return
	}

	service.NewAuditService(ctx).Record(ctx, "version.delete", "version",
		fmt.Sprintf("%s/%d", appKey, versionID),
		middleware.GetToken(c), c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "version deleted"})
}
