package handle

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/firmvault/pkg/context"
	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/log"
	"github.com/yeisme/firmvault/pkg/metrics"
	"github.com/yeisme/firmvault/pkg/middleware"
	"github.com/yeisme/firmvault/pkg/queue"
)

// checkDownloadAccess 校验调用方是否可以读取该应用的文件.
// 公开应用对任何人开放，私有应用要求作用域内的有效令牌.
func checkDownloadAccess(c *gin.Context, appKey string) error {
	ctx := c.Request.Context()

	app, err := service.NewAppService(ctx).Get(ctx, appKey)
	if err != nil {
		return err
	}

	if app.IsPublic {
		return nil
	}

	token := middleware.GetToken(c)
	if token == nil {
		return errs.Unauthorized("Authentication required")
	}

	if !service.AppAccessAllowed(token, appKey) {
		return errs.Forbidden("App not in token scope")
	}

	return nil
}

// DownloadFile 下载版本文件.
//
//	@Summary		下载文件
//	@Description	流式返回指定版本中的单个文件
//	@Tags			文件
//	@Produce		octet-stream
//	@Param			appKey		path	string	true	"应用标识"
//	@Param			versionName	path	string	true	"版本名"
//	@Param			fileName	path	string	true	"文件名"
//	@Success		200			{file}	binary
//	@Failure		401			{object}	map[string]string	"私有应用未认证"
//	@Failure		403			{object}	map[string]string	"应用不在令牌作用域内"
//	@Failure		404			{object}	map[string]string	"文件不存在"
//	@Router			/files/{appKey}/{versionName}/{fileName} [get]
func DownloadFile(c *gin.Context) {
	ctx := c.Request.Context()
	appKey := c.Param("appKey")
	versionName := c.Param("versionName")
	fileName := c.Param("fileName")

	if err := checkDownloadAccess(c, appKey); err != nil {
		respondError(c, err)
		return
	}

	rc, size, err := ctxPkg.GetBlobStore(ctx).Open(ctx, appKey, versionName, fileName)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, errs.NotFound("File"))
		} else {
			respondError(c, errs.Storage("Failed to open file", err))
		}

		return
	}
	defer func() { _ = rc.Close() }()

	metrics.FileDownloads.WithLabelValues(appKey).Inc()
	publishFileServed(c, appKey, versionName, fileName)

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", fileName),
	}
	c.DataFromReader(http.StatusOK, size, "application/octet-stream", rc, extraHeaders)
}

// publishFileServed 发布下载事件，失败只记日志.
func publishFileServed(c *gin.Context, appKey, versionName, fileName string) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		return
	}

	pub := mqc.Publisher()
	if pub == nil {
		return
	}

	payload := queue.FileServedPayload{
		Version: queue.VersionRef{
			App:         queue.AppRef{AppKey: appKey},
			VersionName: versionName,
		},
		FileName: fileName,
		ClientIP: c.ClientIP(),
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFileServed, payload)
	if err == nil {
		err = pub.Publish(queue.TopicFileServed, msg)
	}

	if err != nil {
		log.Logger().Warn().Err(err).Str("app", appKey).Msg("failed to publish file served event")
	}
}

// CheckFileAccess 供反向代理 auth_request 子请求使用：根据 X-Original-URI
// 判定原始下载请求是否放行，只返回状态码不返回文件.
// 应用不存在按 401 处理，避免向未认证方泄露 appKey 是否存在.
//
//	@Summary		下载鉴权子请求
//	@Description	解析 X-Original-URI 中的应用标识并校验访问权限
//	@Tags			文件
//	@Param			X-Original-URI	header	string	true	"原始请求路径 /files/{appKey}/..."
//	@Success		200				{object}	map[string]string	"允许访问"
//	@Failure		400				{object}	map[string]string	"缺失 X-Original-URI"
//	@Failure		401				{object}	map[string]string	"路径非法、应用不存在或未认证"
//	@Failure		403				{object}	map[string]string	"应用不在令牌作用域内"
//	@Router			/api/v1/auth/check-file-access [get]
func CheckFileAccess(c *gin.Context) {
	uri := c.GetHeader("X-Original-URI")
	if uri == "" {
		respondError(c, errs.Validation("Missing X-Original-URI header"))
		return
	}

	rest, ok := strings.CutPrefix(uri, "/files/")
	if !ok || rest == "" {
		respondError(c, errs.Unauthorized("Invalid file path"))
		return
	}

	appKey, _, _ := strings.Cut(rest, "/")
	if appKey == "" {
		respondError(c, errs.Unauthorized("Invalid file path"))
		return
	}

	if err := checkDownloadAccess(c, appKey); err != nil {
		if errs.IsCode(err, errs.CodeAppNotFound) {
			respondError(c, errs.Unauthorized("App not found"))
			return
		}

		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}
