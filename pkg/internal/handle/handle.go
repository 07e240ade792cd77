// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/log"
)

// respondError 统一错误输出：业务错误按分类映射状态码，未分类错误按 500 处理.
func respondError(c *gin.Context, err error) {
	if e, ok := errs.As(err); ok {
		body := gin.H{"code": e.Code, "message": e.Message}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}

		c.JSON(errs.HTTPStatus(err), body)

		return
	}

	log.Logger().Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"code": errs.CodeInternal, "message": "Internal server error"})
}

// bindJSON 绑定请求体，失败时返回 400 并输出绑定错误.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeValidation, "message": err.Error()})
		return false
	}

	return true
}

// parseUintParam 解析路径中的数字参数.
func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, errs.Validation("Invalid " + name)
	}

	return uint(v), nil
}
